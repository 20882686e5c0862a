// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"corpsite/internal/models"
)

// postColumns lists all columns for posts SELECTs, joined with the author.
const postColumns = `p.id, p.title, p.slug, p.body, p.body_format, p.excerpt,
	p.featured_media_id, p.status, p.scheduled_at, p.published_at,
	p.preview_token, p.preview_expires, p.meta_title, p.meta_description,
	p.author_id, p.created_at, p.updated_at, COALESCE(u.name, '')`

const postFrom = ` FROM posts p LEFT JOIN users u ON u.id = p.author_id`

// publicPredicate is the visibility rule for anonymous readers. It is always
// evaluated against the caller's clock at query time.
const publicPredicate = `p.status = 'published' AND p.published_at IS NOT NULL AND p.published_at <= `

// PostStore handles all post-related database operations.
type PostStore struct {
	db *sql.DB
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

func scanPost(row scanner) (*models.Post, error) {
	var p models.Post
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Body, &p.BodyFormat, &p.Excerpt,
		&p.FeaturedMediaID, &p.Status, &p.ScheduledAt, &p.PublishedAt,
		&p.PreviewToken, &p.PreviewExpires, &p.MetaTitle, &p.MetaDescription,
		&p.AuthorID, &p.CreatedAt, &p.UpdatedAt, &p.AuthorName,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// postQuery accumulates WHERE clauses and positional arguments. Every "?"
// in a clause refers to that clause's single argument.
type postQuery struct {
	where []string
	args  []any
}

func (q *postQuery) add(clause string, arg any) {
	q.args = append(q.args, arg)
	q.where = append(q.where, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(q.args))))
}

func (q *postQuery) sql() string {
	if len(q.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(q.where, " AND ")
}

func filterQuery(f models.PostFilter) *postQuery {
	q := &postQuery{}
	if f.Status != "" {
		q.add("p.status = ?", f.Status)
	}
	if f.CategorySlug != "" {
		q.add(`EXISTS (SELECT 1 FROM post_categories pc JOIN categories c ON c.id = pc.category_id
			WHERE pc.post_id = p.id AND c.slug = ?)`, f.CategorySlug)
	}
	if f.TagSlug != "" {
		q.add(`EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.slug = ?)`, f.TagSlug)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.add("(p.title ILIKE ? OR p.excerpt ILIKE ?)", "%"+escapeLike(s)+"%")
	}
	return q
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns posts for the admin panel, most recently edited first,
// together with the total number of matches.
func (s *PostStore) List(ctx context.Context, f models.PostFilter) ([]models.Post, int, error) {
	return s.list(ctx, filterQuery(f), f, "p.updated_at DESC, p.id DESC")
}

// ListPublic returns posts visible to anonymous readers at now, newest
// publication first, together with the total number of matches. The status
// field of the filter is ignored.
func (s *PostStore) ListPublic(ctx context.Context, f models.PostFilter, now time.Time) ([]models.Post, int, error) {
	f.Status = ""
	q := filterQuery(f)
	q.add(publicPredicate+"?", now)
	return s.list(ctx, q, f, "p.published_at DESC, p.id DESC")
}

func (s *PostStore) list(ctx context.Context, q *postQuery, f models.PostFilter, order string) ([]models.Post, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+q.sql(), q.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count posts: %w", err)
	}

	limit, offset := page(f.Limit, f.Offset)
	args := append(append([]any{}, q.args...), limit, offset)
	n := len(q.args)

	rows, err := s.db.QueryContext(ctx, `SELECT `+postColumns+postFrom+q.sql()+
		` ORDER BY `+order+
		` LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}

	if err := loadRelations(ctx, s.db, posts); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// FindByID retrieves a post with its categories and tags. Returns nil if not found.
func (s *PostStore) FindByID(ctx context.Context, id int64) (*models.Post, error) {
	return s.findOne(ctx, "find post by id", `p.id = $1`, id)
}

// FindPublicBySlug retrieves a post by slug only if it is visible to
// anonymous readers at now. Returns nil otherwise.
func (s *PostStore) FindPublicBySlug(ctx context.Context, slug string, now time.Time) (*models.Post, error) {
	return s.findOne(ctx, "find public post", `p.slug = $1 AND `+publicPredicate+`$2`, slug, now)
}

// FindBySlug retrieves a post by slug regardless of status. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.findOne(ctx, "find post by slug", `p.slug = $1`, slug)
}

// FindByPreviewToken retrieves the post currently holding token, whatever
// its status or expiry. Returns nil if no post holds it.
func (s *PostStore) FindByPreviewToken(ctx context.Context, token string) (*models.Post, error) {
	return s.findOne(ctx, "find post by preview token", `p.preview_token = $1`, token)
}

func (s *PostStore) findOne(ctx context.Context, op, where string, args ...any) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, `SELECT `+postColumns+postFrom+` WHERE `+where, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	posts := []models.Post{*p}
	if err := loadRelations(ctx, s.db, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// Create inserts a new post with its category and tag memberships in one
// transaction. A taken slug yields an error matching ErrDuplicate.
func (s *PostStore) Create(ctx context.Context, p *models.Post, categoryIDs, tagIDs []int64) (*models.Post, error) {
	var id int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO posts (title, slug, body, body_format, excerpt, featured_media_id,
			                   status, scheduled_at, published_at, meta_title, meta_description, author_id)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			RETURNING id
		`, p.Title, p.Slug, p.Body, p.BodyFormat, p.Excerpt, p.FeaturedMediaID,
			p.Status, p.ScheduledAt, p.PublishedAt, p.MetaTitle, p.MetaDescription, p.AuthorID,
		).Scan(&id)
		if err != nil {
			return fmt.Errorf("create post: %w", mapErr(err))
		}
		return setRelations(ctx, tx, id, categoryIDs, tagIDs)
	})
	if err != nil {
		return nil, err
	}
	return s.FindByID(ctx, id)
}

// Update writes the editable fields, status and memberships of p. Passing
// nil categoryIDs or tagIDs leaves that membership untouched.
func (s *PostStore) Update(ctx context.Context, p *models.Post, categoryIDs, tagIDs []int64) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := updatePost(ctx, tx, p); err != nil {
			return err
		}
		return setRelations(ctx, tx, p.ID, categoryIDs, tagIDs)
	})
}

// UpdateWithVersion appends v to the post's history and applies the update
// in the same transaction, so a version never exists for a save that did
// not happen.
func (s *PostStore) UpdateWithVersion(ctx context.Context, p *models.Post, categoryIDs, tagIDs []int64, v *models.PostVersion) error {
	return withTx(ctx, s.db, func(tx *sql.Tx) error {
		if err := insertVersion(ctx, tx, v); err != nil {
			return err
		}
		if err := updatePost(ctx, tx, p); err != nil {
			return err
		}
		return setRelations(ctx, tx, p.ID, categoryIDs, tagIDs)
	})
}

func updatePost(ctx context.Context, q execer, p *models.Post) error {
	res, err := q.ExecContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, body = $3, body_format = $4, excerpt = $5,
			featured_media_id = $6, status = $7, scheduled_at = $8, published_at = $9,
			meta_title = $10, meta_description = $11, updated_at = NOW()
		WHERE id = $12
	`, p.Title, p.Slug, p.Body, p.BodyFormat, p.Excerpt,
		p.FeaturedMediaID, p.Status, p.ScheduledAt, p.PublishedAt,
		p.MetaTitle, p.MetaDescription, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", mapErr(err))
	}
	return expectOne(res)
}

// Delete removes a post. Memberships and versions cascade.
func (s *PostStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectOne(res)
}

// SetPreviewToken attaches a preview token to the post, replacing any
// previous one.
func (s *PostStore) SetPreviewToken(ctx context.Context, id int64, token string, expires time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET preview_token = $1, preview_expires = $2 WHERE id = $3
	`, token, expires, id)
	if err != nil {
		return fmt.Errorf("set preview token: %w", mapErr(err))
	}
	return expectOne(res)
}

// ClearPreviewToken detaches the post's preview token.
func (s *PostStore) ClearPreviewToken(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE posts SET preview_token = NULL, preview_expires = NULL WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("clear preview token: %w", err)
	}
	return expectOne(res)
}

// PublishDue promotes every scheduled post whose time has come, in one
// statement, and returns the promoted ids. The publication time is the
// scheduled time.
func (s *PostStore) PublishDue(ctx context.Context, now time.Time) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		UPDATE posts SET
			status = 'published',
			published_at = COALESCE(published_at, scheduled_at),
			updated_at = NOW()
		WHERE status = 'scheduled' AND scheduled_at IS NOT NULL AND scheduled_at <= $1
		RETURNING id
	`, now)
	if err != nil {
		return nil, fmt.Errorf("publish due posts: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan published id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountByStatus returns the number of posts in each status.
func (s *PostStore) CountByStatus(ctx context.Context) (map[models.PostStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM posts GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count posts by status: %w", err)
	}
	defer rows.Close()

	counts := map[models.PostStatus]int{
		models.PostStatusDraft:     0,
		models.PostStatusScheduled: 0,
		models.PostStatusPublished: 0,
		models.PostStatusArchived:  0,
	}
	for rows.Next() {
		var status models.PostStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan post count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// setRelations replaces the memberships of a post. A nil slice means
// "leave as is", an empty slice clears them. Category sort orders of
// memberships that survive are kept.
func setRelations(ctx context.Context, tx *sql.Tx, postID int64, categoryIDs, tagIDs []int64) error {
	if categoryIDs != nil {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM post_categories WHERE post_id = $1 AND NOT (category_id = ANY($2))
		`, postID, categoryIDs); err != nil {
			return fmt.Errorf("prune post categories: %w", err)
		}
		for _, cid := range categoryIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO post_categories (post_id, category_id, sort_order)
				VALUES ($1, $2, COALESCE((SELECT MAX(sort_order) + 1 FROM post_categories WHERE category_id = $2), 0))
				ON CONFLICT (post_id, category_id) DO NOTHING
			`, postID, cid); err != nil {
				return fmt.Errorf("add post category %d: %w", cid, mapErr(err))
			}
		}
	}

	if tagIDs != nil {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM post_tags WHERE post_id = $1 AND NOT (tag_id = ANY($2))
		`, postID, tagIDs); err != nil {
			return fmt.Errorf("prune post tags: %w", err)
		}
		for _, tid := range tagIDs {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
				ON CONFLICT (post_id, tag_id) DO NOTHING
			`, postID, tid); err != nil {
				return fmt.Errorf("add post tag %d: %w", tid, mapErr(err))
			}
		}
	}
	return nil
}

// loadRelations fills Categories and Tags for every post in two queries.
func loadRelations(ctx context.Context, q execer, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	index := make(map[int64]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = i
	}

	rows, err := q.QueryContext(ctx, `
		SELECT pc.post_id, c.id, c.name, c.slug, pc.sort_order
		FROM post_categories pc JOIN categories c ON c.id = pc.category_id
		WHERE pc.post_id = ANY($1)
		ORDER BY c.sort_order, c.name
	`, ids)
	if err != nil {
		return fmt.Errorf("load post categories: %w", err)
	}
	for rows.Next() {
		var postID int64
		var pc models.PostCategory
		if err := rows.Scan(&postID, &pc.CategoryID, &pc.Name, &pc.Slug, &pc.SortOrder); err != nil {
			rows.Close()
			return fmt.Errorf("scan post category: %w", err)
		}
		i := index[postID]
		posts[i].Categories = append(posts[i].Categories, pc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("load post categories: %w", err)
	}

	rows, err = q.QueryContext(ctx, `
		SELECT pt.post_id, t.id, t.name, t.slug, t.created_at
		FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
		WHERE pt.post_id = ANY($1)
		ORDER BY t.name
	`, ids)
	if err != nil {
		return fmt.Errorf("load post tags: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var postID int64
		var t models.Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug, &t.CreatedAt); err != nil {
			return fmt.Errorf("scan post tag: %w", err)
		}
		i := index[postID]
		posts[i].Tags = append(posts[i].Tags, t)
	}
	return rows.Err()
}
