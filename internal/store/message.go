// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"corpsite/internal/models"
)

const messageColumns = `id, name, email, phone, company, subject, message, is_read, is_archived,
	ip_address, user_agent, created_at`

// MessageStore is the contact-form inbox.
type MessageStore struct {
	db *sql.DB
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(db *sql.DB) *MessageStore {
	return &MessageStore{db: db}
}

func scanMessage(row scanner) (*models.ContactMessage, error) {
	var m models.ContactMessage
	err := row.Scan(
		&m.ID, &m.Name, &m.Email, &m.Phone, &m.Company, &m.Subject, &m.Message, &m.IsRead, &m.IsArchived,
		&m.IPAddress, &m.UserAgent, &m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create stores a submitted contact message.
func (s *MessageStore) Create(ctx context.Context, m *models.ContactMessage) (*models.ContactMessage, error) {
	created, err := scanMessage(s.db.QueryRowContext(ctx, `
		INSERT INTO contact_messages (name, email, phone, company, subject, message, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+messageColumns,
		m.Name, m.Email, m.Phone, m.Company, m.Subject, m.Message, m.IPAddress, m.UserAgent))
	if err != nil {
		return nil, fmt.Errorf("create contact message: %w", err)
	}
	return created, nil
}

// List returns messages matching the filter, newest first, with the total
// number of matches. Archived messages are listed only when the filter asks
// for them, and then exclusively.
func (s *MessageStore) List(ctx context.Context, f models.MessageFilter) ([]models.ContactMessage, int, error) {
	limit, offset := page(f.Limit, f.Offset)
	where := ` WHERE is_archived = $1 AND (NOT $2 OR NOT is_read)`

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages`+where,
		f.Archived, f.Unread).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count contact messages: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM contact_messages`+where+`
		ORDER BY created_at DESC, id DESC LIMIT $3 OFFSET $4`,
		f.Archived, f.Unread, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list contact messages: %w", err)
	}
	defer rows.Close()

	var msgs []models.ContactMessage
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan contact message: %w", err)
		}
		msgs = append(msgs, *m)
	}
	return msgs, total, rows.Err()
}

// FindByID returns a message by ID, or nil if not found.
func (s *MessageStore) FindByID(ctx context.Context, id int64) (*models.ContactMessage, error) {
	m, err := scanMessage(s.db.QueryRowContext(ctx,
		`SELECT `+messageColumns+` FROM contact_messages WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find contact message: %w", err)
	}
	return m, nil
}

// SetRead marks a message read or unread.
func (s *MessageStore) SetRead(ctx context.Context, id int64, read bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE contact_messages SET is_read = $1 WHERE id = $2`, read, id)
	if err != nil {
		return fmt.Errorf("set message read: %w", err)
	}
	return expectOne(res)
}

// SetArchived moves a message into or out of the archive.
func (s *MessageStore) SetArchived(ctx context.Context, id int64, archived bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE contact_messages SET is_archived = $1 WHERE id = $2`, archived, id)
	if err != nil {
		return fmt.Errorf("set message archived: %w", err)
	}
	return expectOne(res)
}

// Delete removes a message.
func (s *MessageStore) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete contact message: %w", err)
	}
	return expectOne(res)
}

// CountUnread returns the number of unread messages outside the archive.
func (s *MessageStore) CountUnread(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM contact_messages WHERE NOT is_read AND NOT is_archived`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return n, nil
}
