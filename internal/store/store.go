// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all site entities.
// Each store struct wraps a *sql.DB and exposes typed query methods.
// Lookups return (nil, nil) when the row does not exist.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound is returned by updates and deletes that matched no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update collides with a unique
// constraint (slug, email, preview token).
var ErrDuplicate = errors.New("duplicate value")

// ErrInUse is returned when a delete is blocked by rows that still
// reference the target (a user who authored posts or uploaded media).
var ErrInUse = errors.New("still referenced")

// DuplicateError names the constraint that was violated. It matches
// ErrDuplicate via errors.Is.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate value violates %s", e.Constraint)
}

func (e *DuplicateError) Is(target error) bool { return target == ErrDuplicate }

// Field guesses the offending column from the constraint name
// (posts_slug_key -> slug).
func (e *DuplicateError) Field() string {
	name := strings.TrimSuffix(e.Constraint, "_key")
	if i := strings.LastIndex(name, "_"); i >= 0 && i+1 < len(name) {
		if strings.HasSuffix(name, "preview_token") {
			return "preview_token"
		}
		return name[i+1:]
	}
	return name
}

// ReferenceError reports a write that named a row which does not exist,
// such as an unknown category id or featured media id.
type ReferenceError struct {
	Table      string
	Constraint string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference violates %s", e.Constraint)
}

// Field names the request field that carried the dangling id. Join-table
// columns map to their list field (post_categories.category_id ->
// category_ids).
func (e *ReferenceError) Field() string {
	col := strings.TrimSuffix(e.Constraint, "_fkey")
	col = strings.TrimPrefix(col, e.Table+"_")
	switch e.Table {
	case "post_categories", "post_tags":
		return col + "s"
	}
	return col
}

// mapErr turns unique violations into *DuplicateError and foreign-key
// violations on insert or update into *ReferenceError. Every other error is
// left untouched.
func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return &DuplicateError{Constraint: pgErr.ConstraintName}
	case "23503":
		return &ReferenceError{Table: pgErr.TableName, Constraint: pgErr.ConstraintName}
	}
	return err
}

// mapDeleteErr turns restricting foreign keys into ErrInUse.
func mapDeleteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return ErrInUse
	}
	return err
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// execer is satisfied by *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn inside a transaction, committing on success.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// expectOne reports ErrNotFound when an UPDATE or DELETE matched nothing.
func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// page clamps list pagination to sane bounds.
func page(limit, offset int) (int, int) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
