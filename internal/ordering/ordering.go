// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package ordering persists drag-and-drop reorderings of sortable lists
// (FAQs, categories, references) as one batch, and falls back to the
// store's own order whenever the batch fails.
package ordering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrResync is matched (via errors.Is) by the error Reorder returns when the
// batch failed and the list was reloaded from the store. The returned items
// are then server truth and must replace whatever order the client shows.
var ErrResync = errors.New("reorder failed, list reloaded")

// Position assigns a sort order to one item.
type Position struct {
	ID        int64 `json:"id"`
	SortOrder int   `json:"sort_order"`
}

// Repository is a sortable list in the content store.
type Repository[T any] interface {
	// ApplyOrder writes every position. Implementations should do so
	// atomically; callers tolerate partial application.
	ApplyOrder(ctx context.Context, positions []Position) error
	// List returns the items in their stored order.
	List(ctx context.Context) ([]T, error)
}

// ValidationError reports a malformed reorder request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return "invalid reorder: " + e.Reason }

// Plan turns the ids in their new display order into positions: the first
// id gets sort order 0, the next 1, and so on. A partial list only reorders
// the ids it names, relative to each other.
func Plan(ids []int64) ([]Position, error) {
	if len(ids) == 0 {
		return nil, &ValidationError{Reason: "no ids given"}
	}
	seen := make(map[int64]bool, len(ids))
	positions := make([]Position, 0, len(ids))
	for i, id := range ids {
		if id <= 0 {
			return nil, &ValidationError{Reason: fmt.Sprintf("invalid id %d", id)}
		}
		if seen[id] {
			return nil, &ValidationError{Reason: fmt.Sprintf("id %d listed twice", id)}
		}
		seen[id] = true
		positions = append(positions, Position{ID: id, SortOrder: i})
	}
	return positions, nil
}

// resyncError carries the cause of a failed batch alongside ErrResync.
type resyncError struct {
	cause error
}

func (e *resyncError) Error() string { return fmt.Sprintf("%s: %v", ErrResync, e.cause) }

func (e *resyncError) Unwrap() []error { return []error{ErrResync, e.cause} }

// Reorder persists the new order of ids and returns the list as stored
// afterwards. If the batch fails, the list is reloaded and returned together
// with an error matching ErrResync. If the reload fails too, no list is
// returned.
func Reorder[T any](ctx context.Context, repo Repository[T], ids []int64) ([]T, error) {
	positions, err := Plan(ids)
	if err != nil {
		return nil, err
	}

	if applyErr := repo.ApplyOrder(ctx, positions); applyErr != nil {
		slog.Warn("reorder batch failed, reloading", "error", applyErr, "items", len(positions))

		items, err := repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("reload after failed reorder: %w", errors.Join(applyErr, err))
		}
		return items, &resyncError{cause: applyErr}
	}

	items, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list after reorder: %w", err)
	}
	return items, nil
}
