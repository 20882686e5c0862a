// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package autosave keeps scratch copies of in-progress post edits in Valkey.
// A scratch copy is independent of the stored post: it is never read by
// the public site and is discarded when the editor saves for real.
//
// Writes from one editor can arrive out of order. Every write carries a
// client sequence number and the write with the highest sequence wins;
// anything at or below the stored sequence is rejected with ErrStale.
package autosave

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"corpsite/internal/models"
)

// DefaultTTL is how long an untouched scratch copy is kept.
const DefaultTTL = 72 * time.Hour

const keyPrefix = "autosave:"

// ErrStale is returned when a write carries a sequence number that is not
// newer than the stored one.
var ErrStale = errors.New("autosave: stale write")

// Draft is the scratch copy of a post being edited.
type Draft struct {
	Seq             int64             `json:"seq"`
	Title           string            `json:"title"`
	Slug            string            `json:"slug"`
	Body            string            `json:"body"`
	BodyFormat      models.BodyFormat `json:"body_format"`
	Excerpt         *string           `json:"excerpt,omitempty"`
	MetaTitle       *string           `json:"meta_title,omitempty"`
	MetaDescription *string           `json:"meta_description,omitempty"`
	SavedAt         time.Time         `json:"saved_at"`
}

// casScript stores ARGV[2] under KEYS[1] only if ARGV[1] is greater than
// the stored sequence, and refreshes the TTL (ARGV[3], milliseconds).
var casScript = redis.NewScript(`
local cur = redis.call('HGET', KEYS[1], 'seq')
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
	return 0
end
redis.call('HSET', KEYS[1], 'seq', ARGV[1], 'data', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[3])
return 1
`)

// Store manages scratch copies in Valkey.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// NewStore creates an autosave store. A non-positive ttl selects DefaultTTL.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{client: client, ttl: ttl, now: time.Now}
}

// key addresses the scratch copy of one user for one post. postID 0 is the
// not-yet-created post.
func key(userID, postID int64) string {
	ref := "new"
	if postID > 0 {
		ref = strconv.FormatInt(postID, 10)
	}
	return keyPrefix + strconv.FormatInt(userID, 10) + ":" + ref
}

// Save stores d unless a write with the same or a higher sequence is
// already stored, in which case it returns ErrStale.
func (s *Store) Save(ctx context.Context, userID, postID int64, d *Draft) error {
	if d.Seq <= 0 {
		return fmt.Errorf("autosave: sequence must be positive")
	}
	d.SavedAt = s.now().UTC()
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("autosave marshal: %w", err)
	}

	ok, err := casScript.Run(ctx, s.client, []string{key(userID, postID)},
		d.Seq, payload, s.ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("autosave save: %w", err)
	}
	if ok == 0 {
		return ErrStale
	}
	return nil
}

// Load returns the scratch copy, or nil if there is none.
func (s *Store) Load(ctx context.Context, userID, postID int64) (*Draft, error) {
	payload, err := s.client.HGet(ctx, key(userID, postID), "data").Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("autosave load: %w", err)
	}
	var d Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("autosave unmarshal: %w", err)
	}
	return &d, nil
}

// Discard removes the scratch copy. Discarding a missing copy is not an error.
func (s *Store) Discard(ctx context.Context, userID, postID int64) error {
	if err := s.client.Del(ctx, key(userID, postID)).Err(); err != nil {
		return fmt.Errorf("autosave discard: %w", err)
	}
	return nil
}
