// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session

import (
	"context"
	"maps"
	"strconv"
	"time"
)

// AccountIDKey holds the ID of the logged-in account.
const AccountIDKey = "account_id"

// Session is a server-side key/value map identified by a random ID.
// Writes are saved to the store immediately.
type Session struct {
	store     Store
	values    map[string]string
	id        string
	lifetime  time.Duration
	isNew     bool
	changed   bool
	destroyed bool
}

// ID returns the current session ID.
func (s *Session) ID() string {
	return s.id
}

// IsNew reports whether the session has never been saved.
func (s *Session) IsNew() bool {
	return s.isNew
}

// Get returns the value stored under key.
func (s *Session) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Put stores value under key and saves the session.
func (s *Session) Put(ctx context.Context, key, value string) error {
	s.values[key] = value
	return s.save(ctx)
}

// Delete removes key and saves the session. Deleting an absent key is a no-op.
func (s *Session) Delete(ctx context.Context, key string) error {
	if _, ok := s.values[key]; !ok {
		return nil
	}
	delete(s.values, key)
	return s.save(ctx)
}

// AccountID returns the logged-in account ID or 0.
func (s *Session) AccountID() int64 {
	raw, ok := s.values[AccountIDKey]
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (s *Session) save(ctx context.Context) error {
	if err := s.store.Save(ctx, s.id, maps.Clone(s.values), time.Now().Add(s.lifetime)); err != nil {
		return err
	}
	s.isNew = false
	s.changed = true
	s.destroyed = false
	return nil
}
