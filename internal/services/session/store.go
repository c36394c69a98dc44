// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
)

// ErrNotFound is returned by a Store when no live session exists for an ID.
var ErrNotFound = errors.New("session not found")

// Store persists session values keyed by session ID.
type Store interface {
	Load(ctx context.Context, id string) (map[string]string, error)
	Save(ctx context.Context, id string, values map[string]string, expiresAt time.Time) error
	Delete(ctx context.Context, id string) error
}

// SQLStore keeps sessions in the sessions table.
type SQLStore struct {
	repo *repository.Repository
}

// NewSQLStore creates a store backed by the application database.
func NewSQLStore(repo *repository.Repository) *SQLStore {
	return &SQLStore{repo: repo}
}

func (s *SQLStore) Load(ctx context.Context, id string) (map[string]string, error) {
	rec, err := s.repo.GetSession(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	values := make(map[string]string)
	if err := json.Unmarshal([]byte(rec.Data), &values); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	return values, nil
}

func (s *SQLStore) Save(ctx context.Context, id string, values map[string]string, expiresAt time.Time) error {
	data, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}
	return s.repo.SaveSession(ctx, &models.SessionRecord{ID: id, Data: string(data), ExpiresAt: expiresAt})
}

func (s *SQLStore) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// PurgeExpired removes expired sessions and returns how many were removed.
func (s *SQLStore) PurgeExpired(ctx context.Context) (int64, error) {
	return s.repo.DeleteExpiredSessions(ctx)
}
