// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/models"
)

// GetSession retrieves an unexpired session record.
func (r *Repository) GetSession(ctx context.Context, id string) (*models.SessionRecord, error) {
	var rec models.SessionRecord
	err := r.db.GetContext(ctx, &rec, `SELECT * FROM sessions WHERE id = ? AND expires_at > ?`, id, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveSession inserts or replaces a session record.
func (r *Repository) SaveSession(ctx context.Context, rec *models.SessionRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, data, expires_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET data = excluded.data, expires_at = excluded.expires_at`,
		rec.ID, rec.Data, rec.ExpiresAt.UTC())
	return err
}

// DeleteSession removes a session record. Deleting a missing session is not an error.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

// DeleteExpiredSessions removes expired session records and returns how many were deleted.
func (r *Repository) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
