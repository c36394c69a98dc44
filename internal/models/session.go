// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// SessionRecord is a persisted server-side session. Data holds a JSON object.
type SessionRecord struct {
	ID        string    `db:"id"`
	Data      string    `db:"data"`
	ExpiresAt time.Time `db:"expires_at"`
}
