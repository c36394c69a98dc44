// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vinovest/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Repository wraps sqlx for database operations.
type Repository struct {
	db *sqlx.DB
}

// New creates a new Repository instance.
func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying sqlx DB for direct access.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// withTx runs fn inside a transaction and commits if fn returns nil.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// UniqueViolation reports whether err is a UNIQUE constraint failure and
// returns the offending column (e.g. "email").
func UniqueViolation(err error) (string, bool) {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return "", false
	}
	// Message format: "UNIQUE constraint failed: accounts.email"
	msg := sqliteErr.Error()
	if i := strings.LastIndex(msg, "."); i >= 0 {
		column := msg[i+1:]
		if j := strings.IndexAny(column, " ,)"); j >= 0 {
			column = column[:j]
		}
		return column, true
	}
	return "", true
}
