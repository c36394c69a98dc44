// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/models"
)

// CreateAccount inserts a new account and fills in ID and timestamps.
func (r *Repository) CreateAccount(ctx context.Context, account *models.Account) error {
	now := time.Now().UTC()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.IsActive = true

	res, err := r.db.NamedExecContext(ctx,
		`INSERT INTO accounts (username, email, password_hash, is_email_verified, email_verification_code, is_active, created_at, updated_at)
		 VALUES (:username, :email, :password_hash, :is_email_verified, :email_verification_code, :is_active, :created_at, :updated_at)`,
		account)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	account.ID = id
	return nil
}

// GetAccountByID retrieves an account by ID.
func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	var account models.Account
	if err := r.db.GetContext(ctx, &account, `SELECT * FROM accounts WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccountByUsername retrieves an account by its exact username.
func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := r.db.GetContext(ctx, &account, `SELECT * FROM accounts WHERE username = ?`, username); err != nil {
		return nil, err
	}
	return &account, nil
}

// UsernameExists checks case-insensitively if an account uses the given username.
func (r *Repository) UsernameExists(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM accounts WHERE username = ? COLLATE NOCASE`, username); err != nil {
		return false, err
	}
	return count > 0, nil
}

// EmailExists checks case-insensitively if an account uses the given email.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM accounts WHERE email = ? COLLATE NOCASE`, email); err != nil {
		return false, err
	}
	return count > 0, nil
}

// TouchLastLogin records a successful login.
func (r *Repository) TouchLastLogin(ctx context.Context, id int64) error {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `UPDATE accounts SET last_login_at = ?, updated_at = ? WHERE id = ?`, now, now, id)
	return err
}

// CountAccounts returns the total number of accounts.
func (r *Repository) CountAccounts(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM accounts`); err != nil {
		return 0, err
	}
	return count, nil
}
