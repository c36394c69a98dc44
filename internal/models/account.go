// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import "time"

// Account is a registered site user. Identity and email-verification
// fields live side by side.
type Account struct { //nolint:govet // fieldalignment: readability over optimization
	ID                    int64      `db:"id" json:"id"`
	Username              string     `db:"username" json:"username"`
	Email                 string     `db:"email" json:"email"`
	PasswordHash          string     `db:"password_hash" json:"-"`
	IsEmailVerified       bool       `db:"is_email_verified" json:"is_email_verified"`
	EmailVerificationCode *string    `db:"email_verification_code" json:"-"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	LastLoginAt           *time.Time `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// VerificationPending reports whether a code is recorded on the account itself.
func (a *Account) VerificationPending() bool {
	return a.EmailVerificationCode != nil && *a.EmailVerificationCode != ""
}
