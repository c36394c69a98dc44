// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository_test

import (
	"context"
	"database/sql"
	"testing"

	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"codeberg.org/oliverandrich/inkwell/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAccount(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	account := &models.Account{Username: "alice", Email: "alice@example.com", PasswordHash: "hash"}
	err := repo.CreateAccount(ctx, account)

	require.NoError(t, err)
	assert.NotZero(t, account.ID)
	assert.NotZero(t, account.CreatedAt)
	assert.True(t, account.IsActive)

	stored, err := repo.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", stored.Username)
	assert.Equal(t, "alice@example.com", stored.Email)
	assert.False(t, stored.IsEmailVerified)
	assert.Nil(t, stored.EmailVerificationCode)
	assert.Nil(t, stored.LastLoginAt)
	assert.True(t, stored.IsActive)
}

func TestCreateAccount_DuplicateUsername(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateAccount(ctx, &models.Account{Username: "alice", Email: "a1@example.com", PasswordHash: "x"}))

	err := repo.CreateAccount(ctx, &models.Account{Username: "alice", Email: "a2@example.com", PasswordHash: "x"})

	require.Error(t, err)
	column, ok := repository.UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "username", column)
}

func TestCreateAccount_DuplicateEmailIgnoresCase(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateAccount(ctx, &models.Account{Username: "alice", Email: "alice@example.com", PasswordHash: "x"}))

	err := repo.CreateAccount(ctx, &models.Account{Username: "bob", Email: "ALICE@example.com", PasswordHash: "x"})

	require.Error(t, err)
	column, ok := repository.UniqueViolation(err)
	assert.True(t, ok)
	assert.Equal(t, "email", column)

	count, err := repo.CountAccounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGetAccountByID_NotFound(t *testing.T) {
	_, repo := testutil.NewTestDB(t)

	_, err := repo.GetAccountByID(context.Background(), 999)

	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetAccountByUsername(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	created := testutil.NewTestAccount(t, repo, "alice")

	retrieved, err := repo.GetAccountByUsername(ctx, "alice")

	require.NoError(t, err)
	assert.Equal(t, created.ID, retrieved.ID)

	_, err = repo.GetAccountByUsername(ctx, "nobody")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUsernameExists(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.NewTestAccount(t, repo, "alice")

	exists, err := repo.UsernameExists(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "ALICE")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.UsernameExists(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateAccount_UsernameUniqueIgnoresCase(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	testutil.NewTestAccount(t, repo, "alice")

	err := repo.CreateAccount(context.Background(), &models.Account{
		Username:     "Alice",
		Email:        "other@example.com",
		PasswordHash: "x",
	})

	column, ok := repository.UniqueViolation(err)
	require.True(t, ok, "expected unique violation, got %v", err)
	assert.Equal(t, "username", column)
}

func TestEmailExists(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	testutil.NewTestAccount(t, repo, "alice")

	exists, err := repo.EmailExists(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.EmailExists(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestTouchLastLogin(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	ctx := context.Background()
	account := testutil.NewTestAccount(t, repo, "alice")

	require.NoError(t, repo.TouchLastLogin(ctx, account.ID))

	stored, err := repo.GetAccountByID(ctx, account.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.LastLoginAt)
	assert.False(t, stored.LastLoginAt.IsZero())
}
