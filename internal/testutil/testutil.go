// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/database"
	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// TestPassword is the plaintext password of accounts created by NewTestAccount.
const TestPassword = "correct-horse-battery"

// TestHashKey is a valid 32-byte hex session key.
const TestHashKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// NewTestAccount creates a test account with TestPassword.
func NewTestAccount(t *testing.T, repo *repository.Repository, username string) *models.Account {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)

	account := &models.Account{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
	}
	require.NoError(t, repo.CreateAccount(context.Background(), account))
	return account
}

// NewTestPost creates a post authored by authorID at the given time.
func NewTestPost(t *testing.T, repo *repository.Repository, authorID int64, title string, status models.PostStatus, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{
		Title:     title,
		Content:   "Content of " + title,
		AuthorID:  authorID,
		Status:    status,
		CreatedAt: createdAt.UTC(),
	}
	require.NoError(t, repo.CreatePost(context.Background(), post, nil, nil))
	return post
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewFormRequest creates a form-encoded POST request.
func NewFormRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return req
}
