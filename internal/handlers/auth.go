// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/inkwell/internal/htmx"
	"codeberg.org/oliverandrich/inkwell/internal/i18n"
	"codeberg.org/oliverandrich/inkwell/internal/metrics"
	"codeberg.org/oliverandrich/inkwell/internal/services/accounts"
	"codeberg.org/oliverandrich/inkwell/internal/services/email"
	"codeberg.org/oliverandrich/inkwell/internal/services/session"
	"codeberg.org/oliverandrich/inkwell/internal/services/verification"
	"codeberg.org/oliverandrich/inkwell/internal/templates"
	"github.com/labstack/echo/v4"
)

// AuthHandlers contains handlers for registration, email verification and login.
type AuthHandlers struct {
	accounts *accounts.Service
	sessions *session.Manager
	mailer   email.Sender
	metrics  *metrics.Metrics
}

// NewAuth creates a new AuthHandlers instance.
func NewAuth(svc *accounts.Service, sessions *session.Manager, mailer email.Sender, m *metrics.Metrics) *AuthHandlers {
	return &AuthHandlers{
		accounts: svc,
		sessions: sessions,
		mailer:   mailer,
		metrics:  m,
	}
}

// RegisterPage renders the registration form.
func (h *AuthHandlers) RegisterPage(c echo.Context) error {
	return Render(c, http.StatusOK, templates.Register(&templates.RegisterForm{}))
}

// Register creates the account, logs it in, stores a verification code in
// the session and mails the code. Invalid input re-renders the form.
func (h *AuthHandlers) Register(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	params := accounts.RegisterParams{
		Username:  c.FormValue("username"),
		Email:     c.FormValue("email"),
		Password1: c.FormValue("password1"),
		Password2: c.FormValue("password2"),
	}

	account, err := h.accounts.Register(ctx, params)
	if err != nil {
		var formErr *accounts.FormError
		if errors.As(err, &formErr) {
			h.metrics.Registration(metrics.ResultInvalid)
			return Render(c, http.StatusOK, templates.Register(&templates.RegisterForm{
				Username: params.Username,
				Email:    params.Email,
				Errors:   formErr.Fields,
			}))
		}
		h.metrics.Registration(metrics.ResultError)
		return err
	}
	h.metrics.Registration(metrics.ResultSuccess)

	if err := h.sessions.Login(ctx, sess, account.ID); err != nil {
		return fmt.Errorf("logging in new account: %w", err)
	}

	code, err := verification.Issue(ctx, sess)
	if err != nil {
		return err
	}

	// Delivery failures are not recovered: the account and session stay.
	if err := email.SendVerificationCode(ctx, h.mailer, account.Email, code); err != nil {
		h.metrics.Email(metrics.ResultError)
		return fmt.Errorf("sending verification code to account %d: %w", account.ID, err)
	}
	h.metrics.Email(metrics.ResultSuccess)

	slog.InfoContext(ctx, "verification_code_sent", "account_id", account.ID)

	return htmx.Redirect(c, "/verify-email")
}

// VerifyEmailPage renders the verification form.
func (h *AuthHandlers) VerifyEmailPage(c echo.Context) error {
	return Render(c, http.StatusOK, templates.VerifyEmail())
}

// VerifyEmail compares the submitted code with the one in the session.
// A match clears the code and redirects to the post list; a mismatch
// answers with a plain-text message and leaves the code in place.
func (h *AuthHandlers) VerifyEmail(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	ok, err := verification.Check(ctx, sess, c.FormValue("verification_code"))
	if err != nil {
		return err
	}

	if !ok {
		h.metrics.Verification(metrics.ResultMismatch)
		slog.InfoContext(ctx, "verification_failed", "account_id", sess.AccountID())
		return c.String(http.StatusOK, i18n.T(ctx, "verify_incorrect"))
	}

	h.metrics.Verification(metrics.ResultMatch)
	slog.InfoContext(ctx, "verification_success", "account_id", sess.AccountID())
	return htmx.Redirect(c, "/")
}

// LoginPage renders the login form.
func (h *AuthHandlers) LoginPage(c echo.Context) error {
	return Render(c, http.StatusOK, templates.Login(&templates.LoginForm{Next: c.QueryParam("next")}))
}

// Login authenticates the account and binds it to a renewed session.
func (h *AuthHandlers) Login(c echo.Context) error {
	ctx := c.Request().Context()

	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	username := c.FormValue("username")
	next := c.FormValue("next")

	account, err := h.accounts.Authenticate(ctx, username, c.FormValue("password"))
	if err != nil {
		if errors.Is(err, accounts.ErrInvalidCredentials) {
			h.metrics.Login(metrics.ResultInvalid)
			return Render(c, http.StatusOK, templates.Login(&templates.LoginForm{
				Username: username,
				Next:     next,
				Invalid:  true,
			}))
		}
		h.metrics.Login(metrics.ResultError)
		return err
	}

	if err := h.sessions.Login(ctx, sess, account.ID); err != nil {
		return fmt.Errorf("logging in account %d: %w", account.ID, err)
	}
	h.metrics.Login(metrics.ResultSuccess)

	return htmx.Redirect(c, safeNext(next))
}

// Logout destroys the session.
func (h *AuthHandlers) Logout(c echo.Context) error {
	sess, err := currentSession(c)
	if err != nil {
		return err
	}

	if err := h.sessions.Destroy(c.Request().Context(), sess); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}

	return htmx.Redirect(c, "/")
}
