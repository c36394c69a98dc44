// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"codeberg.org/oliverandrich/inkwell/internal/config"
	"codeberg.org/oliverandrich/inkwell/internal/i18n"
	"codeberg.org/oliverandrich/inkwell/internal/services/email"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func validSMTPConfig() *config.SMTPConfig {
	return &config.SMTPConfig{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "testuser",
		Password: "testpass",
		From:     "noreply@example.com",
		FromName: "Test App",
		TLS:      true,
	}
}

type recordingSender struct {
	to, subject, body string
}

func (r *recordingSender) Send(_ context.Context, to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	return nil
}

func TestNewSMTPSender(t *testing.T) {
	sender, err := email.NewSMTPSender(validSMTPConfig())

	require.NoError(t, err)
	assert.NotNil(t, sender)
}

func TestNewSMTPSender_MissingHost(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = ""

	_, err := email.NewSMTPSender(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP host is required")
}

func TestNewSMTPSender_MissingFrom(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.From = ""

	_, err := email.NewSMTPSender(cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "SMTP from address is required")
}

func TestNewSender(t *testing.T) {
	sender, err := email.NewSender(&config.SMTPConfig{})
	require.NoError(t, err)
	assert.IsType(t, &email.LogSender{}, sender)

	sender, err = email.NewSender(validSMTPConfig())
	require.NoError(t, err)
	assert.IsType(t, &email.SMTPSender{}, sender)
}

func TestSMTPSender_InvalidRecipient(t *testing.T) {
	sender, err := email.NewSMTPSender(validSMTPConfig())
	require.NoError(t, err)

	err = sender.Send(context.Background(), "not an address", "subject", "body")

	var transportErr *email.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "to", transportErr.Op)
}

func TestSMTPSender_UnreachableServer(t *testing.T) {
	cfg := validSMTPConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1
	cfg.TLS = false
	sender, err := email.NewSMTPSender(cfg)
	require.NoError(t, err)

	err = sender.Send(context.Background(), "user@example.com", "subject", "body")

	var transportErr *email.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, "send", transportErr.Op)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := email.NewLogSender(slog.New(slog.NewTextHandler(&buf, nil)))

	err := sender.Send(context.Background(), "user@example.com", "Hello", "Your code: 123456")

	require.NoError(t, err)
	assert.Contains(t, buf.String(), "email_logged")
	assert.Contains(t, buf.String(), "user@example.com")
	assert.Contains(t, buf.String(), "123456")
}

func TestSendVerificationCode(t *testing.T) {
	require.NoError(t, i18n.Init())

	t.Run("english", func(t *testing.T) {
		ctx := i18n.WithLocale(context.Background(), language.English)
		rec := &recordingSender{}

		require.NoError(t, email.SendVerificationCode(ctx, rec, "user@example.com", "482913"))

		assert.Equal(t, "user@example.com", rec.to)
		assert.Equal(t, "Email verification code", rec.subject)
		assert.Equal(t, "Your verification code: 482913", rec.body)
	})

	t.Run("persian", func(t *testing.T) {
		ctx := i18n.WithLocale(context.Background(), language.Persian)
		rec := &recordingSender{}

		require.NoError(t, email.SendVerificationCode(ctx, rec, "user@example.com", "482913"))

		assert.Equal(t, "کد تأیید ایمیل", rec.subject)
		assert.Equal(t, "کد تأیید شما: 482913", rec.body)
	})
}
