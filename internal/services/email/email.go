// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/config"
	"codeberg.org/oliverandrich/inkwell/internal/i18n"
	"github.com/wneessen/go-mail"
)

const sendTimeout = 15 * time.Second

// Sender delivers a single plain-text message.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// TransportError reports a failed delivery attempt.
type TransportError struct {
	Err error
	Op  string
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mail %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// NewSender returns an SMTP sender, or a LogSender when no SMTP host is configured.
func NewSender(cfg *config.SMTPConfig) (Sender, error) {
	if cfg.Host == "" {
		return NewLogSender(slog.Default()), nil
	}
	return NewSMTPSender(cfg)
}

// SMTPSender sends mail through an SMTP server using go-mail.
type SMTPSender struct {
	cfg *config.SMTPConfig
}

// NewSMTPSender creates a new SMTP sender.
func NewSMTPSender(cfg *config.SMTPConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("SMTP from address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send delivers one message. There is no retry.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg := mail.NewMsg()

	if s.cfg.FromName != "" {
		if err := msg.FromFormat(s.cfg.FromName, s.cfg.From); err != nil {
			return &TransportError{Op: "from", Err: err}
		}
	} else {
		if err := msg.From(s.cfg.From); err != nil {
			return &TransportError{Op: "from", Err: err}
		}
	}

	if err := msg.To(to); err != nil {
		return &TransportError{Op: "to", Err: err}
	}

	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(s.cfg.Host, s.options()...)
	if err != nil {
		return &TransportError{Op: "client", Err: err}
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return &TransportError{Op: "send", Err: err}
	}

	return nil
}

func (s *SMTPSender) options() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(s.cfg.Port),
		mail.WithTimeout(sendTimeout),
	}

	// Implicit TLS on 465, STARTTLS elsewhere
	if s.cfg.TLS {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
		if s.cfg.Port == 465 {
			opts = append(opts, mail.WithSSL())
		}
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	}

	if s.cfg.Username != "" && s.cfg.Password != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(s.cfg.Username),
			mail.WithPassword(s.cfg.Password),
		)
	}

	return opts
}

// LogSender writes messages to the log instead of sending them.
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that logs every message.
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, body string) error {
	s.logger.InfoContext(ctx, "email_logged", "to", to, "subject", subject, "body", body)
	return nil
}

// SendVerificationCode mails the verification code to the given address.
func SendVerificationCode(ctx context.Context, sender Sender, to, code string) error {
	subject := i18n.T(ctx, "email_verification_subject")
	body := i18n.TData(ctx, "email_verification_body", map[string]any{
		"Code": code,
	})
	return sender.Send(ctx, to, subject, body)
}
