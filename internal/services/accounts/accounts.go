// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"
)

// Form field names.
const (
	FieldUsername  = "username"
	FieldEmail     = "email"
	FieldPassword1 = "password1"
	FieldPassword2 = "password2"
)

// Validation message IDs.
const (
	MsgRequired         = "error_required"
	MsgUsernameInvalid  = "error_username_invalid"
	MsgUsernameTooLong  = "error_username_too_long"
	MsgUsernameTaken    = "error_username_taken"
	MsgEmailInvalid     = "error_email_invalid"
	MsgEmailTaken       = "error_email_taken"
	MsgPasswordMismatch = "error_password_mismatch"
)

const (
	maxUsernameLength = 150
	maxEmailLength    = 254
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")

	usernamePattern = regexp.MustCompile(`^[\p{L}\p{M}\p{N}_.@+\-]+$`)
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// FormError carries per-field validation message IDs.
type FormError struct {
	Fields map[string][]string
}

func (e *FormError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for field := range e.Fields {
		fields = append(fields, field)
	}
	return "invalid registration: " + strings.Join(fields, ", ")
}

// Add records a message ID for field.
func (e *FormError) Add(field, messageID string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], messageID)
}

// Get returns the message IDs recorded for field.
func (e *FormError) Get(field string) []string {
	return e.Fields[field]
}

func (e *FormError) empty() bool {
	return len(e.Fields) == 0
}

type Service struct {
	repo              *repository.Repository
	passwordValidator *PasswordValidator
	hashCost          int
}

func NewService(repo *repository.Repository) *Service {
	return &Service{
		repo:              repo,
		passwordValidator: DefaultPasswordValidator(),
		hashCost:          bcrypt.DefaultCost,
	}
}

// RegisterParams holds the submitted registration form.
type RegisterParams struct {
	Username  string
	Email     string
	Password1 string
	Password2 string
}

// NormalizeUsername applies NFKC normalisation and trims surrounding space.
func NormalizeUsername(username string) string {
	return norm.NFKC.String(strings.TrimSpace(username))
}

// NormalizeEmail trims the address and lower-cases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

// Register validates the form and creates the account. Validation failures
// are returned as *FormError and create nothing.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*models.Account, error) {
	username := NormalizeUsername(params.Username)
	email := NormalizeEmail(params.Email)

	formErr := &FormError{}
	usernameOK := validateUsername(formErr, username)
	emailOK := validateEmail(formErr, email)
	s.validatePasswords(formErr, params, username, email)

	if usernameOK {
		exists, err := s.repo.UsernameExists(ctx, username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if exists {
			formErr.Add(FieldUsername, MsgUsernameTaken)
		}
	}
	if emailOK {
		exists, err := s.repo.EmailExists(ctx, email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if exists {
			formErr.Add(FieldEmail, MsgEmailTaken)
		}
	}

	if !formErr.empty() {
		return nil, formErr
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(params.Password1), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Username:     username,
		Email:        email,
		PasswordHash: string(passwordHash),
	}

	if err := s.repo.CreateAccount(ctx, account); err != nil {
		// A concurrent registration won the race for the same name or address.
		if column, ok := repository.UniqueViolation(err); ok {
			switch column {
			case FieldUsername:
				formErr.Add(FieldUsername, MsgUsernameTaken)
				return nil, formErr
			case FieldEmail:
				formErr.Add(FieldEmail, MsgEmailTaken)
				return nil, formErr
			}
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	slog.InfoContext(ctx, "register_success", "account_id", account.ID, "username", account.Username)

	return account, nil
}

func validateUsername(formErr *FormError, username string) bool {
	switch {
	case username == "":
		formErr.Add(FieldUsername, MsgRequired)
	case utf8.RuneCountInString(username) > maxUsernameLength:
		formErr.Add(FieldUsername, MsgUsernameTooLong)
	case !usernamePattern.MatchString(username):
		formErr.Add(FieldUsername, MsgUsernameInvalid)
	default:
		return true
	}
	return false
}

func validateEmail(formErr *FormError, email string) bool {
	if email == "" {
		formErr.Add(FieldEmail, MsgRequired)
		return false
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || len(email) > maxEmailLength {
		formErr.Add(FieldEmail, MsgEmailInvalid)
		return false
	}
	return true
}

func (s *Service) validatePasswords(formErr *FormError, params RegisterParams, username, email string) {
	if params.Password1 == "" {
		formErr.Add(FieldPassword1, MsgRequired)
	}
	if params.Password2 == "" {
		formErr.Add(FieldPassword2, MsgRequired)
	}
	if params.Password1 == "" || params.Password2 == "" {
		return
	}
	if params.Password1 != params.Password2 {
		formErr.Add(FieldPassword2, MsgPasswordMismatch)
		return
	}
	for _, problem := range s.passwordValidator.Validate(params.Password2, username, email) {
		formErr.Add(FieldPassword2, problem)
	}
}

// Authenticate checks the credentials and records the login time.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*models.Account, error) {
	username = NormalizeUsername(username)

	account, err := s.repo.GetAccountByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.WarnContext(ctx, "login_failed", "username", username, "reason", "account_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		slog.WarnContext(ctx, "login_failed", "username", username, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		slog.WarnContext(ctx, "login_failed", "username", username, "reason", "inactive")
		return nil, ErrInvalidCredentials
	}

	if err := s.repo.TouchLastLogin(ctx, account.ID); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}

	slog.InfoContext(ctx, "login_success", "account_id", account.ID, "username", username)
	return account, nil
}
