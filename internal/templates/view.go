// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package templates

import (
	"context"
	"encoding/json"
	"strings"

	"codeberg.org/oliverandrich/inkwell/internal/auth"
	"codeberg.org/oliverandrich/inkwell/internal/ctxkeys"
	"codeberg.org/oliverandrich/inkwell/internal/i18n"
	"codeberg.org/oliverandrich/inkwell/internal/models"
)

const excerptWords = 40

// View is the value every template executes against. Page data is in Data;
// the methods give access to request-scoped helpers.
type View struct {
	ctx  context.Context //nolint:containedctx // templates need the request context
	Data any
}

func newView(ctx context.Context, data any) *View {
	return &View{ctx: ctx, Data: data}
}

// T translates a message by ID.
func (v *View) T(messageID string) string {
	return i18n.T(v.ctx, messageID)
}

// TData translates a message with key/value template data.
func (v *View) TData(messageID string, pairs ...any) string {
	data := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		if key, ok := pairs[i].(string); ok {
			data[key] = pairs[i+1]
		}
	}
	return i18n.TData(v.ctx, messageID, data)
}

// TPlural translates a message with plural support.
func (v *View) TPlural(messageID string, count int) string {
	return i18n.TPlural(v.ctx, messageID, count)
}

// Locale returns the current locale.
func (v *View) Locale() string {
	return i18n.GetLocale(v.ctx)
}

// Dir returns the text direction of the current locale.
func (v *View) Dir() string {
	return i18n.Dir(v.ctx)
}

// CSRFToken returns the CSRF token from the context.
func (v *View) CSRFToken() string {
	return csrfToken(v.ctx)
}

func csrfToken(ctx context.Context) string {
	if token, ok := ctx.Value(ctxkeys.CSRFToken{}).(string); ok {
		return token
	}
	return ""
}

// csrfHeaders is the hx-headers value that sends the token with htmx requests.
func csrfHeaders(ctx context.Context) string {
	headers, err := json.Marshal(map[string]string{"X-CSRF-Token": csrfToken(ctx)})
	if err != nil {
		return "{}"
	}
	return string(headers)
}

// Account returns the authenticated account, or nil if not logged in.
func (v *View) Account() *models.Account {
	return auth.GetAccount(v.ctx)
}

// IsAuthenticated returns true if an account is logged in.
func (v *View) IsAuthenticated() bool {
	return auth.IsAuthenticated(v.ctx)
}

// Errors returns the translated form errors for field.
func (v *View) Errors(field string) []string {
	form, ok := v.Data.(interface{ FieldErrors(string) []string })
	if !ok {
		return nil
	}
	ids := form.FieldErrors(field)
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = v.T(id)
	}
	return out
}

// Excerpt shortens text to its first words.
func (v *View) Excerpt(text string) string {
	words := strings.Fields(text)
	if len(words) <= excerptWords {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:excerptWords], " ") + " …"
}
