// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package templates renders the HTML pages of the site.
package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"codeberg.org/oliverandrich/inkwell/internal/i18n"
	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/services/blog"
	"github.com/a-h/templ"
)

//go:embed html/*.html
var files embed.FS

var pages = map[string]*template.Template{}

func init() {
	for _, name := range []string{"index", "post_detail", "register", "login"} {
		pages[name] = template.Must(template.ParseFS(files, "html/fields.html", "html/"+name+".html"))
	}
}

func render(name, entry string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		tmpl, ok := pages[name]
		if !ok {
			return fmt.Errorf("unknown page %q", name)
		}
		return tmpl.ExecuteTemplate(w, entry, newView(ctx, data))
	})
}

// page renders the content block of an html/template page inside Layout.
func page(name string, title func(context.Context) string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		return Layout(title(ctx)).Render(templ.WithChildren(ctx, render(name, "content", data)), w)
	})
}

func translated(messageID string) func(context.Context) string {
	return func(ctx context.Context) string {
		return i18n.T(ctx, messageID)
	}
}

// RegisterForm holds the submitted registration values and their errors.
type RegisterForm struct {
	Username string
	Email    string
	Errors   map[string][]string // field -> message IDs
}

// FieldErrors returns the message IDs for field.
func (f *RegisterForm) FieldErrors(field string) []string {
	if f == nil {
		return nil
	}
	return f.Errors[field]
}

// LoginForm holds the submitted login values.
type LoginForm struct {
	Username string
	Next     string
	Invalid  bool
}

// ErrorPage describes an error response.
type ErrorPage struct {
	TitleID   string
	MessageID string
	Code      int
}

// NewErrorPage picks the messages for an HTTP status code.
func NewErrorPage(code int) *ErrorPage {
	switch code {
	case http.StatusNotFound:
		return &ErrorPage{Code: code, TitleID: "error_not_found_title", MessageID: "error_not_found_message"}
	case http.StatusForbidden:
		return &ErrorPage{Code: code, TitleID: "error_forbidden_title", MessageID: "error_forbidden_message"}
	case http.StatusInternalServerError:
		return &ErrorPage{Code: code, TitleID: "error_server_title", MessageID: "error_server_message"}
	default:
		return &ErrorPage{Code: code, TitleID: "error_generic_title", MessageID: "error_server_message"}
	}
}

// Index renders the post listing page.
func Index(listing *blog.Listing) templ.Component {
	return page("index", translated("list_title"), listing)
}

// PostList renders only the listing fragment, for htmx swaps.
func PostList(listing *blog.Listing) templ.Component {
	return render("index", "post_list", listing)
}

// PostDetail renders a single post.
func PostDetail(post *models.Post) templ.Component {
	return page("post_detail", func(context.Context) string { return post.Title }, post)
}

// Register renders the registration form.
func Register(form *RegisterForm) templ.Component {
	return page("register", translated("register_title"), form)
}

// Login renders the login form.
func Login(form *LoginForm) templ.Component {
	return page("login", translated("login_title"), form)
}
