// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"strings"

	"codeberg.org/oliverandrich/inkwell/internal/appcontext"
	"codeberg.org/oliverandrich/inkwell/internal/services/session"
	"github.com/a-h/templ"
	"github.com/labstack/echo/v4"
)

var errNoSession = errors.New("no session on request")

// Render renders a templ component with the given status code.
func Render(c echo.Context, statusCode int, component templ.Component) error {
	buf := templ.GetBuffer()
	defer templ.ReleaseBuffer(buf)

	if err := component.Render(c.Request().Context(), buf); err != nil {
		return err
	}

	return c.HTML(statusCode, buf.String())
}

func currentSession(c echo.Context) (*session.Session, error) {
	s := appcontext.From(c).Session
	if s == nil {
		return nil, errNoSession
	}
	return s, nil
}

// safeNext returns next if it is a local path, otherwise "/".
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return "/"
	}
	return next
}
