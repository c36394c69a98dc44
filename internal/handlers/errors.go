// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/oliverandrich/inkwell/internal/templates"
	"github.com/labstack/echo/v4"
)

// HTTPErrorHandler renders error pages for errors returned by handlers and
// logs server-side failures.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
	}

	req := c.Request()
	if code >= http.StatusInternalServerError {
		slog.ErrorContext(req.Context(), "request_failed",
			"error", err,
			"method", req.Method,
			"path", req.URL.Path,
		)
	}

	if req.Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	if renderErr := Render(c, code, templates.Error(code)); renderErr != nil {
		slog.ErrorContext(req.Context(), "error_page_failed", "error", renderErr)
		_ = c.String(code, http.StatusText(code))
	}
}
