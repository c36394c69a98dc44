// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package htmx provides types and helpers for htmx integration.
package htmx

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Request headers.
const (
	HeaderRequest        = "HX-Request"
	HeaderBoosted        = "HX-Boosted"
	HeaderCurrentURL     = "HX-Current-URL"
	HeaderHistoryRestore = "HX-History-Restore-Request"
	HeaderTarget         = "HX-Target"
)

// Response headers.
const (
	HeaderRedirect = "HX-Redirect"
	HeaderPushURL  = "HX-Push-Url"
)

// Request contains information about an htmx request.
type Request struct { //nolint:govet // fieldalignment not critical
	// IsHtmx is true if this is an htmx request (HX-Request header is "true").
	IsHtmx bool

	// IsBoosted is true for hx-boost navigation, which expects a full page.
	IsBoosted bool

	// IsHistoryRestore is true when htmx restores a page missing from its cache.
	IsHistoryRestore bool

	CurrentURL string
	Target     string
}

// ParseRequest extracts htmx information from request headers.
func ParseRequest(r *http.Request) *Request {
	return &Request{
		IsHtmx:           r.Header.Get(HeaderRequest) == "true",
		IsBoosted:        r.Header.Get(HeaderBoosted) == "true",
		IsHistoryRestore: r.Header.Get(HeaderHistoryRestore) == "true",
		CurrentURL:       r.Header.Get(HeaderCurrentURL),
		Target:           r.Header.Get(HeaderTarget),
	}
}

// Partial reports whether the response should be a fragment instead of a
// full page.
func (r *Request) Partial() bool {
	return r.IsHtmx && !r.IsBoosted && !r.IsHistoryRestore
}

// Redirect sends the client to url. htmx requests get an HX-Redirect header,
// everything else a 303 See Other.
func Redirect(c echo.Context, url string) error {
	if c.Request().Header.Get(HeaderRequest) == "true" {
		c.Response().Header().Set(HeaderRedirect, url)
		return c.NoContent(http.StatusOK)
	}
	return c.Redirect(http.StatusSeeOther, url)
}
