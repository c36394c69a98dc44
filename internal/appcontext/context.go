// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package appcontext provides the custom Echo context.
package appcontext

import (
	"codeberg.org/oliverandrich/inkwell/internal/htmx"
	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Context is a custom Echo context with typed fields for htmx, the session
// and the logged-in account.
type Context struct {
	echo.Context
	Htmx    *htmx.Request
	Session *session.Session
	Account *models.Account // nil if not authenticated
}

// From returns c as a *Context, wrapping it when the custom context
// middleware did not run.
func From(c echo.Context) *Context {
	if cc, ok := c.(*Context); ok {
		return cc
	}
	return &Context{
		Context: c,
		Htmx:    htmx.ParseRequest(c.Request()),
		Session: session.FromContext(c),
	}
}

// GetAccount returns the authenticated account, or nil if not authenticated.
func (c *Context) GetAccount() *models.Account {
	return c.Account
}

// IsAuthenticated returns true if the account is authenticated.
func (c *Context) IsAuthenticated() bool {
	return c.Account != nil
}
