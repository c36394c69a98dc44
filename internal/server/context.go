// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"database/sql"
	"errors"
	"fmt"

	"codeberg.org/oliverandrich/inkwell/internal/appcontext"
	"codeberg.org/oliverandrich/inkwell/internal/auth"
	"codeberg.org/oliverandrich/inkwell/internal/htmx"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"codeberg.org/oliverandrich/inkwell/internal/services/session"
	"github.com/labstack/echo/v4"
)

// customContext wraps the Echo context with appcontext.Context and loads
// the session's account. The account also goes into the request context
// for templates. Deleted or inactive accounts are treated as anonymous.
func customContext(repo *repository.Repository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cc := &appcontext.Context{
				Context: c,
				Htmx:    htmx.ParseRequest(c.Request()),
				Session: session.FromContext(c),
			}

			if cc.Session != nil {
				if id := cc.Session.AccountID(); id != 0 {
					ctx := c.Request().Context()
					account, err := repo.GetAccountByID(ctx, id)
					switch {
					case errors.Is(err, sql.ErrNoRows):
					case err != nil:
						return fmt.Errorf("loading session account %d: %w", id, err)
					case account.IsActive:
						cc.Account = account
						c.SetRequest(c.Request().WithContext(auth.WithAccount(ctx, account)))
					}
				}
			}

			return next(cc)
		}
	}
}
