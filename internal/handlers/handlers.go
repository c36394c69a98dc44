// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/appcontext"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"codeberg.org/oliverandrich/inkwell/internal/services/blog"
	"codeberg.org/oliverandrich/inkwell/internal/templates"
	"github.com/labstack/echo/v4"
)

// Handlers contains the public blog handlers.
type Handlers struct {
	repo *repository.Repository
	blog *blog.Service
}

// New creates a new Handlers instance.
func New(repo *repository.Repository, blogService *blog.Service) *Handlers {
	return &Handlers{repo: repo, blog: blogService}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	if h.repo != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.repo.DB().PingContext(ctx); err != nil {
			return c.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// PostList renders the published posts, filtered by q and paginated by page.
// htmx requests receive only the list fragment.
func (h *Handlers) PostList(c echo.Context) error {
	cc := appcontext.From(c)

	listing, err := h.blog.List(c.Request().Context(), c.QueryParam("q"), c.QueryParam("page"))
	if err != nil {
		return err
	}

	c.Response().Header().Add(echo.HeaderVary, "HX-Request")
	if cc.Htmx.Partial() {
		return Render(c, http.StatusOK, templates.PostList(listing))
	}
	return Render(c, http.StatusOK, templates.Index(listing))
}

// PostDetail renders a single post.
func (h *Handlers) PostDetail(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.ErrNotFound
	}

	post, err := h.blog.Get(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			return echo.ErrNotFound
		}
		return err
	}

	return Render(c, http.StatusOK, templates.PostDetail(post))
}
