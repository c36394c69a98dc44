// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/pagination"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
)

// PageSize is the number of posts per listing page.
const PageSize = 5

const (
	maxTitleLength        = 100
	maxCategoryNameLength = 100
	maxTagNameLength      = 50
)

var (
	ErrNotFound     = errors.New("post not found")
	ErrInvalidInput = errors.New("invalid input")
)

// Listing is one page of published posts.
type Listing struct {
	Query string
	Posts []models.Post
	Page  pagination.Page
}

type Service struct {
	repo *repository.Repository
}

func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// List returns the requested page of published posts whose title contains
// query, newest first. A non-numeric page yields the first page and an
// out-of-range page yields the last one.
func (s *Service) List(ctx context.Context, query, page string) (*Listing, error) {
	filter := repository.PostFilter{Query: query}

	total, err := s.repo.CountPublishedPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	pg := pagination.New(total, PageSize).Page(page)

	posts, err := s.repo.ListPublishedPosts(ctx, filter, pg.Limit, pg.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &Listing{Query: query, Posts: posts, Page: pg}, nil
}

// Get returns a post of any status.
func (s *Service) Get(ctx context.Context, id int64) (*models.Post, error) {
	post, err := s.repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return post, nil
}

// PostParams describes a new post.
type PostParams struct {
	Title         string
	Content       string
	FeaturedImage string
	Status        models.PostStatus
	AuthorID      int64
	CategoryIDs   []int64
	TagIDs        []int64
}

// CreatePost stores a post with its category and tag links in one transaction.
func (s *Service) CreatePost(ctx context.Context, params PostParams) (*models.Post, error) {
	title := strings.TrimSpace(params.Title)
	if title == "" || utf8.RuneCountInString(title) > maxTitleLength {
		return nil, fmt.Errorf("%w: title must be 1-%d characters", ErrInvalidInput, maxTitleLength)
	}
	status := params.Status
	if status == "" {
		status = models.StatusDraft
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}

	post := &models.Post{
		Title:    title,
		Content:  params.Content,
		AuthorID: params.AuthorID,
		Status:   status,
	}
	if params.FeaturedImage != "" {
		image := params.FeaturedImage
		post.FeaturedImage = &image
	}

	if err := s.repo.CreatePost(ctx, post, params.CategoryIDs, params.TagIDs); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	slog.InfoContext(ctx, "post_created", "post_id", post.ID, "status", post.Status)
	return post, nil
}

// SetStatus publishes or unpublishes a post.
func (s *Service) SetStatus(ctx context.Context, id int64, status models.PostStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	if err := s.repo.SetPostStatus(ctx, id, status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to update post: %w", err)
	}
	slog.InfoContext(ctx, "post_status_changed", "post_id", id, "status", status)
	return nil
}

// CreateCategory adds a category.
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxCategoryNameLength {
		return nil, fmt.Errorf("%w: category name must be 1-%d characters", ErrInvalidInput, maxCategoryNameLength)
	}
	return s.repo.CreateCategory(ctx, name, description)
}

// CreateTag adds a tag.
func (s *Service) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxTagNameLength {
		return nil, fmt.Errorf("%w: tag name must be 1-%d characters", ErrInvalidInput, maxTagNameLength)
	}
	return s.repo.CreateTag(ctx, name)
}
