// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"database/sql/driver"
	"time"
)

// PostStatus is the publication state of a post.
type PostStatus string

const (
	StatusDraft     PostStatus = "draft"
	StatusPublished PostStatus = "published"
)

// Valid reports whether s is a known status.
func (s PostStatus) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// Value implements driver.Valuer.
func (s PostStatus) Value() (driver.Value, error) {
	return string(s), nil
}

type Category struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Description string `db:"description" json:"description"`
}

type Tag struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Post is a blog entry. Categories, Tags and AuthorName are filled by the
// repository when loading posts for display.
type Post struct { //nolint:govet // fieldalignment: readability over optimization
	ID            int64      `db:"id" json:"id"`
	Title         string     `db:"title" json:"title"`
	Content       string     `db:"content" json:"content"`
	FeaturedImage *string    `db:"featured_image" json:"featured_image,omitempty"`
	AuthorID      int64      `db:"author_id" json:"author_id"`
	AuthorName    string     `db:"author_name" json:"author_name"`
	Status        PostStatus `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`

	Categories []Category `db:"-" json:"categories"`
	Tags       []Tag      `db:"-" json:"tags"`
}

// IsPublished reports whether the post is publicly listed.
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}
