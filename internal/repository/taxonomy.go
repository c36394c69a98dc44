// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"

	"codeberg.org/oliverandrich/inkwell/internal/models"
)

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, name, description string) (*models.Category, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO categories (name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Category{ID: id, Name: name, Description: description}, nil
}

// ListCategories returns all categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, `SELECT * FROM categories ORDER BY name, id`); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateTag inserts a tag.
func (r *Repository) CreateTag(ctx context.Context, name string) (*models.Tag, error) {
	res, err := r.db.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, name)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &models.Tag{ID: id, Name: name}, nil
}

// ListTags returns all tags ordered by name.
func (r *Repository) ListTags(ctx context.Context) ([]models.Tag, error) {
	var tags []models.Tag
	if err := r.db.SelectContext(ctx, &tags, `SELECT * FROM tags ORDER BY name, id`); err != nil {
		return nil, err
	}
	return tags, nil
}
