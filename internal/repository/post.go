// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/models"
	"github.com/vinovest/sqlx"
)

const postColumns = `p.id, p.title, p.content, p.featured_image, p.author_id, a.username AS author_name,
	p.status, p.created_at, p.updated_at`

// PostFilter selects published posts, optionally by title substring.
type PostFilter struct {
	Query string // case-insensitive title substring; empty matches all
}

func (f PostFilter) where() (string, []any) {
	clause := `p.status = ?`
	args := []any{models.StatusPublished}
	if f.Query != "" {
		clause += ` AND instr(casefold(p.title), casefold(?)) > 0`
		args = append(args, f.Query)
	}
	return clause, args
}

// CountPublishedPosts counts published posts matching the filter.
func (r *Repository) CountPublishedPosts(ctx context.Context, filter PostFilter) (int, error) {
	where, args := filter.where()
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT count(*) FROM posts p WHERE `+where, args...); err != nil {
		return 0, err
	}
	return count, nil
}

// ListPublishedPosts returns published posts matching the filter, newest
// first, with categories and tags loaded.
func (r *Repository) ListPublishedPosts(ctx context.Context, filter PostFilter, limit, offset int) ([]models.Post, error) {
	where, args := filter.where()
	args = append(args, limit, offset)

	var posts []models.Post
	err := r.db.SelectContext(ctx, &posts,
		`SELECT `+postColumns+` FROM posts p JOIN accounts a ON a.id = p.author_id
		 WHERE `+where+` ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`,
		args...)
	if err != nil {
		return nil, err
	}
	if err := r.loadRelations(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost retrieves a post of any status by ID.
func (r *Repository) GetPost(ctx context.Context, id int64) (*models.Post, error) {
	var post models.Post
	err := r.db.GetContext(ctx, &post,
		`SELECT `+postColumns+` FROM posts p JOIN accounts a ON a.id = p.author_id WHERE p.id = ?`, id)
	if err != nil {
		return nil, err
	}
	posts := []models.Post{post}
	if err := r.loadRelations(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// CreatePost inserts a post together with its category and tag links.
func (r *Repository) CreatePost(ctx context.Context, post *models.Post, categoryIDs, tagIDs []int64) error {
	if post.Status == "" {
		post.Status = models.StatusDraft
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	post.UpdatedAt = post.CreatedAt

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx,
			`INSERT INTO posts (title, content, featured_image, author_id, status, created_at, updated_at)
			 VALUES (:title, :content, :featured_image, :author_id, :status, :created_at, :updated_at)`,
			post)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, cid := range categoryIDs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO post_categories (post_id, category_id) VALUES (?, ?)`, id, cid); err != nil {
				return err
			}
		}
		for _, tid := range tagIDs {
			if _, err := tx.ExecContext(ctx, `INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`, id, tid); err != nil {
				return err
			}
		}
		post.ID = id
		return nil
	})
}

// SetPostStatus changes the publication status of a post.
// Returns sql.ErrNoRows if the post does not exist.
func (r *Repository) SetPostStatus(ctx context.Context, id int64, status models.PostStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE posts SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

type postCategoryRow struct {
	PostID int64 `db:"post_id"`
	models.Category
}

type postTagRow struct {
	PostID int64 `db:"post_id"`
	models.Tag
}

// loadRelations fills Categories and Tags for the given posts.
func (r *Repository) loadRelations(ctx context.Context, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ids := make([]int64, len(posts))
	index := make(map[int64]int, len(posts))
	for i := range posts {
		ids[i] = posts[i].ID
		index[posts[i].ID] = i
		posts[i].Categories = []models.Category{}
		posts[i].Tags = []models.Tag{}
	}

	query, args, err := sqlx.In(
		`SELECT pc.post_id, c.id, c.name, c.description FROM post_categories pc
		 JOIN categories c ON c.id = pc.category_id WHERE pc.post_id IN (?) ORDER BY c.name, c.id`, ids)
	if err != nil {
		return err
	}
	var categories []postCategoryRow
	if err := r.db.SelectContext(ctx, &categories, r.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, row := range categories {
		i := index[row.PostID]
		posts[i].Categories = append(posts[i].Categories, row.Category)
	}

	query, args, err = sqlx.In(
		`SELECT pt.post_id, t.id, t.name FROM post_tags pt
		 JOIN tags t ON t.id = pt.tag_id WHERE pt.post_id IN (?) ORDER BY t.name, t.id`, ids)
	if err != nil {
		return err
	}
	var tags []postTagRow
	if err := r.db.SelectContext(ctx, &tags, r.db.Rebind(query), args...); err != nil {
		return err
	}
	for _, row := range tags {
		i := index[row.PostID]
		posts[i].Tags = append(posts[i].Tags, row.Tag)
	}

	return nil
}
