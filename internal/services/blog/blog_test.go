// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package blog_test

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"codeberg.org/oliverandrich/inkwell/internal/services/blog"
	"codeberg.org/oliverandrich/inkwell/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titles(posts []models.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

// seedPosts creates 7 published posts ("Post 1" oldest .. "Post 7" newest)
// and 2 newer drafts.
func seedPosts(t *testing.T, repo *repository.Repository) {
	t.Helper()
	author := testutil.NewTestAccount(t, repo, "author")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		testutil.NewTestPost(t, repo, author.ID, fmt.Sprintf("Post %d", i), models.StatusPublished, base.Add(time.Duration(i)*time.Hour))
	}
	testutil.NewTestPost(t, repo, author.ID, "Draft A", models.StatusDraft, base.Add(10*time.Hour))
	testutil.NewTestPost(t, repo, author.ID, "Draft B", models.StatusDraft, base.Add(11*time.Hour))
}

func TestList_Pagination(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	seedPosts(t, repo)
	svc := blog.NewService(repo)

	first, err := svc.List(ctx, "", "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Post 7", "Post 6", "Post 5", "Post 4", "Post 3"}, titles(first.Posts))
	assert.Equal(t, 2, first.Page.NumPages)
	assert.Equal(t, 7, first.Page.Total)
	assert.True(t, first.Page.HasNext())
	assert.False(t, first.Page.HasPrevious())

	second, err := svc.List(ctx, "", "2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Post 2", "Post 1"}, titles(second.Posts))
	assert.False(t, second.Page.HasNext())
}

func TestList_PageClamping(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	seedPosts(t, repo)
	svc := blog.NewService(repo)

	tests := []struct {
		page     string
		expected int
	}{
		{"", 1},
		{"abc", 1},
		{"99", 2},
		{"0", 2},
		{"-1", 2},
		{"99999999999999999999", 2},
		{"-99999999999999999999", 2},
	}
	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			listing, err := svc.List(ctx, "", tt.page)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, listing.Page.Number)
			assert.NotEmpty(t, listing.Posts)
		})
	}
}

func TestList_Search(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	author := testutil.NewTestAccount(t, repo, "author")
	now := time.Now()
	testutil.NewTestPost(t, repo, author.ID, "Hello World", models.StatusPublished, now.Add(-3*time.Hour))
	testutil.NewTestPost(t, repo, author.ID, "Say HELLO", models.StatusPublished, now.Add(-2*time.Hour))
	testutil.NewTestPost(t, repo, author.ID, "Goodbye", models.StatusPublished, now.Add(-1*time.Hour))
	testutil.NewTestPost(t, repo, author.ID, "hello draft", models.StatusDraft, now)
	svc := blog.NewService(repo)

	listing, err := svc.List(ctx, "hello", "")

	require.NoError(t, err)
	assert.Equal(t, "hello", listing.Query)
	assert.Equal(t, []string{"Say HELLO", "Hello World"}, titles(listing.Posts))
}

func TestList_SearchUnicodeCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	author := testutil.NewTestAccount(t, repo, "author")
	now := time.Now()
	testutil.NewTestPost(t, repo, author.ID, "Éclair Über", models.StatusPublished, now.Add(-2*time.Hour))
	testutil.NewTestPost(t, repo, author.ID, "Привет Мир", models.StatusPublished, now.Add(-1*time.Hour))
	svc := blog.NewService(repo)

	for _, query := range []string{"éclair", "über", "ÉCLAIR ÜBER"} {
		listing, err := svc.List(ctx, query, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Éclair Über"}, titles(listing.Posts), query)
	}

	listing, err := svc.List(ctx, "мир", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Привет Мир"}, titles(listing.Posts))
}

func TestList_Empty(t *testing.T) {
	_, repo := testutil.NewTestDB(t)
	svc := blog.NewService(repo)

	listing, err := svc.List(context.Background(), "nothing", "5")

	require.NoError(t, err)
	assert.Empty(t, listing.Posts)
	assert.Equal(t, 1, listing.Page.Number)
	assert.Equal(t, 1, listing.Page.NumPages)
}

func TestGet(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	author := testutil.NewTestAccount(t, repo, "author")
	draft := testutil.NewTestPost(t, repo, author.ID, "Draft", models.StatusDraft, time.Now())
	svc := blog.NewService(repo)

	post, err := svc.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Draft", post.Title)
	assert.Equal(t, "author", post.AuthorName)

	_, err = svc.Get(ctx, draft.ID+100)
	require.ErrorIs(t, err, blog.ErrNotFound)
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	author := testutil.NewTestAccount(t, repo, "author")
	svc := blog.NewService(repo)

	category, err := svc.CreateCategory(ctx, "Go", "Posts about Go")
	require.NoError(t, err)
	tag, err := svc.CreateTag(ctx, "web")
	require.NoError(t, err)

	post, err := svc.CreatePost(ctx, blog.PostParams{
		Title:         "  Hello  ",
		Content:       "Body",
		FeaturedImage: "blog_images/cover.png",
		AuthorID:      author.ID,
		CategoryIDs:   []int64{category.ID},
		TagIDs:        []int64{tag.ID},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", post.Title)
	assert.Equal(t, models.StatusDraft, post.Status)

	stored, err := svc.Get(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.FeaturedImage)
	assert.Equal(t, "blog_images/cover.png", *stored.FeaturedImage)
	require.Len(t, stored.Categories, 1)
	assert.Equal(t, "Go", stored.Categories[0].Name)
	require.Len(t, stored.Tags, 1)
	assert.Equal(t, "web", stored.Tags[0].Name)
}

func TestCreatePost_Invalid(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	author := testutil.NewTestAccount(t, repo, "author")
	svc := blog.NewService(repo)

	_, err := svc.CreatePost(ctx, blog.PostParams{Title: " ", AuthorID: author.ID})
	require.ErrorIs(t, err, blog.ErrInvalidInput)

	_, err = svc.CreatePost(ctx, blog.PostParams{Title: strings.Repeat("x", 101), AuthorID: author.ID})
	require.ErrorIs(t, err, blog.ErrInvalidInput)

	_, err = svc.CreatePost(ctx, blog.PostParams{Title: "ok", Status: "archived", AuthorID: author.ID})
	require.ErrorIs(t, err, blog.ErrInvalidInput)

	_, err = svc.CreatePost(ctx, blog.PostParams{Title: "ok", AuthorID: author.ID + 50})
	require.Error(t, err)
}

func TestSetStatus(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	author := testutil.NewTestAccount(t, repo, "author")
	post := testutil.NewTestPost(t, repo, author.ID, "Draft", models.StatusDraft, time.Now())
	svc := blog.NewService(repo)

	require.NoError(t, svc.SetStatus(ctx, post.ID, models.StatusPublished))
	listing, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, listing.Posts, 1)

	require.NoError(t, svc.SetStatus(ctx, post.ID, models.StatusDraft))
	listing, err = svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, listing.Posts)

	require.ErrorIs(t, svc.SetStatus(ctx, post.ID+1, models.StatusPublished), blog.ErrNotFound)
	require.ErrorIs(t, svc.SetStatus(ctx, post.ID, "archived"), blog.ErrInvalidInput)
}

func TestCreateTaxonomy_Invalid(t *testing.T) {
	ctx := context.Background()
	_, repo := testutil.NewTestDB(t)
	svc := blog.NewService(repo)

	_, err := svc.CreateCategory(ctx, "", "")
	require.ErrorIs(t, err, blog.ErrInvalidInput)

	_, err = svc.CreateTag(ctx, strings.Repeat("t", 51))
	require.ErrorIs(t, err, blog.ErrInvalidInput)
}
