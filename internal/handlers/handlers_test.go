// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"codeberg.org/oliverandrich/inkwell/internal/config"
	"codeberg.org/oliverandrich/inkwell/internal/handlers"
	"codeberg.org/oliverandrich/inkwell/internal/i18n"
	"codeberg.org/oliverandrich/inkwell/internal/metrics"
	"codeberg.org/oliverandrich/inkwell/internal/models"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"codeberg.org/oliverandrich/inkwell/internal/services/accounts"
	"codeberg.org/oliverandrich/inkwell/internal/services/blog"
	"codeberg.org/oliverandrich/inkwell/internal/services/session"
	"codeberg.org/oliverandrich/inkwell/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Initialize i18n for template rendering
	_ = i18n.Init()
}

type sentMail struct {
	to, subject, body string
}

type fakeSender struct {
	err  error
	sent []sentMail
}

func (f *fakeSender) Send(_ context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

// testEnv is an echo instance wired like the server minus CSRF, with a
// cookie-carrying client.
type testEnv struct {
	e        *echo.Echo
	repo     *repository.Repository
	sessions *session.Manager
	sender   *fakeSender
	cookies  map[string]*http.Cookie
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	_, repo := testutil.NewTestDB(t)

	sessions, err := session.NewManager(&config.SessionConfig{
		CookieName: "_session",
		MaxAge:     3600,
		HashKey:    testutil.TestHashKey,
	}, false, session.NewSQLStore(repo))
	require.NoError(t, err)

	sender := &fakeSender{}
	m := metrics.New()
	h := handlers.New(repo, blog.NewService(repo))
	ah := handlers.NewAuth(accounts.NewService(repo), sessions, sender, m)

	e := echo.New()
	e.HTTPErrorHandler = handlers.HTTPErrorHandler
	e.Use(sessions.Middleware())

	e.GET("/health", h.Health)
	e.GET("/", h.PostList)
	e.GET("/post/:id", h.PostDetail)
	e.GET("/register", ah.RegisterPage)
	e.POST("/register", ah.Register)
	e.GET("/verify-email", ah.VerifyEmailPage)
	e.POST("/verify-email", ah.VerifyEmail)
	e.GET("/login", ah.LoginPage)
	e.POST("/login", ah.Login)
	e.POST("/logout", ah.Logout)

	return &testEnv{
		e:        e,
		repo:     repo,
		sessions: sessions,
		sender:   sender,
		cookies:  map[string]*http.Cookie{},
	}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range env.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(env.cookies, c.Name)
			continue
		}
		env.cookies[c.Name] = c
	}
	return rec
}

func (env *testEnv) get(path string) *httptest.ResponseRecorder {
	return env.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (env *testEnv) post(path string, form url.Values) *httptest.ResponseRecorder {
	return env.do(testutil.NewFormRequest(path, form))
}

// session loads the session the client's cookie currently points at.
func (env *testEnv) session(t *testing.T) *session.Session {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range env.cookies {
		req.AddCookie(c)
	}
	s, err := env.sessions.Load(req)
	require.NoError(t, err)
	return s
}

func seedPosts(t *testing.T, repo *repository.Repository) {
	t.Helper()
	author := testutil.NewTestAccount(t, repo, "author")
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 1; i <= 7; i++ {
		testutil.NewTestPost(t, repo, author.ID, fmt.Sprintf("Post %d", i), models.StatusPublished, base.Add(time.Duration(i)*time.Hour))
	}
	testutil.NewTestPost(t, repo, author.ID, "Hidden draft", models.StatusDraft, base.Add(24*time.Hour))
}

func TestHealth(t *testing.T) {
	h := handlers.New(nil, nil)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.Health(c)

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestHealth_WithDatabase(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestPostList(t *testing.T) {
	env := newTestEnv(t)
	seedPosts(t, env.repo)

	rec := env.get("/")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<!doctype html>")
	for _, title := range []string{"Post 7", "Post 6", "Post 5", "Post 4", "Post 3"} {
		assert.Contains(t, body, title)
	}
	assert.NotContains(t, body, "Post 2")
	assert.NotContains(t, body, "Hidden draft")
	assert.Contains(t, body, "Page 1 of 2")
	assert.Contains(t, rec.Header().Values(echo.HeaderVary), "HX-Request")
}

func TestPostList_SecondPage(t *testing.T) {
	env := newTestEnv(t)
	seedPosts(t, env.repo)

	rec := env.get("/?page=2")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Post 2")
	assert.Contains(t, body, "Post 1")
	assert.NotContains(t, body, "Post 3")
}

func TestPostList_OutOfRangeShowsLastPage(t *testing.T) {
	env := newTestEnv(t)
	seedPosts(t, env.repo)

	rec := env.get("/?page=42")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page 2 of 2")
}

func TestPostList_Search(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.NewTestAccount(t, env.repo, "author")
	testutil.NewTestPost(t, env.repo, author.ID, "Hello there", models.StatusPublished, time.Now().Add(-time.Hour))
	testutil.NewTestPost(t, env.repo, author.ID, "Say HELLO", models.StatusPublished, time.Now())
	testutil.NewTestPost(t, env.repo, author.ID, "Unrelated", models.StatusPublished, time.Now())
	testutil.NewTestPost(t, env.repo, author.ID, "hello draft", models.StatusDraft, time.Now())

	rec := env.get("/?q=hello")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Hello there")
	assert.Contains(t, body, "Say HELLO")
	assert.NotContains(t, body, "Unrelated")
	assert.NotContains(t, body, "hello draft")
}

func TestPostList_HtmxFragment(t *testing.T) {
	env := newTestEnv(t)
	seedPosts(t, env.repo)

	req := httptest.NewRequest(http.MethodGet, "/?q=Post", nil)
	req.Header.Set("HX-Request", "true")
	rec := env.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<!doctype html>")
	assert.Contains(t, rec.Body.String(), `id="post-list"`)
}

func TestPostDetail(t *testing.T) {
	env := newTestEnv(t)
	author := testutil.NewTestAccount(t, env.repo, "author")
	post := testutil.NewTestPost(t, env.repo, author.ID, "A post", models.StatusPublished, time.Now())

	rec := env.get(fmt.Sprintf("/post/%d", post.ID))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<h1>A post</h1>")
	assert.Contains(t, rec.Body.String(), "Content of A post")
}

func TestPostDetail_NotFound(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/post/999", "/post/abc"} {
		rec := env.get(path)

		assert.Equal(t, http.StatusNotFound, rec.Code, path)
		assert.Contains(t, rec.Body.String(), "Page not found", path)
	}
}
