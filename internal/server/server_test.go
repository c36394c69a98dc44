// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"codeberg.org/oliverandrich/inkwell/internal/config"
	"codeberg.org/oliverandrich/inkwell/internal/i18n"
	"codeberg.org/oliverandrich/inkwell/internal/metrics"
	"codeberg.org/oliverandrich/inkwell/internal/repository"
	"codeberg.org/oliverandrich/inkwell/internal/server"
	"codeberg.org/oliverandrich/inkwell/internal/services/session"
	"codeberg.org/oliverandrich/inkwell/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var codePattern = regexp.MustCompile(`[0-9]{6}`)

type captureSender struct {
	bodies []string
}

func (s *captureSender) Send(_ context.Context, _, _, body string) error {
	s.bodies = append(s.bodies, body)
	return nil
}

type client struct {
	e       *echo.Echo
	cookies map[string]*http.Cookie
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, c := range cl.cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	cl.e.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge < 0 {
			delete(cl.cookies, c.Name)
			continue
		}
		cl.cookies[c.Name] = c
	}
	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

// post submits form with the CSRF token from the client's cookie.
func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	if c, ok := cl.cookies["_csrf"]; ok {
		form.Set("csrf_token", c.Value)
	}
	return cl.do(testutil.NewFormRequest(path, form))
}

func newServer(t *testing.T) (*client, *repository.Repository, *captureSender) {
	t.Helper()
	require.NoError(t, i18n.Init())
	_, repo := testutil.NewTestDB(t)

	cfg := &config.Config{
		Server: config.ServerConfig{
			Host:        "localhost",
			Port:        8080,
			BaseURL:     "http://localhost:8080",
			MaxBodySize: 1,
			MediaDir:    t.TempDir(),
		},
		Session: config.SessionConfig{
			CookieName: "_session",
			MaxAge:     3600,
			HashKey:    testutil.TestHashKey,
			Store:      config.SessionStoreSQL,
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}

	sessions, err := session.NewManager(&cfg.Session, cfg.Secure(), session.NewSQLStore(repo))
	require.NoError(t, err)

	sender := &captureSender{}
	e := server.New(cfg, server.Deps{
		Repo:     repo,
		Sessions: sessions,
		Mailer:   sender,
		Metrics:  metrics.New(),
	})

	require.NoError(t, os.MkdirAll(filepath.Join(cfg.Server.MediaDir, "posts"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.Server.MediaDir, "posts", "cover.txt"), []byte("cover"), 0o600))

	return &client{e: e, cookies: map[string]*http.Cookie{}}, repo, sender
}

func TestRegistrationFlow(t *testing.T) {
	cl, repo, sender := newServer(t)

	page := cl.get("/register")
	require.Equal(t, http.StatusOK, page.Code)
	csrf, ok := cl.cookies["_csrf"]
	require.True(t, ok)
	assert.Contains(t, page.Body.String(), `name="csrf_token" value="`+csrf.Value+`"`)

	rec := cl.post("/register", url.Values{
		"username":  {"alice"},
		"email":     {"alice@example.com"},
		"password1": {testutil.TestPassword},
		"password2": {testutil.TestPassword},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/verify-email", rec.Header().Get("Location"))

	require.Len(t, sender.bodies, 1)
	code := codePattern.FindString(sender.bodies[0])
	require.NotEmpty(t, code)

	home := cl.get("/")
	require.Equal(t, http.StatusOK, home.Code)
	assert.Contains(t, home.Body.String(), "Signed in as alice")

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	rec = cl.post("/verify-email", url.Values{"verification_code": {wrong}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The verification code is incorrect.", rec.Body.String())

	rec = cl.post("/verify-email", url.Values{"verification_code": {code}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	account, err := repo.GetAccountByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, account.IsEmailVerified)

	metricsPage := cl.get("/metrics")
	require.Equal(t, http.StatusOK, metricsPage.Code)
	body := metricsPage.Body.String()
	assert.Contains(t, body, `inkwell_registrations_total{result="success"} 1`)
	assert.Contains(t, body, `inkwell_verifications_total{result="match"} 1`)
	assert.Contains(t, body, `inkwell_verifications_total{result="mismatch"} 1`)
	assert.Contains(t, body, `route="/register"`)

	rec = cl.post("/logout", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.NotContains(t, cl.get("/").Body.String(), "Signed in as")
}

func TestCSRFRequired(t *testing.T) {
	cl, repo, _ := newServer(t)
	require.Equal(t, http.StatusOK, cl.get("/register").Code)

	form := url.Values{
		"username":  {"alice"},
		"email":     {"alice@example.com"},
		"password1": {testutil.TestPassword},
		"password2": {testutil.TestPassword},
	}

	missing := cl.do(testutil.NewFormRequest("/register", form))
	assert.Contains(t, []int{http.StatusBadRequest, http.StatusForbidden}, missing.Code)

	form.Set("csrf_token", "not-the-token")
	forged := cl.do(testutil.NewFormRequest("/register", form))
	assert.Equal(t, http.StatusForbidden, forged.Code)
	assert.Contains(t, forged.Body.String(), "Forbidden")

	count, err := repo.CountAccounts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestCSRFHeaderForHtmx(t *testing.T) {
	cl, _, _ := newServer(t)
	require.Equal(t, http.StatusOK, cl.get("/verify-email").Code)

	req := testutil.NewFormRequest("/verify-email", url.Values{"verification_code": {"123456"}})
	req.Header.Set("HX-Request", "true")
	req.Header.Set("X-CSRF-Token", cl.cookies["_csrf"].Value)
	rec := cl.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "The verification code is incorrect.", rec.Body.String())
}

func TestHealthAndMetricsSkipCSRF(t *testing.T) {
	cl, _, _ := newServer(t)

	rec := cl.get("/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	_, ok := cl.cookies["_csrf"]
	assert.False(t, ok)
}

func TestSecurityHeaders(t *testing.T) {
	cl, _, _ := newServer(t)

	rec := cl.get("/")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "SAMEORIGIN", rec.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestTrailingSlashRedirect(t *testing.T) {
	cl, _, _ := newServer(t)

	rec := cl.get("/register/?next=%2F")

	assert.Equal(t, http.StatusMovedPermanently, rec.Code)
	assert.Equal(t, "/register?next=%2F", rec.Header().Get("Location"))
}

func TestPersianLocale(t *testing.T) {
	cl, _, _ := newServer(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "fa")
	rec := cl.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `<html lang="fa" dir="rtl">`)
}

func TestMediaFiles(t *testing.T) {
	cl, _, _ := newServer(t)

	rec := cl.get("/media/posts/cover.txt")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cover", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, cl.get("/media/posts/missing.txt").Code)
}

func TestNotFoundPage(t *testing.T) {
	cl, _, _ := newServer(t)

	rec := cl.get("/post/999")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}
