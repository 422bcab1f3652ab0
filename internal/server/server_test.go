package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	authModels "github.com/qolzam/metamorph/auth/models"
	"github.com/qolzam/metamorph/bookmarks/services"
	categoryModels "github.com/qolzam/metamorph/categories/models"
	"github.com/qolzam/metamorph/internal/apperr"
	"github.com/qolzam/metamorph/internal/cache"
	"github.com/qolzam/metamorph/internal/platform/config"
	"github.com/qolzam/metamorph/internal/testutil"
	"github.com/qolzam/metamorph/submissions/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	app     *fiber.App
	store   *testutil.Store
	fetcher *testutil.FakeFetcher
}

func newTestServer(t *testing.T, health func(context.Context) error) *testServer {
	t.Helper()
	cfg, err := config.LoadFromMap(map[string]string{"SESSION_SECRET": "test-secret"})
	require.NoError(t, err)

	store := testutil.NewStore()
	fetcher := testutil.NewFakeFetcher()
	memory := cache.NewMemoryCache()
	t.Cleanup(func() { memory.Close() })

	app := New(cfg, Dependencies{
		Users:       store.Users(),
		Categories:  store.Categories(),
		Contents:    store.Contents(),
		Submissions: store.Submissions(),
		Ballots:     store.Ballots(),
		Fetcher:     fetcher,
		Cache:       memory,
		HealthCheck: health,
	})
	return &testServer{app: app, store: store, fetcher: fetcher}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func (s *testServer) signup(t *testing.T, username string) string {
	t.Helper()
	status, raw := s.do(t, "POST", "/auth/signup", "",
		`{"email":"`+username+`@example.com","username":"`+username+`","password":"secret1"}`)
	require.Equal(t, 201, status, string(raw))

	var resp authModels.SessionResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestServer_SubmitVoteAndBookmark(t *testing.T) {
	s := newTestServer(t, nil)
	alice := s.signup(t, "alice")
	bob := s.signup(t, "bob")

	status, raw := s.do(t, "POST", "/categories", alice, `{"title":"Science"}`)
	require.Equal(t, 201, status, string(raw))
	var category categoryModels.Category
	require.NoError(t, json.Unmarshal(raw, &category))

	s.fetcher.SetPage("https://example.com/moths", map[string]string{"og:title": "Moths"})
	status, raw = s.do(t, "POST", "/submissions", alice,
		`{"categoryId":"`+category.ID.String()+`","comment":"wings","url":"https://example.com/moths"}`)
	require.Equal(t, 201, status, string(raw))
	var submitted models.SubmissionView
	require.NoError(t, json.Unmarshal(raw, &submitted))
	assert.Equal(t, "egg", submitted.Stage)
	require.NotNil(t, submitted.Content)
	assert.Equal(t, "Moths", submitted.Content.Title)

	status, raw = s.do(t, "POST", "/submissions/"+submitted.ID.String()+"/vote", bob, "")
	require.Equal(t, 200, status, string(raw))
	var voted models.SubmissionView
	require.NoError(t, json.Unmarshal(raw, &voted))
	assert.Equal(t, 1, voted.Votes)
	assert.Equal(t, "caterpillar", voted.Stage)
	assert.True(t, voted.MeHasVoted)

	status, raw = s.do(t, "GET", "/bookmarks", bob, "")
	require.Equal(t, 200, status, string(raw))
	var marked services.ListResponse
	require.NoError(t, json.Unmarshal(raw, &marked))
	require.Len(t, marked.Submissions, 1)
	assert.Equal(t, submitted.ID, marked.Submissions[0].ID)

	status, raw = s.do(t, "GET", "/bookmarks", alice, "")
	require.Equal(t, 200, status)
	require.NoError(t, json.Unmarshal(raw, &marked))
	assert.Empty(t, marked.Submissions)

	status, raw = s.do(t, "GET", "/submissions?stage=caterpillar", "", "")
	require.Equal(t, 200, status)
	var listed models.Page
	require.NoError(t, json.Unmarshal(raw, &listed))
	require.Len(t, listed.Submissions, 1)
	assert.False(t, listed.Submissions[0].MeHasVoted)
	assert.False(t, listed.HasNext)
	assert.Equal(t, models.DefaultLimit, listed.Limit)

	status, raw = s.do(t, "GET", "/metrics", "", "")
	require.Equal(t, 200, status)
	assert.Contains(t, string(raw), "metamorph_submissions_created_total 1")
	assert.Contains(t, string(raw), `metamorph_stage_transitions_total{from="egg",to="caterpillar"} 1`)
}

func TestServer_AnonymousWrites(t *testing.T) {
	s := newTestServer(t, nil)

	status, raw := s.do(t, "POST", "/categories", "", `{"title":"Science"}`)
	assert.Equal(t, 401, status)
	var resp apperr.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, apperr.CodeUnauthenticated, resp.Code)

	status, _ = s.do(t, "GET", "/bookmarks", "", "")
	assert.Equal(t, 401, status)

	// A garbage token is treated as no session
	status, _ = s.do(t, "POST", "/submissions/"+"00000000-0000-0000-0000-000000000000"+"/vote", "garbage", "")
	assert.Equal(t, 401, status)
}

func TestServer_LogoutRevokesToken(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup(t, "carol")

	status, raw := s.do(t, "GET", "/auth/me", token, "")
	require.Equal(t, 200, status)
	assert.Contains(t, string(raw), `"username":"carol"`)

	status, _ = s.do(t, "POST", "/auth/logout", token, "")
	require.Equal(t, 200, status)

	status, raw = s.do(t, "GET", "/auth/me", token, "")
	require.Equal(t, 200, status)
	assert.JSONEq(t, `{"user":null}`, string(raw))

	status, _ = s.do(t, "POST", "/auth/signup", token,
		`{"email":"dan@example.com","username":"dan","password":"secret1"}`)
	assert.Equal(t, 201, status, "revoked token no longer blocks signup")
}

func TestServer_SignupWhileLoggedIn(t *testing.T) {
	s := newTestServer(t, nil)
	token := s.signup(t, "erin")

	status, raw := s.do(t, "POST", "/auth/signup", token,
		`{"email":"frank@example.com","username":"frank","password":"secret1"}`)
	assert.Equal(t, 403, status)
	assert.Contains(t, string(raw), apperr.CodeAlreadyAuthenticated)
}

func TestServer_HealthAndUnknownRoute(t *testing.T) {
	s := newTestServer(t, nil)

	status, raw := s.do(t, "GET", "/health", "", "")
	assert.Equal(t, 200, status)
	assert.JSONEq(t, `{"status":"ok"}`, string(raw))

	status, raw = s.do(t, "GET", "/nowhere", "", "")
	assert.Equal(t, 404, status)
	var resp apperr.ErrorResponse
	require.NoError(t, json.Unmarshal(raw, &resp))
	assert.Equal(t, apperr.CodeNotFound, resp.Code)

	down := newTestServer(t, func(context.Context) error { return errors.New("db down") })
	status, _ = down.do(t, "GET", "/health", "", "")
	assert.Equal(t, 503, status)
}

func TestServer_RequestIDEchoed(t *testing.T) {
	s := newTestServer(t, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	resp, err := s.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "req-123", resp.Header.Get("X-Request-ID"))
}
