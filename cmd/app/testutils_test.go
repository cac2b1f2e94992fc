package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/blogpost/internal/common"
	"github.com/sushihentaime/blogpost/internal/postservice"
	"github.com/sushihentaime/blogpost/internal/userservice"
)

const testJWTSecret = "test-secret-that-is-long-enough-for-hs256"

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *Config {
	return &Config{
		Port:           ":0",
		Environment:    "testing",
		Version:        "test",
		TrustedOrigins: []string{"http://example.com"},
		JWTSecret:      testJWTSecret,
		JWTTTL:         time.Hour,
		CacheBackend:   cacheMemory,
		CacheTTL:       time.Minute,
	}
}

// newTestApplication wires the services against a fresh mongo container.
func newTestApplication(t *testing.T) *application {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	db := common.TestMongo(t, postservice.EnsureIndexes, userservice.EnsureIndexes)
	logger := discardLogger()
	cfg := testConfig()

	return &application{
		config:      cfg,
		logger:      logger,
		userService: userservice.NewUserService(db, nil, userservice.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), logger),
		postService: postservice.NewPostService(db, common.NewMemoryCache(cfg.CacheTTL, 2*cfg.CacheTTL), logger),
	}
}

// registerUser creates an account and returns its id and token.
func registerUser(t *testing.T, app *application, username string) (string, string) {
	t.Helper()

	user, token, err := app.userService.CreateUser(context.Background(), username, username+"@example.com", "Test_1234!")
	require.NoError(t, err)

	return user.ID.Hex(), token
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, []byte) {
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, res.Header, body
}

func decode[T any](t *testing.T, body []byte) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(body, &v), string(body))
	return v
}

func (ts *testServer) do(t *testing.T, method, path, token string, payload any) (int, http.Header, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		js, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(js)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path, token string) (int, http.Header, []byte) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) post(t *testing.T, path, token string, payload any) (int, http.Header, []byte) {
	return ts.do(t, http.MethodPost, path, token, payload)
}

func (ts *testServer) put(t *testing.T, path, token string, payload any) (int, http.Header, []byte) {
	return ts.do(t, http.MethodPut, path, token, payload)
}

func (ts *testServer) delete(t *testing.T, path, token string) (int, http.Header, []byte) {
	return ts.do(t, http.MethodDelete, path, token, nil)
}
