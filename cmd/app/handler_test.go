package main

import (
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/blogpost/internal/postservice"
)

type messageBody struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func TestPostOwnershipScenario(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	u1, token1 := registerUser(t, app, "author")
	_, token2 := registerUser(t, app, "intruder")

	status, _, body := ts.post(t, "/api/posts", token1, map[string]any{"title": "Hello", "content": "World"})
	require.Equal(t, http.StatusCreated, status, string(body))

	created := decode[postservice.Post](t, body)
	assert.Equal(t, u1, created.AuthorID.Hex())
	assert.True(t, created.PublishDate.Equal(created.LastUpdated))
	assert.Equal(t, []string{}, created.Category)

	path := "/api/posts/" + created.ID.Hex()

	status, _, body = ts.put(t, path, token2, map[string]any{"title": "Hacked"})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Not authorized", decode[messageBody](t, body).Message)

	status, _, body = ts.get(t, path, "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Hello", decode[postservice.Post](t, body).Title)

	status, _, body = ts.put(t, path, token1, map[string]any{"title": "Hi"})
	require.Equal(t, http.StatusOK, status, string(body))

	updated := decode[postservice.Post](t, body)
	assert.Equal(t, "Hi", updated.Title)
	assert.Equal(t, "World", updated.Content)
	assert.True(t, updated.LastUpdated.After(created.LastUpdated))
	assert.True(t, updated.PublishDate.Equal(created.PublishDate))

	status, _, _ = ts.delete(t, path, token2)
	assert.Equal(t, http.StatusForbidden, status)

	status, _, body = ts.delete(t, path, token1)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Post removed", decode[messageBody](t, body).Message)

	status, _, body = ts.get(t, path, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Post not found", decode[messageBody](t, body).Message)
}

func TestCreatePostHandler(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, token := registerUser(t, app, "writer")

	testCases := []struct {
		name       string
		token      string
		payload    any
		wantStatus int
		wantErrors map[string]string
	}{
		{
			name:       "valid post",
			token:      token,
			payload:    map[string]any{"title": "Go", "content": "<p>gophers</p>", "category": []string{"go"}, "featuredImage": "https://example.com/a.png"},
			wantStatus: http.StatusCreated,
		},
		{
			name:       "anonymous",
			payload:    map[string]any{"title": "Go", "content": "gophers"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			token:      "not-a-jwt",
			payload:    map[string]any{"title": "Go", "content": "gophers"},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "missing fields",
			token:      token,
			payload:    map[string]any{"category": []string{"go"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: map[string]string{"title": "must be provided", "content": "must be provided"},
		},
		{
			name:       "content that sanitises to nothing",
			token:      token,
			payload:    map[string]any{"title": "Go", "content": "<script>alert(1)</script>"},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: map[string]string{"content": "must be provided"},
		},
		{
			name:       "bad image url",
			token:      token,
			payload:    map[string]any{"title": "Go", "content": "gophers", "featuredImage": "not a url"},
			wantStatus: http.StatusUnprocessableEntity,
			wantErrors: map[string]string{"featuredImage": "must be a valid URL"},
		},
		{
			name:       "unknown field",
			token:      token,
			payload:    map[string]any{"title": "Go", "content": "gophers", "authorId": "abc"},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, header, body := ts.post(t, "/api/posts", tc.token, tc.payload)
			assert.Equal(t, tc.wantStatus, status, string(body))

			if tc.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, "Bearer", header.Get("WWW-Authenticate"))
			}

			if tc.wantErrors != nil {
				got := decode[messageBody](t, body)
				assert.Equal(t, "validation failed", got.Message)
				assert.Equal(t, tc.wantErrors, got.Errors)
			}
		})
	}
}

func TestListAndSearchPostsHandler(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	_, token := registerUser(t, app, "lister")
	other, otherToken := registerUser(t, app, "another")

	titles := []string{"Learning Go", "Cooking pasta", "GOLANG tips", "Gardening"}
	for i, title := range titles {
		tok := token
		if i == 3 {
			tok = otherToken
		}
		status, _, body := ts.post(t, "/api/posts", tok, map[string]any{"title": title, "content": fmt.Sprintf("post number %d", i)})
		require.Equal(t, http.StatusCreated, status, string(body))
		time.Sleep(5 * time.Millisecond)
	}

	t.Run("paging", func(t *testing.T) {
		status, _, body := ts.get(t, "/api/posts?page=2&limit=3", "")
		require.Equal(t, http.StatusOK, status)

		page := decode[postservice.PostPage](t, body)
		assert.Equal(t, 2, page.CurrentPage)
		assert.Equal(t, int64(2), page.TotalPages)
		assert.Equal(t, int64(4), page.TotalPosts)
		require.Len(t, page.Posts, 1)
		assert.Equal(t, "Learning Go", page.Posts[0].Title)
	})

	t.Run("defaults for bad values", func(t *testing.T) {
		status, _, body := ts.get(t, "/api/posts?page=zero&limit=-1", "")
		require.Equal(t, http.StatusOK, status)

		page := decode[postservice.PostPage](t, body)
		assert.Equal(t, postservice.DefaultPage, page.CurrentPage)
		require.Len(t, page.Posts, 4)
		assert.Equal(t, "Gardening", page.Posts[0].Title)
	})

	t.Run("by author", func(t *testing.T) {
		status, _, body := ts.get(t, "/api/posts?author="+other, "")
		require.Equal(t, http.StatusOK, status)

		page := decode[postservice.PostPage](t, body)
		assert.Equal(t, int64(1), page.TotalPosts)

		status, _, _ = ts.get(t, "/api/posts?author=nope", "")
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("search", func(t *testing.T) {
		status, _, body := ts.get(t, "/api/posts/search?keyword="+url.QueryEscape("go"), "")
		require.Equal(t, http.StatusOK, status)

		posts := decode[[]postservice.Post](t, body)
		require.Len(t, posts, 2)
		assert.Equal(t, "GOLANG tips", posts[0].Title)
		assert.Equal(t, "Learning Go", posts[1].Title)

		status, _, body = ts.get(t, "/api/posts/search?keyword="+url.QueryEscape("number 1"), "")
		require.Equal(t, http.StatusOK, status)
		assert.Len(t, decode[[]postservice.Post](t, body), 1)

		status, _, body = ts.get(t, "/api/posts/search?keyword="+url.QueryEscape(".*"), "")
		require.Equal(t, http.StatusOK, status)
		assert.JSONEq(t, "[]", string(body))
	})
}

func TestShowPostHandler_BadID(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	for _, id := range []string{"not-hex", "000000000000000000000000"} {
		status, _, body := ts.get(t, "/api/posts/"+id, "")
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Post not found", decode[messageBody](t, body).Message)
	}
}

func TestAuthHandlers(t *testing.T) {
	app := newTestApplication(t)
	ts := newTestServer(t, app.routes())

	register := map[string]any{"username": "reader", "email": "Reader@Example.com", "password": "Test_1234!"}

	status, _, body := ts.post(t, "/api/auth/register", "", register)
	require.Equal(t, http.StatusCreated, status, string(body))

	registered := decode[struct {
		Token string         `json:"token"`
		User  map[string]any `json:"user"`
	}](t, body)
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "reader@example.com", registered.User["email"])
	assert.NotContains(t, registered.User, "password")

	t.Run("duplicate email", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/auth/register", "", map[string]any{"username": "reader2", "email": "reader@example.com", "password": "Test_1234!"})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, map[string]string{"email": "a user with this email address already exists"}, decode[messageBody](t, body).Errors)
	})

	t.Run("duplicate username", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/auth/register", "", map[string]any{"username": "reader", "email": "other@example.com", "password": "Test_1234!"})
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, map[string]string{"username": "this username is already taken"}, decode[messageBody](t, body).Errors)
	})

	t.Run("login", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/auth/login", "", map[string]any{"email": "reader@example.com", "password": "Test_1234!"})
		require.Equal(t, http.StatusOK, status)
		token := decode[map[string]string](t, body)["token"]
		require.NotEmpty(t, token)

		status, _, body = ts.get(t, "/api/auth/me", token)
		require.Equal(t, http.StatusOK, status)
		me := decode[map[string]map[string]any](t, body)
		assert.Equal(t, "reader", me["user"]["username"])
	})

	t.Run("wrong password", func(t *testing.T) {
		status, _, body := ts.post(t, "/api/auth/login", "", map[string]any{"email": "reader@example.com", "password": "Wrong_1234!"})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid authentication credentials", decode[messageBody](t, body).Message)
	})

	t.Run("me without token", func(t *testing.T) {
		status, _, _ := ts.get(t, "/api/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}
