package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"blogquery/app/config"
	"blogquery/app/middleware"
	"blogquery/app/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRouter(t *testing.T) http.Handler {
	store, err := repositories.OpenBadger("", nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := &config.Config{
		RequestTimeout: time.Second,
		CORSOrigins:    []string{"*"},
	}
	return SetupRoutes(store, cfg, nil)
}

func sendEvent(t *testing.T, router http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/events", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestQueryScenario(t *testing.T) {
	router := setupTestRouter(t)

	w := sendEvent(t, router, `{"type":"PostCreated","data":{"id":"p1","title":"Hello"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"PostCreated query works correctly"}`, w.Body.String())

	w = sendEvent(t, router, `{"type":"CommentCreated","data":{"id":"c1","postId":"p1","content":"first"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = sendEvent(t, router, `{"type":"CommentUpdated","data":{"commentId":"c1","postId":"p1","content":"first-edited"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/posts", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `[{"id":"p1","title":"Hello","comment":[{"id":"c1","content":"first-edited"}]}]`, w.Body.String())

	w = sendEvent(t, router, `{"type":"PostDeleted","data":{"id":"p1"}}`)
	require.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/posts", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestNotFoundResponses(t *testing.T) {
	router := setupTestRouter(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"post deleted", `{"type":"PostDeleted","data":{"id":"nope"}}`, `{"error":"Post Not Found"}`},
		{"comment created", `{"type":"CommentCreated","data":{"id":"c1","postId":"nope"}}`, `{"error":"Post Not Found"}`},
		{"comment deleted", `{"type":"CommentDeleted","data":{"commentId":"c1","postId":"nope"}}`, `{"message":"Post Not Found"}`},
		{"comment updated", `{"type":"CommentUpdated","data":{"commentId":"c1","postId":"nope"}}`, `{"message":"Post Not Found"}`},
		{"unknown event", `{"type":"postcreated","data":{}}`, `{"message":"Event Not Found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := sendEvent(t, router, tt.body)
			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestBadRequests(t *testing.T) {
	router := setupTestRouter(t)

	w := sendEvent(t, router, `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "Invalid JSON")

	w = sendEvent(t, router, `{"type":"PostCreated","data":{"title":"no id"}}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouting(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("unknown path", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nothing", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	})

	t.Run("wrong method", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/events", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("health", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	})

	t.Run("show post", func(t *testing.T) {
		sendEvent(t, router, `{"type":"PostCreated","data":{"id":"p9","title":"Nine"}}`)

		req := httptest.NewRequest(http.MethodGet, "/posts/p9", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"p9","title":"Nine","comment":[]}`, w.Body.String())
	})
}

func TestCORS(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("simple request", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/posts", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/events", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		req.Header.Set("Access-Control-Request-Headers", "Content-Type")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "Content-Type", w.Header().Get("Access-Control-Allow-Headers"))
	})

	t.Run("preflight for a method that is not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/events", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPut)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}
