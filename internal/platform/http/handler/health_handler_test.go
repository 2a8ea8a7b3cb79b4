package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// checkerFunc は関数をReadinessCheckerとして扱うテスト用アダプターです。
type checkerFunc func() error

func (f checkerFunc) Ready() error { return f() }

func setupRouter(checkers ...ReadinessChecker) *gin.Engine {
	r := gin.New()
	h := NewHealthHandler(checkers...)
	r.GET("/healthz", h)
	r.HEAD("/healthz", h)
	r.OPTIONS("/healthz", h)
	return r
}

func TestHealth_GET(t *testing.T) {
	t.Parallel()

	router := setupRouter(checkerFunc(func() error { return nil }))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "ok", response["status"])
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestHealth_HEAD(t *testing.T) {
	t.Parallel()

	router := setupRouter()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodHead, "/healthz", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// HEAD should have no body
	assert.Equal(t, 0, w.Body.Len())
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestHealth_OPTIONS(t *testing.T) {
	t.Parallel()

	// OPTIONS is answered even when not ready
	router := setupRouter(checkerFunc(func() error { return errors.New("model not loaded") }))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/healthz", nil)

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestHealth_NotReady(t *testing.T) {
	t.Parallel()

	notReady := checkerFunc(func() error { return errors.New("model not loaded") })

	tests := []struct {
		method         string
		expectedStatus int
		expectBody     bool
	}{
		{http.MethodGet, http.StatusServiceUnavailable, true},
		{http.MethodHead, http.StatusServiceUnavailable, false},
	}

	router := setupRouter(checkerFunc(func() error { return nil }), notReady)

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			req := httptest.NewRequest(tt.method, "/healthz", nil)

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectBody {
				var response map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
				assert.Equal(t, "unavailable", response["status"])
				assert.Equal(t, "model not loaded", response["error"])
			}
		})
	}
}
