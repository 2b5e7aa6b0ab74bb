package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRouterHealthEndpoints(t *testing.T) {
	router := NewRouter(WithHealthHandlers(NewHealthHandlers(
		WithVersion("test"),
		WithCheck("firestore", func(context.Context) error { return nil }),
	)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"version":"test"`)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"firestore":"ok"`)
}

func TestRouterReadinessFailure(t *testing.T) {
	router := NewRouter(WithHealthHandlers(NewHealthHandlers(
		WithCheck("redis", func(context.Context) error { return errors.New("dial tcp: refused") }),
	)))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), `"redis":"error"`)
	require.NotContains(t, rec.Body.String(), "refused", "check errors are logged, not returned")
}

func TestRouterNotFoundEnvelope(t *testing.T) {
	router := NewRouter()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"error":"route_not_found"`)
	require.NotEmpty(t, rec.Header().Get("Content-Type"))
}

func TestRouterUnconfiguredGroupsAreNotImplemented(t *testing.T) {
	router := NewRouter()

	for _, path := range []string{"/api/elements", "/api/designs/save", "/api/admin/assets", "/api/payments/intent"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusNotImplemented, rec.Code, path)
	}
}
