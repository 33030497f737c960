package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"propscope/backend-go/internal/config"
	"propscope/backend-go/internal/dashboard"
	"propscope/backend-go/internal/logging"
	"propscope/backend-go/internal/models"
	"propscope/backend-go/internal/services"
)

type stubAnalytics struct{}

func (stubAnalytics) Health(context.Context) error { return nil }

func (stubAnalytics) Upload(context.Context, []services.UploadFile, string) (models.UploadResponse, int, error) {
	return models.UploadResponse{}, http.StatusOK, nil
}

func (stubAnalytics) GetProps(context.Context) ([]byte, error) {
	return []byte(`{"props_by_type":{"standard":[]}}`), nil
}

func (stubAnalytics) Visualize(context.Context, models.VisualizeRequest) (models.VisualizeResponse, error) {
	return models.VisualizeResponse{}, nil
}

func newTestRouter(perMin int) http.Handler {
	log := logging.Discard()
	sessions := dashboard.NewSessionStore(stubAnalytics{}, stubAnalytics{}, dashboard.SessionOptions{}, log)
	return NewRouter(config.Config{RateLimitPerMin: perMin}, services.NewMemoryCache(), stubAnalytics{}, sessions, log)
}

func TestRouterMethods(t *testing.T) {
	h := newTestRouter(1000)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/props", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/panels/standard-0/toggle", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/upload", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/panels/standard-0/toggle", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/filters/draft/apply", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/filters/draft", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitPerClient(t *testing.T) {
	h := newTestRouter(2)
	get := func(ip string) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
		req.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, get("1.1.1.1"))
	assert.Equal(t, http.StatusOK, get("1.1.1.1"))
	assert.Equal(t, http.StatusTooManyRequests, get("1.1.1.1"))
	assert.Equal(t, http.StatusOK, get("2.2.2.2"))
}

func TestRecoveryWritesInternalError(t *testing.T) {
	h := withRecovery(logging.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal"}`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", clientIP(req))
}
