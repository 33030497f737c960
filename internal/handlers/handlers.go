package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"propscope/backend-go/internal/config"
	"propscope/backend-go/internal/dashboard"
	"propscope/backend-go/internal/models"
	"propscope/backend-go/internal/services"
)

const sessionCookie = "propscope_session"

// Analytics is the part of the analytics service the handlers call directly.
type Analytics interface {
	Health(ctx context.Context) error
	Upload(ctx context.Context, files []services.UploadFile, viewMode string) (models.UploadResponse, int, error)
}

type API struct {
	cfg       config.Config
	cache     services.Cache
	analytics Analytics
	sessions  *dashboard.SessionStore
	log       logrus.FieldLogger
}

func New(cfg config.Config, cache services.Cache, analytics Analytics, sessions *dashboard.SessionStore, log logrus.FieldLogger) *API {
	return &API{
		cfg:       cfg,
		cache:     cache,
		analytics: analytics,
		sessions:  sessions,
		log:       log,
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// session resolves the caller's dashboard session, creating one (and its cookie) on first use.
// It writes the DataUnavailable response itself and returns false when no catalog is available.
func (a *API) session(w http.ResponseWriter, r *http.Request) (*dashboard.Session, bool) {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		id = c.Value
	}
	ctx, cancel := timeboxed(r, a.cfg.RequestTimeout)
	defer cancel()
	sess, created, err := a.sessions.Get(ctx, id)
	if err != nil {
		writeDataUnavailable(w, err)
		return nil, false
	}
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess, true
}

func writeDataUnavailable(w http.ResponseWriter, err error) {
	msg := "No props data available"
	if errors.Is(err, dashboard.ErrCatalogFetch) {
		msg = "Error loading props data"
	}
	body := map[string]any{"error": msg}
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		body["upstream_status"] = upErr.Status
		body["detail"] = upErr.Error()
	}
	writeJSON(w, http.StatusServiceUnavailable, body)
}

// decodeBody reads a small JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func timeboxed(r *http.Request, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(r.Context())
	}
	return context.WithTimeout(r.Context(), d)
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
