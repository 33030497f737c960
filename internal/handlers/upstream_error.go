package handlers

import (
	"context"
	"errors"
	"net"
	"net/http"

	"propscope/backend-go/internal/services"
)

// writeUpstreamError maps an analytics failure onto the status the browser sees.
func writeUpstreamError(w http.ResponseWriter, err error, status int) {
	var upErr *services.UpstreamError
	if errors.As(err, &upErr) {
		body := map[string]any{"error": err.Error(), "upstream_status": upErr.Status}
		switch {
		case upErr.Status == http.StatusTooManyRequests:
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, body)
		case upErr.Status == http.StatusRequestEntityTooLarge:
			writeJSON(w, http.StatusRequestEntityTooLarge, body)
		case upErr.Status == http.StatusRequestTimeout || upErr.Status == http.StatusGatewayTimeout:
			writeJSON(w, http.StatusGatewayTimeout, body)
		case upErr.Status >= 400 && upErr.Status < 500:
			writeJSON(w, http.StatusUnprocessableEntity, body)
		default:
			writeJSON(w, http.StatusBadGateway, body)
		}
		return
	}

	if errors.Is(err, services.ErrCircuitOpen) {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "analytics_unavailable"})
		return
	}
	if errors.Is(err, context.DeadlineExceeded) {
		writeJSON(w, http.StatusGatewayTimeout, map[string]any{"error": "upstream_timeout"})
		return
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		writeJSON(w, http.StatusGatewayTimeout, map[string]any{"error": "upstream_timeout"})
		return
	}
	if status >= 400 {
		writeJSON(w, status, map[string]any{"error": err.Error(), "upstream_status": status})
		return
	}
	writeJSON(w, http.StatusBadGateway, map[string]any{"error": err.Error()})
}
