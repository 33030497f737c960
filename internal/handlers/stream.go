package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// StreamPanels pushes panel state changes of the caller's session as server-sent events.
func (a *API) StreamPanels(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusBadRequest)
		return
	}
	sess, ok := a.session(w, r)
	if !ok {
		return
	}

	// subscribed before the headers go out, so a client never misses the first change
	updates, unsubscribe := sess.Subscribe(r.Context())
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	keepalive := time.NewTicker(15 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepalive.C:
			_, _ = fmt.Fprint(w, ": keepalive\n\n")
			flusher.Flush()
		case pv, ok := <-updates:
			if !ok {
				return
			}
			data, err := json.Marshal(pv)
			if err != nil {
				a.log.WithError(err).Warn("panel event marshal failed")
				continue
			}
			_, _ = fmt.Fprintf(w, "event: panel\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
