package handlers

import (
	"net/http"
	"strings"

	"propscope/backend-go/internal/dashboard"
)

// Props renders the session's active tab. ?tab= switches tabs first.
func (a *API) Props(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	tab := strings.TrimSpace(r.URL.Query().Get("tab"))

	var (
		snap dashboard.Snapshot
		err  error
	)
	sess.Do(func(v *dashboard.View) {
		if tab != "" && tab != v.ActiveTab() {
			if err = v.SwitchTab(tab); err != nil {
				return
			}
		}
		snap = v.Snapshot()
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

type searchRequest struct {
	Term string `json:"term"`
}

// Search stores the term and returns the active tab with visibility applied.
func (a *API) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var snap dashboard.Snapshot
	sess.Do(func(v *dashboard.View) {
		v.Search(req.Term)
		snap = v.Snapshot()
	})
	writeJSON(w, http.StatusOK, snap)
}
