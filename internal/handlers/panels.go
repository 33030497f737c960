package handlers

import (
	"errors"
	"net/http"

	"propscope/backend-go/internal/dashboard"
	"propscope/backend-go/internal/models"
)

func (a *API) Panel(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	pv, err := sess.Panel(r.PathValue("id"))
	a.writePanel(w, pv, err)
}

// TogglePanel is a click on the card body.
func (a *API) TogglePanel(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if isAsync(r) {
		pv, err := sess.TogglePanelAsync(r.PathValue("id"))
		a.writePanel(w, pv, err)
		return
	}
	ctx, cancel := timeboxed(r, a.cfg.VisualizeTimeout)
	defer cancel()
	pv, err := sess.TogglePanel(ctx, r.PathValue("id"))
	a.writePanel(w, pv, err)
}

type timeframeRequest struct {
	Timeframe string `json:"timeframe"`
}

// SelectTimeframe is a click on one of the rate chips.
func (a *API) SelectTimeframe(w http.ResponseWriter, r *http.Request) {
	var req timeframeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	tf := models.TimeframeLast5
	if req.Timeframe != "" {
		parsed, ok := dashboard.ParseTimeframe(req.Timeframe)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown timeframe "+req.Timeframe)
			return
		}
		tf = parsed
	}
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if isAsync(r) {
		pv, err := sess.SelectTimeframeAsync(r.PathValue("id"), tf)
		a.writePanel(w, pv, err)
		return
	}
	ctx, cancel := timeboxed(r, a.cfg.VisualizeTimeout)
	defer cancel()
	pv, err := sess.SelectTimeframe(ctx, r.PathValue("id"), tf)
	a.writePanel(w, pv, err)
}

func (a *API) ClosePanel(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	pv, err := sess.ClosePanel(r.PathValue("id"))
	a.writePanel(w, pv, err)
}

// isAsync reports ?async=1: answer with the loading state and push the result over the stream.
func isAsync(r *http.Request) bool {
	switch r.URL.Query().Get("async") {
	case "1", "true", "yes":
		return true
	}
	return false
}

// writePanel answers 200 for every panel state, including panel errors; only unknown cards fail.
func (a *API) writePanel(w http.ResponseWriter, pv dashboard.PanelView, err error) {
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownCard) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, pv)
}
