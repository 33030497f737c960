package handlers

import (
	"net/http"

	"propscope/backend-go/internal/dashboard"
)

func (a *API) Filters(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var opts dashboard.FilterOptions
	sess.Do(func(v *dashboard.View) { opts = v.Filter().Options() })
	writeJSON(w, http.StatusOK, opts)
}

// applyFiltersRequest carries exactly the checked toggles of the filter surface.
type applyFiltersRequest struct {
	Types []string `json:"types"`
	Games []string `json:"games"`
}

func (a *API) ApplyFilters(w http.ResponseWriter, r *http.Request) {
	var req applyFiltersRequest
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
		v.ApplySelection(req.Types, req.Games)
		snap = v.Snapshot()
	})
	writeJSON(w, http.StatusOK, snap)
}

func (a *API) ResetFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var snap dashboard.Snapshot
	sess.Do(func(v *dashboard.View) {
		v.ResetFilters()
		snap = v.Snapshot()
	})
	writeJSON(w, http.StatusOK, snap)
}

// EditFilters opens the filter surface with a draft of the applied filters.
func (a *API) EditFilters(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var opts dashboard.FilterOptions
	sess.Do(func(v *dashboard.View) { opts = v.EditFilters().Options() })
	writeJSON(w, http.StatusOK, opts)
}

type toggleFilterRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

// ToggleFilter flips one checkbox of the open draft. kind is "type" or "game"; games are
// addressed by their normalized key.
func (a *API) ToggleFilter(w http.ResponseWriter, r *http.Request) {
	var req toggleFilterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Kind != "type" && req.Kind != "game" {
		writeError(w, http.StatusBadRequest, "kind must be type or game")
		return
	}
	a.withDraft(w, r, func(d *dashboard.FilterDraft) (int, string) {
		var known bool
		if req.Kind == "type" {
			known = d.ToggleType(req.Value)
		} else {
			known = d.ToggleGame(req.Value)
		}
		if !known {
			return http.StatusBadRequest, "unknown filter value"
		}
		return http.StatusOK, ""
	})
}

// CheckAllFilters is the reset button inside the filter surface; nothing is applied yet.
func (a *API) CheckAllFilters(w http.ResponseWriter, r *http.Request) {
	a.withDraft(w, r, func(d *dashboard.FilterDraft) (int, string) {
		d.CheckAll()
		return http.StatusOK, ""
	})
}

func (a *API) withDraft(w http.ResponseWriter, r *http.Request, fn func(d *dashboard.FilterDraft) (int, string)) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var (
		opts dashboard.FilterOptions
		code = http.StatusConflict
		msg  = "no filter draft open"
	)
	sess.Do(func(v *dashboard.View) {
		d, open := v.Draft()
		if !open {
			return
		}
		code, msg = fn(d)
		opts = d.Options()
	})
	if code != http.StatusOK {
		writeError(w, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

func (a *API) ApplyFilterDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var (
		snap    dashboard.Snapshot
		applied bool
	)
	sess.Do(func(v *dashboard.View) {
		if applied = v.ApplyDraft(); applied {
			snap = v.Snapshot()
		}
	})
	if !applied {
		writeError(w, http.StatusConflict, "no filter draft open")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// DiscardFilterDraft closes the filter surface without applying; the applied options are returned.
func (a *API) DiscardFilterDraft(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var opts dashboard.FilterOptions
	sess.Do(func(v *dashboard.View) {
		v.DiscardDraft()
		opts = v.Filter().Options()
	})
	writeJSON(w, http.StatusOK, opts)
}
