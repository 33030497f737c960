package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"propscope/backend-go/internal/dashboard"
	"propscope/backend-go/internal/services"
)

const (
	statsField = "nbaStatsFile"
	propsField = "propsFile"
)

type uploadResponse struct {
	Message  string                   `json:"message,omitempty"`
	Warning  string                   `json:"warning,omitempty"`
	Redirect string                   `json:"redirect,omitempty"`
	Analysis []dashboard.AnalysisCard `json:"analysis,omitempty"`
}

// Upload forwards the two CSV files to the analytics service. A successful upload replaces the
// data set, so every session is dropped and reloads its catalog on the next request.
func (a *API) Upload(w http.ResponseWriter, r *http.Request) {
	if a.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, a.cfg.MaxUploadBytes)
	}
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]any{"error": "Upload too large", "limit_bytes": tooLarge.Limit})
			return
		}
		writeError(w, http.StatusBadRequest, "Both files are required")
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := make([]services.UploadFile, 0, 2)
	for _, field := range []string{statsField, propsField} {
		f, hdr, err := r.FormFile(field)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Both files are required")
			return
		}
		defer f.Close()
		if hdr.Filename == "" {
			writeError(w, http.StatusBadRequest, "Both files must be selected")
			return
		}
		files = append(files, services.UploadFile{Field: field, Filename: hdr.Filename, Body: f})
	}
	viewMode := r.FormValue("viewMode")

	ctx, cancel := timeboxed(r, a.cfg.UploadTimeout)
	defer cancel()
	resp, status, err := a.analytics.Upload(ctx, files, viewMode)
	if err != nil {
		a.log.WithError(err).Error("upload failed")
		writeUpstreamError(w, err, status)
		return
	}
	if resp.Error != "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": resp.Error})
		return
	}

	a.sessions.Invalidate()

	out := uploadResponse{Message: resp.Message, Warning: resp.Warning, Redirect: resp.Redirect}
	for i, res := range resp.Analysis {
		out.Analysis = append(out.Analysis, dashboard.RenderAnalysis(fmt.Sprintf("analysis-%d", i), res))
	}
	a.log.WithField("analysis", len(out.Analysis)).Info("upload accepted")
	writeJSON(w, http.StatusOK, out)
}
