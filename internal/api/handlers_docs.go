package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/twoLoop-40/hwp-transformer/internal/pipeline"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// handleDownload streams the produced document of a finished job.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	snap := job.Snapshot()
	if snap.Status != pipeline.StatusCompleted && snap.Status != pipeline.StatusPartial {
		jsonError(w, fmt.Sprintf("document not ready (status %s)", snap.Status), http.StatusConflict)
		return
	}

	path := job.OutputPath()
	f, err := os.Open(path)
	if err != nil {
		s.log.Error("open output failed", "job_id", jobID, "error", err)
		jsonError(w, "document unavailable", http.StatusGone)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		jsonError(w, "document unavailable", http.StatusGone)
		return
	}

	name := filepath.Base(path)
	w.Header().Set("Content-Type", docxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", url.PathEscape(name)))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// handleDeleteJob forgets a job and removes its uploads and output.
func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	if !s.orchestrator.DeleteJob(jobID) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":  jobID,
		"deleted": true,
	})
}
