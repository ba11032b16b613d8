package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/twoLoop-40/hwp-transformer/internal/parser"
	"github.com/twoLoop-40/hwp-transformer/internal/workspace"
)

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	sources := r.MultipartForm.File["source"]
	if len(sources) != 1 {
		jsonError(w, "exactly one source file is required", http.StatusBadRequest)
		return
	}
	filename := sanitizeFilename(sources[0].Filename)
	if !parser.IsSupportedExtension(filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(filename)), http.StatusBadRequest)
		return
	}

	images := map[string]*multipart.FileHeader{}
	var names []string
	for _, fh := range r.MultipartForm.File["images"] {
		name := sanitizeFilename(fh.Filename)
		if !workspace.IsImage(name) {
			jsonError(w, fmt.Sprintf("unsupported image type: %s", filepath.Ext(name)), http.StatusBadRequest)
			return
		}
		if _, dup := images[name]; dup {
			jsonError(w, "duplicate image name: "+name, http.StatusBadRequest)
			return
		}
		images[name] = fh
		names = append(names, name)
	}
	// Placeholders are filled in name order, as with images next to a source file.
	sort.Strings(names)

	job, err := s.orchestrator.NewJob(filename)
	if err != nil {
		s.log.Error("create job failed", "error", err)
		jsonError(w, "failed to create job", http.StatusInternalServerError)
		return
	}
	dir := job.WorkDir()

	srcPath := filepath.Join(dir, "source", filename)
	if err := saveUpload(sources[0], srcPath); err != nil {
		os.RemoveAll(dir)
		jsonError(w, "failed to store source: "+err.Error(), http.StatusInternalServerError)
		return
	}
	imagePaths := make([]string, 0, len(names))
	for _, name := range names {
		p := filepath.Join(dir, "images", name)
		if err := saveUpload(images[name], p); err != nil {
			os.RemoveAll(dir)
			jsonError(w, "failed to store image: "+err.Error(), http.StatusInternalServerError)
			return
		}
		imagePaths = append(imagePaths, p)
	}
	job.SetInputs(dir, srcPath, imagePaths)

	if err := s.orchestrator.Submit(job); err != nil {
		s.orchestrator.DeleteJob(job.ID)
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":       job.ID,
		"status":       job.Snapshot().Status,
		"images":       len(imagePaths),
		"poll_url":     fmt.Sprintf("/api/transcribe/%s/status", job.ID),
		"document_url": fmt.Sprintf("/api/transcribe/%s/document", job.ID),
	})
}

func (s *Server) handleTranscribeStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":       snap.ID,
		"filename":     snap.Filename,
		"status":       snap.Status,
		"phase":        snap.Phase,
		"content_hash": snap.ContentHash,
		"progress":     snap.Progress,
	})
}

func saveUpload(fh *multipart.FileHeader, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	in, err := fh.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	// Remove any path separators that might have survived.
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
