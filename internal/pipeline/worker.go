package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/twoLoop-40/hwp-transformer/internal/document"
)

// Worker processes a single transcription job.
type Worker struct {
	transcriber *Transcriber
	log         *slog.Logger
	suffix      string
}

func NewWorker(t *Transcriber, log *slog.Logger, suffix string) *Worker {
	return &Worker{
		transcriber: t,
		log:         log,
		suffix:      suffix,
	}
}

// Process runs the transcription for a job and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.mu.Lock()
	req := Request{
		Source:     job.sourcePath,
		Images:     append([]string{}, job.imagePaths...),
		OutputPath: filepath.Join(job.workDir, outputName(job.Filename, w.suffix)),
	}
	job.mu.Unlock()
	req.Report = job.SetStatus

	sum, err := w.transcriber.Run(ctx, req)
	for _, st := range sum.Math {
		job.AddMathPass(st)
		for _, e := range st.Errors {
			job.AddError(fmt.Sprintf("%s: %s", st.Pattern, e))
		}
	}
	if sum.ContentHash != "" {
		job.mu.Lock()
		job.ContentHash = sum.ContentHash
		job.mu.Unlock()
	}

	if err != nil {
		log.Error("transcription failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "failed")
		return
	}

	job.SetImagePass(sum.Images)
	for _, e := range sum.Images.Errors {
		job.AddError(fmt.Sprintf("image: %s", e))
	}
	job.setOutputPath(sum.Output)

	missing := sum.Images.Missing
	for _, st := range sum.Math {
		missing += st.Missing
	}
	if sum.Failed() > 0 || missing > 0 {
		log.Warn("transcription incomplete", "failed", sum.Failed(), "missing", missing)
		job.SetStatus(StatusPartial, "done")
		return
	}
	job.SetStatus(StatusCompleted, "done")
}

// outputName derives the download name from the uploaded source name.
func outputName(filename, suffix string) string {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if base == "" || base == "." {
		base = "document"
	}
	return base + suffix + document.Extension
}
