package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/twoLoop-40/hwp-transformer/internal/config"
	"github.com/twoLoop-40/hwp-transformer/internal/content"
	"github.com/twoLoop-40/hwp-transformer/internal/document"
	"github.com/twoLoop-40/hwp-transformer/internal/host"
	"github.com/twoLoop-40/hwp-transformer/internal/metrics"
	"github.com/twoLoop-40/hwp-transformer/internal/parser"
	"github.com/twoLoop-40/hwp-transformer/internal/transform"
	"github.com/twoLoop-40/hwp-transformer/internal/workspace"
)

// Request describes one transcription run.
type Request struct {
	Source string

	// Images overrides the sibling images of Source when non-nil.
	Images []string

	// OutputPath overrides <DownloadDir>/<folder><suffix>.docx when set.
	OutputPath string

	// Report, if set, is called as the run moves between phases.
	Report func(status JobStatus, phase string)
}

// Summary is what a run produced.
type Summary struct {
	Source        string            `json:"source"`
	Output        string            `json:"output"`
	SourceMissing bool              `json:"source_missing"`
	Lines         int               `json:"lines"`
	ContentHash   string            `json:"content_hash"`
	Math          []transform.Stats `json:"math"`
	Images        transform.Stats   `json:"images"`
	Duration      time.Duration     `json:"duration"`
}

// Equations is the number of equations created over all math passes.
func (s Summary) Equations() int {
	n := 0
	for _, m := range s.Math {
		n += m.Replaced
	}
	return n
}

// Failed is the number of occurrences that were found but not replaced.
func (s Summary) Failed() int {
	n := s.Images.Failed
	for _, m := range s.Math {
		n += m.Failed
	}
	return n
}

// SessionFactory opens a fresh document session.
type SessionFactory func(title string, log *slog.Logger) host.Session

func newDocumentSession(title string, log *slog.Logger) host.Session {
	return document.New(title, log)
}

// Transcriber runs the whole flow for one source: load, type, convert math,
// place images, save.
type Transcriber struct {
	cfg        config.Config
	metrics    metrics.Metrics
	log        *slog.Logger
	newSession SessionFactory
}

func NewTranscriber(cfg config.Config, m metrics.Metrics, log *slog.Logger) *Transcriber {
	if m == nil {
		m = metrics.NewNoopMetrics()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transcriber{cfg: cfg, metrics: m, log: log, newSession: newDocumentSession}
}

// Run transcribes req.Source. A missing source is logged and produces an
// empty document; a strict image mismatch aborts before anything is saved.
func (t *Transcriber) Run(ctx context.Context, req Request) (sum Summary, err error) {
	start := time.Now()
	report := req.Report
	if report == nil {
		report = func(JobStatus, string) {}
	}
	defer func() {
		sum.Duration = time.Since(start)
		status := metrics.RunSucceeded
		if err != nil {
			status = metrics.RunFailed
		}
		t.metrics.ObserveRun(status, sum.Duration.Seconds())
	}()

	src, err := workspace.Resolve(req.Source)
	if err != nil {
		return sum, err
	}
	sum.Source = src.Path
	log := t.log.With("source", src.FileName)

	report(StatusLoading, "loading source")
	c, err := parser.LoadFile(src.Path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Warn("source not found, continuing with empty content", "error", err)
		sum.SourceMissing = true
		c = &content.Content{Title: strings.TrimSuffix(src.FileName, filepath.Ext(src.FileName))}
	case err != nil:
		return sum, fmt.Errorf("load source: %w", err)
	}
	sum.Lines = len(c.Lines)
	sum.ContentHash = ContentHashHex([]byte(c.Text()))

	images := req.Images
	if images == nil && !sum.SourceMissing {
		images, err = src.ImagePaths()
		if err != nil {
			log.Warn("could not list images", "error", err)
			images = nil
		}
	}

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	sess := t.newSession(c.Title, log)
	defer sess.Close()

	report(StatusTyping, "typing text")
	if err := sess.InsertText(c.Text()); err != nil {
		return sum, fmt.Errorf("insert text: %w", err)
	}

	report(StatusEquations, "converting math")
	tr := transform.New(sess, t.cfg.EquationStyle(), log)
	for _, pass := range transform.PlanMathPasses(c.Lines, t.cfg.MathFences) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		sess.MoveDocBegin()
		st := tr.ReplaceMath(pass)
		sum.Math = append(sum.Math, st)
		t.metrics.ObserveObjects(metrics.ObjectEquation, st.Replaced, st.Failed)
	}

	if err := ctx.Err(); err != nil {
		return sum, err
	}

	report(StatusImages, "inserting images")
	placeholders, err := transform.CountMatches(c.Lines, t.cfg.ImagePlaceholder)
	if err != nil {
		return sum, fmt.Errorf("count placeholders: %w", err)
	}
	sess.MoveDocBegin()
	sum.Images, err = tr.InsertImages(t.cfg.ImagePlaceholder, transform.ImageJob{
		Paths:        images,
		Options:      t.cfg.ImageOptions(),
		Placeholders: placeholders,
		Policy:       t.cfg.ImagePolicy(),
	})
	if err != nil {
		return sum, fmt.Errorf("insert images: %w", err)
	}
	t.metrics.ObserveObjects(metrics.ObjectImage, sum.Images.Replaced, sum.Images.Failed)

	report(StatusSaving, "saving document")
	out := req.OutputPath
	if out == "" {
		out = src.OutputPath(t.cfg.DownloadDir, t.cfg.OutputSuffix, document.Extension)
	}
	if err := sess.SaveAs(out); err != nil {
		return sum, fmt.Errorf("save document: %w", err)
	}
	sum.Output = out

	log.Info("transcription finished",
		"output", out,
		"equations", sum.Equations(),
		"images", sum.Images.Replaced,
		"failed", sum.Failed(),
		"elapsed", time.Since(start),
	)
	return sum, nil
}
