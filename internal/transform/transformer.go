package transform

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/twoLoop-40/hwp-transformer/internal/host"
)

// DefaultSeparator joins the lines of a multi-line equation script.
const DefaultSeparator = " #"

// EquationStyle is applied to every equation a math pass creates.
type EquationStyle struct {
	Font      string
	BaseUnit  float64 // points
	Separator string
}

// DefaultEquationStyle matches Hangul's equation editor defaults.
func DefaultEquationStyle() EquationStyle {
	return EquationStyle{Font: "HancomEQN", BaseUnit: 10.0, Separator: DefaultSeparator}
}

// ImagePolicy decides what happens when placeholders and images disagree.
type ImagePolicy string

const (
	// PolicyBestEffort inserts as many images as there are both paths and
	// placeholders, and logs the mismatch.
	PolicyBestEffort ImagePolicy = "best-effort"
	// PolicyStrict refuses to touch the document on a mismatch.
	PolicyStrict ImagePolicy = "strict"
)

// ImageJob is the input of an image pass.
type ImageJob struct {
	Paths        []string
	Options      host.ImageOptions
	Placeholders int // placeholders counted in the source, -1 when unknown
	Policy       ImagePolicy
}

// Stats summarises one pass.
type Stats struct {
	Pattern  string   `json:"pattern"`
	Planned  int      `json:"planned"`
	Replaced int      `json:"replaced"`
	Failed   int      `json:"failed"`
	Missing  int      `json:"missing"`
	Errors   []string `json:"errors,omitempty"`
}

func (s *Stats) fail(err error) {
	s.Failed++
	s.Errors = append(s.Errors, err.Error())
}

// Transformer runs replacement passes against one host. It assumes exclusive
// use of the host for the duration of a pass.
type Transformer struct {
	host  host.Host
	style EquationStyle
	log   *slog.Logger
}

func New(h host.Host, style EquationStyle, log *slog.Logger) *Transformer {
	if style.Separator == "" {
		style.Separator = DefaultSeparator
	}
	if log == nil {
		log = slog.Default()
	}
	return &Transformer{host: h, style: style, log: log}
}

// ReplaceMath converts pass.Repeat fenced regions, starting at the host
// cursor, into equation objects. A failing occurrence is logged and skipped;
// the pass ends early once no further fence can be found.
func (t *Transformer) ReplaceMath(pass MathPass) Stats {
	stats := Stats{Pattern: pass.Fence, Planned: pass.Repeat}
	log := t.log.With("fence", pass.Fence)
	chain := NewChain(t.host, pass.Pattern)

	for i := range pass.Repeat {
		pair, err := chain.LocatePair(CellsBefore(pass.Width))
		if err != nil {
			stats.Missing = pass.Repeat - i
			stats.Errors = append(stats.Errors, err.Error())
			log.Warn("math pass ended early", "occurrence", i, "error", err)
			break
		}
		if err := t.replaceRegion(pair, pass.Fence); err != nil {
			stats.fail(err)
			log.Warn("math occurrence failed", "occurrence", i, "start", pair.Start.String(), "error", err)
		} else {
			stats.Replaced++
		}
		chain.Advance()
	}

	log.Info("math pass finished", "planned", stats.Planned, "replaced", stats.Replaced, "failed", stats.Failed)
	return stats
}

// replaceRegion swaps the selected region for an equation. The selection is
// cancelled on every return path.
func (t *Transformer) replaceRegion(pair PositionPair, fence string) (err error) {
	t.host.Select(pair.Start, pair.End)
	defer t.host.CancelSelection()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panic: %v", r)
		}
	}()

	// The selection is deleted whole, so a partially read range is left alone.
	source, err := ExtractMath(NewBlockScanner(t.host.ScanRange()), fence, t.style.Separator)
	if err != nil {
		return fmt.Errorf("extract %s: %w", pair.Start, err)
	}
	t.host.DeleteBackward()
	if err := t.host.CreateEquation(host.Equation{
		Source:   source,
		Font:     t.style.Font,
		BaseUnit: t.style.BaseUnit,
	}); err != nil {
		return fmt.Errorf("create equation: %w", err)
	}
	return nil
}

// ExtractMath gathers the scanned fragments into one equation script: fences
// and line breaks are removed, empty pieces dropped, and the rest joined with
// sep. A sentinel before any text yields ErrSentinelFragment. A later one ends
// extraction and returns what was gathered together with ErrTruncatedRange.
func ExtractMath(s *BlockScanner, fence, sep string) (string, error) {
	defer s.Close()

	var parts []string
	for {
		r := s.Next()
		switch r.Kind {
		case ScanMore:
			piece := r.Text
			if fence != "" {
				piece = strings.ReplaceAll(piece, fence, "")
			}
			piece = strings.NewReplacer("\r\n", "", "\n", "").Replace(piece)
			if piece != "" {
				parts = append(parts, piece)
			}
			continue
		case ScanSentinel:
			if len(parts) == 0 {
				return "", ErrSentinelFragment
			}
			return strings.Join(parts, sep), ErrTruncatedRange
		}
		return strings.Join(parts, sep), nil
	}
}

// InsertImages replaces placeholder markers matching pattern, left to right,
// with the job's images in order. It stops when the paths run out or no
// further marker exists.
func (t *Transformer) InsertImages(pattern string, job ImageJob) (Stats, error) {
	stats := Stats{Pattern: pattern, Planned: len(job.Paths)}
	log := t.log.With("pattern", pattern)

	if job.Placeholders >= 0 && job.Placeholders != len(job.Paths) {
		if job.Policy == PolicyStrict {
			return stats, fmt.Errorf("%d placeholders, %d images: %w", job.Placeholders, len(job.Paths), ErrPlaceholderMismatch)
		}
		log.Warn("placeholder count does not match images", "placeholders", job.Placeholders, "images", len(job.Paths))
	}

	chain := NewChain(t.host, pattern)
	for i, path := range job.Paths {
		if _, err := chain.LocateToken(); err != nil {
			stats.Missing = len(job.Paths) - i
			stats.Errors = append(stats.Errors, err.Error())
			log.Warn("image pass ended early", "inserted", stats.Replaced, "left", stats.Missing)
			break
		}
		if err := t.replaceMarker(path, job.Options); err != nil {
			stats.fail(err)
			log.Warn("image insertion failed", "path", path, "error", err)
		} else {
			stats.Replaced++
		}
		chain.Advance()
	}

	log.Info("image pass finished", "planned", stats.Planned, "replaced", stats.Replaced)
	return stats, nil
}

func (t *Transformer) replaceMarker(path string, opts host.ImageOptions) (err error) {
	defer t.host.CancelSelection()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("host panic: %v", r)
		}
	}()

	t.host.DeleteBackward()
	return t.host.InsertImage(path, opts)
}
