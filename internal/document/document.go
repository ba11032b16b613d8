// Package document is an in-memory word-processor session. Paragraphs are
// sequences of cells: characters, equation objects and pictures, where every
// object occupies exactly one cell, the way controls occupy a character slot in
// a Hangul document. The session implements host.Session and exports to .docx.
package document

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/twoLoop-40/hwp-transformer/internal/host"
)

// CellKind tells what a cell holds.
type CellKind int

const (
	CellChar CellKind = iota
	CellEquation
	CellImage
)

// Cell is one character slot of a paragraph.
type Cell struct {
	Kind     CellKind
	Char     rune
	Equation *host.Equation
	Image    *Image
}

// Image is an inserted picture.
type Image struct {
	Path    string
	Options host.ImageOptions
}

// ObjectRune stands in for equation and picture cells in Text and searches.
const ObjectRune = '\uFFFC'

// Extension is the file extension SaveAs writes.
const Extension = ".docx"

var (
	ErrClosed        = errors.New("document is closed")
	ErrEmptyEquation = errors.New("empty equation source")
)

var _ host.Session = (*Document)(nil)

// Document is a live editing session. It is not safe for concurrent use.
type Document struct {
	Title string

	paras     [][]Cell
	cursor    host.Position
	anchor    host.Position
	selecting bool
	patterns  map[string]*regexp.Regexp
	closed    bool
	log       *slog.Logger
}

// New opens an empty document with a single empty paragraph.
func New(title string, log *slog.Logger) *Document {
	if log == nil {
		log = slog.Default()
	}
	return &Document{
		Title:    title,
		paras:    [][]Cell{{}},
		patterns: make(map[string]*regexp.Regexp),
		log:      log.With("document", title),
	}
}

// InsertText types text at the cursor. "\r\n", "\r" and "\n" start a new
// paragraph.
func (d *Document) InsertText(text string) error {
	if d.closed {
		return ErrClosed
	}
	d.selecting = false
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for _, r := range text {
		if r == '\n' {
			d.splitParagraph()
			continue
		}
		d.insertCell(Cell{Kind: CellChar, Char: r})
	}
	return nil
}

func (d *Document) MoveDocBegin() {
	d.cursor = host.Position{}
	d.selecting = false
}

func (d *Document) Cursor() host.Position { return d.cursor }

// SetCursor moves the cursor and drops any selection.
func (d *Document) SetCursor(p host.Position) {
	d.cursor = d.clamp(p)
	d.selecting = false
}

func (d *Document) ForwardFind(pattern string) (host.Position, bool) {
	re, err := d.compile(pattern)
	if err != nil {
		d.log.Warn("invalid search pattern", "pattern", pattern, "error", err)
		return d.cursor, false
	}
	for pi := d.cursor.Para; pi < len(d.paras); pi++ {
		from := 0
		if pi == d.cursor.Para {
			from = d.cursor.Pos
		}
		start, end, ok := findRunes(re, searchRunes(d.paras[pi]), from)
		if !ok {
			continue
		}
		d.anchor = host.Position{Para: pi, Pos: start}
		d.cursor = host.Position{Para: pi, Pos: end}
		d.selecting = true
		return d.cursor, true
	}
	return d.cursor, false
}

func (d *Document) Select(from, to host.Position) {
	d.anchor = d.clamp(from)
	d.cursor = d.clamp(to)
	d.selecting = true
}

func (d *Document) CancelSelection() { d.selecting = false }

// Selecting reports whether a selection is active.
func (d *Document) Selecting() bool { return d.selecting }

func (d *Document) DeleteBackward() {
	if d.selecting {
		lo, hi := d.selection()
		d.deleteRange(lo, hi)
		d.cursor = lo
		d.selecting = false
		return
	}
	c := d.cursor
	switch {
	case c.Pos > 0:
		d.deleteRange(c.Shift(-1), c)
		d.cursor = c.Shift(-1)
	case c.Para > 0:
		prev := host.Position{Para: c.Para - 1, Pos: len(d.paras[c.Para-1])}
		d.deleteRange(prev, c)
		d.cursor = prev
	}
}

// ScanRange returns a scanner over the selected range. Without a selection the
// scanner is immediately exhausted.
func (d *Document) ScanRange() host.RangeScanner {
	if !d.selecting || d.closed {
		return &rangeScanner{done: true}
	}
	lo, hi := d.selection()
	return &rangeScanner{doc: d, lo: lo, hi: hi, para: lo.Para}
}

func (d *Document) CreateEquation(eq host.Equation) error {
	if d.closed {
		return ErrClosed
	}
	if strings.TrimSpace(eq.Source) == "" {
		return ErrEmptyEquation
	}
	d.selecting = false
	d.insertCell(Cell{Kind: CellEquation, Equation: &eq})
	return nil
}

func (d *Document) InsertImage(path string, opts host.ImageOptions) error {
	if d.closed {
		return ErrClosed
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("insert image: %s is a directory", path)
	}
	d.selecting = false
	d.insertCell(Cell{Kind: CellImage, Image: &Image{Path: path, Options: opts}})
	return nil
}

// Close clears the document. Further edits fail with ErrClosed.
func (d *Document) Close() error {
	d.paras = [][]Cell{{}}
	d.cursor = host.Position{}
	d.selecting = false
	d.closed = true
	return nil
}

// Text renders the document as plain text, one line per paragraph, with
// objects shown as ObjectRune.
func (d *Document) Text() string {
	lines := make([]string, len(d.paras))
	for i, para := range d.paras {
		lines[i] = string(searchRunes(para))
	}
	return strings.Join(lines, "\n")
}

// Equations lists equation objects in document order.
func (d *Document) Equations() []host.Equation {
	var out []host.Equation
	for _, para := range d.paras {
		for _, c := range para {
			if c.Kind == CellEquation {
				out = append(out, *c.Equation)
			}
		}
	}
	return out
}

// Images lists inserted pictures in document order.
func (d *Document) Images() []Image {
	var out []Image
	for _, para := range d.paras {
		for _, c := range para {
			if c.Kind == CellImage {
				out = append(out, *c.Image)
			}
		}
	}
	return out
}

func (d *Document) clamp(p host.Position) host.Position {
	p.List = 0
	p.Para = max(0, min(p.Para, len(d.paras)-1))
	p.Pos = max(0, min(p.Pos, len(d.paras[p.Para])))
	return p
}

func (d *Document) selection() (lo, hi host.Position) {
	lo, hi = d.anchor, d.cursor
	if hi.Before(lo) {
		lo, hi = hi, lo
	}
	return lo, hi
}

func (d *Document) insertCell(c Cell) {
	p := d.cursor
	d.paras[p.Para] = slices.Insert(d.paras[p.Para], p.Pos, c)
	d.cursor.Pos++
}

func (d *Document) splitParagraph() {
	p := d.cursor
	para := d.paras[p.Para]
	tail := slices.Clone(para[p.Pos:])
	d.paras[p.Para] = para[:p.Pos:p.Pos]
	d.paras = slices.Insert(d.paras, p.Para+1, tail)
	d.cursor = host.Position{Para: p.Para + 1}
}

func (d *Document) deleteRange(lo, hi host.Position) {
	if lo.Para == hi.Para {
		d.paras[lo.Para] = slices.Delete(d.paras[lo.Para], lo.Pos, hi.Pos)
		return
	}
	merged := slices.Clone(d.paras[lo.Para][:lo.Pos])
	merged = append(merged, d.paras[hi.Para][hi.Pos:]...)
	d.paras[lo.Para] = merged
	d.paras = slices.Delete(d.paras, lo.Para+1, hi.Para+1)
}

func (d *Document) compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := d.patterns[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	d.patterns[pattern] = re
	return re, nil
}

func searchRunes(para []Cell) []rune {
	out := make([]rune, len(para))
	for i, c := range para {
		if c.Kind == CellChar {
			out[i] = c.Char
		} else {
			out[i] = ObjectRune
		}
	}
	return out
}

// findRunes returns the rune offsets of the first non-empty match at or after
// from.
func findRunes(re *regexp.Regexp, runes []rune, from int) (start, end int, ok bool) {
	if from > len(runes) {
		return 0, 0, false
	}
	s := string(runes[from:])
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[1] > loc[0] {
			return from + utf8.RuneCountInString(s[:loc[0]]), from + utf8.RuneCountInString(s[:loc[1]]), true
		}
	}
	return 0, 0, false
}

// rangeScanner walks the selected range one paragraph at a time. Each fragment
// carries "\r\n" when the range continues into the next paragraph.
type rangeScanner struct {
	doc    *Document
	lo, hi host.Position
	para   int
	done   bool
}

func (s *rangeScanner) Next() (string, bool) {
	for !s.done && s.para <= s.hi.Para {
		pi := s.para
		s.para++
		cells := s.doc.paras[pi]
		from, to := 0, len(cells)
		if pi == s.lo.Para {
			from = s.lo.Pos
		}
		if pi == s.hi.Para {
			to = s.hi.Pos
		}
		var b strings.Builder
		for _, c := range cells[from:to] {
			if c.Kind == CellChar {
				b.WriteRune(c.Char)
			}
		}
		if pi < s.hi.Para {
			b.WriteString("\r\n")
		}
		if b.Len() > 0 {
			return b.String(), true
		}
	}
	s.done = true
	return "", false
}

func (s *rangeScanner) Release() { s.done = true }
