// Package host defines the capability set the transformation engine consumes
// from a live document session: cursor movement, forward search, range
// selection and scanning, deletion, and artifact insertion.
package host

import "fmt"

// Position identifies a cursor location inside a document.
// It is a value; operations return new positions instead of mutating.
type Position struct {
	List int // 0 is the main body text
	Para int
	Pos  int // character cell offset inside the paragraph
}

// Compare orders positions in document order. It returns -1, 0 or +1.
func (p Position) Compare(q Position) int {
	switch {
	case p.List != q.List:
		return cmpInt(p.List, q.List)
	case p.Para != q.Para:
		return cmpInt(p.Para, q.Para)
	default:
		return cmpInt(p.Pos, q.Pos)
	}
}

// Before reports whether p precedes q.
func (p Position) Before(q Position) bool { return p.Compare(q) < 0 }

// Shift returns p moved by n cells inside its paragraph, floored at offset 0.
func (p Position) Shift(n int) Position {
	p.Pos += n
	if p.Pos < 0 {
		p.Pos = 0
	}
	return p
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d,%d)", p.List, p.Para, p.Pos)
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Equation describes a native equation object to create at the cursor.
type Equation struct {
	Source   string  // equation script, lines joined with " #"
	Font     string  // e.g. "HancomEQN"
	BaseUnit float64 // base size in points
}

// SizeMode selects how an inserted picture is sized.
type SizeMode string

const (
	SizeOriginal SizeMode = "original"
	SizeFixed    SizeMode = "fixed"
)

// ImageOptions is the shared sizing configuration for inserted pictures.
type ImageOptions struct {
	Mode     SizeMode
	WidthMM  float64
	HeightMM float64
}

// RangeScanner yields the text of the selected range piece by piece.
// Next returns ok=false once the range is exhausted. Release must be called
// when scanning is finished, even early.
type RangeScanner interface {
	Next() (text string, ok bool)
	Release()
}

// Host is the Document Host Adapter: the operations the engine needs from a
// live document.
type Host interface {
	Cursor() Position
	SetCursor(Position)
	// ForwardFind searches forward from the cursor for the regular expression
	// pattern. On success the match is selected, the cursor moves to the end of
	// the match and that position is returned. On failure the cursor stays put.
	ForwardFind(pattern string) (Position, bool)
	Select(from, to Position)
	CancelSelection()
	// DeleteBackward removes the selection if there is one, otherwise the cell
	// before the cursor.
	DeleteBackward()
	ScanRange() RangeScanner
	CreateEquation(eq Equation) error
	InsertImage(path string, opts ImageOptions) error
}

// Session is a Host that also owns the document lifecycle for one run.
type Session interface {
	Host
	InsertText(text string) error
	MoveDocBegin()
	SaveAs(path string) error
	Close() error
}
