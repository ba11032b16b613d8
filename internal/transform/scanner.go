package transform

import (
	"unicode"
	"unicode/utf8"

	"github.com/twoLoop-40/hwp-transformer/internal/host"
)

// ScanKind classifies a Block Scanner result.
type ScanKind int

const (
	ScanMore ScanKind = iota
	ScanEndOfRange
	ScanSentinel
)

func (k ScanKind) String() string {
	switch k {
	case ScanMore:
		return "more"
	case ScanEndOfRange:
		return "end-of-range"
	case ScanSentinel:
		return "sentinel"
	}
	return "unknown"
}

// ScanResult is one step of a block scan. Text is set only for ScanMore.
type ScanResult struct {
	Kind ScanKind
	Text string
}

// BlockScanner turns a host range scan into a finite, non-restartable
// sequence. A fragment that opens with a blank is reported as ScanSentinel
// and ends the scan, like the natural end of the range does.
type BlockScanner struct {
	src  host.RangeScanner
	last *ScanResult
}

func NewBlockScanner(src host.RangeScanner) *BlockScanner {
	return &BlockScanner{src: src}
}

// Next returns the next result. After a terminal result it keeps returning
// that result.
func (s *BlockScanner) Next() ScanResult {
	if s.last != nil {
		return *s.last
	}
	text, ok := s.src.Next()
	switch {
	case !ok:
		return s.finish(ScanResult{Kind: ScanEndOfRange})
	case startsBlank(text):
		return s.finish(ScanResult{Kind: ScanSentinel})
	}
	return ScanResult{Kind: ScanMore, Text: text}
}

// Close releases the host scan if it is still open.
func (s *BlockScanner) Close() {
	if s.last == nil {
		s.finish(ScanResult{Kind: ScanEndOfRange})
	}
}

func (s *BlockScanner) finish(r ScanResult) ScanResult {
	s.last = &r
	s.src.Release()
	return r
}

func startsBlank(text string) bool {
	r, _ := utf8.DecodeRuneInString(text)
	return r != utf8.RuneError && r != '\r' && r != '\n' && unicode.IsSpace(r)
}
