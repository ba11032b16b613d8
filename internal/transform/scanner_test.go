package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sliceScanner struct {
	frags    []string
	released int
}

func (s *sliceScanner) Next() (string, bool) {
	if s.released > 0 || len(s.frags) == 0 {
		return "", false
	}
	f := s.frags[0]
	s.frags = s.frags[1:]
	return f, true
}

func (s *sliceScanner) Release() { s.released++ }

func TestBlockScanner_EndOfRange(t *testing.T) {
	src := &sliceScanner{frags: []string{"$$a\r\n", "b$$"}}
	s := NewBlockScanner(src)

	assert.Equal(t, ScanResult{Kind: ScanMore, Text: "$$a\r\n"}, s.Next())
	assert.Equal(t, ScanResult{Kind: ScanMore, Text: "b$$"}, s.Next())
	assert.Equal(t, ScanEndOfRange, s.Next().Kind)
	assert.Equal(t, ScanEndOfRange, s.Next().Kind)
	assert.Equal(t, 1, src.released)
}

func TestBlockScanner_SentinelStopsScan(t *testing.T) {
	src := &sliceScanner{frags: []string{"x", " y", "z"}}
	s := NewBlockScanner(src)

	assert.Equal(t, ScanMore, s.Next().Kind)
	assert.Equal(t, ScanSentinel, s.Next().Kind)
	// Nothing after the sentinel, not even the remaining fragment.
	for range 3 {
		r := s.Next()
		assert.Equal(t, ScanSentinel, r.Kind)
		assert.Empty(t, r.Text)
	}
	assert.Equal(t, 1, src.released)
}

func TestBlockScanner_BlankKinds(t *testing.T) {
	tests := []struct {
		frag string
		want ScanKind
	}{
		{" a", ScanSentinel},
		{"\ta", ScanSentinel},
		{"\u3000a", ScanSentinel},
		{"\r\n", ScanMore},
		{"\n", ScanMore},
		{"a ", ScanMore},
		{"가", ScanMore},
	}
	for _, tt := range tests {
		s := NewBlockScanner(&sliceScanner{frags: []string{tt.frag}})
		assert.Equal(t, tt.want, s.Next().Kind, "fragment %q", tt.frag)
	}
}

func TestBlockScanner_EmptyRange(t *testing.T) {
	src := &sliceScanner{}
	s := NewBlockScanner(src)

	assert.Equal(t, ScanEndOfRange, s.Next().Kind)
	s.Close()
	assert.Equal(t, 1, src.released)
}

func TestBlockScanner_CloseReleasesOnce(t *testing.T) {
	src := &sliceScanner{frags: []string{"a", "b"}}
	s := NewBlockScanner(src)

	s.Next()
	s.Close()
	s.Close()
	assert.Equal(t, 1, src.released)
	assert.Equal(t, ScanEndOfRange, s.Next().Kind)
}

func TestExtractMath(t *testing.T) {
	tests := []struct {
		name  string
		frags []string
		fence string
		want  string
	}{
		{"single line", []string{"$$a+b$$"}, "$$", "a+b"},
		{"multi line", []string{"$$a\r\n", "b\r\n", "c$$"}, "$$", "a #b #c"},
		{"fence on own line", []string{"$$\r\n", "x^2\r\n", "$$"}, "$$", "x^2"},
		{"inline", []string{"$c$"}, "$", "c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractMath(NewBlockScanner(&sliceScanner{frags: tt.frags}), tt.fence, DefaultSeparator)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractMath_LeadingSentinel(t *testing.T) {
	src := &sliceScanner{frags: []string{" $a$"}}
	_, err := ExtractMath(NewBlockScanner(src), "$", DefaultSeparator)

	assert.ErrorIs(t, err, ErrSentinelFragment)
	assert.Equal(t, 1, src.released)
}

func TestExtractMath_LateSentinelTruncates(t *testing.T) {
	src := &sliceScanner{frags: []string{"$a\r\n", " b$"}}
	got, err := ExtractMath(NewBlockScanner(src), "$", DefaultSeparator)

	assert.ErrorIs(t, err, ErrTruncatedRange)
	assert.Equal(t, "a", got)
	assert.Equal(t, 1, src.released)
}
