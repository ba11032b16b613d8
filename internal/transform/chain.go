// Package transform rewrites delimited regions of a live document into native
// artifacts. It locates paired delimiters with forward searches on the host,
// re-locating after every edit because deletions and insertions shift every
// later position.
package transform

import (
	"errors"
	"fmt"

	"github.com/twoLoop-40/hwp-transformer/internal/host"
)

var (
	ErrPatternNotFound     = errors.New("pattern not found")
	ErrUnpairedDelimiter   = errors.New("closing delimiter not found")
	ErrSentinelFragment    = errors.New("range starts with a blank fragment")
	ErrTruncatedRange      = errors.New("blank fragment before end of range")
	ErrPlaceholderMismatch = errors.New("placeholder count does not match image count")
)

// Adjust maps a found position to the position actually recorded.
type Adjust func(host.Position) host.Position

// Identity records positions unchanged.
func Identity(p host.Position) host.Position { return p }

// CellsBefore moves a found position back n cells. A forward search leaves the
// cursor after the match, so n is the delimiter width when the start of the
// delimiter is wanted.
func CellsBefore(n int) Adjust {
	return func(p host.Position) host.Position { return p.Shift(-n) }
}

// PositionPair is one located occurrence of a pattern.
type PositionPair struct {
	Pattern string
	Start   host.Position
	End     host.Position
	Next    int // arena index of the successor, -1 until one exists

	located bool
}

// Located reports whether Start and End have been set.
func (p PositionPair) Located() bool { return p.located }

// Chain is a forward-only sequence of occurrences of one pattern. Pairs live in
// an arena and link by index; the host cursor is the only mutable state the
// chain depends on.
type Chain struct {
	host    host.Host
	pattern string
	pairs   []PositionPair
	cur     int
}

// NewChain starts a chain whose head has the pattern but no positions.
func NewChain(h host.Host, pattern string) *Chain {
	return &Chain{
		host:    h,
		pattern: pattern,
		pairs:   []PositionPair{{Pattern: pattern, Next: -1}},
	}
}

// Current returns a snapshot of the current pair.
func (c *Chain) Current() PositionPair { return c.pairs[c.cur] }

// Len returns the number of pairs created so far.
func (c *Chain) Len() int { return len(c.pairs) }

// LocatePair fills the current pair with two successive forward searches and
// links a fresh successor. The first hit is passed through adjust before being
// recorded as Start; the second hit is End.
func (c *Chain) LocatePair(adjust Adjust) (PositionPair, error) {
	if adjust == nil {
		adjust = Identity
	}
	open, ok := c.host.ForwardFind(c.pattern)
	if !ok {
		return PositionPair{}, fmt.Errorf("locate %q: %w", c.pattern, ErrPatternNotFound)
	}
	start := adjust(open)
	closing, ok := c.host.ForwardFind(c.pattern)
	if !ok {
		return PositionPair{}, fmt.Errorf("locate %q after %s: %w", c.pattern, open, ErrUnpairedDelimiter)
	}
	if closing.Before(start) {
		start = closing
	}
	return c.record(start, closing), nil
}

// LocateToken fills the current pair with a single forward search, for
// markers that are one atomic token. The match stays selected on the host.
func (c *Chain) LocateToken() (PositionPair, error) {
	at, ok := c.host.ForwardFind(c.pattern)
	if !ok {
		return PositionPair{}, fmt.Errorf("locate %q: %w", c.pattern, ErrPatternNotFound)
	}
	return c.record(at, at), nil
}

func (c *Chain) record(start, end host.Position) PositionPair {
	next := len(c.pairs)
	c.pairs = append(c.pairs, PositionPair{Pattern: c.pattern, Next: -1})
	p := &c.pairs[c.cur]
	p.Start, p.End, p.Next, p.located = start, end, next, true
	return *p
}

// Advance makes the successor current. It returns false when the current pair
// has not been located yet.
func (c *Chain) Advance() bool {
	next := c.pairs[c.cur].Next
	if next < 0 {
		return false
	}
	c.cur = next
	return true
}
