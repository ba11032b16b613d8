package transform

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// CountOccurrences sums the non-overlapping occurrences of delim in every line.
// Matches never span lines.
func CountOccurrences(lines []string, delim string) int {
	if delim == "" {
		return 0
	}
	n := 0
	for _, line := range lines {
		n += strings.Count(line, delim)
	}
	return n
}

// CountMatches counts the matches of a search pattern line by line, the way
// placeholders are counted before an image pass.
func CountMatches(lines []string, pattern string) (int, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return 0, fmt.Errorf("compile %q: %w", pattern, err)
	}
	n := 0
	for _, line := range lines {
		n += len(re.FindAllStringIndex(line, -1))
	}
	return n, nil
}

// PairCount is the number of regions bounded by n fences.
func PairCount(n int) int { return n / 2 }

// MathPass is one math replacement pass over the document.
type MathPass struct {
	Fence   string // literal delimiter, e.g. "$$"
	Pattern string // search pattern for the fence
	Width   int    // fence width in cells
	Repeat  int    // regions to convert
}

// NewMathPass builds a pass for a literal fence.
func NewMathPass(fence string, repeat int) MathPass {
	return MathPass{
		Fence:   fence,
		Pattern: regexp.QuoteMeta(fence),
		Width:   utf8.RuneCountInString(fence),
		Repeat:  repeat,
	}
}

// PlanMathPasses orders fences longest first and computes how many regions
// each pass converts. Occurrences of a shorter fence that sit inside a longer
// fence are consumed by the longer pass, so they are subtracted first: with
// "$$" and "$" the single-dollar count becomes count("$") - 2*count("$$").
func PlanMathPasses(lines []string, fences []string) []MathPass {
	ordered := slices.Clone(fences)
	slices.SortStableFunc(ordered, func(a, b string) int {
		return utf8.RuneCountInString(b) - utf8.RuneCountInString(a)
	})

	raw := make(map[string]int, len(ordered))
	passes := make([]MathPass, 0, len(ordered))
	for i, fence := range ordered {
		if fence == "" {
			continue
		}
		raw[fence] = CountOccurrences(lines, fence)
		n := raw[fence]
		for _, longer := range ordered[:i] {
			if longer != fence && strings.Contains(longer, fence) {
				n -= raw[longer] * strings.Count(longer, fence)
			}
		}
		passes = append(passes, NewMathPass(fence, PairCount(max(n, 0))))
	}
	return passes
}
