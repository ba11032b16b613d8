package content

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Content is a loaded source document, ready to be typed into a session.
type Content struct {
	Title string   // Source title (from metadata or filename)
	Lines []string // Non-blank lines, trimmed, NFC-normalised, without terminators
}

// Add splits text on any line terminator and appends its non-blank lines.
func (c *Content) Add(text string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(norm.NFC.String(line))
		if line != "" {
			c.Lines = append(c.Lines, line)
		}
	}
}

// Empty reports whether there is nothing to type.
func (c *Content) Empty() bool { return c == nil || len(c.Lines) == 0 }

// Text joins the lines with "\r\n" terminators, one paragraph per line.
func (c *Content) Text() string {
	if c.Empty() {
		return ""
	}
	return strings.Join(c.Lines, "\r\n") + "\r\n"
}
