package parser

import (
	"io"

	"github.com/twoLoop-40/hwp-transformer/internal/content"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown files using goldmark. Leaf blocks are taken
// as raw source lines, so inline math and HTML comments survive untouched.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*content.Content, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	c := &content.Content{Title: trimExt(filename, ".md", ".markdown")}
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || n.Type() != ast.TypeBlock {
			return ast.WalkContinue, nil
		}
		lines := n.Lines()
		if lines.Len() == 0 {
			return ast.WalkContinue, nil
		}
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			c.Add(string(seg.Value(src)))
		}
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}
