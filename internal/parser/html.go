package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/twoLoop-40/hwp-transformer/internal/content"
	"golang.org/x/net/html"
)

// HTMLParser handles HTML files. Block elements become lines and comments are
// kept verbatim, so "<!-- image -->" placeholders survive.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*content.Content, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	c := &content.Content{Title: trimExt(filename, ".html", ".htm")}
	if title := findTitle(doc); title != "" {
		c.Title = title
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.CommentNode:
			c.Add("<!--" + n.Data + "-->")
			return
		case html.TextNode:
			c.Add(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head", "nav", "footer":
				return
			case "p", "li", "td", "th", "blockquote", "pre", "h1", "h2", "h3", "h4", "h5", "h6":
				c.Add(blockText(n))
				return
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			walk(ch)
		}
	}

	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return c, nil
}

// blockText renders a block element in document order. Comments stay inline
// so a placeholder keeps its place in the sentence.
func blockText(n *html.Node) string {
	var buf strings.Builder
	var render func(*html.Node)
	render = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.CommentNode:
			buf.WriteString("<!--" + n.Data + "-->")
		case html.ElementNode:
			switch n.Data {
			case "script", "style":
				return
			case "br":
				buf.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			render(c)
		}
	}
	render(n)
	return strings.TrimSpace(buf.String())
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.Data == "br" {
			buf.WriteString("\n")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.TrimSpace(buf.String())
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
