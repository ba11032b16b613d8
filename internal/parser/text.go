package parser

import (
	"bytes"
	"fmt"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/korean"
	xunicode "golang.org/x/text/encoding/unicode"

	"github.com/twoLoop-40/hwp-transformer/internal/content"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// TextParser handles plain text files. UTF-8 is expected; a BOM selects
// UTF-8 or UTF-16, and anything that is not valid UTF-8 is read as EUC-KR.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) (*content.Content, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	text, err := decodeText(data)
	if err != nil {
		return nil, err
	}

	c := &content.Content{Title: trimExt(filename, ".txt")}
	c.Add(text)
	return c, nil
}

func decodeText(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, utf8BOM):
		return string(data[len(utf8BOM):]), nil
	case bytes.HasPrefix(data, []byte{0xFF, 0xFE}):
		out, err := xunicode.UTF16(xunicode.LittleEndian, xunicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode utf-16le: %w", err)
		}
		return string(out), nil
	case bytes.HasPrefix(data, []byte{0xFE, 0xFF}):
		out, err := xunicode.UTF16(xunicode.BigEndian, xunicode.UseBOM).NewDecoder().Bytes(data)
		if err != nil {
			return "", fmt.Errorf("decode utf-16be: %w", err)
		}
		return string(out), nil
	case utf8.Valid(data):
		return string(data), nil
	}
	out, err := korean.EUCKR.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode euc-kr: %w", err)
	}
	return string(out), nil
}
