package document

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/twoLoop-40/hwp-transformer/internal/host"
)

// emuPerMM converts millimetres to English Metric Units used by drawing extents.
const emuPerMM = 36000

// SaveAs writes the document as a .docx file. Equations are written as italic
// runs carrying their script at the equation base size.
func (d *Document) SaveAs(path string) error {
	if d.closed {
		return ErrClosed
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	w := docx.New().WithDefaultTheme()
	for _, para := range d.paras {
		p := w.AddParagraph()
		var text strings.Builder
		flush := func() {
			if text.Len() > 0 {
				p.AddText(text.String())
				text.Reset()
			}
		}
		for _, c := range para {
			switch c.Kind {
			case CellChar:
				text.WriteRune(c.Char)
			case CellEquation:
				flush()
				p.AddText(c.Equation.Source).Italic().Size(halfPoints(c.Equation.BaseUnit))
			case CellImage:
				flush()
				if err := addPicture(p, c.Image); err != nil {
					return fmt.Errorf("embed %s: %w", filepath.Base(c.Image.Path), err)
				}
			}
		}
		flush()
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := w.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write docx: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	d.log.Info("document saved", "path", path, "paragraphs", len(d.paras))
	return nil
}

func addPicture(p *docx.Paragraph, img *Image) error {
	r, err := p.AddInlineDrawingFrom(img.Path)
	if err != nil {
		return err
	}
	if img.Options.Mode != host.SizeFixed {
		return nil
	}
	for _, child := range r.Children {
		if dr, ok := child.(*docx.Drawing); ok && dr.Inline != nil {
			dr.Inline.Size(mmToEMU(img.Options.WidthMM), mmToEMU(img.Options.HeightMM))
		}
	}
	return nil
}

func mmToEMU(mm float64) int64 {
	return int64(math.Round(mm * emuPerMM))
}

// halfPoints formats a point size the way run properties expect it.
func halfPoints(pt float64) string {
	if pt <= 0 {
		pt = 10
	}
	return strconv.Itoa(int(math.Round(pt * 2)))
}
