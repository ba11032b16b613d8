package transform

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twoLoop-40/hwp-transformer/internal/document"
	"github.com/twoLoop-40/hwp-transformer/internal/host"
)

const imageMarker = `<!-- image -->`

func writeImage(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o644))
	return path
}

func runMath(t *testing.T, doc *document.Document, lines []string) []Stats {
	t.Helper()
	tr := New(doc, DefaultEquationStyle(), nil)
	var out []Stats
	for _, pass := range PlanMathPasses(lines, []string{"$$", "$"}) {
		doc.MoveDocBegin()
		out = append(out, tr.ReplaceMath(pass))
	}
	return out
}

func TestTransformer_EndToEnd(t *testing.T) {
	lines := []string{"intro $$a+b$$ middle $c$ end", imageMarker}
	doc := document.New("scenario", nil)
	for _, l := range lines {
		require.NoError(t, doc.InsertText(l+"\r\n"))
	}

	stats := runMath(t, doc, lines)
	require.Len(t, stats, 2)
	assert.Equal(t, 1, stats[0].Replaced)
	assert.Equal(t, 1, stats[1].Replaced)

	img := writeImage(t, t.TempDir(), "fig1.png")
	doc.MoveDocBegin()
	tr := New(doc, DefaultEquationStyle(), nil)
	imgStats, err := tr.InsertImages(imageMarker, ImageJob{
		Paths:        []string{img},
		Options:      host.ImageOptions{Mode: host.SizeFixed, WidthMM: 60, HeightMM: 60},
		Placeholders: CountOccurrences(lines, imageMarker),
		Policy:       PolicyStrict,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, imgStats.Replaced)

	eqs := doc.Equations()
	require.Len(t, eqs, 2)
	assert.Equal(t, "a+b", eqs[0].Source)
	assert.Equal(t, "c", eqs[1].Source)
	assert.Equal(t, "HancomEQN", eqs[0].Font)
	assert.Equal(t, 10.0, eqs[0].BaseUnit)

	images := doc.Images()
	require.Len(t, images, 1)
	assert.Equal(t, img, images[0].Path)

	text := doc.Text()
	assert.NotContains(t, text, "$")
	assert.NotContains(t, text, imageMarker)
	obj := string(document.ObjectRune)
	assert.Equal(t, "intro "+obj+" middle "+obj+" end\n"+obj+"\n", text)
	assert.False(t, doc.Selecting())
}

func TestTransformer_MultiLineDisplayMath(t *testing.T) {
	doc := typedDocument(t, "before $$x = 1\r\ny = 2$$ after")
	stats := runMath(t, doc, []string{"before $$x = 1", "y = 2$$ after"})

	assert.Equal(t, 1, stats[0].Replaced)
	eqs := doc.Equations()
	require.Len(t, eqs, 1)
	assert.Equal(t, "x = 1 #y = 2", eqs[0].Source)
	assert.Equal(t, "before "+string(document.ObjectRune)+" after", doc.Text())
}

func TestTransformer_PositionDrift(t *testing.T) {
	// Every replacement shortens the paragraph; later regions must still be
	// found from the live cursor.
	doc := typedDocument(t, "$a$ $bb$ $ccc$ $dddd$")
	stats := runMath(t, doc, []string{"$a$ $bb$ $ccc$ $dddd$"})

	assert.Equal(t, 4, stats[1].Replaced)
	var got []string
	for _, eq := range doc.Equations() {
		got = append(got, eq.Source)
	}
	assert.Equal(t, []string{"a", "bb", "ccc", "dddd"}, got)
}

func TestTransformer_SentinelSkipsOccurrence(t *testing.T) {
	doc := typedDocument(t, "$$\n x$$ and $$y$$")
	tr := New(doc, DefaultEquationStyle(), nil)

	stats := tr.ReplaceMath(NewMathPass("$$", 2))

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Replaced)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], ErrSentinelFragment.Error())
	assert.False(t, doc.Selecting(), "selection must be released after a failure")
	// The skipped region is left as typed.
	assert.True(t, strings.HasPrefix(doc.Text(), "$$\n x$$"))
}

func TestTransformer_LateSentinelKeepsRegion(t *testing.T) {
	doc := typedDocument(t, "$x\n y$ tail")
	tr := New(doc, DefaultEquationStyle(), nil)

	stats := tr.ReplaceMath(NewMathPass("$", 1))

	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 0, stats.Replaced)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], ErrTruncatedRange.Error())
	assert.Empty(t, doc.Equations())
	assert.False(t, doc.Selecting())
	// Nothing past the blank fragment is deleted.
	assert.Contains(t, doc.Text(), " y$ tail")
	assert.True(t, strings.HasPrefix(doc.Text(), "$x"))
}

func TestTransformer_EmptyRegionIsLost(t *testing.T) {
	doc := typedDocument(t, "a $$$$ b")
	tr := New(doc, DefaultEquationStyle(), nil)

	stats := tr.ReplaceMath(NewMathPass("$$", 1))

	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.Replaced)
	assert.Equal(t, "a  b", doc.Text())
	assert.False(t, doc.Selecting())
}

func TestTransformer_MissingRegionsEndPass(t *testing.T) {
	doc := typedDocument(t, "$a$")
	tr := New(doc, DefaultEquationStyle(), nil)

	stats := tr.ReplaceMath(NewMathPass("$", 3))

	assert.Equal(t, 1, stats.Replaced)
	assert.Equal(t, 2, stats.Missing)
}

type panickyHost struct {
	*document.Document
}

func (panickyHost) CreateEquation(host.Equation) error { panic("host crashed") }

func TestTransformer_RecoversHostPanic(t *testing.T) {
	doc := typedDocument(t, "$a$ $b$")
	tr := New(panickyHost{doc}, DefaultEquationStyle(), nil)

	stats := tr.ReplaceMath(NewMathPass("$", 2))

	assert.Equal(t, 2, stats.Failed)
	assert.Contains(t, stats.Errors[0], "host crashed")
	assert.False(t, doc.Selecting())
}

func TestTransformer_NoImagesIsNoOp(t *testing.T) {
	doc := typedDocument(t, "text without markers")
	doc.SetCursor(host.Position{Para: 0, Pos: 4})
	before := doc.Cursor()
	tr := New(doc, DefaultEquationStyle(), nil)

	stats, err := tr.InsertImages(imageMarker, ImageJob{Placeholders: 0, Policy: PolicyStrict})

	require.NoError(t, err)
	assert.Zero(t, stats.Replaced)
	assert.Equal(t, before, doc.Cursor())
	assert.Equal(t, "text without markers", doc.Text())
}

func TestTransformer_StrictMismatchLeavesDocument(t *testing.T) {
	doc := typedDocument(t, imageMarker)
	dir := t.TempDir()
	tr := New(doc, DefaultEquationStyle(), nil)

	_, err := tr.InsertImages(imageMarker, ImageJob{
		Paths:        []string{writeImage(t, dir, "1.png"), writeImage(t, dir, "2.png")},
		Placeholders: 1,
		Policy:       PolicyStrict,
	})

	assert.ErrorIs(t, err, ErrPlaceholderMismatch)
	assert.Equal(t, imageMarker, doc.Text())
}

func TestTransformer_BestEffortTruncates(t *testing.T) {
	doc := typedDocument(t, "A "+imageMarker+" B")
	dir := t.TempDir()
	tr := New(doc, DefaultEquationStyle(), nil)

	stats, err := tr.InsertImages(imageMarker, ImageJob{
		Paths:        []string{writeImage(t, dir, "1.png"), writeImage(t, dir, "2.png")},
		Placeholders: 1,
		Policy:       PolicyBestEffort,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Replaced)
	assert.Equal(t, 1, stats.Missing)
	require.Len(t, doc.Images(), 1)
	assert.Equal(t, "1.png", filepath.Base(doc.Images()[0].Path))
}

func TestTransformer_ImagesInDocumentOrder(t *testing.T) {
	doc := typedDocument(t, imageMarker+"\nmid "+imageMarker+"\n"+imageMarker)
	dir := t.TempDir()
	paths := []string{writeImage(t, dir, "a.png"), writeImage(t, dir, "b.png"), writeImage(t, dir, "c.png")}
	tr := New(doc, DefaultEquationStyle(), nil)

	stats, err := tr.InsertImages(imageMarker, ImageJob{Paths: paths, Placeholders: 3})

	require.NoError(t, err)
	assert.Equal(t, 3, stats.Replaced)
	var got []string
	for _, img := range doc.Images() {
		got = append(got, img.Path)
	}
	assert.Equal(t, paths, got)
	obj := string(document.ObjectRune)
	assert.Equal(t, obj+"\nmid "+obj+"\n"+obj, doc.Text())
}

func TestTransformer_MissingImageFileIsRecoverable(t *testing.T) {
	doc := typedDocument(t, imageMarker+" "+imageMarker)
	dir := t.TempDir()
	tr := New(doc, DefaultEquationStyle(), nil)

	stats, err := tr.InsertImages(imageMarker, ImageJob{
		Paths:        []string{filepath.Join(dir, "gone.png"), writeImage(t, dir, "ok.png")},
		Placeholders: 2,
	})

	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Replaced)
	assert.False(t, doc.Selecting())
}
