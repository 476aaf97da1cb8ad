package render

import (
	"testing"

	"github.com/stretchr/testify/require"

	"foxgrep/internal/domain"
)

const sampleStream = "Type: normal\n" +
	"\n" +
	"File: foo/bar.js\n" +
	"12:3:6:fn\x00var testing = 1;\n" +
	"\n"

func feedAll(r *Renderer, s string) {
	r.Feed([]byte(s))
	r.Finish()
}

func TestRendererSingleHit(t *testing.T) {
	r := NewRenderer()
	feedAll(r, sampleStream)

	lines := r.Lines()
	// Group header gains a synthetic blank separator, so the input's
	// own blank line shows up as well.
	require.Len(t, lines, 6)

	require.Equal(t, domain.LineGroupHeader, lines[0].Kind)
	require.Equal(t, "Type: normal", lines[0].Plain())
	require.Equal(t, domain.SpanKeyword, lines[0].Spans[1].Kind)

	require.Equal(t, domain.LineOther, lines[1].Kind, "separator after group header")

	require.Equal(t, domain.LineFileHeader, lines[3].Kind)
	require.Equal(t, domain.SpanInfo, lines[3].Spans[1].Kind)

	hit := lines[4]
	require.Equal(t, domain.LineHit, hit.Kind)
	require.Equal(t, "12:var testing = 1; // found in fn", hit.Plain())
	require.Equal(t, []domain.Span{
		{Text: "12:", Kind: domain.SpanPlain},
		{Text: "var", Kind: domain.SpanPlain},
		{Text: " te", Kind: domain.SpanMatch},
		{Text: "sting = 1;", Kind: domain.SpanPlain},
		{Text: " // found in fn", Kind: domain.SpanAnnotation},
	}, hit.Spans)

	locs := r.Locations()
	require.Len(t, locs, 1)
	require.Equal(t, domain.Location{
		DisplayLine: 4,
		Path:        "foo/bar.js",
		LineNumber:  12,
		ColumnStart: 3,
		ColumnEnd:   6,
	}, locs[0])
}

func TestRendererEmptyHitRecord(t *testing.T) {
	// A "file matched, no line detail" record renders as a bare line
	// number with no highlight and no annotation.
	r := NewRenderer()
	feedAll(r, "File: docs/README.md\n1:0:0:\x00\n")

	lines := r.Lines()
	require.Len(t, lines, 2)
	require.Equal(t, domain.LineHit, lines[1].Kind)
	require.Equal(t, "1:", lines[1].Plain())
	for _, span := range lines[1].Spans {
		require.NotEqual(t, domain.SpanMatch, span.Kind)
		require.NotEqual(t, domain.SpanAnnotation, span.Kind)
	}
}

func TestRendererChunkBoundaryInvariance(t *testing.T) {
	stream := sampleStream +
		"Type: def\n\n" +
		"File: baz/quux.go\n" +
		"3:0:4:\x00func main() {\n" +
		"40:8:12:impl\x00	x := main()\n" +
		"\n"

	whole := NewRenderer()
	feedAll(whole, stream)
	wantLines := whole.Lines()
	wantLocs := whole.Locations()

	for cut := 0; cut <= len(stream); cut++ {
		r := NewRenderer()
		r.Feed([]byte(stream[:cut]))
		r.Feed([]byte(stream[cut:]))
		r.Finish()

		require.Equal(t, wantLines, r.Lines(), "split at offset %d", cut)
		require.Equal(t, wantLocs, r.Locations(), "split at offset %d", cut)
	}
}

func TestRendererDiscardsTruncatedTail(t *testing.T) {
	r := NewRenderer()
	r.Feed([]byte("File: a.go\n5:0:1:\x00x\n17:2:4:fn\x00trunc"))
	r.Finish()

	// The complete line stays indexed; the torn trailing line is
	// neither displayed nor indexed.
	require.Equal(t, 1, r.HitCount())
	require.Equal(t, 5, r.Locations()[0].LineNumber)

	// Later feeds must not resurrect the discarded bytes.
	r.Feed([]byte("ated\n"))
	r.Finish()
	lines := r.Lines()
	last := lines[len(lines)-1]
	require.Equal(t, domain.LineOther, last.Kind)
	require.Equal(t, "ated", last.Plain())
}

func TestRendererDeterministic(t *testing.T) {
	a := NewRenderer()
	b := NewRenderer()
	feedAll(a, sampleStream)
	feedAll(b, sampleStream)
	require.Equal(t, a.Lines(), b.Lines())
	require.Equal(t, a.Locations(), b.Locations())
}

func TestRendererClampsBounds(t *testing.T) {
	r := NewRenderer()
	// bounds reach past the end of the line text
	feedAll(r, "File: a.go\n1:2:99:\x00abcd\n")

	require.Equal(t, 1, r.HitCount())
	loc := r.Locations()[0]
	require.Equal(t, 2, loc.ColumnStart)
	require.Equal(t, 4, loc.ColumnEnd)

	lines := r.Lines()
	require.Equal(t, "1:abcd", lines[1].Plain())
}

func TestRendererHeaderPriority(t *testing.T) {
	// A line that parses as a hit is a hit even if its text contains
	// header-looking content.
	r := NewRenderer()
	feedAll(r, "File: a.go\n1:0:5:\x00File: not a header\n")

	lines := r.Lines()
	require.Equal(t, domain.LineHit, lines[1].Kind)
	require.Equal(t, 1, r.HitCount())
}

func TestNavigationCursor(t *testing.T) {
	r := NewRenderer()
	feedAll(r, "File: a.go\n"+
		"1:0:1:\x00aa\n"+
		"2:0:1:\x00bb\n"+
		"3:0:1:\x00cc\n")
	require.Equal(t, 3, r.HitCount())

	// Previous before any Next is a no-op
	_, err := r.Previous()
	require.ErrorIs(t, err, ErrNoMoreMatches)
	require.Equal(t, -1, r.Cursor())

	first, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 1, first.LineNumber)

	second, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, 2, second.LineNumber)

	// next() then previous() from an interior entry returns to it
	_, err = r.Next()
	require.NoError(t, err)
	back, err := r.Previous()
	require.NoError(t, err)
	require.Equal(t, second, back)

	// Walk off the end: cursor stays put
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.ErrorIs(t, err, ErrNoMoreMatches)
	require.Equal(t, 2, r.Cursor())
}

func TestMoveTo(t *testing.T) {
	r := NewRenderer()
	feedAll(r, "File: a.go\n1:0:1:\x00aa\n2:0:1:\x00bb\n")

	loc, ok := r.MoveTo(2) // display line of the second hit
	require.True(t, ok)
	require.Equal(t, 2, loc.LineNumber)
	require.Equal(t, 1, r.Cursor())

	_, ok = r.MoveTo(0) // the file header line owns no hit
	require.False(t, ok)
	require.Equal(t, 1, r.Cursor(), "failed MoveTo must not move the cursor")
}

func TestResolveFile(t *testing.T) {
	r := NewRenderer()
	feedAll(r, "Type: normal\n\n"+
		"File: first.go\n"+
		"1:0:1:\x00aa\n"+
		"File: second.go\n"+
		"2:0:1:\x00bb\n")

	lines := r.Lines()
	for i, line := range lines {
		if line.Kind != domain.LineHit {
			continue
		}
		path, err := r.ResolveFile(i)
		require.NoError(t, err)
		if line.Plain()[0] == '1' {
			require.Equal(t, "first.go", path)
		} else {
			require.Equal(t, "second.go", path)
		}
	}
}

func TestResolveFileWithoutHeader(t *testing.T) {
	// Hits before any File header should not occur in well-formed
	// backend output, but must degrade gracefully.
	r := NewRenderer()
	feedAll(r, "7:0:1:\x00zz\n")

	require.Equal(t, 1, r.HitCount())
	_, err := r.ResolveFile(0)
	require.ErrorIs(t, err, ErrNoFileHeader)
}

func TestRendererReset(t *testing.T) {
	r := NewRenderer()
	feedAll(r, sampleStream)
	_, err := r.Next()
	require.NoError(t, err)

	r.Reset()
	require.Empty(t, r.Lines())
	require.Zero(t, r.HitCount())
	require.Equal(t, -1, r.Cursor())

	// Reused renderer must not inherit the previous file context
	feedAll(r, "9:0:1:\x00yy\n")
	require.Equal(t, "", r.Locations()[0].Path)
}
