package views

import (
	"testing"

	"github.com/stretchr/testify/require"

	"foxgrep/internal/domain"
)

func hitLine() domain.RenderedLine {
	return domain.RenderedLine{
		Kind: domain.LineHit,
		Spans: []domain.Span{
			{Text: "12:", Kind: domain.SpanPlain},
			{Text: "var", Kind: domain.SpanPlain},
			{Text: " te", Kind: domain.SpanMatch},
			{Text: "sting = 1;", Kind: domain.SpanPlain},
			{Text: " // found in fn", Kind: domain.SpanAnnotation},
		},
	}
}

func TestRenderShowsHitText(t *testing.T) {
	r := NewRenderer()

	out := r.Render(ViewState{
		Lines:           []domain.RenderedLine{hitLine()},
		ViewportHeight:  10,
		HitCount:        1,
		ShowAnnotations: true,
	})

	require.Contains(t, out, "12:")
	require.Contains(t, out, "sting = 1;")
	require.Contains(t, out, "found in fn")
	require.Contains(t, out, "1 matches")
}

func TestRenderHidesAnnotations(t *testing.T) {
	r := NewRenderer()

	out := r.Render(ViewState{
		Lines:           []domain.RenderedLine{hitLine()},
		ViewportHeight:  10,
		ShowAnnotations: false,
	})
	require.NotContains(t, out, "found in fn")
}

func TestRenderViewportWindow(t *testing.T) {
	r := NewRenderer()

	var lines []domain.RenderedLine
	for _, text := range []string{"one", "two", "three", "four"} {
		lines = append(lines, domain.RenderedLine{
			Kind:  domain.LineOther,
			Spans: []domain.Span{{Text: text, Kind: domain.SpanPlain}},
		})
	}

	out := r.Render(ViewState{
		Lines:          lines,
		ViewportOffset: 1,
		ViewportHeight: 2,
	})
	require.NotContains(t, out, "one")
	require.Contains(t, out, "two")
	require.Contains(t, out, "three")
	require.Contains(t, out, "1 more lines")
}

func TestRenderStatusErrorMessage(t *testing.T) {
	r := NewRenderer()

	out := r.Render(ViewState{
		ViewportHeight: 2,
		StatusMessage:  "search failed: connection refused",
		StatusIsError:  true,
	})
	require.Contains(t, out, "search failed: connection refused")
}
