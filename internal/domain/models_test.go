package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewQueryNormalizesCurrentDir(t *testing.T) {
	q := NewQuery("foo", true, "./")
	require.Equal(t, "", q.PathGlob)
	require.True(t, q.IsRegex)

	// Only the exact sentinel is normalized
	q = NewQuery("foo", false, "./src")
	require.Equal(t, "./src", q.PathGlob)
}

func TestRenderedLinePlain(t *testing.T) {
	l := RenderedLine{
		Kind: LineHit,
		Spans: []Span{
			{Text: "12:", Kind: SpanPlain},
			{Text: "match", Kind: SpanMatch},
			{Text: " tail", Kind: SpanPlain},
		},
	}
	require.Equal(t, "12:match tail", l.Plain())

	require.Equal(t, "", RenderedLine{}.Plain())
}
