package domain

// Query represents one search invocation against the backend.
// It is immutable once constructed; use NewQuery.
type Query struct {
	Text     string
	IsRegex  bool
	PathGlob string // empty means no path filter
}

// currentDirGlob is the sentinel path filter meaning "no filter".
const currentDirGlob = "./"

// NewQuery builds a Query, normalizing the "current directory" path
// glob sentinel to no filter.
func NewQuery(text string, isRegex bool, pathGlob string) Query {
	if pathGlob == currentDirGlob {
		pathGlob = ""
	}
	return Query{
		Text:     text,
		IsRegex:  isRegex,
		PathGlob: pathGlob,
	}
}

// Hit is one matched line returned by the backend.
type Hit struct {
	LineNumber   int
	ColumnStart  int
	ColumnEnd    int
	ContextLabel string
	LineText     string
}

// FileGroup holds the hits belonging to one source file. The path is
// relative to the configured source root.
type FileGroup struct {
	Path string
	Hits []Hit
}

// MatchGroup is a backend-defined category of results (e.g. plain
// text matches vs. definitions).
type MatchGroup struct {
	Label string
	Files []FileGroup
}

// SpanKind classifies a rendered span semantically; mapping kinds to
// concrete terminal styles is the view layer's business.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanMatch
	SpanAnnotation
	SpanKeyword
	SpanInfo
)

// Span is one styled run of text within a rendered line.
type Span struct {
	Text string
	Kind SpanKind
}

// LineKind classifies a rendered line by what produced it.
type LineKind int

const (
	LineOther LineKind = iota
	LineHit
	LineGroupHeader
	LineFileHeader
)

// RenderedLine is the styled projection of one record from the result
// stream. Produced once per incoming record and never mutated.
type RenderedLine struct {
	Kind  LineKind
	Spans []Span
}

// Plain returns the line's text with all styling stripped.
func (l RenderedLine) Plain() string {
	var out string
	for _, s := range l.Spans {
		out += s.Text
	}
	return out
}

// Location identifies one hit for navigation: which display line it
// occupies, which file owns it, and where in the file it sits.
type Location struct {
	DisplayLine int
	Path        string
	LineNumber  int
	ColumnStart int
	ColumnEnd   int
}

// SearchStatus is the terminal state of a search session.
type SearchStatus int

const (
	SearchRunning SearchStatus = iota
	SearchDone
	SearchFailed
)

func (s SearchStatus) String() string {
	switch s {
	case SearchRunning:
		return "running"
	case SearchDone:
		return "done"
	case SearchFailed:
		return "failed"
	default:
		return "unknown"
	}
}
