package render

import (
	"bytes"
	"errors"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"foxgrep/internal/domain"
)

// ErrNoFileHeader is returned by ResolveFile when no File header
// precedes the given display line. Well-formed backend output always
// opens a file group with a header, so this is a recoverable oddity,
// not a crash.
var ErrNoFileHeader = errors.New("no preceding file header")

// ErrNoMoreMatches is returned by Next/Previous at the respective end
// of the navigation index. The cursor does not move.
var ErrNoMoreMatches = errors.New("no more matches")

// hitPattern matches one line-level record of the intermediate stream:
// <lno>:<colStart>:<colEnd>:<context><NUL><line-text>. The NUL is a
// hard separator because both the context and the line text may
// contain colons.
var hitPattern = regexp.MustCompile(`^(\d+):(\d+):(\d+):([^\x00]*)\x00(.*)$`)

const (
	groupHeaderPrefix = "Type: "
	fileHeaderPrefix  = "File: "
)

// Renderer consumes the line-oriented result stream incrementally and
// maintains the rendered lines plus the navigation index for one
// session. It is a line-buffered filter: Feed may be called with
// chunks split at arbitrary byte offsets; only complete lines are ever
// acted on, and the unconsumed suffix is carried to the next call.
//
// Feed is serialized by its single delivery channel; the mutex only
// guards concurrent snapshot reads from the display host.
type Renderer struct {
	mu          sync.RWMutex
	pending     []byte // partial trailing line, not yet processed
	lines       []domain.RenderedLine
	index       []domain.Location
	cursor      int // index position of the navigation cursor, -1 before first Next
	currentFile string
}

// NewRenderer creates a renderer with an empty display buffer and index.
func NewRenderer() *Renderer {
	return &Renderer{cursor: -1}
}

// Feed appends a raw chunk and processes every complete line it closes
// over. A line split across two chunks is processed exactly once, when
// its terminating newline arrives.
func (r *Renderer) Feed(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = append(r.pending, chunk...)
	for {
		nl := bytes.IndexByte(r.pending, '\n')
		if nl < 0 {
			return
		}
		line := string(r.pending[:nl])
		r.pending = r.pending[nl+1:]
		r.processLine(line)
	}
}

// Finish discards any partial trailing line. Called when the stream
// ends, normally or not; everything fully processed stays indexed,
// the truncated tail is never displayed.
func (r *Renderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.pending) > 0 {
		log.Printf("Discarding %d bytes of truncated trailing output", len(r.pending))
		r.pending = nil
	}
}

// Reset clears all session state so the renderer can be reused for a
// new search.
func (r *Renderer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending = nil
	r.lines = nil
	r.index = nil
	r.cursor = -1
	r.currentFile = ""
}

// processLine classifies one complete line and appends its rendered
// projection. First match wins; a Type: or File: line can never also
// match the hit pattern, so the hit check goes first.
func (r *Renderer) processLine(raw string) {
	if m := hitPattern.FindStringSubmatch(raw); m != nil {
		r.appendHit(m)
		return
	}

	if label, ok := strings.CutPrefix(raw, groupHeaderPrefix); ok {
		r.lines = append(r.lines, domain.RenderedLine{
			Kind: domain.LineGroupHeader,
			Spans: []domain.Span{
				{Text: groupHeaderPrefix, Kind: domain.SpanPlain},
				{Text: label, Kind: domain.SpanKeyword},
			},
		})
		// Cosmetic blank separator after each group header.
		r.lines = append(r.lines, domain.RenderedLine{Kind: domain.LineOther})
		return
	}

	if path, ok := strings.CutPrefix(raw, fileHeaderPrefix); ok {
		r.currentFile = path
		r.lines = append(r.lines, domain.RenderedLine{
			Kind: domain.LineFileHeader,
			Spans: []domain.Span{
				{Text: fileHeaderPrefix, Kind: domain.SpanPlain},
				{Text: path, Kind: domain.SpanInfo},
			},
		})
		return
	}

	// Anything else passes through unstyled.
	line := domain.RenderedLine{Kind: domain.LineOther}
	if raw != "" {
		line.Spans = []domain.Span{{Text: raw, Kind: domain.SpanPlain}}
	}
	r.lines = append(r.lines, line)
}

// appendHit renders one hit record and indexes its location.
func (r *Renderer) appendHit(m []string) {
	lno, _ := strconv.Atoi(m[1])
	colStart, _ := strconv.Atoi(m[2])
	colEnd, _ := strconv.Atoi(m[3])
	context := m[4]
	text := m[5]

	// Clamp bounds to the line; the backend should already guarantee
	// colStart <= colEnd <= len(text).
	if colEnd > len(text) {
		colEnd = len(text)
	}
	if colStart > colEnd {
		colStart = colEnd
	}

	spans := []domain.Span{
		{Text: m[1] + ":", Kind: domain.SpanPlain},
	}
	if colStart > 0 {
		spans = append(spans, domain.Span{Text: text[:colStart], Kind: domain.SpanPlain})
	}
	if colEnd > colStart {
		spans = append(spans, domain.Span{Text: text[colStart:colEnd], Kind: domain.SpanMatch})
	}
	if colEnd < len(text) {
		spans = append(spans, domain.Span{Text: text[colEnd:], Kind: domain.SpanPlain})
	}
	if context != "" {
		spans = append(spans, domain.Span{Text: " // found in " + context, Kind: domain.SpanAnnotation})
	}

	r.index = append(r.index, domain.Location{
		DisplayLine: len(r.lines),
		Path:        r.currentFile,
		LineNumber:  lno,
		ColumnStart: colStart,
		ColumnEnd:   colEnd,
	})
	r.lines = append(r.lines, domain.RenderedLine{Kind: domain.LineHit, Spans: spans})
}

// Lines returns a snapshot of the rendered lines so far.
func (r *Renderer) Lines() []domain.RenderedLine {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.RenderedLine, len(r.lines))
	copy(out, r.lines)
	return out
}

// Locations returns a snapshot of the navigation index.
func (r *Renderer) Locations() []domain.Location {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Location, len(r.index))
	copy(out, r.index)
	return out
}

// HitCount returns the number of indexed hits.
func (r *Renderer) HitCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.index)
}

// Cursor returns the current navigation cursor position, -1 before the
// first Next.
func (r *Renderer) Cursor() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cursor
}

// Next advances the navigation cursor and returns its location.
// At the end of the index it returns ErrNoMoreMatches and the cursor
// stays put.
func (r *Renderer) Next() (domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor+1 >= len(r.index) {
		return domain.Location{}, ErrNoMoreMatches
	}
	r.cursor++
	return r.index[r.cursor], nil
}

// Previous moves the navigation cursor back and returns its location.
// At the start of the index it returns ErrNoMoreMatches and the cursor
// stays put.
func (r *Renderer) Previous() (domain.Location, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cursor <= 0 {
		return domain.Location{}, ErrNoMoreMatches
	}
	r.cursor--
	return r.index[r.cursor], nil
}

// MoveTo places the cursor on the index entry owning the given display
// line, if any.
func (r *Renderer) MoveTo(displayLine int) (domain.Location, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, loc := range r.index {
		if loc.DisplayLine == displayLine {
			r.cursor = i
			return loc, true
		}
	}
	return domain.Location{}, false
}

// ResolveFile scans backward from the given display line to the
// nearest preceding File header and returns its path.
func (r *Renderer) ResolveFile(displayLine int) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if displayLine >= len(r.lines) {
		displayLine = len(r.lines) - 1
	}
	for i := displayLine; i >= 0; i-- {
		if r.lines[i].Kind == domain.LineFileHeader {
			return strings.TrimPrefix(r.lines[i].Plain(), fileHeaderPrefix), nil
		}
	}
	return "", ErrNoFileHeader
}
