package views

import (
	"fmt"
	"strings"
	"time"

	"foxgrep/internal/domain"
)

// ViewState contains all the state needed for rendering
type ViewState struct {
	Width           int
	Height          int
	Lines           []domain.RenderedLine
	CursorLine      int
	ViewportOffset  int
	ViewportHeight  int
	Searching       bool
	QueryText       string
	IsRegex         bool
	PathGlob        string
	HitCount        int
	CursorHit       int // 1-based position of the navigation cursor, 0 if unset
	SessionCount    int
	SessionPos      int // 1-based position of the active session
	StatusMessage   string
	StatusIsError   bool
	ShowHelp        bool
	ShowAnnotations bool
	InputActive     bool
	InputView       string
}

// Renderer handles all view rendering
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Render produces the complete view
func (r *Renderer) Render(state ViewState) string {
	if state.ShowHelp {
		return r.renderHelp()
	}

	content := &strings.Builder{}

	content.WriteString(r.renderHeader(state))
	content.WriteString("\n")
	content.WriteString(r.renderResults(state))
	content.WriteString(r.renderStatus(state))

	return content.String()
}

// renderHeader draws the title line with the active query and a
// spinner while a search is in flight.
func (r *Renderer) renderHeader(state ViewState) string {
	header := r.styles.Title.Render("foxgrep")

	if state.QueryText != "" {
		q := state.QueryText
		if state.IsRegex {
			q = "/" + q + "/"
		}
		header += "  " + r.styles.Query.Render(q)
		if state.PathGlob != "" {
			header += " " + r.styles.Dim.Render("in "+state.PathGlob)
		}
	}

	if state.Searching {
		spinner := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		frame := int(time.Now().UnixMilli()/80) % len(spinner)
		header += "  " + spinner[frame] + " Searching"
	}

	if state.SessionCount > 1 {
		header += "  " + r.styles.Dim.Render(fmt.Sprintf("[session %d/%d]", state.SessionPos, state.SessionCount))
	}

	return header
}

// renderResults draws the visible slice of the result lines.
func (r *Renderer) renderResults(state ViewState) string {
	content := &strings.Builder{}

	height := state.ViewportHeight
	if height < 1 {
		height = 1
	}

	start := state.ViewportOffset
	if start > len(state.Lines) {
		start = len(state.Lines)
	}
	end := start + height
	if end > len(state.Lines) {
		end = len(state.Lines)
	}

	for i := start; i < end; i++ {
		line := r.renderLine(state.Lines[i], state.ShowAnnotations)
		if i == state.CursorLine {
			line = r.styles.CursorBg.Render(line)
		}
		content.WriteString(line)
		content.WriteString("\n")
	}

	// Pad so the status line stays put while results stream in
	for i := end - start; i < height; i++ {
		content.WriteString("\n")
	}

	if end < len(state.Lines) {
		content.WriteString(r.styles.Dim.Render(fmt.Sprintf("… %d more lines", len(state.Lines)-end)))
	}
	content.WriteString("\n")

	return content.String()
}

// renderLine styles one rendered line span by span.
func (r *Renderer) renderLine(line domain.RenderedLine, showAnnotations bool) string {
	out := &strings.Builder{}
	for _, span := range line.Spans {
		if span.Kind == domain.SpanAnnotation && !showAnnotations {
			continue
		}
		out.WriteString(r.styles.SpanStyle(span.Kind).Render(span.Text))
	}
	return out.String()
}

// renderStatus draws the query input or the status/help line.
func (r *Renderer) renderStatus(state ViewState) string {
	if state.InputActive {
		return state.InputView
	}

	var status string
	switch {
	case state.StatusMessage != "" && state.StatusIsError:
		status = r.styles.StatusError.Render(state.StatusMessage)
	case state.StatusMessage != "":
		status = r.styles.Status.Render(state.StatusMessage)
	case state.HitCount > 0 && state.CursorHit > 0:
		status = r.styles.Status.Render(fmt.Sprintf("match %d of %d", state.CursorHit, state.HitCount))
	case state.HitCount > 0:
		status = r.styles.Status.Render(fmt.Sprintf("%d matches", state.HitCount))
	}

	help := r.styles.Help.Render("/ search · n/p next/prev · enter jump · ? help · q quit")
	if status == "" {
		return help
	}
	return status + "  " + help
}

// renderHelp draws the full-screen key reference.
func (r *Renderer) renderHelp() string {
	var help strings.Builder

	help.WriteString(r.styles.Title.Render("foxgrep help"))
	help.WriteString("\n\n")

	section := func(name string, keys [][2]string) {
		help.WriteString(r.styles.Keyword.Render(name))
		help.WriteString("\n")
		for _, k := range keys {
			help.WriteString(fmt.Sprintf("  %-12s %s\n", r.styles.Query.Render(k[0]), k[1]))
		}
		help.WriteString("\n")
	}

	section("Search", [][2]string{
		{"/", "new query"},
		{"ctrl+r", "toggle regexp (while typing)"},
		{"ctrl+p", "edit path filter (while typing)"},
	})
	section("Navigation", [][2]string{
		{"n / p", "next / previous match"},
		{"j/k, ↑/↓", "move the cursor line"},
		{"pgup/pgdn", "page up / down"},
		{"g / G", "top / bottom"},
		{"enter", "open the hit in the pager"},
	})
	section("Sessions", [][2]string{
		{"] / [", "next / previous session"},
		{"x", "close session"},
		{"X", "close all sessions"},
		{"o", "close other sessions"},
	})
	section("General", [][2]string{
		{"?", "toggle this help"},
		{"q, ctrl+c", "quit"},
	})

	return help.String()
}
