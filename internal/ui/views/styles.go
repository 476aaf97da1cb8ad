package views

import (
	"github.com/charmbracelet/lipgloss"

	"foxgrep/internal/domain"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Status      lipgloss.Style
	StatusError lipgloss.Style
	Help        lipgloss.Style
	Dim         lipgloss.Style
	Query       lipgloss.Style

	// Semantic result styles
	Match      lipgloss.Style
	Annotation lipgloss.Style
	Keyword    lipgloss.Style
	Info       lipgloss.Style
	CursorBg   lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Status: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		StatusError: lipgloss.NewStyle().Foreground(lipgloss.Color("203")), // red
		Help:        lipgloss.NewStyle().Faint(true),
		Dim:         lipgloss.NewStyle().Faint(true),
		Query:       lipgloss.NewStyle().Foreground(lipgloss.Color("214")), // yellow

		Match:      lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		Annotation: lipgloss.NewStyle().Faint(true),
		Keyword:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Info:       lipgloss.NewStyle().Foreground(lipgloss.Color("51")), // cyan
		CursorBg:   lipgloss.NewStyle().Background(lipgloss.Color("238")),
	}
}

// SpanStyle maps a semantic span kind to its terminal style.
func (s *Styles) SpanStyle(kind domain.SpanKind) lipgloss.Style {
	switch kind {
	case domain.SpanMatch:
		return s.Match
	case domain.SpanAnnotation:
		return s.Annotation
	case domain.SpanKeyword:
		return s.Keyword
	case domain.SpanInfo:
		return s.Info
	default:
		return lipgloss.NewStyle()
	}
}
