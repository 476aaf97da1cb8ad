package ui

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"foxgrep/internal/config"
	"foxgrep/internal/domain"
	"foxgrep/internal/eventbus"
	"foxgrep/internal/render"
	"foxgrep/internal/session"
	"foxgrep/internal/ui/views"
)

// reservedRows is the screen space taken by the header and status lines.
const reservedRows = 4

// Model represents the UI state
type Model struct {
	bus      eventbus.EventBus
	config   *config.Config
	registry *session.Registry
	pager    *PagerOps
	renderer *views.Renderer

	// UI state
	width          int
	height         int
	textInput      textinput.Model
	inputActive    bool
	editingPath    bool // the input currently edits the path filter
	pendingRegex   bool
	pendingPath    string
	active         domain.SessionID
	searching      bool
	statusMessage  string
	statusIsError  bool
	cursorLine     int
	viewportOffset int
	showHelp       bool

	// Program reference for terminal management
	program *tea.Program
}

// NewModel creates a new UI model
func NewModel(bus eventbus.EventBus, cfg *config.Config, registry *session.Registry) *Model {
	ti := textinput.New()
	ti.Prompt = "search: "
	ti.CharLimit = 256

	return &Model{
		bus:       bus,
		config:    cfg,
		registry:  registry,
		pager:     NewPagerOps(cfg.SourceRoot),
		renderer:  views.NewRenderer(),
		textInput: ti,
	}
}

// SetProgram stores the program reference needed to hand the terminal
// to the pager
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager.SetProgram(p)
}

// OpenSearch starts a session for the query and makes it the active view.
func (m *Model) OpenSearch(q domain.Query) {
	s := m.registry.Open(q, nil)
	m.active = s.ID
	m.searching = true
	m.cursorLine = 0
	m.viewportOffset = 0
	m.statusMessage = ""
	m.statusIsError = false
}

// activeSession returns the session the view is showing, or nil.
func (m *Model) activeSession() *session.Session {
	if m.active == 0 {
		return nil
	}
	return m.registry.Get(m.active)
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureVisible()
		return m, nil

	case tickMsg:
		// Keep ticking only while something animates
		if m.searching {
			return m, tickCmd()
		}
		return m, nil

	case EventMsg:
		return m.handleEvent(msg.Event)

	case pagerDoneMsg:
		if msg.err != nil {
			m.setError(fmt.Sprintf("pager: %v", msg.err))
		}
		return m, nil

	case tea.KeyMsg:
		if m.inputActive {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

// handleEvent processes domain events forwarded from the bus
func (m *Model) handleEvent(e eventbus.DomainEvent) (tea.Model, tea.Cmd) {
	switch ev := e.(type) {
	case eventbus.SearchStartedEvent:
		if ev.Session == m.active {
			m.searching = true
			return m, tickCmd()
		}

	case eventbus.ResultChunkEvent:
		// The session renderer was already fed by the delivery pump;
		// this event only triggers a repaint.

	case eventbus.SearchCompletedEvent:
		if ev.Session == m.active {
			m.searching = false
			if s := m.activeSession(); s != nil {
				if n := s.Renderer.HitCount(); n == 0 {
					m.statusMessage = "no matches"
				} else {
					m.statusMessage = fmt.Sprintf("%d matches", n)
				}
			}
		}

	case eventbus.SearchFailedEvent:
		if ev.Session == m.active {
			// Results rendered so far stay on screen
			m.searching = false
			m.setError(fmt.Sprintf("search failed: %v", ev.Err))
		}

	case eventbus.SessionClosedEvent:
		if ev.Session == m.active {
			m.active = 0
			if ids := m.registry.List(); len(ids) > 0 {
				m.active = ids[len(ids)-1]
			}
			m.cursorLine = 0
			m.viewportOffset = 0
		}

	case eventbus.ErrorEvent:
		m.setError(ev.Message)
	}

	return m, nil
}

// handleKey processes keys in results mode
func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		switch msg.String() {
		case "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "?":
		m.showHelp = true

	case "/":
		m.inputActive = true
		m.editingPath = false
		m.textInput.Prompt = "search: "
		m.textInput.SetValue("")
		m.textInput.Focus()
		return m, textinput.Blink

	case "n":
		m.stepCursor(true)

	case "p", "N":
		m.stepCursor(false)

	case "j", "down":
		m.moveCursorLine(1)

	case "k", "up":
		m.moveCursorLine(-1)

	case "pgdown", "ctrl+d":
		m.moveCursorLine(m.viewportHeight())

	case "pgup", "ctrl+u":
		m.moveCursorLine(-m.viewportHeight())

	case "g":
		m.cursorLine = 0
		m.ensureVisible()

	case "G":
		if s := m.activeSession(); s != nil {
			if n := len(s.Renderer.Lines()); n > 0 {
				m.cursorLine = n - 1
			}
		}
		m.ensureVisible()

	case "enter":
		return m, m.jumpAtCursor()

	case "]":
		m.cycleSession(1)

	case "[":
		m.cycleSession(-1)

	case "x":
		if m.active != 0 {
			_ = m.registry.Close(m.active)
		}

	case "X":
		m.registry.CloseAll()

	case "o":
		if m.active != 0 {
			m.registry.CloseOthers(m.active)
		}
	}

	return m, nil
}

// handleInputKey processes keys while the query input is focused
func (m *Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.inputActive = false
		m.editingPath = false
		m.textInput.Blur()
		return m, nil

	case "ctrl+r":
		if !m.editingPath {
			m.pendingRegex = !m.pendingRegex
			if m.pendingRegex {
				m.textInput.Prompt = "search (regexp): "
			} else {
				m.textInput.Prompt = "search: "
			}
		}
		return m, nil

	case "ctrl+p":
		// Switch between editing the query and the path filter
		if m.editingPath {
			m.pendingPath = m.textInput.Value()
			m.editingPath = false
			m.textInput.Prompt = "search: "
			m.textInput.SetValue("")
		} else {
			m.editingPath = true
			m.textInput.Prompt = "path glob: "
			m.textInput.SetValue(m.pendingPath)
		}
		return m, nil

	case "enter":
		if m.editingPath {
			m.pendingPath = m.textInput.Value()
			m.editingPath = false
			m.textInput.Prompt = "search: "
			m.textInput.SetValue("")
			return m, nil
		}
		text := m.textInput.Value()
		m.inputActive = false
		m.textInput.Blur()
		m.OpenSearch(domain.NewQuery(text, m.pendingRegex, m.pendingPath))
		return m, tickCmd()
	}

	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

// stepCursor moves the navigation cursor across the hit index
func (m *Model) stepCursor(forward bool) {
	var loc domain.Location
	var err error
	if forward {
		loc, err = m.registry.Next(m.active)
	} else {
		loc, err = m.registry.Previous(m.active)
	}
	if errors.Is(err, session.ErrNoSession) {
		m.statusMessage = "no search session"
		return
	}
	if errors.Is(err, render.ErrNoMoreMatches) {
		m.statusMessage = "no more matches"
		m.statusIsError = false
		return
	}

	m.statusMessage = ""
	m.cursorLine = loc.DisplayLine
	m.ensureVisible()
}

// moveCursorLine moves the display cursor by delta lines, clamped
func (m *Model) moveCursorLine(delta int) {
	s := m.activeSession()
	if s == nil {
		return
	}
	total := len(s.Renderer.Lines())
	if total == 0 {
		return
	}

	m.cursorLine += delta
	if m.cursorLine < 0 {
		m.cursorLine = 0
	}
	if m.cursorLine >= total {
		m.cursorLine = total - 1
	}
	m.ensureVisible()
}

// jumpAtCursor opens the hit (or file) under the cursor in the pager
func (m *Model) jumpAtCursor() tea.Cmd {
	s := m.activeSession()
	if s == nil {
		return nil
	}

	loc, ok := s.Renderer.MoveTo(m.cursorLine)
	if !ok {
		// Not on a hit line; fall back to the owning file
		path, err := s.Renderer.ResolveFile(m.cursorLine)
		if err != nil {
			m.statusMessage = "no file here"
			m.statusIsError = false
			return nil
		}
		loc = domain.Location{Path: path, LineNumber: 1}
	}

	if loc.Path == "" {
		m.statusMessage = "no file here"
		return nil
	}

	log.Printf("Jumping to %s:%d", loc.Path, loc.LineNumber)
	return func() tea.Msg {
		err := m.pager.OpenAt(loc)
		return pagerDoneMsg{path: loc.Path, err: err}
	}
}

// cycleSession switches the active view to the next/previous session
func (m *Model) cycleSession(step int) {
	ids := m.registry.List()
	if len(ids) < 2 {
		return
	}

	cur := 0
	for i, id := range ids {
		if id == m.active {
			cur = i
			break
		}
	}
	next := (cur + step + len(ids)) % len(ids)
	m.active = ids[next]
	m.cursorLine = 0
	m.viewportOffset = 0
	m.statusMessage = ""
	if s := m.activeSession(); s != nil {
		m.searching = s.Status() == domain.SearchRunning
	}
}

func (m *Model) viewportHeight() int {
	h := m.height - reservedRows
	if h < 1 {
		h = 1
	}
	return h
}

// ensureVisible keeps the cursor line inside the viewport
func (m *Model) ensureVisible() {
	height := m.viewportHeight()
	if m.cursorLine < m.viewportOffset {
		m.viewportOffset = m.cursorLine
	}
	if m.cursorLine >= m.viewportOffset+height {
		m.viewportOffset = m.cursorLine - height + 1
	}
	if m.viewportOffset < 0 {
		m.viewportOffset = 0
	}
}

func (m *Model) setError(msg string) {
	m.statusMessage = msg
	m.statusIsError = true
}

// View implements tea.Model
func (m *Model) View() string {
	state := views.ViewState{
		Width:           m.width,
		Height:          m.height,
		CursorLine:      m.cursorLine,
		ViewportOffset:  m.viewportOffset,
		ViewportHeight:  m.viewportHeight(),
		Searching:       m.searching,
		StatusMessage:   m.statusMessage,
		StatusIsError:   m.statusIsError,
		ShowHelp:        m.showHelp,
		ShowAnnotations: m.config.UISettings.ShowAnnotations,
		InputActive:     m.inputActive,
	}

	if m.inputActive {
		state.InputView = m.textInput.View()
	}

	ids := m.registry.List()
	state.SessionCount = len(ids)
	for i, id := range ids {
		if id == m.active {
			state.SessionPos = i + 1
		}
	}

	if s := m.activeSession(); s != nil {
		state.Lines = s.Renderer.Lines()
		state.HitCount = s.Renderer.HitCount()
		state.CursorHit = s.Renderer.Cursor() + 1
		state.QueryText = s.Query.Text
		state.IsRegex = s.Query.IsRegex
		state.PathGlob = s.Query.PathGlob
	}

	return m.renderer.Render(state)
}
