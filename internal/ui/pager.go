package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/noborus/ov/oviewer"

	"foxgrep/internal/domain"
)

// PagerOps opens matched files in the ov pager
type PagerOps struct {
	program    *tea.Program
	sourceRoot string
}

// NewPagerOps creates a pager operations handler
func NewPagerOps(sourceRoot string) *PagerOps {
	return &PagerOps{sourceRoot: sourceRoot}
}

// SetProgram sets the program reference for terminal management
func (p *PagerOps) SetProgram(program *tea.Program) {
	p.program = program
}

// OpenAt shows the file owning a hit in the ov pager, jumped to the
// hit's line. Blocks until the pager exits.
func (p *PagerOps) OpenAt(loc domain.Location) error {
	if p.program == nil {
		return fmt.Errorf("program not set")
	}
	if loc.Path == "" {
		return fmt.Errorf("hit has no owning file")
	}

	fullPath := filepath.Join(p.sourceRoot, loc.Path)
	if _, err := os.Stat(fullPath); err != nil {
		return fmt.Errorf("cannot open %s: %w", loc.Path, err)
	}

	// Release terminal control to run ov
	if err := p.program.ReleaseTerminal(); err != nil {
		return err
	}

	// Ensure terminal is restored even if ov fails
	defer func() {
		// Small delay to ensure ov has fully exited before restoring terminal
		time.Sleep(100 * time.Millisecond)
		_ = p.program.RestoreTerminal() // Ignore error as we're in defer context
	}()

	root, err := oviewer.Open(fullPath)
	if err != nil {
		return err
	}

	// Configure ov to not write on exit (to avoid messing with our screen)
	config := oviewer.NewConfig()
	config.IsWriteOnExit = false
	config.IsWriteOriginal = false
	// Land on the matched line
	jumpTarget := strconv.Itoa(loc.LineNumber)
	config.General.JumpTarget = &jumpTarget

	root.SetConfig(config)

	// Run the oviewer (this will take over the terminal)
	return root.Run()
}
