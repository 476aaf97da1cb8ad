package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"foxgrep/internal/config"
	"foxgrep/internal/domain"
	"foxgrep/internal/eventbus"
	"foxgrep/internal/searchd"
	"foxgrep/internal/session"
	"foxgrep/internal/ui"
)

func main() {
	// Parse command line arguments
	var (
		endpoint    string
		sourceRoot  string
		initialText string
		isRegex     bool
		pathGlob    string
	)
	flag.StringVar(&endpoint, "endpoint", "", "Search backend URL (overrides config)")
	flag.StringVar(&endpoint, "e", "", "Search backend URL (shorthand)")
	flag.StringVar(&sourceRoot, "root", "", "Local source checkout for jump-to-file (overrides config)")
	flag.StringVar(&initialText, "q", "", "Query to run on startup")
	flag.BoolVar(&isRegex, "regexp", false, "Treat the startup query as a regular expression")
	flag.StringVar(&pathGlob, "path", "", "Path glob filter for the startup query")
	flag.Parse()

	// A bare argument is also accepted as the startup query
	if initialText == "" && flag.NArg() > 0 {
		initialText = flag.Arg(0)
	}

	// Set up logging
	logFile, err := os.OpenFile("foxgrep.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Could not open log file: %v", err)
	} else {
		defer logFile.Close()
		log.SetOutput(logFile)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	// Create event bus
	bus := eventbus.New()

	// Load configuration
	configSvc := config.NewConfigServiceWithBus(bus)
	cfg, err := configSvc.Load()
	if err != nil {
		log.Printf("Error loading config: %v", err)
		cfg = config.DefaultConfig()
	}

	// Flags override config
	if endpoint != "" {
		cfg.Endpoint = endpoint
	}
	if sourceRoot != "" {
		cfg.SourceRoot = sourceRoot
	}

	// Initialize services
	registry := session.NewRegistry(bus, cfg.UISettings.ReuseBuffer)
	_ = searchd.NewService(ctx, bus, registry, cfg.Endpoint) // Search service subscribes to events automatically

	// Create UI model
	uiModel := ui.NewModel(bus, cfg, registry)

	// Create Bubble Tea program
	p := tea.NewProgram(uiModel, tea.WithAltScreen())
	uiModel.SetProgram(p)

	// Set up event forwarding to UI
	eventChan := make(chan eventbus.DomainEvent, 100)
	forward := func(e eventbus.DomainEvent) {
		select {
		case eventChan <- e:
		default:
			// Channel full, drop event
			log.Println("Event channel full, dropping event")
		}
	}
	bus.Subscribe(eventbus.EventSearchStarted, forward)
	bus.Subscribe(eventbus.EventResultChunk, forward)
	bus.Subscribe(eventbus.EventSearchCompleted, forward)
	bus.Subscribe(eventbus.EventSearchFailed, forward)
	bus.Subscribe(eventbus.EventSessionClosed, forward)
	bus.Subscribe(eventbus.EventError, forward)

	// Start forwarding events to UI in background
	go func() {
		for event := range eventChan {
			p.Send(ui.EventMsg{Event: event})
		}
	}()

	// Kick off the startup query, if any
	if initialText != "" || pathGlob != "" {
		uiModel.OpenSearch(domain.NewQuery(initialText, isRegex, pathGlob))
	}

	// Run the UI
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}

	// Cleanup
	registry.CloseAll()
	close(eventChan)
	cancel()
}
