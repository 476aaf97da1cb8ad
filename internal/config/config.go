package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"foxgrep/internal/eventbus"
)

// Config represents the application configuration
type Config struct {
	Version    int        `toml:"version"`
	Endpoint   string     `toml:"endpoint"`    // search backend URL
	SourceRoot string     `toml:"source_root"` // local checkout hit paths are relative to
	UISettings UISettings `toml:"ui"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ReuseBuffer     bool `toml:"reuse_buffer"` // one shared result view, reset per search
	ShowAnnotations bool `toml:"show_annotations"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a new config service
func NewConfigService() ConfigService {
	configDir, err := os.UserConfigDir()
	if err != nil {
		// Fallback to home directory
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}

	foxgrepDir := filepath.Join(configDir, "foxgrep")
	os.MkdirAll(foxgrepDir, 0755)

	return &configService{
		filePath: filepath.Join(foxgrepDir, "config.toml"),
	}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(bus eventbus.EventBus) ConfigService {
	cs := NewConfigService().(*configService)
	cs.bus = bus
	return cs
}

// Load loads the configuration from the default path
func (cs *configService) Load() (*Config, error) {
	if _, err := os.Stat(cs.filePath); os.IsNotExist(err) {
		// Return default config if file doesn't exist
		cfg := DefaultConfig()
		cs.publishLoaded(cfg)
		return cfg, nil
	}
	return cs.LoadFromPath(cs.filePath)
}

// Save saves the configuration to the default path
func (cs *configService) Save(config *Config) error {
	return cs.SaveToPath(config, cs.filePath)
}

// LoadFromPath loads the configuration from a specific file
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Flags and older configs may leave these empty
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultConfig().Endpoint
	}

	cs.publishLoaded(&cfg)
	return &cfg, nil
}

// SaveToPath saves the configuration to a specific file
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func (cs *configService) publishLoaded(cfg *Config) {
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{
			Endpoint:   cfg.Endpoint,
			SourceRoot: cfg.SourceRoot,
		})
	}
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		Version:  1,
		Endpoint: "https://searchfox.org/mozilla-central/search",
		UISettings: UISettings{
			ReuseBuffer:     true,
			ShowAnnotations: true,
		},
	}
}
