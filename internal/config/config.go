// Package config handles configuration file loading and parsing.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/jmylchreest/hudtoast/internal/model"
)

// Default configuration values.
const (
	DefaultListen            = "127.0.0.1:7311"
	DefaultHeartbeat         = 15 * time.Second
	DefaultExitDelay         = 600 * time.Millisecond
	DefaultDebugVisibleDelay = 100 * time.Millisecond
	DefaultFetchTimeout      = 5 * time.Second
	DefaultVolume            = 80
	DefaultLogLevel          = "info"
)

// Config is the configuration for hudtoastd and the hudtoast client.
// Loaded from ~/.config/hudtoast/hudtoast.toml
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Overlay OverlayConfig `toml:"overlay"`
	NUI     NUIConfig     `toml:"nui"`
	Audio   AudioConfig   `toml:"audio"`
	Log     LogConfig     `toml:"log"`
}

// ServerConfig contains the HTTP message channel settings.
type ServerConfig struct {
	Listen    string   `toml:"listen"`    // host:port
	Heartbeat Duration `toml:"heartbeat"` // SSE keep-alive interval
}

// OverlayConfig contains toast lifecycle settings.
type OverlayConfig struct {
	ExitDelay         Duration `toml:"exit_delay"`          // Exiting → Removed
	DebugVisibleDelay Duration `toml:"debug_visible_delay"` // setVisible after start in debug mode
	StartVisible      bool     `toml:"start_visible"`
}

// NUIConfig contains settings for talking back to the host.
type NUIConfig struct {
	ResourceName       string   `toml:"resource_name"` // Empty = debug mode
	Endpoint           string   `toml:"endpoint"`      // Overrides https://<resource_name>
	MocksFile          string   `toml:"mocks_file"`    // YAML debug responses
	Timeout            Duration `toml:"timeout"`
	NotifyHostOnRemove bool     `toml:"notify_host_on_remove"`
}

// AudioConfig contains audio settings.
type AudioConfig struct {
	Enabled bool              `toml:"enabled"`
	Volume  int               `toml:"volume"` // 0-100
	Sounds  map[string]string `toml:"sounds"` // notification type -> sound file
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// DefaultConfig returns a new Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Listen:    DefaultListen,
			Heartbeat: Duration(DefaultHeartbeat),
		},
		Overlay: OverlayConfig{
			ExitDelay:         Duration(DefaultExitDelay),
			DebugVisibleDelay: Duration(DefaultDebugVisibleDelay),
			StartVisible:      false,
		},
		NUI: NUIConfig{
			Timeout: Duration(DefaultFetchTimeout),
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  DefaultVolume,
			Sounds:  make(map[string]string),
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
	}
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "hudtoast", "hudtoast.toml"), nil
}

// LoadConfig loads configuration from the specified path.
// If path is empty, uses the default config path.
// Returns the default config if the file doesn't exist.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then overlay with file contents
	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the specified path.
// Creates parent directories if needed.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write atomically via temp file
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return os.Rename(tmpPath, path)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Listen) == "" {
		return fmt.Errorf("server.listen must not be empty")
	}
	if c.Server.Heartbeat.Duration() < time.Second {
		return fmt.Errorf("server.heartbeat must be at least 1s, got %s", c.Server.Heartbeat.Duration())
	}

	if c.Overlay.ExitDelay < 0 {
		return fmt.Errorf("overlay.exit_delay must not be negative, got %s", c.Overlay.ExitDelay.Duration())
	}
	if c.Overlay.DebugVisibleDelay < 0 {
		return fmt.Errorf("overlay.debug_visible_delay must not be negative, got %s", c.Overlay.DebugVisibleDelay.Duration())
	}

	if strings.ContainsAny(c.NUI.ResourceName, "/ ") {
		return fmt.Errorf("nui.resource_name %q must not contain '/' or spaces", c.NUI.ResourceName)
	}
	if c.NUI.Timeout <= 0 {
		return fmt.Errorf("nui.timeout must be positive, got %s", c.NUI.Timeout.Duration())
	}

	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("volume must be between 0 and 100, got %d", c.Audio.Volume)
	}
	for name := range c.Audio.Sounds {
		if !model.Type(name).Valid() {
			return fmt.Errorf("invalid sound type %q, must be one of: %v", name, model.Types)
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// DebugMode reports whether there is no host resource to fetch from.
func (c *Config) DebugMode() bool {
	return c.NUI.ResourceName == "" && c.NUI.Endpoint == ""
}

// GetSoundForType returns the sound file path for the given notification type.
// Unknown types use the info sound. Expands ~ to home directory.
func (c *Config) GetSoundForType(t model.Type) string {
	return expandPath(c.Audio.Sounds[string(t.Presentation())])
}

// MocksPath returns the expanded path of the debug mocks file.
func (c *Config) MocksPath() string {
	return expandPath(c.NUI.MocksFile)
}

// ParseLevel converts a log level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q, must be one of: debug, info, warn, error", level)
	}
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
