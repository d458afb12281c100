package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Media    MediaConfig    `yaml:"media"`
	Playback PlaybackConfig `yaml:"playback"`
	Chart    ChartConfig    `yaml:"chart"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Address string `yaml:"address"`
}

// DBConfig holds database settings.
type DBConfig struct {
	Path string `yaml:"path"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Server   LogSettings `yaml:"server"`
	Requests LogSettings `yaml:"requests"`
}

// LogSettings holds settings for a specific logger.
type LogSettings struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"`
}

// MediaConfig holds settings for stored photo/video assets.
type MediaConfig struct {
	// Dir is where uploaded assets live; served under /media/.
	Dir string `yaml:"dir"`
	// SnapRadius is how close a geotagged asset must be to the track to
	// snap onto it.
	SnapRadius Distance `yaml:"snap_radius"`
	// RevealDuration is how long an automatic reveal pauses playback.
	RevealDuration Duration `yaml:"reveal_duration"`
}

// PlaybackConfig holds replay engine settings.
type PlaybackConfig struct {
	// BaseInterval is the wall time one resampled point takes at 1x.
	BaseInterval Duration `yaml:"base_interval"`
	// FrameInterval is the clock's internal tick granularity.
	FrameInterval Duration `yaml:"frame_interval"`
	// ResampleInterval is the fixed activity-time cadence tracks are
	// resampled to before playback.
	ResampleInterval Duration `yaml:"resample_interval"`
	// SessionTTL evicts replay sessions idle longer than this.
	SessionTTL Duration `yaml:"session_ttl"`
}

// ChartConfig holds profile chart settings.
type ChartConfig struct {
	// Budget caps the number of visual points per chart frame.
	Budget int `yaml:"budget"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Address: "localhost:1926",
		},
		DB: DBConfig{
			Path: "./data/trailbook.db",
		},
		Log: LogConfig{
			Server: LogSettings{
				Path:  "./logs/server.log",
				Level: "INFO",
			},
			Requests: LogSettings{
				Path:  "./logs/requests.log",
				Level: "INFO",
			},
		},
		Media: MediaConfig{
			Dir:            "./data/media",
			SnapRadius:     Distance(500),
			RevealDuration: Duration(5 * time.Second),
		},
		Playback: PlaybackConfig{
			BaseInterval:     Duration(50 * time.Millisecond),
			FrameInterval:    Duration(16 * time.Millisecond),
			ResampleInterval: Duration(5 * time.Second),
			SessionTTL:       Duration(30 * time.Minute),
		},
		Chart: ChartConfig{
			Budget: 200,
		},
	}
}

// Load loads the configuration from the given path.
// If the file does not exist, it creates it with default values.
// If the file exists, it merges defaults with existing values but does NOT
// save back to disk (to preserve user formatting and comments).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); err == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if err := Save(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to save config file: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Playback.BaseInterval <= 0 {
		return fmt.Errorf("playback.base_interval must be positive")
	}
	if c.Playback.ResampleInterval <= 0 {
		return fmt.Errorf("playback.resample_interval must be positive")
	}
	if c.Chart.Budget < 2 {
		return fmt.Errorf("chart.budget must be at least 2")
	}
	return nil
}

// Save writes the configuration to the path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Trailbook Configuration
# -----------------------
# Supported Units:
#   Duration: ns, us (or µs), ms, s, m, h, d (day), w (week)
#   Distance: m (meters), km (kilometers)

`)
	data = append(header, data...)

	// Inject comments for fields that deserve one in the generated file.
	reSnap := regexp.MustCompile(`(?m)^(\s+)snap_radius:`)
	data = reSnap.ReplaceAll(data, []byte("${1}# Geotagged media closer than this snaps onto the track\n${1}snap_radius:"))

	reBase := regexp.MustCompile(`(?m)^(\s+)base_interval:`)
	data = reBase.ReplaceAll(data, []byte("${1}# Wall time per resampled point at 1x speed\n${1}base_interval:"))

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GenerateDefault creates a default config file at the given path.
// Returns nil if the file already exists.
func GenerateDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return Save(path, DefaultConfig())
}
