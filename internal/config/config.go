package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type contextKey string

const configKey contextKey = "config"

// Storage drivers
const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Storage    StorageConfig   `yaml:"storage"`
	FFmpeg     FFmpegConfig    `yaml:"ffmpeg"`
	Timeline   TimelineConfig  `yaml:"timeline"`
	Thumbnails ThumbnailConfig `yaml:"thumbnails"`
}

type ServerConfig struct {
	Addr        string `yaml:"addr"`
	MaxUploadMB int64  `yaml:"max_upload_mb"`
}

type StorageConfig struct {
	DataDir string `yaml:"data_dir"`
	TempDir string `yaml:"temp_dir"`
	Driver  string `yaml:"driver"`
	DBPath  string `yaml:"db_path"`
}

type FFmpegConfig struct {
	BinaryPath string `yaml:"binary_path"`
	ProbePath  string `yaml:"probe_path"`
	Threads    int    `yaml:"threads"`
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`

	// CopyExtract stream-copies extracted ranges (fast, cuts on keyframes)
	CopyExtract bool `yaml:"copy_extract"`
}

type TimelineConfig struct {
	MinRangeWidth float64 `yaml:"min_range_width"`
	TrimWindow    float64 `yaml:"trim_window"`
}

type ThumbnailConfig struct {
	Width uint `yaml:"width"`
}

// Load reads configuration from file or returns defaults. A .env file in the
// working directory and CLIPDECK_* variables override what the file says.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path == "" {
		path = findConfigFile()
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}

	// missing .env is fine
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// Validate rejects values no component can run with
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == DriverSQLite && c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path is required for the sqlite driver")
	}
	if c.Timeline.MinRangeWidth <= 0 {
		return fmt.Errorf("timeline.min_range_width must be positive")
	}
	if c.Timeline.TrimWindow <= 0 {
		return fmt.Errorf("timeline.trim_window must be positive")
	}
	if c.Server.MaxUploadMB <= 0 {
		return fmt.Errorf("server.max_upload_mb must be positive")
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CLIPDECK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CLIPDECK_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("CLIPDECK_FFMPEG"); v != "" {
		c.FFmpeg.BinaryPath = v
	}
	if v := os.Getenv("CLIPDECK_FFPROBE"); v != "" {
		c.FFmpeg.ProbePath = v
	}
	if v := os.Getenv("CLIPDECK_DB"); v != "" {
		c.Storage.Driver = DriverSQLite
		c.Storage.DBPath = v
	}
	if v := os.Getenv("CLIPDECK_THREADS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CLIPDECK_THREADS: %w", err)
		}
		c.FFmpeg.Threads = n
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:        ":8080",
			MaxUploadMB: 512,
		},
		Storage: StorageConfig{
			DataDir: "./data",
			TempDir: os.TempDir(),
			Driver:  DriverMemory,
			DBPath:  "./data/clipdeck.db",
		},
		FFmpeg: FFmpegConfig{
			BinaryPath: "ffmpeg",
			ProbePath:  "ffprobe",
			Threads:    0,
			Preset:     "veryfast",
			CRF:        23,
		},
		Timeline: TimelineConfig{
			MinRangeWidth: 0.1,
			TrimWindow:    30,
		},
		Thumbnails: ThumbnailConfig{
			Width: 320,
		},
	}
}

// Default returns the built-in configuration
func Default() *Config {
	return defaultConfig()
}

// DefaultPath is where `config init` writes when no path is given
func DefaultPath() string {
	return filepath.Join(os.Getenv("HOME"), ".clipdeck", "config.yaml")
}

func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		"./config.yml",
		DefaultPath(),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// WithConfig stores config in context
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from context
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configKey).(*Config); ok {
		return cfg
	}
	return defaultConfig()
}
