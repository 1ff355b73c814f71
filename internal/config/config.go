// Package config provides configuration management for facesync
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/normanking/facesync/internal/blend"
)

// Config holds all application configuration
type Config struct {
	Engine     EngineConfig     `mapstructure:"engine"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
	Perf       PerfConfig       `mapstructure:"perf"`
	Expression ExpressionConfig `mapstructure:"expression"`
	Gaze       GazeConfig       `mapstructure:"gaze"`
	Diag       DiagConfig       `mapstructure:"diag"`
}

// EngineConfig tunes the blending engine
type EngineConfig struct {
	Smoothing blend.SmoothingConfig `mapstructure:"smoothing"`
}

// AnalyzerConfig configures the external audio analyzer connection
type AnalyzerConfig struct {
	URL            string        `mapstructure:"url"`
	Resolution     int           `mapstructure:"resolution"`     // FFT size
	HistoryWindow  int           `mapstructure:"history_window"` // smoothing lookback, frames
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// PerfConfig sets the performance targets the optimizer degrades against
type PerfConfig struct {
	TargetFPS         float64       `mapstructure:"target_fps"`
	MaxProcessingTime time.Duration `mapstructure:"max_processing_time"`
	SnapshotInterval  time.Duration `mapstructure:"snapshot_interval"`
}

// ExpressionConfig selects the expression catalog
type ExpressionConfig struct {
	CatalogPath    string `mapstructure:"catalog_path"` // optional YAML overrides
	DefaultProfile string `mapstructure:"default_profile"`
}

// GazeConfig configures the blink cycle
type GazeConfig struct {
	BlinkMinGap time.Duration `mapstructure:"blink_min_gap"`
	BlinkMaxGap time.Duration `mapstructure:"blink_max_gap"`
	Saccades    bool          `mapstructure:"saccades"`
}

// DiagConfig configures the session diagnostics recorder
type DiagConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	DBPath         string        `mapstructure:"db_path"`
	RecordInterval time.Duration `mapstructure:"record_interval"`
}

// DefaultConfig returns sensible default configuration
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Engine: EngineConfig{
			Smoothing: blend.DefaultSmoothingConfig(),
		},
		Analyzer: AnalyzerConfig{
			URL:            "ws://localhost:8090/analyze",
			Resolution:     2048,
			HistoryWindow:  60,
			ConnectTimeout: 5 * time.Second,
		},
		Perf: PerfConfig{
			TargetFPS:         60,
			MaxProcessingTime: 16 * time.Millisecond,
			SnapshotInterval:  2 * time.Second,
		},
		Expression: ExpressionConfig{
			DefaultProfile: "default",
		},
		Gaze: GazeConfig{
			BlinkMinGap: 2 * time.Second,
			BlinkMaxGap: 5 * time.Second,
			Saccades:    true,
		},
		Diag: DiagConfig{
			Enabled:        true,
			DBPath:         filepath.Join(home, ".facesync", "diag.db"),
			RecordInterval: 10 * time.Second,
		},
	}
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	cfg := DefaultConfig()

	configDir, err := GetConfigDir()
	if err != nil {
		return cfg, err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return cfg, err
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("FACESYNC")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return cfg, err
		}
		// Config file not found, use defaults and create one
		if err := Save(cfg); err != nil {
			return cfg, err
		}
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return cfg, err
	}

	if err := cfg.Engine.Smoothing.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Save writes the configuration to file
func Save(cfg *Config) error {
	configDir, err := GetConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	viper.Set("engine", cfg.Engine)
	viper.Set("analyzer", cfg.Analyzer)
	viper.Set("perf", cfg.Perf)
	viper.Set("expression", cfg.Expression)
	viper.Set("gaze", cfg.Gaze)
	viper.Set("diag", cfg.Diag)

	return viper.WriteConfigAs(filepath.Join(configDir, "config.yaml"))
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".facesync"), nil
}
