package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Engine.Smoothing.Validate(); err != nil {
		t.Errorf("default smoothing invalid: %v", err)
	}
	if cfg.Analyzer.URL == "" || cfg.Analyzer.Resolution <= 0 {
		t.Errorf("analyzer defaults = %+v", cfg.Analyzer)
	}
	if cfg.Perf.TargetFPS != 60 {
		t.Errorf("TargetFPS = %v", cfg.Perf.TargetFPS)
	}
	if cfg.Gaze.BlinkMinGap >= cfg.Gaze.BlinkMaxGap {
		t.Errorf("blink gaps inverted: %v >= %v", cfg.Gaze.BlinkMinGap, cfg.Gaze.BlinkMaxGap)
	}
}

func TestLoad_CreatesDefaultFile(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if _, err := os.Stat(filepath.Join(home, ".facesync", "config.yaml")); err != nil {
		t.Errorf("default config file not written: %v", err)
	}
	if cfg.Analyzer.URL != DefaultConfig().Analyzer.URL {
		t.Errorf("URL = %q", cfg.Analyzer.URL)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	isolateHome(t)

	cfg := DefaultConfig()
	cfg.Analyzer.URL = "ws://example:9000/analyze"
	cfg.Perf.TargetFPS = 30
	cfg.Engine.Smoothing.MaxBlendCount = 2
	if err := Save(cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Analyzer.URL != "ws://example:9000/analyze" {
		t.Errorf("URL = %q", loaded.Analyzer.URL)
	}
	if loaded.Perf.TargetFPS != 30 {
		t.Errorf("TargetFPS = %v", loaded.Perf.TargetFPS)
	}
	if loaded.Engine.Smoothing.MaxBlendCount != 2 {
		t.Errorf("MaxBlendCount = %d", loaded.Engine.Smoothing.MaxBlendCount)
	}
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	home := isolateHome(t)

	if _, err := Load(); err != nil {
		t.Fatalf("initial Load: %v", err)
	}

	reloaded := make(chan *Config, 1)
	w, err := NewWatcher(zerolog.Nop(), func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	path := filepath.Join(home, ".facesync", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-reloaded:
		if cfg == nil {
			t.Fatal("reload callback got nil config")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("config write never triggered a reload")
	}
}

func TestWatcher_CloseIdempotent(t *testing.T) {
	isolateHome(t)
	if _, err := Load(); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(zerolog.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
