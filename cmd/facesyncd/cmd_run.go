package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/normanking/facesync/internal/analyzer"
	"github.com/normanking/facesync/internal/blend"
	"github.com/normanking/facesync/internal/bus"
	"github.com/normanking/facesync/internal/capability"
	"github.com/normanking/facesync/internal/config"
	"github.com/normanking/facesync/internal/diag"
	"github.com/normanking/facesync/internal/expression"
	"github.com/normanking/facesync/internal/gaze"
	"github.com/normanking/facesync/internal/logging"
	"github.com/normanking/facesync/internal/orchestrator"
	"github.com/normanking/facesync/internal/perf"
	"github.com/normanking/facesync/internal/viseme"
)

func newRunCmd() *cobra.Command {
	var (
		profileName string
		duration    time.Duration
		noAnalyzer  bool
		scriptPath  string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the frame loop against a simulated playback source",
		Long: `Run drives the blending pipeline at the configured frame rate using a
simulated audio message of the given duration. With an analyzer service
configured (and --no-analyzer unset) viseme scores come from the service;
with --script a lip-sync timeline estimated from the text file replaces
the service; otherwise the synthetic fallback carries the mouth.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(profileName, duration, noAnalyzer, scriptPath)
		},
	}

	cmd.Flags().StringVar(&profileName, "expression", "default", "Expression profile to hold")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "Simulated message duration")
	cmd.Flags().BoolVar(&noAnalyzer, "no-analyzer", false, "Skip the analyzer service and use the synthetic mouth")
	cmd.Flags().StringVar(&scriptPath, "script", "", "Text file to lip-sync from a precomputed timeline instead of the analyzer service")

	return cmd
}

// simPlayback is a wall-clock message player standing in for the host's
// audio element.
type simPlayback struct {
	mu       sync.Mutex
	start    time.Time
	duration time.Duration
}

func (p *simPlayback) snapshot() viseme.Playback {
	p.mu.Lock()
	defer p.mu.Unlock()
	elapsed := time.Since(p.start).Seconds()
	total := p.duration.Seconds()
	return viseme.Playback{
		Paused:      false,
		Ended:       elapsed >= total,
		CurrentTime: elapsed,
		Duration:    total,
	}
}

func runLoop(profileName string, duration time.Duration, noAnalyzer bool, scriptPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(nil)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()
	zlog := logger.Zerolog()

	catalog := expression.NewCatalog()
	if cfg.Expression.CatalogPath != "" {
		if err := catalog.LoadFile(cfg.Expression.CatalogPath); err != nil {
			logger.Warn("expression", "catalog file rejected, using built-ins", map[string]interface{}{
				"path":  cfg.Expression.CatalogPath,
				"error": err.Error(),
			})
		}
	}
	selector := expression.NewSelector(catalog)
	selector.Select(profileName)

	store := blend.NewTargetStore(blend.DefaultTargetNames())
	engine, err := blend.NewEngine(store, viseme.NewResolver(), cfg.Engine.Smoothing)
	if err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	eyes := gaze.NewController(time.Now().UnixNano())
	eyes.SetBlinkRate(cfg.Gaze.BlinkMinGap, cfg.Gaze.BlinkMaxGap)
	eyes.SetSaccadesEnabled(cfg.Gaze.Saccades)

	events := bus.NewEventBus()
	events.Subscribe(bus.EventTypeFallbackEntered, func(ev bus.Event) {
		logger.Warn("face", "fallback mode entered", ev.Data)
	})
	events.Subscribe(bus.EventTypeAdaptationApplied, func(ev bus.Event) {
		logger.Warn("face", "performance adaptation applied", ev.Data)
	})

	monitor := perf.NewMonitor(zlog)
	monitor.SetOnBudgetExceeded(func(s perf.Sample) {
		events.Publish(bus.Event{Type: bus.EventTypeBudgetExceeded, Data: map[string]any{
			"operation": s.Operation,
			"duration":  s.Duration.String(),
		}})
	})

	optimizer := perf.NewOptimizer(perf.TuningConfig{
		Smoothing:     cfg.Engine.Smoothing,
		Resolution:    cfg.Analyzer.Resolution,
		HistoryWindow: cfg.Analyzer.HistoryWindow,
	}, cfg.Perf.MaxProcessingTime, cfg.Perf.TargetFPS)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var recorder *diag.Recorder
	if cfg.Diag.Enabled {
		recorder, err = diag.Open(ctx, cfg.Diag.DBPath)
		if err != nil {
			logger.Warn("diag", "diagnostics disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	playback := &simPlayback{start: time.Now(), duration: duration}

	var an analyzer.Analyzer
	switch {
	case scriptPath != "":
		script, err := os.ReadFile(scriptPath)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		tl := analyzer.TimelineFromText(string(script), duration)
		an = analyzer.NewTimelinePlayer(tl, func() float64 {
			return playback.snapshot().CurrentTime
		})
	case !noAnalyzer:
		an = analyzer.NewWSClient(cfg.Analyzer.URL, cfg.Analyzer.ConnectTimeout, zlog)
	}

	orch, err := orchestrator.New(orchestrator.Options{
		Engine:           engine,
		Expressions:      selector,
		Gaze:             eyes,
		Analyzer:         an,
		Playback:         playback.snapshot,
		Monitor:          monitor,
		Optimizer:        optimizer,
		Bus:              events,
		Recorder:         recorder,
		Log:              zlog,
		SnapshotInterval: cfg.Perf.SnapshotInterval,
		RecordInterval:   cfg.Diag.RecordInterval,
	})
	if err != nil {
		return err
	}
	defer orch.Close()

	watcher, err := config.NewWatcher(zlog, func(next *config.Config) {
		if err := engine.SetConfig(next.Engine.Smoothing); err != nil {
			logger.Warn("config", "reloaded smoothing config rejected", map[string]interface{}{"error": err.Error()})
		}
	})
	if err != nil {
		logger.Warn("config", "hot reload unavailable", map[string]interface{}{"error": err.Error()})
	} else {
		defer watcher.Close()
	}

	report := orch.Start(ctx, capability.HostEnvironment{})
	logger.Info("face", "frame loop starting", map[string]interface{}{
		"supported":  report.Supported,
		"expression": profileName,
		"duration":   duration.String(),
	})

	frameInterval := time.Duration(float64(time.Second) / cfg.Perf.TargetFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	deadline := time.Now().Add(duration + time.Second)
	for {
		select {
		case <-ctx.Done():
			printSummary(monitor)
			return nil
		case now := <-ticker.C:
			if now.After(deadline) {
				printSummary(monitor)
				return nil
			}
			orch.Frame(ctx, now)
		}
	}
}

func printSummary(monitor *perf.Monitor) {
	stats := monitor.GetStats()
	fmt.Printf("frames ok=%d errors=%d avg=%s fps=%.1f error_rate=%.3f\n",
		stats.TotalSuccesses, stats.TotalErrors,
		stats.AvgProcessingTime, stats.AvgFPS, stats.ErrorRate)
}
