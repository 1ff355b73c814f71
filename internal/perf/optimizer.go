package perf

import (
	"sync"
	"time"

	"github.com/normanking/facesync/internal/blend"
)

// TuningConfig is everything the optimizer may degrade: engine smoothing
// plus analyzer resolution and lookback.
type TuningConfig struct {
	Smoothing     blend.SmoothingConfig
	Resolution    int // analyzer FFT size
	HistoryWindow int // analyzer smoothing lookback, frames
}

// DefaultTuningConfig is the startup tuning.
func DefaultTuningConfig() TuningConfig {
	return TuningConfig{
		Smoothing:     blend.DefaultSmoothingConfig(),
		Resolution:    2048,
		HistoryWindow: 60,
	}
}

const (
	maxAdaptations = 5
	statWindowSize = 10
	minStatSamples = 3
)

// Optimizer consumes monitor snapshots and walks a fixed five-rung
// degradation ladder under sustained poor performance. The ladder is
// one-directional: there is no recovery to a richer configuration once
// conditions improve.
type Optimizer struct {
	mu sync.Mutex

	cfg         TuningConfig
	window      []Stats
	adaptations int

	maxProcessingTime time.Duration
	targetFPS         float64
}

// NewOptimizer starts at cfg with the given performance targets.
func NewOptimizer(cfg TuningConfig, maxProcessingTime time.Duration, targetFPS float64) *Optimizer {
	return &Optimizer{
		cfg:               cfg,
		window:            make([]Stats, 0, statWindowSize),
		maxProcessingTime: maxProcessingTime,
		targetFPS:         targetFPS,
	}
}

// AnalyzePerformance appends a snapshot to the bounded stat window.
func (o *Optimizer) AnalyzePerformance(stats Stats) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.window = appendBounded(o.window, stats, statWindowSize)
}

// ShouldAdapt reports whether another degradation step is warranted:
// the adaptation cap is not reached, at least three snapshots exist, and
// the recent averages miss either the processing-time or the frame-rate
// target. The cap prevents oscillation once the ladder bottoms out.
func (o *Optimizer) ShouldAdapt() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.shouldAdaptLocked()
}

func (o *Optimizer) shouldAdaptLocked() bool {
	if o.adaptations >= maxAdaptations {
		return false
	}
	if len(o.window) < minStatSamples {
		return false
	}

	var totalTime time.Duration
	var totalFPS float64
	fpsSamples := 0
	for _, s := range o.window {
		totalTime += s.AvgProcessingTime
		if s.AvgFPS > 0 {
			totalFPS += s.AvgFPS
			fpsSamples++
		}
	}
	avgTime := totalTime / time.Duration(len(o.window))
	if avgTime > o.maxProcessingTime {
		return true
	}
	if fpsSamples > 0 && totalFPS/float64(fpsSamples) < 0.8*o.targetFPS {
		return true
	}
	return false
}

// Adapt applies exactly one ladder rung and returns the new tuning. Calls
// past the cap are no-ops returning the current, most degraded tuning.
//
// Rungs, in order: shrink lookback, halve resolution, raise the activation
// threshold and cut the simultaneous blend count, slow both smoothing
// speeds, collapse to the minimal safe configuration.
func (o *Optimizer) Adapt() TuningConfig {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.adaptations >= maxAdaptations {
		return o.cfg
	}
	o.adaptations++

	switch o.adaptations {
	case 1:
		o.cfg.HistoryWindow = maxInt(10, o.cfg.HistoryWindow/2)

	case 2:
		o.cfg.Resolution = maxInt(256, o.cfg.Resolution/2)

	case 3:
		o.cfg.Smoothing.MinThreshold = maxFloat(o.cfg.Smoothing.MinThreshold, 0.05)
		if o.cfg.Smoothing.MaxBlendCount > 2 {
			o.cfg.Smoothing.MaxBlendCount = 2
		}

	case 4:
		// Neutral first: it carries the 0.05 floor, and active must never
		// drop below it or the resulting config is invalid.
		o.cfg.Smoothing.NeutralSpeed = maxFloat(0.05, o.cfg.Smoothing.NeutralSpeed*0.8)
		o.cfg.Smoothing.ActiveSpeed = maxFloat(o.cfg.Smoothing.NeutralSpeed, o.cfg.Smoothing.ActiveSpeed*0.8)

	case 5:
		o.cfg = minimalTuning()
	}

	return o.cfg
}

// Adaptations returns how many rungs have been applied.
func (o *Optimizer) Adaptations() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.adaptations
}

// Config returns the current tuning.
func (o *Optimizer) Config() TuningConfig {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg
}

// minimalTuning is the floor configuration: cheapest valid settings that
// still move the mouth.
func minimalTuning() TuningConfig {
	return TuningConfig{
		Smoothing: blend.SmoothingConfig{
			ActiveSpeed:           0.3,
			NeutralSpeed:          0.1,
			MinThreshold:          0.1,
			MaxBlendCount:         1,
			ExpressionBlendFactor: 0.2,
		},
		Resolution:    256,
		HistoryWindow: 10,
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxFloat(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
