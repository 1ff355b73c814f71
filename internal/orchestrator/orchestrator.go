// Package orchestrator wires the per-frame pipeline: playback snapshot →
// analyzer (or synthetic fallback) → blending engine → blend targets, with
// the failure-recovery and adaptive-performance loops around it.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/facesync/internal/analyzer"
	"github.com/normanking/facesync/internal/blend"
	"github.com/normanking/facesync/internal/bus"
	"github.com/normanking/facesync/internal/capability"
	"github.com/normanking/facesync/internal/diag"
	"github.com/normanking/facesync/internal/expression"
	"github.com/normanking/facesync/internal/gaze"
	"github.com/normanking/facesync/internal/perf"
	"github.com/normanking/facesync/internal/recovery"
	"github.com/normanking/facesync/internal/viseme"
)

// Options collects the orchestrator's collaborators. Monitor, optimizer,
// and bus are owned by the caller and passed in explicitly; nothing here
// reaches for package-level state.
type Options struct {
	Engine      *blend.Engine
	Expressions *expression.Selector
	Gaze        *gaze.Controller
	Analyzer    analyzer.Analyzer
	Playback    func() viseme.Playback
	Monitor     *perf.Monitor
	Optimizer   *perf.Optimizer
	Bus         *bus.EventBus
	Recorder    *diag.Recorder // optional
	Log         zerolog.Logger

	// FallbackIntensity scales the synthetic mouth; defaults to 0.7.
	FallbackIntensity float32

	// SnapshotInterval paces optimizer snapshots; defaults to 2s.
	SnapshotInterval time.Duration

	// RecordInterval paces diagnostics writes; defaults to 10s.
	RecordInterval time.Duration
}

// Orchestrator drives one face. Frame is called by the renderer's frame
// callback and completes synchronously before the renderer reads the
// target store; errors never escape it.
type Orchestrator struct {
	engine      *blend.Engine
	expressions *expression.Selector
	gaze        *gaze.Controller
	analyzer    analyzer.Analyzer
	playback    func() viseme.Playback
	monitor     *perf.Monitor
	optimizer   *perf.Optimizer
	events      *bus.EventBus
	recorder    *diag.Recorder
	log         zerolog.Logger

	fallbackIntensity float32
	snapshotInterval  time.Duration
	recordInterval    time.Duration

	state       recovery.State
	retryAt     time.Time
	prevActive  bool
	prevFrame   time.Time
	nextSnap    time.Time
	nextRecord  time.Time
	unsupported bool
}

// New validates the wiring and applies option defaults.
func New(opts Options) (*Orchestrator, error) {
	if opts.Engine == nil || opts.Playback == nil || opts.Monitor == nil {
		return nil, fmt.Errorf("orchestrator: engine, playback, and monitor are required")
	}
	if opts.FallbackIntensity <= 0 || opts.FallbackIntensity > 1 {
		opts.FallbackIntensity = 0.7
	}
	if opts.SnapshotInterval <= 0 {
		opts.SnapshotInterval = 2 * time.Second
	}
	if opts.RecordInterval <= 0 {
		opts.RecordInterval = 10 * time.Second
	}
	return &Orchestrator{
		engine:            opts.Engine,
		expressions:       opts.Expressions,
		gaze:              opts.Gaze,
		analyzer:          opts.Analyzer,
		playback:          opts.Playback,
		monitor:           opts.Monitor,
		optimizer:         opts.Optimizer,
		events:            opts.Bus,
		recorder:          opts.Recorder,
		log:               opts.Log.With().Str("component", "orchestrator").Logger(),
		fallbackIntensity: opts.FallbackIntensity,
		snapshotInterval:  opts.SnapshotInterval,
		recordInterval:    opts.RecordInterval,
	}, nil
}

// Start runs the one-time capability check and, when the host qualifies,
// connects the analyzer. An unsupported host is a permanent fallback from
// the first frame; expressions and blinks are unaffected.
func (o *Orchestrator) Start(ctx context.Context, env capability.Environment) capability.Report {
	report := capability.Detect(env)

	for _, warn := range report.Warnings {
		o.log.Warn().Str("warning", warn).Msg("capability warning")
		o.publish(bus.EventTypeCapabilityWarning, map[string]any{"warning": warn})
	}
	o.publish(bus.EventTypeCapabilityChecked, map[string]any{
		"supported": report.Supported,
		"missing":   report.MissingFeatures,
	})

	if !report.Supported {
		o.unsupported = true
		err := fmt.Errorf("host audio features not supported: %v", report.MissingFeatures)
		o.failFrame(err, time.Now())
		return report
	}

	if o.analyzer != nil {
		if err := o.analyzer.Connect(ctx); err != nil {
			o.monitor.RecordError(err)
			o.failFrame(err, time.Now())
		} else {
			o.publish(bus.EventTypeAnalyzerConnected, nil)
		}
	}
	return report
}

// State returns the recovery machine's current state.
func (o *Orchestrator) State() recovery.State {
	return o.state
}

// Frame processes one frame at the given wall-clock time. It never panics
// and never returns an error to the renderer: a failed frame contributes
// no viseme influence and the previous values decay on the next frame.
func (o *Orchestrator) Frame(ctx context.Context, now time.Time) {
	token := o.monitor.StartTiming()
	defer func() {
		if r := recover(); r != nil {
			// Panicked frames still close their timing sample so the
			// optimizer's FPS window sees the degraded frame.
			o.monitor.EndTiming(token, "frame")
			err := fmt.Errorf("frame processing panic: %v", r)
			o.monitor.RecordError(err)
			o.failFrame(err, now)
		}
	}()

	dt := float32(1.0 / 60.0)
	if !o.prevFrame.IsZero() {
		if d := now.Sub(o.prevFrame).Seconds(); d > 0 && d < 1 {
			dt = float32(d)
		}
	}
	o.prevFrame = now

	pb := o.playback()
	o.trackMessageBoundary(pb)

	if o.gaze != nil {
		o.gaze.Update(dt, now)
	}

	sample, ok := o.visemeSample(ctx, now, pb)

	profile := o.composeProfile()
	blink := float32(0)
	if o.gaze != nil {
		blink = o.gaze.BlinkAmount()
	}

	o.engine.Step(sample, profile, blink, len(sample) > 0)

	o.monitor.EndTiming(token, "frame")
	if ok {
		o.monitor.RecordSuccess()
	}

	o.maybeAdapt(now)
	o.maybeRecord(ctx, now)
}

// composeProfile overlays the gaze weights on the selected expression so
// every write still flows through the engine's single frame pass.
func (o *Orchestrator) composeProfile() map[string]float32 {
	var targets map[string]float32
	if o.expressions != nil {
		targets = o.expressions.Current().Targets
	}

	var gazeWeights map[string]float32
	if o.gaze != nil {
		gazeWeights = o.gaze.TargetWeights()
	}
	if len(gazeWeights) == 0 {
		return targets
	}

	merged := make(map[string]float32, len(targets)+len(gazeWeights))
	for k, v := range targets {
		merged[k] = v
	}
	for k, v := range gazeWeights {
		merged[k] = v
	}
	return merged
}

// visemeSample picks the frame's viseme source according to the recovery
// state. The bool result reports whether the frame counts as a success.
func (o *Orchestrator) visemeSample(ctx context.Context, now time.Time, pb viseme.Playback) (viseme.Sample, bool) {
	if !pb.Active() {
		return viseme.Sample{}, true
	}

	switch o.state.Phase {
	case recovery.PhaseFallback:
		return viseme.Synthesize(pb, o.fallbackIntensity), true

	case recovery.PhaseRetrying:
		if now.Before(o.retryAt) {
			return viseme.Synthesize(pb, o.fallbackIntensity), true
		}
		sample, err := o.analyzeFrame(ctx)
		if err != nil {
			o.monitor.RecordError(err)
			o.failFrame(err, now)
			return viseme.Synthesize(pb, o.fallbackIntensity), false
		}
		o.transition(recovery.Event{RetrySucceeded: true}, now)
		return sample, true

	default: // PhaseNormal
		if o.analyzer == nil {
			return viseme.Synthesize(pb, o.fallbackIntensity), true
		}
		sample, err := o.analyzeFrame(ctx)
		if err != nil {
			o.monitor.RecordError(err)
			o.failFrame(err, now)
			// This frame contributes no viseme influence; previous values
			// decay naturally next frame rather than freezing.
			return viseme.Sample{}, false
		}
		return sample, true
	}
}

// analyzeFrame wraps both analyzer calls; a panic inside the analyzer is
// just another classifiable error.
func (o *Orchestrator) analyzeFrame(ctx context.Context) (sample viseme.Sample, err error) {
	defer func() {
		if r := recover(); r != nil {
			sample = nil
			err = fmt.Errorf("analyzer panic during processing: %v", r)
		}
	}()
	if err := o.analyzer.ProcessFrame(ctx); err != nil {
		return nil, err
	}
	return o.analyzer.VisemeScores()
}

// failFrame classifies err and advances the recovery machine.
func (o *Orchestrator) failFrame(err error, now time.Time) {
	kind := recovery.Classify(err)
	if o.unsupported {
		kind = recovery.KindUnsupported
	}

	o.log.Error().Err(err).Str("kind", string(kind)).Msg("frame processing failed")
	o.publish(bus.EventTypeFrameError, map[string]any{"kind": string(kind), "error": err.Error()})

	o.transition(recovery.Event{Failed: true, Kind: kind}, now)
}

// transition runs the pure state machine and performs its effects.
func (o *Orchestrator) transition(ev recovery.Event, now time.Time) {
	next, fx := recovery.Transition(o.state, ev)
	prev := o.state
	o.state = next

	if fx.ApplyConfig != nil && o.analyzer != nil {
		if err := o.analyzer.Configure(fx.ApplyConfig.Resolution, fx.ApplyConfig.HistoryWindow); err != nil {
			o.log.Warn().Err(err).Msg("fallback reconfiguration failed")
		}
	}

	if fx.ScheduleRetry {
		o.retryAt = now.Add(fx.RetryDelay)
		o.log.Info().
			Str("kind", string(next.Kind)).
			Int("attempt", next.Attempt).
			Dur("delay", fx.RetryDelay).
			Msg("retry scheduled")
		o.publish(bus.EventTypeRetryScheduled, map[string]any{
			"kind":    string(next.Kind),
			"attempt": next.Attempt,
			"delay":   fx.RetryDelay.String(),
		})
	}

	if fx.EnterFallback {
		o.log.Warn().
			Str("kind", string(next.Kind)).
			Bool("permanent", fx.Permanent).
			Msg("entering fallback mode; synthetic mouth takes over")
		o.publish(bus.EventTypeFallbackEntered, map[string]any{
			"kind":      string(next.Kind),
			"permanent": fx.Permanent,
		})
	}

	if fx.ResumeAnalyzer && prev.Phase != recovery.PhaseNormal {
		o.log.Info().Msg("analyzer path resumed")
		o.publish(bus.EventTypeFallbackExited, nil)
	}
}

// trackMessageBoundary clears temporary fallback when the current message
// ends; retries for the next message start fresh.
func (o *Orchestrator) trackMessageBoundary(pb viseme.Playback) {
	active := pb.Active()
	if o.prevActive && !active {
		o.transition(recovery.Event{MessageEnded: true}, o.prevFrame)
	}
	o.prevActive = active
}

// maybeAdapt feeds the optimizer on its cadence and applies one ladder
// step when warranted.
func (o *Orchestrator) maybeAdapt(now time.Time) {
	if o.optimizer == nil || now.Before(o.nextSnap) {
		return
	}
	o.nextSnap = now.Add(o.snapshotInterval)

	stats := o.monitor.GetStats()
	o.optimizer.AnalyzePerformance(stats)
	if !o.optimizer.ShouldAdapt() {
		return
	}

	cfg := o.optimizer.Adapt()
	if err := o.engine.SetConfig(cfg.Smoothing); err != nil {
		o.log.Warn().Err(err).Msg("degraded smoothing config rejected")
		return
	}
	if o.analyzer != nil {
		if err := o.analyzer.Configure(cfg.Resolution, cfg.HistoryWindow); err != nil {
			o.log.Warn().Err(err).Msg("degraded analyzer config rejected")
		}
	}

	o.log.Warn().
		Int("step", o.optimizer.Adaptations()).
		Dur("avg_processing", stats.AvgProcessingTime).
		Float64("avg_fps", stats.AvgFPS).
		Msg("performance degradation step applied")
	o.publish(bus.EventTypeAdaptationApplied, map[string]any{
		"step":       o.optimizer.Adaptations(),
		"resolution": cfg.Resolution,
	})
}

// maybeRecord persists diagnostics on its cadence.
func (o *Orchestrator) maybeRecord(ctx context.Context, now time.Time) {
	if o.recorder == nil || now.Before(o.nextRecord) {
		return
	}
	o.nextRecord = now.Add(o.recordInterval)

	stats := o.monitor.GetStats()
	if err := o.recorder.RecordStats(ctx, stats); err != nil {
		o.log.Warn().Err(err).Msg("diagnostics write failed")
	}
	if stats.LastError != nil {
		if err := o.recorder.RecordError(ctx, stats.LastError.Kind, stats.LastError.Message); err != nil {
			o.log.Warn().Err(err).Msg("diagnostics error write failed")
		}
	}
}

// Close releases external resources. The engine itself holds none.
func (o *Orchestrator) Close() error {
	var firstErr error
	if o.analyzer != nil {
		if err := o.analyzer.Close(); err != nil {
			firstErr = err
		}
	}
	if o.recorder != nil {
		if err := o.recorder.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (o *Orchestrator) publish(t bus.EventType, data map[string]any) {
	if o.events == nil {
		return
	}
	o.events.Publish(bus.Event{Type: t, Data: data})
}
