package blend

import (
	"sort"
	"sync"

	"github.com/normanking/facesync/internal/viseme"
)

// Engine merges the three facial influences each frame: analyzer (or
// synthetic) viseme scores, the selected expression profile, and the blink
// cycle. All writes land in the TargetStore, clamped to [0,1], before the
// renderer reads them.
//
// The engine runs synchronously inside the renderer's frame callback; it
// holds no timers or goroutines and nothing to release at teardown.
type Engine struct {
	targets  *TargetStore
	resolver *viseme.Resolver

	// cfg is swapped by the optimizer and by config hot-reload, which runs
	// on the watcher goroutine while Step runs on the frame goroutine.
	mu  sync.RWMutex
	cfg SmoothingConfig

	// viseme target names present in the store, resolved once
	visemeTargets []string
	touched       map[string]bool
}

// NewEngine wires the engine to the renderer's target store. The config is
// validated up front; a broken config never reaches the frame path.
func NewEngine(targets *TargetStore, resolver *viseme.Resolver, cfg SmoothingConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		targets:  targets,
		resolver: resolver,
		cfg:      cfg,
		touched:  make(map[string]bool, len(viseme.Names)),
	}
	for _, name := range viseme.Names {
		if targets.Has(name) {
			e.visemeTargets = append(e.visemeTargets, name)
		}
	}
	return e, nil
}

// Config returns the active smoothing configuration.
func (e *Engine) Config() SmoothingConfig {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cfg
}

// SetConfig swaps the smoothing configuration. Safe to call concurrently
// with Step; the swap takes effect on the next frame.
func (e *Engine) SetConfig(cfg SmoothingConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	e.cfg = cfg
	e.mu.Unlock()
	return nil
}

// Targets returns the engine's target store.
func (e *Engine) Targets() *TargetStore {
	return e.targets
}

// Step runs one frame of blending, in order:
//
//  1. expression-shaped profile targets ease toward the profile value at
//     NeutralSpeed
//  2. viseme-shaped profile targets ease toward the profile value, scaled
//     by ExpressionBlendFactor while a live viseme stream is active
//  3. scores above MinThreshold are sorted and the top MaxBlendCount are
//     eased toward their clamped score at ActiveSpeed
//  4. viseme targets untouched this frame decay toward zero at NeutralSpeed
//  5. the blink scalar is written directly to both blink targets
//
// Unknown target names are ignored. Every write is clamped by the store.
func (e *Engine) Step(sample viseme.Sample, profile map[string]float32, blink float32, streamLive bool) {
	cfg := e.Config()

	for name := range e.touched {
		delete(e.touched, name)
	}

	for name, value := range profile {
		value = sanitize(value)
		if canonical := e.resolver.Canonical(name); canonical != "" {
			target := value
			if streamLive {
				target = value * cfg.ExpressionBlendFactor
			}
			e.ease(canonical, target, cfg.NeutralSpeed)
			e.touched[canonical] = true
			continue
		}
		e.ease(name, value, cfg.NeutralSpeed)
	}

	for _, sv := range selectVisemes(sample, e.resolver, cfg.MinThreshold, cfg.MaxBlendCount) {
		e.ease(sv.name, sanitize(sv.score), cfg.ActiveSpeed)
		e.touched[sv.name] = true
	}

	for _, name := range e.visemeTargets {
		if e.touched[name] {
			continue
		}
		e.ease(name, 0, cfg.NeutralSpeed)
	}

	blink = sanitize(blink)
	e.targets.Set(EyeBlinkLeft, blink)
	e.targets.Set(EyeBlinkRight, blink)
}

// ease re-applies linear interpolation toward target every frame, which
// yields a first-order low-pass response rather than a snap.
func (e *Engine) ease(name string, target, speed float32) {
	if !e.targets.Has(name) {
		return
	}
	current := e.targets.Get(name)
	e.targets.Set(name, current+(target-current)*speed)
}

type scoredViseme struct {
	name  string
	score float32
}

// selectVisemes filters scores strictly above threshold, sorts descending
// by score (name ascending on ties, for determinism), and keeps the top
// maxCount entries.
func selectVisemes(sample viseme.Sample, r *viseme.Resolver, threshold float32, maxCount int) []scoredViseme {
	if len(sample) == 0 || maxCount < 1 {
		return nil
	}
	selected := make([]scoredViseme, 0, len(sample))
	for name, score := range r.Normalize(sample) {
		if score <= threshold {
			continue
		}
		selected = append(selected, scoredViseme{name: name, score: score})
	}
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].score != selected[j].score {
			return selected[i].score > selected[j].score
		}
		return selected[i].name < selected[j].name
	})
	if len(selected) > maxCount {
		selected = selected[:maxCount]
	}
	return selected
}
