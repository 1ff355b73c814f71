// Package blend owns the renderer-facing blend-target intensities and the
// per-frame engine that merges viseme scores, expression profiles, and the
// blink cycle into them.
package blend

import "math"

// Blink target names. Blinks form a disjoint namespace: they are never
// threshold-filtered, priority-limited, or expression-blended.
const (
	EyeBlinkLeft  = "eyeBlinkLeft"
	EyeBlinkRight = "eyeBlinkRight"
)

// TargetStore holds the named blend-target intensities the renderer reads
// after each frame. It is created once from the renderer's target list at
// model-load time; targets persist for the store's lifetime and are only
// ever zeroed, never removed.
//
// The store has exactly one writer (the engine, once per frame) and one
// reader (the renderer, immediately after). No locking: writer and reader
// never overlap within a frame on the render thread.
type TargetStore struct {
	names  []string
	index  map[string]int
	values []float32
}

// NewTargetStore builds a store from the renderer's named target list.
// Duplicate names keep their first index.
func NewTargetStore(names []string) *TargetStore {
	s := &TargetStore{
		names:  make([]string, 0, len(names)),
		index:  make(map[string]int, len(names)),
		values: make([]float32, 0, len(names)),
	}
	for _, name := range names {
		if _, ok := s.index[name]; ok {
			continue
		}
		s.index[name] = len(s.names)
		s.names = append(s.names, name)
		s.values = append(s.values, 0)
	}
	return s
}

// Set writes an intensity by name, clamped to [0,1] with non-finite values
// treated as 0. Unknown names are silently ignored.
func (s *TargetStore) Set(name string, v float32) {
	i, ok := s.index[name]
	if !ok {
		return
	}
	s.values[i] = sanitize(v)
}

// Get returns the current intensity for name, or 0 for unknown names.
func (s *TargetStore) Get(name string) float32 {
	i, ok := s.index[name]
	if !ok {
		return 0
	}
	return s.values[i]
}

// Has reports whether the renderer exposed a target with this name.
func (s *TargetStore) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Names returns the target names in index order.
func (s *TargetStore) Names() []string {
	return s.names
}

// Values exposes the intensity array for the renderer. Read-only by
// convention; the engine is the only writer.
func (s *TargetStore) Values() []float32 {
	return s.values
}

// Len returns the number of targets.
func (s *TargetStore) Len() int {
	return len(s.names)
}

// Zero resets every intensity to neutral.
func (s *TargetStore) Zero() {
	for i := range s.values {
		s.values[i] = 0
	}
}

func sanitize(v float32) float32 {
	if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
