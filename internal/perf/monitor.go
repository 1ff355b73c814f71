// Package perf tracks per-frame processing cost and degrades the blending
// configuration when the host can't keep up.
package perf

import (
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/facesync/internal/recovery"
)

// FrameBudget is one frame at 60 Hz. Exceeding it is advisory only.
const FrameBudget = 16600 * time.Microsecond

// historySize caps the timing ring; oldest samples evict first.
const historySize = 100

// Token is an in-flight timing handle from StartTiming.
type Token struct {
	start time.Time
	frame uint64
}

// Sample is one completed timing measurement.
type Sample struct {
	Operation string
	Duration  time.Duration
	Timestamp time.Time
	Frame     uint64
}

// ErrorRecord keeps the most recent failure alongside its classification.
type ErrorRecord struct {
	Message   string
	Timestamp time.Time
	Kind      recovery.Kind
}

// Stats is a point-in-time roll-up of monitor state.
type Stats struct {
	AvgProcessingTime time.Duration
	ErrorRate         float64
	TotalErrors       uint64
	TotalSuccesses    uint64
	LastError         *ErrorRecord
	MemoryDelta       int64 // heap bytes since construction or Reset
	AvgFPS            float64
}

// Monitor records operation timings, success/error counters, and memory
// growth. It is owned by the orchestrator and passed to whoever needs it;
// there is no package-level instance.
type Monitor struct {
	mu sync.Mutex

	samples  []Sample
	frame    uint64
	frameEnd []time.Time

	successes uint64
	errors    uint64
	lastError *ErrorRecord

	baselineHeap uint64

	log              zerolog.Logger
	onBudgetExceeded func(Sample)
}

// NewMonitor captures the heap baseline for MemoryDelta.
func NewMonitor(log zerolog.Logger) *Monitor {
	m := &Monitor{
		samples:  make([]Sample, 0, historySize),
		frameEnd: make([]time.Time, 0, historySize),
		log:      log.With().Str("component", "perf").Logger(),
	}
	m.baselineHeap = heapAlloc()
	return m
}

// SetOnBudgetExceeded registers the advisory callback fired when a single
// operation overruns the frame budget.
func (m *Monitor) SetOnBudgetExceeded(fn func(Sample)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onBudgetExceeded = fn
}

// StartTiming begins measuring one operation.
func (m *Monitor) StartTiming() Token {
	m.mu.Lock()
	m.frame++
	frame := m.frame
	m.mu.Unlock()
	return Token{start: time.Now(), frame: frame}
}

// EndTiming completes a measurement and returns its duration.
func (m *Monitor) EndTiming(token Token, operation string) time.Duration {
	now := time.Now()
	sample := Sample{
		Operation: operation,
		Duration:  now.Sub(token.start),
		Timestamp: now,
		Frame:     token.frame,
	}

	m.mu.Lock()
	m.samples = appendBounded(m.samples, sample, historySize)
	m.frameEnd = appendBounded(m.frameEnd, now, historySize)
	over := sample.Duration > FrameBudget
	cb := m.onBudgetExceeded
	m.mu.Unlock()

	if over {
		m.log.Warn().
			Str("operation", operation).
			Dur("duration", sample.Duration).
			Uint64("frame", sample.Frame).
			Msg("operation exceeded frame budget")
		if cb != nil {
			cb(sample)
		}
	}
	return sample.Duration
}

// RecordSuccess counts a clean frame.
func (m *Monitor) RecordSuccess() {
	m.mu.Lock()
	m.successes++
	m.mu.Unlock()
}

// RecordError counts a failed frame and retains it as the last error.
func (m *Monitor) RecordError(err error) {
	if err == nil {
		return
	}
	rec := &ErrorRecord{
		Message:   err.Error(),
		Timestamp: time.Now(),
		Kind:      recovery.Classify(err),
	}
	m.mu.Lock()
	m.errors++
	m.lastError = rec
	m.mu.Unlock()
}

// GetStats rolls up the current counters and timing history.
func (m *Monitor) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var total time.Duration
	for _, s := range m.samples {
		total += s.Duration
	}
	var avg time.Duration
	if len(m.samples) > 0 {
		avg = total / time.Duration(len(m.samples))
	}

	var rate float64
	if m.errors+m.successes > 0 {
		rate = float64(m.errors) / float64(m.errors+m.successes)
	}

	return Stats{
		AvgProcessingTime: avg,
		ErrorRate:         rate,
		TotalErrors:       m.errors,
		TotalSuccesses:    m.successes,
		LastError:         m.lastError,
		MemoryDelta:       int64(heapAlloc()) - int64(m.baselineHeap),
		AvgFPS:            avgFPS(m.frameEnd),
	}
}

// Reset clears history and counters and re-baselines the heap.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples = m.samples[:0]
	m.frameEnd = m.frameEnd[:0]
	m.successes = 0
	m.errors = 0
	m.lastError = nil
	m.frame = 0
	m.baselineHeap = heapAlloc()
}

func avgFPS(ends []time.Time) float64 {
	if len(ends) < 2 {
		return 0
	}
	span := ends[len(ends)-1].Sub(ends[0]).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(len(ends)-1) / span
}

func appendBounded[T any](s []T, v T, max int) []T {
	s = append(s, v)
	if len(s) > max {
		copy(s, s[1:])
		s = s[:max]
	}
	return s
}

func heapAlloc() uint64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.HeapAlloc
}
