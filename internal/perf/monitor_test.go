package perf

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/normanking/facesync/internal/recovery"
)

func newTestMonitor() *Monitor {
	return NewMonitor(zerolog.Nop())
}

func TestMonitor_TimingRoundTrip(t *testing.T) {
	m := newTestMonitor()

	token := m.StartTiming()
	time.Sleep(time.Millisecond)
	d := m.EndTiming(token, "frame")

	if d <= 0 {
		t.Errorf("duration = %v, want > 0", d)
	}
	stats := m.GetStats()
	if stats.AvgProcessingTime <= 0 {
		t.Errorf("AvgProcessingTime = %v, want > 0", stats.AvgProcessingTime)
	}
}

func TestMonitor_HistoryBounded(t *testing.T) {
	m := newTestMonitor()

	for i := 0; i < historySize+50; i++ {
		m.EndTiming(m.StartTiming(), "frame")
	}

	m.mu.Lock()
	n := len(m.samples)
	fe := len(m.frameEnd)
	m.mu.Unlock()
	if n != historySize {
		t.Errorf("samples = %d, want %d", n, historySize)
	}
	if fe != historySize {
		t.Errorf("frameEnd = %d, want %d", fe, historySize)
	}
}

func TestMonitor_ErrorRate(t *testing.T) {
	m := newTestMonitor()

	if got := m.GetStats().ErrorRate; got != 0 {
		t.Errorf("empty monitor ErrorRate = %v, want 0", got)
	}

	m.RecordSuccess()
	m.RecordSuccess()
	m.RecordSuccess()
	m.RecordError(errors.New("processing failed"))

	stats := m.GetStats()
	if stats.ErrorRate != 0.25 {
		t.Errorf("ErrorRate = %v, want 0.25", stats.ErrorRate)
	}
	if stats.TotalErrors != 1 || stats.TotalSuccesses != 3 {
		t.Errorf("counters = %d/%d", stats.TotalErrors, stats.TotalSuccesses)
	}
}

func TestMonitor_LastErrorClassified(t *testing.T) {
	m := newTestMonitor()

	m.RecordError(errors.New("failed to connect audio source"))

	last := m.GetStats().LastError
	if last == nil {
		t.Fatal("LastError nil")
	}
	if last.Kind != recovery.KindAudioConnection {
		t.Errorf("Kind = %v, want %v", last.Kind, recovery.KindAudioConnection)
	}
	if last.Message != "failed to connect audio source" {
		t.Errorf("Message = %q", last.Message)
	}

	// nil errors are ignored.
	m.RecordError(nil)
	if m.GetStats().TotalErrors != 1 {
		t.Error("nil error was counted")
	}
}

func TestMonitor_BudgetCallback(t *testing.T) {
	m := newTestMonitor()

	var fired []Sample
	m.SetOnBudgetExceeded(func(s Sample) { fired = append(fired, s) })

	// Backdate the token so the measured duration overruns the budget
	// without sleeping a real frame's worth of time.
	token := Token{start: time.Now().Add(-2 * FrameBudget), frame: 1}
	m.EndTiming(token, "frame")

	if len(fired) != 1 {
		t.Fatalf("callback fired %d times, want 1", len(fired))
	}
	if fired[0].Duration <= FrameBudget {
		t.Errorf("callback sample duration %v within budget", fired[0].Duration)
	}

	// Fast operations stay quiet.
	m.EndTiming(m.StartTiming(), "frame")
	if len(fired) != 1 {
		t.Error("callback fired for an in-budget operation")
	}
}

func TestMonitor_Reset(t *testing.T) {
	m := newTestMonitor()

	m.EndTiming(m.StartTiming(), "frame")
	m.RecordSuccess()
	m.RecordError(errors.New("processing failed"))

	m.Reset()

	stats := m.GetStats()
	if stats.TotalErrors != 0 || stats.TotalSuccesses != 0 || stats.LastError != nil {
		t.Errorf("stats after reset = %+v", stats)
	}
	if stats.AvgProcessingTime != 0 || stats.AvgFPS != 0 {
		t.Errorf("history survived reset: %+v", stats)
	}
}

func TestAvgFPS(t *testing.T) {
	base := time.Now()

	if got := avgFPS(nil); got != 0 {
		t.Errorf("empty: %v", got)
	}
	if got := avgFPS([]time.Time{base}); got != 0 {
		t.Errorf("single sample: %v", got)
	}

	// 61 frame ends spaced at 1/60 s is 60 FPS.
	ends := make([]time.Time, 61)
	for i := range ends {
		ends[i] = base.Add(time.Duration(i) * time.Second / 60)
	}
	if got := avgFPS(ends); got < 59.9 || got > 60.1 {
		t.Errorf("avgFPS = %v, want ~60", got)
	}
}

func TestAppendBounded(t *testing.T) {
	var s []int
	for i := 0; i < 7; i++ {
		s = appendBounded(s, i, 5)
	}
	want := []int{2, 3, 4, 5, 6}
	if len(s) != len(want) {
		t.Fatalf("len = %d, want %d", len(s), len(want))
	}
	for i := range want {
		if s[i] != want[i] {
			t.Errorf("s[%d] = %d, want %d", i, s[i], want[i])
		}
	}
}
