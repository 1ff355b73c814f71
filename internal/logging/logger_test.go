package logging

import (
	"errors"
	"fmt"
	"os"
	"testing"
	"time"
)

func newTestLogger(t *testing.T, maxHist int) *Logger {
	t.Helper()
	l, err := New(&Config{
		LogDir:     t.TempDir(),
		Level:      LevelDebug,
		MaxHistory: maxHist,
		Console:    false,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLogger_WritesFile(t *testing.T) {
	l := newTestLogger(t, 100)

	l.Info("test", "hello", nil)

	info, err := os.Stat(l.GetLogPath())
	if err != nil {
		t.Fatalf("log file missing: %v", err)
	}
	if info.Size() == 0 {
		t.Error("log file empty after write")
	}
}

func TestLogger_History(t *testing.T) {
	l := newTestLogger(t, 100)

	l.Debug("engine", "frame step", map[string]interface{}{"dt": 0.016})
	l.Warn("perf", "budget exceeded", nil)
	l.Error("analyzer", "frame failed", errors.New("boom"), nil)

	hist := l.GetHistory(0)
	if len(hist) != 3 {
		t.Fatalf("history = %d entries, want 3", len(hist))
	}
	if hist[0].Level != "debug" || hist[0].Component != "engine" {
		t.Errorf("entry 0 = %+v", hist[0])
	}
	if hist[2].Level != "error" || hist[2].Data == "" {
		t.Errorf("error entry missing error detail: %+v", hist[2])
	}
}

func TestLogger_HistoryBounded(t *testing.T) {
	l := newTestLogger(t, 5)

	for i := 0; i < 12; i++ {
		l.Info("test", fmt.Sprintf("msg %d", i), nil)
	}

	hist := l.GetHistory(0)
	if len(hist) != 5 {
		t.Fatalf("history = %d entries, want 5", len(hist))
	}
	if hist[len(hist)-1].Message != "msg 11" {
		t.Errorf("newest entry = %q", hist[len(hist)-1].Message)
	}
}

func TestLogger_HistoryLimit(t *testing.T) {
	l := newTestLogger(t, 100)
	for i := 0; i < 10; i++ {
		l.Info("test", fmt.Sprintf("msg %d", i), nil)
	}

	hist := l.GetHistory(3)
	if len(hist) != 3 {
		t.Fatalf("limited history = %d entries, want 3", len(hist))
	}
	if hist[0].Message != "msg 7" {
		t.Errorf("oldest of last 3 = %q", hist[0].Message)
	}
}

func TestLogger_OnLogCallback(t *testing.T) {
	l := newTestLogger(t, 100)

	got := make(chan LogEntry, 1)
	l.SetOnLog(func(e LogEntry) { got <- e })

	l.Info("face", "expression changed", map[string]interface{}{"name": "smile"})

	select {
	case e := <-got:
		if e.Message != "expression changed" {
			t.Errorf("callback entry = %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("onLog callback never fired")
	}
}
