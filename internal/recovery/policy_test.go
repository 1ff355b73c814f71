package recovery

import (
	"testing"
	"time"
)

func TestStrategyFor_Table(t *testing.T) {
	tests := []struct {
		kind       Kind
		delay      time.Duration
		maxRetries int
		fallback   *FallbackConfig
	}{
		{KindInit, 2 * time.Second, 3, &reducedResolution},
		{KindAudioConnection, time.Second, 2, nil},
		{KindProcessing, 500 * time.Millisecond, 1, nil},
		{KindContext, 5 * time.Second, 2, &minimalResolution},
		{KindUnsupported, 0, 0, nil},
		{KindUnknown, 3 * time.Second, 1, &reducedResolution},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			s := StrategyFor(tt.kind)
			if s.Delay != tt.delay {
				t.Errorf("Delay = %v, want %v", s.Delay, tt.delay)
			}
			if s.MaxRetries != tt.maxRetries {
				t.Errorf("MaxRetries = %d, want %d", s.MaxRetries, tt.maxRetries)
			}
			if s.Fallback != tt.fallback {
				t.Errorf("Fallback = %v, want %v", s.Fallback, tt.fallback)
			}
		})
	}
}

func TestStrategyFor_UnlistedKind(t *testing.T) {
	if got := StrategyFor(Kind("made_up")); got != strategies[KindUnknown] {
		t.Errorf("unlisted kind: got %+v", got)
	}
}

func TestStrategyFor_UnsupportedNeverRetries(t *testing.T) {
	if StrategyFor(KindUnsupported).MaxRetries != 0 {
		t.Error("unsupported host must not retry")
	}
}
