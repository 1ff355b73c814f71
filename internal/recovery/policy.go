package recovery

import "time"

// FallbackConfig is an analyzer reconfiguration applied alongside a retry
// or fallback, trading fidelity for stability.
type FallbackConfig struct {
	Resolution    int // analyzer FFT size
	HistoryWindow int // smoothing lookback, in frames
}

var (
	reducedResolution = FallbackConfig{Resolution: 1024, HistoryWindow: 30}
	minimalResolution = FallbackConfig{Resolution: 256, HistoryWindow: 10}
)

// Strategy describes how the caller should react to a failure kind. The
// policy itself is a pure lookup; retry counting belongs to the caller.
type Strategy struct {
	Delay      time.Duration
	MaxRetries int
	Fallback   *FallbackConfig // nil when no reconfiguration applies
}

var strategies = map[Kind]Strategy{
	KindInit:            {Delay: 2 * time.Second, MaxRetries: 3, Fallback: &reducedResolution},
	KindAudioConnection: {Delay: 1 * time.Second, MaxRetries: 2},
	KindProcessing:      {Delay: 500 * time.Millisecond, MaxRetries: 1},
	KindContext:         {Delay: 5 * time.Second, MaxRetries: 2, Fallback: &minimalResolution},
	KindUnsupported:     {Delay: 0, MaxRetries: 0},
	KindUnknown:         {Delay: 3 * time.Second, MaxRetries: 1, Fallback: &reducedResolution},
}

// StrategyFor returns the fixed strategy for kind. Unlisted kinds get the
// unknown-error strategy. KindUnsupported always yields MaxRetries 0:
// an unsupported host is a permanent fallback, never a retry loop.
func StrategyFor(kind Kind) Strategy {
	if s, ok := strategies[kind]; ok {
		return s
	}
	return strategies[KindUnknown]
}
