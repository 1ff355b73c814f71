package recovery

import "time"

// Phase is the engine's operating mode.
type Phase int

const (
	// PhaseNormal: the real analyzer drives viseme scores.
	PhaseNormal Phase = iota
	// PhaseRetrying: a failure occurred and a retry is scheduled.
	PhaseRetrying
	// PhaseFallback: the synthetic mouth has taken over, either until the
	// current message ends or permanently.
	PhaseFallback
)

func (p Phase) String() string {
	switch p {
	case PhaseNormal:
		return "normal"
	case PhaseRetrying:
		return "retrying"
	case PhaseFallback:
		return "fallback"
	default:
		return "invalid"
	}
}

// State is the full machine state. The zero value is PhaseNormal.
type State struct {
	Phase     Phase
	Kind      Kind // failure being retried; meaningful while retrying
	Attempt   int  // retries consumed so far
	Permanent bool // meaningful in PhaseFallback
}

// Event is an input to the state machine.
type Event struct {
	// Failed carries the classified kind of a frame failure.
	Failed bool
	Kind   Kind

	// RetrySucceeded signals the scheduled retry's frame completed cleanly.
	RetrySucceeded bool

	// MessageEnded signals the current utterance finished; temporary
	// fallback clears on the next message.
	MessageEnded bool
}

// Effects are the side effects the caller must perform after a transition.
// The transition function itself is pure.
type Effects struct {
	ScheduleRetry  bool
	RetryDelay     time.Duration
	EnterFallback  bool
	Permanent      bool
	ApplyConfig    *FallbackConfig
	ResumeAnalyzer bool
}

// Transition computes the next state and required effects for an event.
// Pure: same state + event always yields the same result. Unmatched
// events leave the state unchanged with no effects.
func Transition(s State, ev Event) (State, Effects) {
	switch {
	case ev.Failed:
		return transitionFailure(s, ev.Kind)

	case ev.RetrySucceeded:
		if s.Phase == PhaseRetrying {
			return State{Phase: PhaseNormal}, Effects{ResumeAnalyzer: true}
		}
		return s, Effects{}

	case ev.MessageEnded:
		if s.Phase == PhaseFallback && !s.Permanent {
			return State{Phase: PhaseNormal}, Effects{ResumeAnalyzer: true}
		}
		return s, Effects{}

	default:
		return s, Effects{}
	}
}

func transitionFailure(s State, kind Kind) (State, Effects) {
	// A permanent fallback absorbs everything.
	if s.Phase == PhaseFallback && s.Permanent {
		return s, Effects{}
	}

	strategy := StrategyFor(kind)

	attempt := 1
	if s.Phase == PhaseRetrying && s.Kind == kind {
		attempt = s.Attempt + 1
	}

	if attempt > strategy.MaxRetries {
		permanent := kind == KindUnsupported
		next := State{Phase: PhaseFallback, Kind: kind, Permanent: permanent}
		return next, Effects{
			EnterFallback: true,
			Permanent:     permanent,
			ApplyConfig:   strategy.Fallback,
		}
	}

	next := State{Phase: PhaseRetrying, Kind: kind, Attempt: attempt}
	return next, Effects{
		ScheduleRetry: true,
		RetryDelay:    strategy.Delay,
		ApplyConfig:   strategy.Fallback,
	}
}
