// Package analyzer defines the audio-analyzer boundary. The engine never
// computes viseme scores itself; it consumes them from an implementation
// of Analyzer and treats every call as potentially failing.
package analyzer

import (
	"context"
	"errors"

	"github.com/normanking/facesync/internal/viseme"
)

var (
	// ErrNotConnected is returned when the analyzer transport is down.
	ErrNotConnected = errors.New("analyzer: audio connection not established")

	// ErrNoScores is returned when a frame produced no usable scores.
	ErrNoScores = errors.New("analyzer: processing produced no scores")
)

// Analyzer is the per-frame contract with the external audio analyzer.
type Analyzer interface {
	// Connect establishes the analyzer transport. Safe to call again
	// after a failure; a healthy connection is left alone.
	Connect(ctx context.Context) error

	// ProcessFrame asks the analyzer to analyze the current audio frame.
	ProcessFrame(ctx context.Context) error

	// VisemeScores returns the scores computed by the last ProcessFrame.
	VisemeScores() (viseme.Sample, error)

	// Configure applies a resolution/lookback change, typically from the
	// adaptive optimizer or a failure-recovery strategy.
	Configure(resolution, historyWindow int) error

	// Close releases the transport.
	Close() error
}
