// Package recovery classifies lip-sync failures, maps them to retry
// strategies, and tracks the engine's operating phase through an explicit
// state machine.
package recovery

import (
	"context"
	"errors"
	"strings"
)

// Kind is the fixed failure taxonomy. Every error maps to exactly one kind.
type Kind string

const (
	KindContext         Kind = "context_error"
	KindAudioConnection Kind = "audio_connection_failed"
	KindProcessing      Kind = "processing_error"
	KindUnsupported     Kind = "host_unsupported"
	KindInit            Kind = "initialization_failed"
	KindUnknown         Kind = "unknown_error"
)

// Classify maps err to a Kind by case-insensitive substring matching on
// the error text. Messages can match several rules, so the order below is
// load-bearing: first match wins. Never fails; nil and unrecognized errors
// return KindUnknown.
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindContext
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "context"):
		return KindContext
	case strings.Contains(msg, "audio"), strings.Contains(msg, "connect"):
		return KindAudioConnection
	case strings.Contains(msg, "process"), strings.Contains(msg, "analyz"):
		return KindProcessing
	case strings.Contains(msg, "not supported"), strings.Contains(msg, "unavailable"):
		return KindUnsupported
	case strings.Contains(msg, "init"), strings.Contains(msg, "constructor"):
		return KindInit
	default:
		return KindUnknown
	}
}
