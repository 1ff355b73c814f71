// Package viseme defines the viseme blend-target namespace and the
// fallback mouth-shape synthesizer used when no analyzer is available.
package viseme

import (
	"math"
	"strings"
)

// Canonical viseme blend-target names, matching the 15-viseme Oculus
// lip-sync set used by the renderer's morph targets.
const (
	Sil = "viseme_sil"
	PP  = "viseme_PP"
	FF  = "viseme_FF"
	TH  = "viseme_TH"
	DD  = "viseme_DD"
	KK  = "viseme_kk"
	CH  = "viseme_CH"
	SS  = "viseme_SS"
	NN  = "viseme_nn"
	RR  = "viseme_RR"
	AA  = "viseme_aa"
	E   = "viseme_E"
	I   = "viseme_I"
	O   = "viseme_O"
	U   = "viseme_U"
)

// Names lists every canonical viseme target name.
var Names = []string{Sil, PP, FF, TH, DD, KK, CH, SS, NN, RR, AA, E, I, O, U}

// Sample maps viseme names to raw analyzer scores for one frame.
// Scores are typically in [0,1] but upstream noise may exceed that range;
// consumers clamp. A Sample is produced fresh each frame and discarded.
type Sample map[string]float32

// Resolver maps analyzer-side viseme names (short forms like "aa" or "AA")
// to canonical blend-target names and back. The table is built once at
// construction; lookups never recompute aliases.
type Resolver struct {
	toCanonical map[string]string
	toShort     map[string]string
}

// NewResolver builds the bidirectional alias table for the standard
// viseme set. Alias matching is case-insensitive.
func NewResolver() *Resolver {
	r := &Resolver{
		toCanonical: make(map[string]string, len(Names)*2),
		toShort:     make(map[string]string, len(Names)),
	}
	for _, name := range Names {
		short := strings.TrimPrefix(name, "viseme_")
		r.toCanonical[strings.ToLower(name)] = name
		r.toCanonical[strings.ToLower(short)] = name
		r.toShort[name] = short
	}
	return r
}

// Canonical resolves an analyzer-side name to its canonical blend-target
// name. Returns "" when the name is not a known viseme.
func (r *Resolver) Canonical(name string) string {
	return r.toCanonical[strings.ToLower(name)]
}

// Short returns the analyzer-side short form for a canonical name, or ""
// when the name is not a canonical viseme target.
func (r *Resolver) Short(canonical string) string {
	return r.toShort[canonical]
}

// IsViseme reports whether name (canonical or aliased) belongs to the
// viseme target namespace.
func (r *Resolver) IsViseme(name string) bool {
	_, ok := r.toCanonical[strings.ToLower(name)]
	return ok
}

// Normalize returns a copy of s with every key resolved to its canonical
// name and non-finite scores zeroed. Unknown keys are dropped.
func (r *Resolver) Normalize(s Sample) Sample {
	out := make(Sample, len(s))
	for name, score := range s {
		canonical := r.Canonical(name)
		if canonical == "" {
			continue
		}
		if math.IsNaN(float64(score)) || math.IsInf(float64(score), 0) {
			score = 0
		}
		out[canonical] = score
	}
	return out
}
