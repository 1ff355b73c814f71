package viseme

import "math"

// Playback is a read-only snapshot of the audio source, taken once per
// frame by the orchestrator.
type Playback struct {
	Paused      bool
	Ended       bool
	CurrentTime float64 // seconds
	Duration    float64 // seconds; <= 0 when unknown
}

// Active reports whether the source is currently producing audio.
func (p Playback) Active() bool {
	return !p.Paused && !p.Ended && p.Duration > 0 && p.CurrentTime < p.Duration
}

// mouthRate is the synthetic speech cadence in mouth cycles per second.
// Roughly four syllables per second reads as plausible conversation.
const mouthRate = 4.0

// vowel fan-out weights and phase offsets for the synthetic mouth.
// Layered sinusoids at different rates keep the motion from looking
// metronomic, the same trick the idle animator uses.
var synthTargets = []struct {
	name   string
	weight float64
	phase  float64
	rate   float64
}{
	{AA, 1.0, 0.0, 1.0},
	{E, 0.45, 1.3, 0.7},
	{O, 0.35, 2.1, 0.5},
	{U, 0.2, 3.4, 0.9},
	{I, 0.15, 4.2, 0.6},
}

// Synthesize produces plausible mouth-shape scores purely from playback
// position. It deliberately ignores audio content: elapsed time is the
// only input, which guarantees availability when the analyzer path is
// degraded. Pure and deterministic for a given playback snapshot.
func Synthesize(p Playback, intensity float32) Sample {
	if !p.Active() {
		return Sample{}
	}

	base := clampIntensity(intensity)
	if base <= 0 {
		return Sample{}
	}

	out := make(Sample, len(synthTargets))
	t := p.CurrentTime
	for _, st := range synthTargets {
		phase := 2 * math.Pi * mouthRate * st.rate * t
		osc := math.Sin(phase+st.phase)*0.5 + 0.5
		score := float32(osc*st.weight) * base
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		out[st.name] = score
	}
	return out
}

func clampIntensity(v float32) float32 {
	if math.IsNaN(float64(v)) {
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
