package viseme

import (
	"math"
	"testing"
)

func TestResolver_CanonicalAliases(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		in   string
		want string
	}{
		{"aa", AA},
		{"AA", AA},
		{"Aa", AA},
		{"viseme_aa", AA},
		{"VISEME_AA", AA},
		{"sil", Sil},
		{"kk", KK},
		{"PP", PP},
		{"viseme_E", E},
		{"e", E},
		{"jawOpen", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := r.Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolver_RoundTrip(t *testing.T) {
	r := NewResolver()
	for _, name := range Names {
		short := r.Short(name)
		if short == "" {
			t.Fatalf("Short(%q) empty", name)
		}
		if got := r.Canonical(short); got != name {
			t.Errorf("Canonical(Short(%q)) = %q", name, got)
		}
	}
}

func TestResolver_IsViseme(t *testing.T) {
	r := NewResolver()
	if !r.IsViseme("viseme_aa") || !r.IsViseme("AA") {
		t.Error("known viseme names not recognized")
	}
	if r.IsViseme("eyeBlinkLeft") {
		t.Error("blink target wrongly classified as viseme")
	}
}

func TestResolver_Normalize(t *testing.T) {
	r := NewResolver()
	in := Sample{
		"AA":         0.7,
		"viseme_E":   0.3,
		"notAViseme": 0.9,
		"O":          float32(math.NaN()),
		"U":          float32(math.Inf(1)),
	}

	out := r.Normalize(in)

	if len(out) != 4 {
		t.Fatalf("expected 4 normalized entries, got %d: %v", len(out), out)
	}
	if out[AA] != 0.7 || out[E] != 0.3 {
		t.Errorf("scores not preserved: %v", out)
	}
	if out[O] != 0 || out[U] != 0 {
		t.Errorf("non-finite scores not zeroed: %v", out)
	}
	if _, ok := out["notAViseme"]; ok {
		t.Error("unknown key survived normalization")
	}
}

func TestPlayback_Active(t *testing.T) {
	tests := []struct {
		name string
		p    Playback
		want bool
	}{
		{"playing", Playback{CurrentTime: 1, Duration: 10}, true},
		{"paused", Playback{Paused: true, CurrentTime: 1, Duration: 10}, false},
		{"ended", Playback{Ended: true, CurrentTime: 10, Duration: 10}, false},
		{"unknown duration", Playback{CurrentTime: 1}, false},
		{"past end", Playback{CurrentTime: 11, Duration: 10}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.Active(); got != tt.want {
				t.Errorf("Active() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSynthesize_InactivePlaybackIsSilent(t *testing.T) {
	for _, p := range []Playback{
		{Paused: true, CurrentTime: 1, Duration: 10},
		{Ended: true, CurrentTime: 1, Duration: 10},
		{CurrentTime: 1, Duration: 0},
	} {
		if out := Synthesize(p, 0.7); len(out) != 0 {
			t.Errorf("playback %+v: expected empty sample, got %v", p, out)
		}
	}
}

func TestSynthesize_Deterministic(t *testing.T) {
	p := Playback{CurrentTime: 2.34, Duration: 10}

	a := Synthesize(p, 0.7)
	b := Synthesize(p, 0.7)

	if len(a) == 0 {
		t.Fatal("active playback produced empty sample")
	}
	for name, score := range a {
		if b[name] != score {
			t.Errorf("%s: %v vs %v across identical calls", name, score, b[name])
		}
	}
}

func TestSynthesize_ScoresInUnitRange(t *testing.T) {
	for ct := 0.0; ct < 5; ct += 0.037 {
		out := Synthesize(Playback{CurrentTime: ct, Duration: 10}, 1)
		for name, score := range out {
			if score < 0 || score > 1 {
				t.Fatalf("t=%v %s: score %v out of [0,1]", ct, name, score)
			}
		}
	}
}

func TestSynthesize_IntensityScalesAndClamps(t *testing.T) {
	p := Playback{CurrentTime: 1.1, Duration: 10}

	full := Synthesize(p, 1)
	half := Synthesize(p, 0.5)
	for name := range full {
		if want := full[name] * 0.5; math.Abs(float64(half[name]-want)) > 1e-6 {
			t.Errorf("%s: half intensity %v, want %v", name, half[name], want)
		}
	}

	if out := Synthesize(p, 0); len(out) != 0 {
		t.Errorf("zero intensity: expected empty sample, got %v", out)
	}
	if out := Synthesize(p, float32(math.NaN())); len(out) != 0 {
		t.Errorf("NaN intensity: expected empty sample, got %v", out)
	}
	over := Synthesize(p, 5)
	for name := range full {
		if over[name] != full[name] {
			t.Errorf("%s: intensity above 1 not clamped", name)
		}
	}
}

func TestSynthesize_DrivesVowelsOnly(t *testing.T) {
	out := Synthesize(Playback{CurrentTime: 0.13, Duration: 10}, 1)
	vowels := map[string]bool{AA: true, E: true, I: true, O: true, U: true}
	for name := range out {
		if !vowels[name] {
			t.Errorf("non-vowel viseme %s in synthetic sample", name)
		}
	}
}
