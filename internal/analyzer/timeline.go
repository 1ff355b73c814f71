package analyzer

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/normanking/facesync/internal/viseme"
)

// Cue is one timed mouth shape on a precomputed timeline.
type Cue struct {
	Name   string  // viseme name, canonical or short form
	Time   float64 // seconds from timeline start
	Weight float32
}

// Timeline is a precomputed lip-sync track. Cues are kept sorted by time;
// between cues the most recent one holds.
type Timeline struct {
	Cues     []Cue
	Duration float64 // seconds
}

// letterVisemes maps letters to the viseme a speaking mouth would show.
// Digraphs th/ch/sh are matched before single letters.
var letterVisemes = map[string]string{
	"th": viseme.TH,
	"ch": viseme.CH,
	"sh": viseme.CH,

	"p": viseme.PP, "b": viseme.PP, "m": viseme.PP,
	"f": viseme.FF, "v": viseme.FF,
	"t": viseme.DD, "d": viseme.DD,
	"k": viseme.KK, "g": viseme.KK, "c": viseme.KK, "q": viseme.KK, "x": viseme.KK,
	"j": viseme.CH,
	"s": viseme.SS, "z": viseme.SS,
	"n": viseme.NN, "l": viseme.NN,
	"r": viseme.RR,

	"a": viseme.AA, "h": viseme.AA,
	"e": viseme.E,
	"i": viseme.I, "y": viseme.I,
	"o": viseme.O,
	"u": viseme.U, "w": viseme.U,
}

// Per-class cue lengths, in seconds. Vowels hold longer than stops.
const (
	vowelCue      = 0.100
	fricativeCue  = 0.080
	defaultCue    = 0.060
	wordPause     = 0.080
	clausePause   = 0.100
	sentencePause = 0.150
)

// TimelineFromText estimates a lip-sync timeline from raw text when no
// phoneme timing is available. Letters map to mouth shapes, punctuation to
// pauses; the result is stretched to at least duration.
func TimelineFromText(text string, duration time.Duration) Timeline {
	text = strings.TrimSpace(strings.ToLower(text))
	if text == "" {
		return Timeline{Cues: []Cue{{Name: viseme.Sil, Time: 0, Weight: 1}}}
	}

	cues := []Cue{{Name: viseme.Sil, Time: 0, Weight: 1}}
	t := 0.05

	for i := 0; i < len(text); i++ {
		ch := text[i]
		switch {
		case ch == ' ' || ch == '\n' || ch == '\t':
			cues = append(cues, Cue{Name: viseme.Sil, Time: t, Weight: 0.5})
			t += wordPause
			continue
		case ch == '.' || ch == '!' || ch == '?':
			cues = append(cues, Cue{Name: viseme.Sil, Time: t, Weight: 1})
			t += sentencePause
			continue
		case ch == ',' || ch == ';' || ch == ':':
			cues = append(cues, Cue{Name: viseme.Sil, Time: t, Weight: 0.7})
			t += clausePause
			continue
		case ch < 'a' || ch > 'z':
			continue
		}

		key := string(ch)
		if i+1 < len(text) {
			switch digraph := text[i : i+2]; digraph {
			case "th", "ch", "sh":
				key = digraph
				i++
			}
		}

		name, ok := letterVisemes[key]
		if !ok {
			name = viseme.Sil
		}

		hold := defaultCue
		switch ch {
		case 'a', 'e', 'i', 'o', 'u':
			hold = vowelCue
		case 's', 'z', 'f', 'v':
			hold = fricativeCue
		}

		// Skip repeats so the mouth articulates instead of freezing.
		if last := cues[len(cues)-1]; last.Name == name {
			t += hold
			continue
		}

		cues = append(cues, Cue{Name: name, Time: t, Weight: 0.8})
		t += hold
	}

	cues = append(cues, Cue{Name: viseme.Sil, Time: t, Weight: 1})

	total := t + 0.05
	if d := duration.Seconds(); d > total {
		total = d
	}
	return Timeline{Cues: cues, Duration: total}
}

// TimelinePlayer replays a precomputed timeline as if it were a live
// analyzer. The clock callback supplies the playback position in seconds;
// the player itself keeps no wall-clock state, so seeks and pauses in the
// source are reflected immediately.
type TimelinePlayer struct {
	clock func() float64

	mu       sync.Mutex
	timeline Timeline
	last     viseme.Sample
}

var _ Analyzer = (*TimelinePlayer)(nil)

// NewTimelinePlayer sorts the timeline's cues once and binds the clock.
func NewTimelinePlayer(tl Timeline, clock func() float64) *TimelinePlayer {
	sort.SliceStable(tl.Cues, func(i, j int) bool { return tl.Cues[i].Time < tl.Cues[j].Time })
	return &TimelinePlayer{timeline: tl, clock: clock}
}

// Connect is a no-op; the timeline is already in memory.
func (p *TimelinePlayer) Connect(ctx context.Context) error { return nil }

// ProcessFrame resolves the cue active at the current playback position.
func (p *TimelinePlayer) ProcessFrame(ctx context.Context) error {
	t := p.clock()

	p.mu.Lock()
	defer p.mu.Unlock()

	cue := p.cueAtLocked(t)
	if cue == nil || cue.Name == viseme.Sil {
		p.last = viseme.Sample{}
		return nil
	}
	p.last = viseme.Sample{cue.Name: cue.Weight}
	return nil
}

// cueAtLocked returns the most recent cue at or before t, nil before the
// first cue or past the timeline's end.
func (p *TimelinePlayer) cueAtLocked(t float64) *Cue {
	cues := p.timeline.Cues
	if len(cues) == 0 || t < cues[0].Time || (p.timeline.Duration > 0 && t > p.timeline.Duration) {
		return nil
	}
	i := sort.Search(len(cues), func(i int) bool { return cues[i].Time > t })
	return &cues[i-1]
}

// VisemeScores returns the sample from the last ProcessFrame. An empty
// sample is valid here: silence on a timeline is content, not an error.
func (p *TimelinePlayer) VisemeScores() (viseme.Sample, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last, nil
}

// Configure is accepted and ignored: there is no signal processing to tune.
func (p *TimelinePlayer) Configure(resolution, historyWindow int) error { return nil }

// Close is a no-op.
func (p *TimelinePlayer) Close() error { return nil }
