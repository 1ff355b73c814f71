package gaze

import (
	"math"
	"testing"
	"time"
)

const frameDT = float32(1.0 / 60.0)

// run advances the controller frame by frame with simulated time.
func run(c *Controller, start time.Time, frames int, perFrame func(i int, now time.Time)) time.Time {
	now := start
	for i := 0; i < frames; i++ {
		now = now.Add(time.Second / 60)
		c.Update(frameDT, now)
		if perFrame != nil {
			perFrame(i, now)
		}
	}
	return now
}

func TestBlinkAmount_StartsOpen(t *testing.T) {
	c := NewController(1)
	if got := c.BlinkAmount(); got != 0 {
		t.Errorf("fresh controller BlinkAmount = %v", got)
	}
	if c.IsBlinking() {
		t.Error("fresh controller reports blinking")
	}
}

func TestTriggerBlink_FullCycle(t *testing.T) {
	c := NewController(1)
	c.SetBlinkRate(time.Hour, 2*time.Hour) // keep scheduled blinks out of the way

	c.TriggerBlink()
	if !c.IsBlinking() {
		t.Fatal("TriggerBlink did not start a blink")
	}

	sawClosed := false
	run(c, time.Now(), 120, func(i int, now time.Time) {
		amt := c.BlinkAmount()
		if amt < 0 || amt > 1 || math.IsNaN(float64(amt)) {
			t.Fatalf("frame %d: BlinkAmount %v out of [0,1]", i, amt)
		}
		if amt >= 0.99 {
			sawClosed = true
		}
	})

	if !sawClosed {
		t.Error("blink never fully closed")
	}
	if c.IsBlinking() {
		t.Error("blink did not complete within 2 simulated seconds")
	}
	if got := c.BlinkAmount(); got != 0 {
		t.Errorf("post-blink BlinkAmount = %v", got)
	}
}

func TestTriggerBlink_IgnoredMidBlink(t *testing.T) {
	c := NewController(1)
	c.TriggerBlink()

	// Advance into the closing phase, then re-trigger.
	c.Update(frameDT, time.Now())
	before := c.BlinkAmount()
	c.TriggerBlink()
	if got := c.BlinkAmount(); got != before {
		t.Errorf("mid-blink trigger reset progress: %v -> %v", before, got)
	}
}

func TestScheduledBlinkEventuallyFires(t *testing.T) {
	c := NewController(42)
	c.SetBlinkRate(100*time.Millisecond, 200*time.Millisecond)

	blinked := false
	run(c, time.Now(), 600, func(i int, now time.Time) {
		if c.IsBlinking() {
			blinked = true
		}
	})
	if !blinked {
		t.Error("no scheduled blink within 10 simulated seconds")
	}
}

func TestLookAt_ClampsAndConverges(t *testing.T) {
	c := NewController(1)
	c.SetSaccadesEnabled(false)

	c.LookAt(5, -5)
	run(c, time.Now(), 300, nil)

	w := c.TargetWeights()
	// x clamps to 1: looking right at full deflection.
	if got := w["eyeLookOutLeft"]; math.Abs(float64(got-0.8)) > 0.01 {
		t.Errorf("eyeLookOutLeft = %v, want ~0.8", got)
	}
	if got := w["eyeLookInRight"]; math.Abs(float64(got-0.8)) > 0.01 {
		t.Errorf("eyeLookInRight = %v, want ~0.8", got)
	}
	// y clamps to -1: looking down.
	if got := w["eyeLookDownLeft"]; math.Abs(float64(got-0.6)) > 0.01 {
		t.Errorf("eyeLookDownLeft = %v, want ~0.6", got)
	}
	if got := w["eyeLookUpLeft"]; got != 0 {
		t.Errorf("eyeLookUpLeft = %v, want 0", got)
	}
}

func TestTargetWeights_CenteredGazeIsNeutral(t *testing.T) {
	c := NewController(1)
	c.SetSaccadesEnabled(false)

	run(c, time.Now(), 60, nil)

	for name, v := range c.TargetWeights() {
		if math.Abs(float64(v)) > 0.01 {
			t.Errorf("%s = %v with centered gaze", name, v)
		}
	}
}

func TestTargetWeights_AlwaysBounded(t *testing.T) {
	c := NewController(7)
	c.LookAt(1, 1)

	run(c, time.Now(), 200, func(i int, now time.Time) {
		for name, v := range c.TargetWeights() {
			if v < 0 || v > 1 {
				t.Fatalf("frame %d: %s = %v out of [0,1]", i, name, v)
			}
		}
	})
}

func TestSaccades_DisabledMeansStillGaze(t *testing.T) {
	c := NewController(3)
	c.SetSaccadesEnabled(false)
	c.LookAt(0.5, 0)

	run(c, time.Now(), 600, nil)

	w := c.TargetWeights()
	if got := w["eyeLookOutLeft"]; math.Abs(float64(got-0.4)) > 0.005 {
		t.Errorf("eyeLookOutLeft = %v, want ~0.4 with saccades off", got)
	}
}

func TestDeterministicForFixedSeed(t *testing.T) {
	start := time.Unix(1000, 0)

	weights := func() map[string]float32 {
		c := NewController(99)
		c.LookAt(0.3, -0.2)
		run(c, start, 120, nil)
		return c.TargetWeights()
	}

	a, b := weights(), weights()
	for name := range a {
		if a[name] != b[name] {
			t.Errorf("%s differs across identical runs: %v vs %v", name, a[name], b[name])
		}
	}
}
