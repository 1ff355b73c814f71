// Package gaze runs the eye-blink cycle and gaze drift that stay alive no
// matter what happens to the lip-sync path.
package gaze

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
)

// Blink state machine.
type blinkState int

const (
	blinkOpen blinkState = iota
	blinkClosing
	blinkClosed
	blinkOpening
)

// Controller produces a blink-intensity scalar and gaze target weights.
// It may be poked from other goroutines (LookAt, TriggerBlink); the frame
// loop calls Update once per frame.
type Controller struct {
	mu sync.Mutex

	gazeTarget  mgl32.Vec2
	currentGaze mgl32.Vec2
	smoothing   float32

	state         blinkState
	blinkProgress float32
	blinkDuration float32
	nextBlink     time.Time
	minGap        time.Duration
	maxGap        time.Duration

	saccadeEnabled bool
	saccadeAmp     float32
	saccadeOffset  mgl32.Vec2
	nextSaccade    time.Time

	rng *rand.Rand
}

// NewController seeds the blink and saccade timers. A nil-safe random
// source keeps gaps irregular; tests can pass a fixed seed.
func NewController(seed int64) *Controller {
	rng := rand.New(rand.NewSource(seed))
	now := time.Now()
	return &Controller{
		smoothing:      8.0,
		blinkDuration:  0.15,
		minGap:         2 * time.Second,
		maxGap:         5 * time.Second,
		nextBlink:      now.Add(randomGap(rng, 2*time.Second, 4*time.Second)),
		saccadeEnabled: true,
		saccadeAmp:     0.05,
		nextSaccade:    now.Add(randomGap(rng, 500*time.Millisecond, 2*time.Second)),
		rng:            rng,
	}
}

// LookAt aims the gaze; coordinates are clamped to [-1,1] with (0,0)
// meaning straight at the camera.
func (c *Controller) LookAt(x, y float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gazeTarget = mgl32.Vec2{clamp(x, -1, 1), clamp(y, -1, 1)}
}

// TriggerBlink forces a blink if the eyes are open.
func (c *Controller) TriggerBlink() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == blinkOpen {
		c.state = blinkClosing
		c.blinkProgress = 0
	}
}

// SetBlinkRate adjusts the random gap between blinks.
func (c *Controller) SetBlinkRate(minGap, maxGap time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.minGap = minGap
	c.maxGap = maxGap
}

// SetSaccadesEnabled toggles gaze micro-movement.
func (c *Controller) SetSaccadesEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.saccadeEnabled = enabled
}

// Update advances the blink state machine and gaze smoothing by dt seconds.
func (c *Controller) Update(dt float32, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateGaze(dt)
	c.updateBlink(dt, now)
	c.updateSaccade(now)
}

// BlinkAmount returns the current blink intensity in [0,1]. Blink targets
// bypass the engine's threshold and priority stages entirely.
func (c *Controller) BlinkAmount() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case blinkClosing:
		return easeOutQuad(c.blinkProgress)
	case blinkClosed:
		return 1
	case blinkOpening:
		return easeInQuad(c.blinkProgress)
	default:
		return 0
	}
}

// IsBlinking reports whether a blink is in progress.
func (c *Controller) IsBlinking() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != blinkOpen
}

// TargetWeights returns the eye-look blend-target weights for the current
// gaze. The orchestrator overlays them on the expression profile so all
// writes still flow through the engine.
func (c *Controller) TargetWeights() map[string]float32 {
	c.mu.Lock()
	gaze := c.currentGaze
	c.mu.Unlock()

	w := make(map[string]float32, 8)
	if gaze.X() > 0 {
		w["eyeLookOutLeft"] = gaze.X() * 0.8
		w["eyeLookInRight"] = gaze.X() * 0.8
		w["eyeLookOutRight"] = 0
		w["eyeLookInLeft"] = 0
	} else {
		w["eyeLookOutRight"] = -gaze.X() * 0.8
		w["eyeLookInLeft"] = -gaze.X() * 0.8
		w["eyeLookOutLeft"] = 0
		w["eyeLookInRight"] = 0
	}
	if gaze.Y() > 0 {
		w["eyeLookUpLeft"] = gaze.Y() * 0.6
		w["eyeLookUpRight"] = gaze.Y() * 0.6
		w["eyeLookDownLeft"] = 0
		w["eyeLookDownRight"] = 0
	} else {
		w["eyeLookDownLeft"] = -gaze.Y() * 0.6
		w["eyeLookDownRight"] = -gaze.Y() * 0.6
		w["eyeLookUpLeft"] = 0
		w["eyeLookUpRight"] = 0
	}
	return w
}

func (c *Controller) updateGaze(dt float32) {
	lerp := 1.0 - float32(math.Exp(float64(-c.smoothing*dt)))

	target := c.gazeTarget
	if c.saccadeEnabled {
		target = target.Add(c.saccadeOffset)
	}
	c.currentGaze = c.currentGaze.Add(target.Sub(c.currentGaze).Mul(lerp))
}

func (c *Controller) updateBlink(dt float32, now time.Time) {
	switch c.state {
	case blinkOpen:
		if now.After(c.nextBlink) {
			c.state = blinkClosing
			c.blinkProgress = 0
		}

	case blinkClosing:
		c.blinkProgress += dt / (c.blinkDuration * 0.4)
		if c.blinkProgress >= 1 {
			c.blinkProgress = 1
			c.state = blinkClosed
		}

	case blinkClosed:
		c.blinkProgress += dt / (c.blinkDuration * 0.1)
		if c.blinkProgress >= 1.1 {
			c.state = blinkOpening
			c.blinkProgress = 1
		}

	case blinkOpening:
		c.blinkProgress -= dt / (c.blinkDuration * 0.5)
		if c.blinkProgress <= 0 {
			c.blinkProgress = 0
			c.state = blinkOpen
			c.nextBlink = now.Add(randomGap(c.rng, c.minGap, c.maxGap))
		}
	}
}

func (c *Controller) updateSaccade(now time.Time) {
	if !c.saccadeEnabled {
		c.saccadeOffset = mgl32.Vec2{}
		return
	}
	if now.After(c.nextSaccade) {
		c.saccadeOffset = mgl32.Vec2{
			(c.rng.Float32()*2 - 1) * c.saccadeAmp,
			(c.rng.Float32()*2 - 1) * c.saccadeAmp * 0.5,
		}
		c.nextSaccade = now.Add(randomGap(c.rng, 300*time.Millisecond, 1500*time.Millisecond))
	}
}

func easeOutQuad(t float32) float32 {
	return t * (2 - t)
}

func easeInQuad(t float32) float32 {
	return t * t
}

func clamp(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func randomGap(rng *rand.Rand, min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rng.Float64()*float64(max-min))
}
