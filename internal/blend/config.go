package blend

import "fmt"

// SmoothingConfig tunes the engine's per-frame interpolation and viseme
// selection. Mutated only by the adaptive optimizer, always toward a
// cheaper configuration.
type SmoothingConfig struct {
	// ActiveSpeed is the lerp factor applied when a viseme target moves
	// toward a live score. Faster than NeutralSpeed so mouth opening
	// feels responsive.
	ActiveSpeed float32 `mapstructure:"active_speed"`

	// NeutralSpeed is the lerp factor used for expression targets and for
	// decaying unselected visemes toward zero. Mouth closing stays damped.
	NeutralSpeed float32 `mapstructure:"neutral_speed"`

	// MinThreshold filters sub-threshold analyzer jitter: only scores
	// strictly above it are eligible for selection.
	MinThreshold float32 `mapstructure:"min_threshold"`

	// MaxBlendCount bounds how many visemes blend simultaneously; too
	// many at once looks muddy.
	MaxBlendCount int `mapstructure:"max_blend_count"`

	// ExpressionBlendFactor scales expression-authored mouth shapes while
	// a live viseme stream is active, so the two sources do not fight.
	ExpressionBlendFactor float32 `mapstructure:"expression_blend_factor"`
}

// DefaultSmoothingConfig returns the tuning used at startup.
func DefaultSmoothingConfig() SmoothingConfig {
	return SmoothingConfig{
		ActiveSpeed:           0.5,
		NeutralSpeed:          0.2,
		MinThreshold:          0.02,
		MaxBlendCount:         3,
		ExpressionBlendFactor: 0.3,
	}
}

// Validate enforces 0 < neutral <= active <= 1, 0 <= minThreshold < 1,
// maxBlendCount >= 1.
func (c SmoothingConfig) Validate() error {
	if c.NeutralSpeed <= 0 || c.NeutralSpeed > 1 {
		return fmt.Errorf("neutral_speed %v out of (0,1]", c.NeutralSpeed)
	}
	if c.ActiveSpeed < c.NeutralSpeed || c.ActiveSpeed > 1 {
		return fmt.Errorf("active_speed %v out of [neutral_speed,1]", c.ActiveSpeed)
	}
	if c.MinThreshold < 0 || c.MinThreshold >= 1 {
		return fmt.Errorf("min_threshold %v out of [0,1)", c.MinThreshold)
	}
	if c.MaxBlendCount < 1 {
		return fmt.Errorf("max_blend_count %d below 1", c.MaxBlendCount)
	}
	return nil
}
