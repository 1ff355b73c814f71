// Package expression provides the catalog of named expression profiles and
// the frame-safe selector the orchestrator reads from.
package expression

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Profile is a named preset of blend-target intensities representing an
// emotion. Profiles are read-only once constructed; the selector swaps
// them atomically between frames.
type Profile struct {
	Name    string
	Targets map[string]float32
}

// Builtin profiles. Mouth-adjacent shapes deliberately stay subtle so the
// lip-sync stream reads through them.
var builtins = []Profile{
	{
		Name:    "default",
		Targets: map[string]float32{},
	},
	{
		Name: "smile",
		Targets: map[string]float32{
			"mouthSmileLeft":   0.4,
			"mouthSmileRight":  0.4,
			"cheekSquintLeft":  0.25,
			"cheekSquintRight": 0.25,
			"eyeSquintLeft":    0.15,
			"eyeSquintRight":   0.15,
			"viseme_E":         0.2,
		},
	},
	{
		Name: "sad",
		Targets: map[string]float32{
			"browInnerUp":     0.4,
			"browDownLeft":    0.1,
			"browDownRight":   0.1,
			"mouthFrownLeft":  0.25,
			"mouthFrownRight": 0.25,
			"eyeSquintLeft":   0.1,
			"eyeSquintRight":  0.1,
		},
	},
	{
		Name: "surprised",
		Targets: map[string]float32{
			"browInnerUp":      0.4,
			"browOuterUpLeft":  0.3,
			"browOuterUpRight": 0.3,
			"eyeWideLeft":      0.4,
			"eyeWideRight":     0.4,
			"jawOpen":          0.2,
			"viseme_O":         0.3,
		},
	},
	{
		Name: "angry",
		Targets: map[string]float32{
			"browDownLeft":    0.45,
			"browDownRight":   0.45,
			"eyeSquintLeft":   0.3,
			"eyeSquintRight":  0.3,
			"noseSneerLeft":   0.2,
			"noseSneerRight":  0.2,
			"mouthFrownLeft":  0.15,
			"mouthFrownRight": 0.15,
		},
	},
}

// Catalog holds the available profiles by name.
type Catalog struct {
	profiles map[string]Profile
}

// NewCatalog returns a catalog with the built-in profiles.
func NewCatalog() *Catalog {
	c := &Catalog{profiles: make(map[string]Profile, len(builtins))}
	for _, p := range builtins {
		c.profiles[p.Name] = p
	}
	return c
}

// LoadFile merges user-defined profiles from a YAML file into the catalog.
// File entries override built-ins with the same name.
//
// File format:
//
//	smirk:
//	  mouthSmileLeft: 0.5
//	  cheekSquintLeft: 0.2
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read expression catalog: %w", err)
	}
	var raw map[string]map[string]float32
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parse expression catalog: %w", err)
	}
	for name, targets := range raw {
		c.profiles[name] = Profile{Name: name, Targets: targets}
	}
	return nil
}

// Get returns the profile for name. Unknown names fall back to "default".
func (c *Catalog) Get(name string) Profile {
	if p, ok := c.profiles[name]; ok {
		return p
	}
	return c.profiles["default"]
}

// Has reports whether name is in the catalog.
func (c *Catalog) Has(name string) bool {
	_, ok := c.profiles[name]
	return ok
}

// Names returns the catalog's profile names, sorted.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Selector is the externally-driven expression choice. Selection can come
// from any goroutine; the frame loop reads the current profile once per
// frame.
type Selector struct {
	mu      sync.RWMutex
	catalog *Catalog
	current Profile
}

// NewSelector starts on the "default" profile.
func NewSelector(catalog *Catalog) *Selector {
	return &Selector{
		catalog: catalog,
		current: catalog.Get("default"),
	}
}

// Select switches to the named profile. Unknown names resolve to "default".
func (s *Selector) Select(name string) {
	p := s.catalog.Get(name)
	s.mu.Lock()
	s.current = p
	s.mu.Unlock()
}

// Current returns the active profile.
func (s *Selector) Current() Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}
