package expression

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCatalog_Builtins(t *testing.T) {
	c := NewCatalog()

	for _, name := range []string{"default", "smile", "sad", "surprised", "angry"} {
		if !c.Has(name) {
			t.Errorf("builtin %q missing", name)
		}
	}
	if got := len(c.Get("default").Targets); got != 0 {
		t.Errorf("default profile has %d targets, want 0", got)
	}
	if c.Get("smile").Targets["mouthSmileLeft"] != 0.4 {
		t.Error("smile profile missing mouthSmileLeft")
	}
}

func TestCatalog_UnknownFallsBackToDefault(t *testing.T) {
	c := NewCatalog()

	p := c.Get("no_such_profile")
	if p.Name != "default" {
		t.Errorf("unknown name resolved to %q", p.Name)
	}
}

func TestCatalog_BuiltinIntensitiesSubtle(t *testing.T) {
	c := NewCatalog()
	for _, name := range c.Names() {
		for target, v := range c.Get(name).Targets {
			if v < 0 || v > 0.5 {
				t.Errorf("%s/%s = %v outside the subtle range", name, target, v)
			}
		}
	}
}

func TestCatalog_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "expressions.yaml")
	content := `smirk:
  mouthSmileLeft: 0.5
  cheekSquintLeft: 0.2
smile:
  mouthSmileLeft: 0.9
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCatalog()
	if err := c.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if !c.Has("smirk") {
		t.Fatal("loaded profile missing")
	}
	if got := c.Get("smirk").Targets["mouthSmileLeft"]; got != 0.5 {
		t.Errorf("smirk mouthSmileLeft = %v", got)
	}
	// File entries override built-ins of the same name.
	if got := c.Get("smile").Targets["mouthSmileLeft"]; got != 0.9 {
		t.Errorf("smile override = %v, want 0.9", got)
	}
}

func TestCatalog_LoadFileErrors(t *testing.T) {
	c := NewCatalog()

	if err := c.LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file: expected error")
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(bad, []byte("smile: [not, a, map]"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := c.LoadFile(bad); err == nil {
		t.Error("malformed file: expected error")
	}

	// A failed load leaves the built-ins intact.
	if c.Get("smile").Targets["mouthSmileLeft"] != 0.4 {
		t.Error("builtin smile damaged by failed load")
	}
}

func TestSelector(t *testing.T) {
	s := NewSelector(NewCatalog())

	if got := s.Current().Name; got != "default" {
		t.Errorf("initial profile = %q", got)
	}

	s.Select("angry")
	if got := s.Current().Name; got != "angry" {
		t.Errorf("after Select: %q", got)
	}

	s.Select("no_such_profile")
	if got := s.Current().Name; got != "default" {
		t.Errorf("unknown Select resolved to %q", got)
	}
}
