// Package capability probes the host environment for the audio primitives
// the analyzer path needs. It runs once at startup; the verdict gates
// whether the real analyzer is ever called or the synthetic mouth takes
// over permanently.
package capability

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"
)

// Environment abstracts the host probes so detection is deterministic and
// testable. Probe implementations may error or panic; the detector treats
// both as non-fatal.
type Environment interface {
	// HasAudioContext reports whether an audio processing context can be
	// created on this host.
	HasAudioContext() bool

	// HasMediaStream reports whether a media stream source is available.
	HasMediaStream() bool

	// NewAnalyser attempts to instantiate an analyser node. Failure is a
	// warning, not a missing feature: playback-driven fallback still works.
	NewAnalyser() (io.Closer, error)

	// UserAgent identifies the host environment for heuristic warnings.
	UserAgent() string
}

// Report is the detection verdict.
type Report struct {
	Supported       bool
	MissingFeatures []string
	Warnings        []string
}

// Detect probes env and never fails: every probe error or panic is folded
// into MissingFeatures or Warnings. Deterministic for a fixed environment.
func Detect(env Environment) Report {
	var rep Report

	if !safeBool(env.HasAudioContext) {
		rep.MissingFeatures = append(rep.MissingFeatures, "audio context")
	}
	if !safeBool(env.HasMediaStream) {
		rep.MissingFeatures = append(rep.MissingFeatures, "media stream")
	}

	if warn := probeAnalyser(env); warn != "" {
		rep.Warnings = append(rep.Warnings, warn)
	}

	ua := strings.ToLower(env.UserAgent())
	if strings.Contains(ua, "safari") && !strings.Contains(ua, "chrome") {
		rep.Warnings = append(rep.Warnings, "safari-class host: audio context may need a user gesture to start")
	}
	for _, marker := range []string{"mobile", "android", "iphone", "ipad"} {
		if strings.Contains(ua, marker) {
			rep.Warnings = append(rep.Warnings, "mobile-class host: reduced analyzer resolution recommended")
			break
		}
	}

	rep.Supported = len(rep.MissingFeatures) == 0
	return rep
}

// safeBool converts a panicking probe into false.
func safeBool(probe func() bool) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return probe()
}

func probeAnalyser(env Environment) (warn string) {
	defer func() {
		if r := recover(); r != nil {
			warn = fmt.Sprintf("analyser probe panicked: %v", r)
		}
	}()
	closer, err := env.NewAnalyser()
	if err != nil {
		return fmt.Sprintf("analyser unavailable: %v", err)
	}
	if closer != nil {
		_ = closer.Close()
	}
	return ""
}

// HostEnvironment probes the local machine. On Linux it looks for ALSA
// device nodes; elsewhere it assumes the audio stack is present and lets
// the analyser probe surface problems.
type HostEnvironment struct{}

func (HostEnvironment) HasAudioContext() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	if _, err := os.Stat("/proc/asound"); err == nil {
		return true
	}
	_, err := os.Stat("/dev/snd")
	return err == nil
}

func (HostEnvironment) HasMediaStream() bool {
	if runtime.GOOS != "linux" {
		return true
	}
	entries, err := os.ReadDir("/dev/snd")
	if err != nil {
		return false
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "pcm") {
			return true
		}
	}
	return false
}

func (HostEnvironment) NewAnalyser() (io.Closer, error) {
	// There is no in-process analyser node on a native host; the analyzer
	// runs out of process. Reporting nil keeps the probe a no-op success.
	return nil, nil
}

func (HostEnvironment) UserAgent() string {
	return fmt.Sprintf("facesync/native (%s; %s)", runtime.GOOS, runtime.GOARCH)
}
