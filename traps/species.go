// Package traps implements the four trap-species models and the per-phase
// watermark occupancy store that tracks their fill state across a column's
// transfers.
package traps

import (
	"fmt"
	"math"
)

// Kind tags which of the four sealed trap-species variants a Species value
// is. There is no plugin mechanism for additional kinds (spec Non-goal);
// dispatch on Kind happens inside the watermark Store, per species and per
// watermark on each Capture and Release call.
type Kind int

const (
	// InstantCapture completes capture within one dwell; release is
	// single-exponential.
	InstantCapture Kind = iota
	// SlowCapture evolves capture exponentially with its own timescale.
	SlowCapture
	// InstantCaptureContinuum is instant capture with release-times
	// log-normal-distributed across the species.
	InstantCaptureContinuum
	// SlowCaptureContinuum combines SlowCapture and InstantCaptureContinuum.
	SlowCaptureContinuum
)

func (k Kind) String() string {
	switch k {
	case InstantCapture:
		return "InstantCapture"
	case SlowCapture:
		return "SlowCapture"
	case InstantCaptureContinuum:
		return "InstantCaptureContinuum"
	case SlowCaptureContinuum:
		return "SlowCaptureContinuum"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Species is a single trap population, one of the four sealed kinds. Zero
// value is not valid; use the New* constructors, which validate §3's
// invariants before returning a Species a caller can use.
type Species struct {
	Kind             Kind
	Density          float64 // traps per pixel, >= 0
	ReleaseTimescale float64 // pixel-transfer units, > 0

	// CaptureTimescale is used by SlowCapture and SlowCaptureContinuum only.
	CaptureTimescale float64
	// Sigma is the log-normal width used by the two continuum kinds only.
	Sigma float64

	// VolumeNoneExposed and VolumeFullExposed bound a volume window in
	// which the species is effectively absent (InstantCapture only, §4.1.2).
	VolumeNoneExposed float64
	VolumeFullExposed float64
}

// NewInstantCapture validates and builds an InstantCapture species. Pass
// volumeNoneExposed == volumeFullExposed == 0 for no screening window.
func NewInstantCapture(density, releaseTimescale, volumeNoneExposed, volumeFullExposed float64) (Species, error) {
	s := Species{
		Kind:              InstantCapture,
		Density:           density,
		ReleaseTimescale:  releaseTimescale,
		VolumeNoneExposed: volumeNoneExposed,
		VolumeFullExposed: volumeFullExposed,
	}
	if err := s.validateCommon(); err != nil {
		return Species{}, err
	}
	if volumeNoneExposed < 0 || volumeFullExposed < 0 || volumeFullExposed < volumeNoneExposed {
		return Species{}, fmt.Errorf("traps: invalid volume window [%v, %v]", volumeNoneExposed, volumeFullExposed)
	}
	return s, nil
}

// NewSlowCapture validates and builds a SlowCapture species.
func NewSlowCapture(density, releaseTimescale, captureTimescale float64) (Species, error) {
	s := Species{
		Kind:             SlowCapture,
		Density:          density,
		ReleaseTimescale: releaseTimescale,
		CaptureTimescale: captureTimescale,
	}
	if err := s.validateCommon(); err != nil {
		return Species{}, err
	}
	if captureTimescale < 0 {
		return Species{}, fmt.Errorf("traps: capture_timescale must be >= 0, got %v", captureTimescale)
	}
	return s, nil
}

// NewInstantCaptureContinuum validates and builds an InstantCaptureContinuum
// species; sigma is the log-normal width of the release-timescale
// distribution (§4.1.1).
func NewInstantCaptureContinuum(density, releaseTimescale, sigma float64) (Species, error) {
	s := Species{
		Kind:             InstantCaptureContinuum,
		Density:          density,
		ReleaseTimescale: releaseTimescale,
		Sigma:            sigma,
	}
	if err := s.validateCommon(); err != nil {
		return Species{}, err
	}
	if sigma < 0 {
		return Species{}, fmt.Errorf("traps: sigma must be >= 0, got %v", sigma)
	}
	return s, nil
}

// NewSlowCaptureContinuum validates and builds a SlowCaptureContinuum
// species, combining the SlowCapture and InstantCaptureContinuum effects.
func NewSlowCaptureContinuum(density, releaseTimescale, sigma, captureTimescale float64) (Species, error) {
	s := Species{
		Kind:             SlowCaptureContinuum,
		Density:          density,
		ReleaseTimescale: releaseTimescale,
		Sigma:            sigma,
		CaptureTimescale: captureTimescale,
	}
	if err := s.validateCommon(); err != nil {
		return Species{}, err
	}
	if sigma < 0 {
		return Species{}, fmt.Errorf("traps: sigma must be >= 0, got %v", sigma)
	}
	if captureTimescale < 0 {
		return Species{}, fmt.Errorf("traps: capture_timescale must be >= 0, got %v", captureTimescale)
	}
	return s, nil
}

func (s Species) validateCommon() error {
	if math.IsNaN(s.Density) || math.IsInf(s.Density, 0) || s.Density < 0 {
		return fmt.Errorf("traps: density must be finite and >= 0, got %v", s.Density)
	}
	if math.IsNaN(s.ReleaseTimescale) || s.ReleaseTimescale <= 0 {
		return fmt.Errorf("traps: release_timescale must be > 0, got %v", s.ReleaseTimescale)
	}
	return nil
}

// IsContinuum reports whether release-timescale is log-normal-distributed
// across the species (the two *Continuum kinds).
func (s Species) IsContinuum() bool {
	return s.Kind == InstantCaptureContinuum || s.Kind == SlowCaptureContinuum
}

// IsSlowCapture reports whether capture follows its own exponential
// timescale rather than completing within one dwell.
func (s Species) IsSlowCapture() bool {
	return s.Kind == SlowCapture || s.Kind == SlowCaptureContinuum
}

// InScreenedWindow reports whether cloud volume v falls inside this
// species' "effectively absent" window (§4.1.2, InstantCapture only).
// Capture is suppressed there; release is unaffected.
func (s Species) InScreenedWindow(v float64) bool {
	if s.Kind != InstantCapture {
		return false
	}
	if s.VolumeNoneExposed == 0 && s.VolumeFullExposed == 0 {
		return false
	}
	return s.VolumeNoneExposed <= v && v < s.VolumeFullExposed
}

// releaseFactor returns the surviving fraction of a trap's fill after dt
// elapses: exp(-dt/tau) for non-continuum kinds, or the log-normal-weighted
// integral of that same kernel for continuum kinds (traps/continuum.go).
// A fill is multiplied by this factor, never replaced by it.
func (s Species) releaseFactor(dt float64) float64 {
	if dt <= 0 {
		return 1
	}
	if s.IsContinuum() {
		return continuumReleaseFactor(dt, s.ReleaseTimescale, s.Sigma)
	}
	return math.Exp(-dt / s.ReleaseTimescale)
}

// captureFillDelta returns how much a trap's fill fraction should rise
// toward 1 over dt when newly exposed to a filling cloud: 1-currentFill for
// instant capture (full in one dwell, and for slow capture with a
// non-positive capture_timescale), (1-currentFill)*(1-exp(-dt/capture_timescale))
// for slow capture.
func (s Species) captureFillDelta(dt, currentFill float64) float64 {
	if !s.IsSlowCapture() {
		return 1 - currentFill
	}
	if s.CaptureTimescale <= 0 {
		return 1 - currentFill
	}
	return (1 - currentFill) * (1 - math.Exp(-dt/s.CaptureTimescale))
}
