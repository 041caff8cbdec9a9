// Package ccd implements the potential-well fill model: the stateless map
// from an electron count to the fraction of a pixel phase's volume it
// occupies, used by the clocker to decide how much of a trap's capture
// volume a charge cloud reaches.
package ccd

import (
	"fmt"
	"math"
)

// Phase holds one potential well's fill-volume parameters, grounded on the
// arctic source's CCDPhase tuple (full_well_depth, well_notch_depth,
// well_fill_power, first_electron_fill).
type Phase struct {
	FullWellDepth     float64 // fwd: electron count that fills the well (> WellNotchDepth)
	WellNotchDepth    float64 // notch: electrons below this occupy no volume beyond FirstElectronFill
	WellFillPower     float64 // p: exponent shaping the non-linear part of the fill curve (>= 0)
	FirstElectronFill float64 // fef: volume fraction occupied by the very first electron(s), in [0,1]
}

// NewPhase validates and constructs a Phase.
func NewPhase(fullWellDepth, wellNotchDepth, wellFillPower, firstElectronFill float64) (Phase, error) {
	p := Phase{
		FullWellDepth:     fullWellDepth,
		WellNotchDepth:    wellNotchDepth,
		WellFillPower:     wellFillPower,
		FirstElectronFill: firstElectronFill,
	}
	if err := p.validate(); err != nil {
		return Phase{}, err
	}
	return p, nil
}

func (p Phase) validate() error {
	if !(p.FullWellDepth > p.WellNotchDepth) {
		return fmt.Errorf("ccd: full_well_depth (%v) must exceed well_notch_depth (%v)", p.FullWellDepth, p.WellNotchDepth)
	}
	if p.WellFillPower < 0 {
		return fmt.Errorf("ccd: well_fill_power must be >= 0, got %v", p.WellFillPower)
	}
	if p.FirstElectronFill < 0 || p.FirstElectronFill > 1 {
		return fmt.Errorf("ccd: first_electron_fill must be in [0,1], got %v", p.FirstElectronFill)
	}
	return nil
}

// FractionalVolume returns the fraction of this phase's well volume occupied
// by nElectrons, in [0,1]:
//
//	v = fef + (1-fef) * clip((n - notch)/(fwd - notch), 0, 1)^p
func (p Phase) FractionalVolume(nElectrons float64) float64 {
	band := (nElectrons - p.WellNotchDepth) / (p.FullWellDepth - p.WellNotchDepth)
	switch {
	case band <= 0:
		band = 0
	case band >= 1:
		band = 1
	}
	inBand := band
	if p.WellFillPower != 1 {
		inBand = math.Pow(band, p.WellFillPower)
	}
	return p.FirstElectronFill + (1-p.FirstElectronFill)*inBand
}
