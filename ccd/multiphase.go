package ccd

import "fmt"

// CCD is an ordered sequence of phases (one per clocking step of the ROE's
// dwell sequence) plus the fraction of each trap species' density that is
// actually present in each phase, grounded on the arctic source's CCD
// class (phases + fraction_of_traps_per_phase).
type CCD struct {
	Phases                  []Phase
	FractionOfTrapsPerPhase []float64
}

// NewCCD validates that phase count matches the fraction count and that the
// fractions sum to 1 within tolerance.
func NewCCD(phases []Phase, fractionOfTrapsPerPhase []float64) (CCD, error) {
	if len(phases) == 0 {
		return CCD{}, fmt.Errorf("ccd: at least one phase is required")
	}
	if len(phases) != len(fractionOfTrapsPerPhase) {
		return CCD{}, fmt.Errorf("ccd: %d phases but %d fraction_of_traps_per_phase entries",
			len(phases), len(fractionOfTrapsPerPhase))
	}
	var sum float64
	for _, f := range fractionOfTrapsPerPhase {
		if f < 0 {
			return CCD{}, fmt.Errorf("ccd: fraction_of_traps_per_phase entries must be >= 0, got %v", f)
		}
		sum += f
	}
	if diff := sum - 1; diff > 1e-6 || diff < -1e-6 {
		return CCD{}, fmt.Errorf("ccd: fraction_of_traps_per_phase must sum to 1 within 1e-6, got %v", sum)
	}
	return CCD{Phases: append([]Phase(nil), phases...), FractionOfTrapsPerPhase: append([]float64(nil), fractionOfTrapsPerPhase...)}, nil
}

// SinglePhase builds a one-phase CCD, the common case for a simple sensor
// with no multi-phase charge sharing.
func SinglePhase(fullWellDepth, wellNotchDepth, wellFillPower, firstElectronFill float64) (CCD, error) {
	p, err := NewPhase(fullWellDepth, wellNotchDepth, wellFillPower, firstElectronFill)
	if err != nil {
		return CCD{}, err
	}
	return NewCCD([]Phase{p}, []float64{1})
}

// NumPhases reports the phase count, which the ROE's dwell sequence must match.
func (c CCD) NumPhases() int {
	return len(c.Phases)
}

// EffectiveDensity scales a trap species' density by the fraction of traps
// visible in the given phase.
func (c CCD) EffectiveDensity(phaseIdx int, density float64) float64 {
	return density * c.FractionOfTrapsPerPhase[phaseIdx]
}
