package ccd

import (
	"math"
	"testing"
)

func TestNewPhase_RejectsInvalidParams(t *testing.T) {
	tests := []struct {
		name                                              string
		fwd, notch, power, fef float64
		wantErr                bool
	}{
		{"valid", 1e4, 0, 1, 0, false},
		{"fwd equals notch", 100, 100, 1, 0, true},
		{"fwd below notch", 100, 200, 1, 0, true},
		{"negative power", 1e4, 0, -1, 0, true},
		{"fef above one", 1e4, 0, 1, 1.5, true},
		{"fef below zero", 1e4, 0, 1, -0.1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPhase(tt.fwd, tt.notch, tt.power, tt.fef)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewPhase(%v,%v,%v,%v) err = %v, wantErr %v", tt.fwd, tt.notch, tt.power, tt.fef, err, tt.wantErr)
			}
		})
	}
}

func TestFractionalVolume_BelowNotchIsFirstElectronFill(t *testing.T) {
	p, err := NewPhase(100, 10, 1, 0.2)
	if err != nil {
		t.Fatal(err)
	}
	if got := p.FractionalVolume(5); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("FractionalVolume(below notch) = %v, want 0.2 (fef)", got)
	}
	if got := p.FractionalVolume(10); math.Abs(got-0.2) > 1e-12 {
		t.Errorf("FractionalVolume(at notch) = %v, want 0.2 (fef)", got)
	}
}

func TestFractionalVolume_AtFullWellIsOne(t *testing.T) {
	p, _ := NewPhase(100, 0, 1, 0)
	if got := p.FractionalVolume(100); math.Abs(got-1) > 1e-12 {
		t.Errorf("FractionalVolume(fwd) = %v, want 1", got)
	}
	if got := p.FractionalVolume(1000); math.Abs(got-1) > 1e-12 {
		t.Errorf("FractionalVolume(above fwd) = %v, want 1 (clipped)", got)
	}
}

func TestFractionalVolume_LinearCaseIsExactHalfway(t *testing.T) {
	p, _ := NewPhase(100, 0, 1, 0)
	if got := p.FractionalVolume(50); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("FractionalVolume(50) = %v, want 0.5 with power=1", got)
	}
}

func TestFractionalVolume_PowerLessThanOneBowsCurveUp(t *testing.T) {
	p, _ := NewPhase(100, 0, 0.5, 0)
	linear := (50.0 - 0) / (100 - 0)
	got := p.FractionalVolume(50)
	if got <= linear {
		t.Errorf("FractionalVolume with power<1 should exceed the linear fraction: got %v, linear %v", got, linear)
	}
}

func TestNewCCD_RejectsMismatchedLengths(t *testing.T) {
	p, _ := NewPhase(100, 0, 1, 0)
	if _, err := NewCCD([]Phase{p, p}, []float64{1}); err == nil {
		t.Error("expected error for phase/fraction length mismatch")
	}
}

func TestNewCCD_RejectsFractionsNotSummingToOne(t *testing.T) {
	p, _ := NewPhase(100, 0, 1, 0)
	if _, err := NewCCD([]Phase{p, p}, []float64{0.5, 0.6}); err == nil {
		t.Error("expected error for fractions summing to 1.1")
	}
}

func TestNewCCD_AcceptsFractionsWithinTolerance(t *testing.T) {
	p, _ := NewPhase(100, 0, 1, 0)
	if _, err := NewCCD([]Phase{p, p}, []float64{0.5, 0.5 + 5e-7}); err != nil {
		t.Errorf("unexpected error for fractions within 1e-6 tolerance: %v", err)
	}
}

func TestSinglePhase_HasOnePhaseAndFullFraction(t *testing.T) {
	c, err := SinglePhase(1e4, 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if c.NumPhases() != 1 {
		t.Fatalf("NumPhases() = %d, want 1", c.NumPhases())
	}
	if got := c.EffectiveDensity(0, 10); got != 10 {
		t.Errorf("EffectiveDensity in single-phase CCD = %v, want 10 (unscaled)", got)
	}
}

func TestEffectiveDensity_ScalesBySpeciesPhaseFraction(t *testing.T) {
	p, _ := NewPhase(100, 0, 1, 0)
	c, err := NewCCD([]Phase{p, p, p}, []float64{0.5, 0.3, 0.2})
	if err != nil {
		t.Fatal(err)
	}
	if got := c.EffectiveDensity(1, 10); math.Abs(got-3) > 1e-12 {
		t.Errorf("EffectiveDensity(phase 1, 10) = %v, want 3", got)
	}
}
