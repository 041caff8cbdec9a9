// Package roe models the readout-electronics clocking sequence and the
// express compression matrix derived from it.
package roe

import "fmt"

// Type selects one of the three clocking-sequence variants. The original
// arctic source models these as a small ROE class hierarchy
// (ROE/ROEChargeInjection/ROETrapPumping); Non-goal 1 collapses that into a
// sealed enum on a single struct rather than a plugin/subclass hierarchy.
type Type int

const (
	Standard Type = iota
	ChargeInjection
	TrapPumping
)

func (t Type) String() string {
	switch t {
	case Standard:
		return "standard"
	case ChargeInjection:
		return "charge_injection"
	case TrapPumping:
		return "trap_pumping"
	default:
		return fmt.Sprintf("roe.Type(%d)", int(t))
	}
}

// ROE holds one clocking cycle's parameters.
type ROE struct {
	DwellTimes                  []float64 // one per CCD phase, all > 0
	PrescanOffset               int       // extra transfers before row 0, >= 0
	OverscanStart               int       // first overscan row, or -1 for none
	EmptyTrapsBetweenColumns    bool
	EmptyTrapsForFirstTransfers bool
	ForceReleaseAwayFromReadout bool
	UseIntegerExpressMatrix     bool
	Type                        Type
	NPumps                      int // only meaningful when Type == TrapPumping
}

// NewStandard builds a Standard-clocking ROE: each row undergoes r+1
// transfers plus PrescanOffset.
func NewStandard(dwellTimes []float64, prescanOffset, overscanStart int,
	emptyTrapsBetweenColumns, emptyTrapsForFirstTransfers, forceReleaseAwayFromReadout, useIntegerExpressMatrix bool,
) (ROE, error) {
	r := ROE{
		DwellTimes:                  append([]float64(nil), dwellTimes...),
		PrescanOffset:                prescanOffset,
		OverscanStart:                overscanStart,
		EmptyTrapsBetweenColumns:     emptyTrapsBetweenColumns,
		EmptyTrapsForFirstTransfers:  emptyTrapsForFirstTransfers,
		ForceReleaseAwayFromReadout:  forceReleaseAwayFromReadout,
		UseIntegerExpressMatrix:      useIntegerExpressMatrix,
		Type:                         Standard,
		NPumps:                       -1,
	}
	if err := r.validate(); err != nil {
		return ROE{}, err
	}
	return r, nil
}

// NewChargeInjection builds a ChargeInjection ROE: every row undergoes
// n_rows + PrescanOffset transfers, since charge is injected at the far end
// of the array rather than read out of the image itself.
// empty_traps_for_first_transfers is always false for this variant, matching
// the arctic source's ROEChargeInjection subclass.
func NewChargeInjection(dwellTimes []float64, prescanOffset, overscanStart int,
	emptyTrapsBetweenColumns, forceReleaseAwayFromReadout, useIntegerExpressMatrix bool,
) (ROE, error) {
	r := ROE{
		DwellTimes:                  append([]float64(nil), dwellTimes...),
		PrescanOffset:                prescanOffset,
		OverscanStart:                overscanStart,
		EmptyTrapsBetweenColumns:     emptyTrapsBetweenColumns,
		EmptyTrapsForFirstTransfers:  false,
		ForceReleaseAwayFromReadout:  forceReleaseAwayFromReadout,
		UseIntegerExpressMatrix:      useIntegerExpressMatrix,
		Type:                         ChargeInjection,
		NPumps:                       -1,
	}
	if err := r.validate(); err != nil {
		return ROE{}, err
	}
	return r, nil
}

// NewTrapPumping builds a TrapPumping ROE: charge shuffles forward then back
// n_pumps times per pixel, exercising traps with zero net displacement.
// empty_traps_between_columns is always true and
// force_release_away_from_readout always false, matching the arctic
// source's ROETrapPumping subclass.
func NewTrapPumping(dwellTimes []float64, prescanOffset, overscanStart, nPumps int,
	emptyTrapsForFirstTransfers, useIntegerExpressMatrix bool,
) (ROE, error) {
	r := ROE{
		DwellTimes:                  append([]float64(nil), dwellTimes...),
		PrescanOffset:                prescanOffset,
		OverscanStart:                overscanStart,
		EmptyTrapsBetweenColumns:     true,
		EmptyTrapsForFirstTransfers:  emptyTrapsForFirstTransfers,
		ForceReleaseAwayFromReadout:  false,
		UseIntegerExpressMatrix:      useIntegerExpressMatrix,
		Type:                         TrapPumping,
		NPumps:                       nPumps,
	}
	if err := r.validate(); err != nil {
		return ROE{}, err
	}
	return r, nil
}

func (r ROE) validate() error {
	if len(r.DwellTimes) == 0 {
		return fmt.Errorf("roe: at least one dwell_time is required")
	}
	for i, dt := range r.DwellTimes {
		if dt <= 0 {
			return fmt.Errorf("roe: dwell_times[%d] must be > 0, got %v", i, dt)
		}
	}
	if r.PrescanOffset < 0 {
		return fmt.Errorf("roe: prescan_offset must be >= 0, got %d", r.PrescanOffset)
	}
	if r.OverscanStart < -1 {
		return fmt.Errorf("roe: overscan_start must be >= -1, got %d", r.OverscanStart)
	}
	if r.Type == TrapPumping && r.NPumps <= 0 {
		return fmt.Errorf("roe: n_pumps must be > 0 for trap pumping, got %d", r.NPumps)
	}
	return nil
}

// NumPhases reports the phase count, which must equal the CCD's phase count.
func (r ROE) NumPhases() int {
	return len(r.DwellTimes)
}

// IsOverscanRow reports whether row (0-indexed, in image coordinates) falls
// in the overscan region, where clocking continues but no new charge enters.
func (r ROE) IsOverscanRow(row int) bool {
	return r.OverscanStart >= 0 && row >= r.OverscanStart
}
