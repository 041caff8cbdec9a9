package clock

import (
	"math"
	"testing"

	"github.com/arctic-cti/core/ccd"
	"github.com/arctic-cti/core/pixel"
	"github.com/arctic-cti/core/roe"
	"github.com/arctic-cti/core/traps"
)

func brightSpotImage(rows int, brightRow int, electrons float64) *pixel.Image {
	img := pixel.New(rows, 1)
	img.Set(brightRow, 0, electrons)
	return img
}

func halfLifeSpecies(t *testing.T, density float64) traps.Species {
	t.Helper()
	tau := -1 / math.Log(0.5)
	s, err := traps.NewInstantCapture(density, tau, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func standardSetup(t *testing.T, species []traps.Species, opts Options) *Clocker {
	t.Helper()
	phase, err := ccd.SinglePhase(1000, 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	r, err := roe.NewStandard([]float64{1}, 0, -1, true, false, true, false)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New(species, phase, r, opts)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func trappedElectronsTotal(c *Clocker, volume float64) float64 {
	// The clocker resets occupancy per column when EmptyTrapsBetweenColumns
	// is true, so a single-column test can't read the store back out of
	// Clock's return value; this helper mirrors the same Store construction
	// used internally for assertions that need an independent readout.
	st := traps.NewStore(c.Species)
	return st.TotalTrappedElectrons(volume)
}

func TestClock_ZeroDensityIsIdentity(t *testing.T) {
	zero, err := traps.NewInstantCapture(0, 1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	c := standardSetup(t, []traps.Species{zero}, DefaultOptions())
	img := brightSpotImage(20, 2, 800)

	out, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	for r := 0; r < img.Rows(); r++ {
		if got, want := out.At(r, 0), img.At(r, 0); got != want {
			t.Errorf("row %d: got %v, want %v (zero density must be a no-op)", r, got, want)
		}
	}
}

func TestClock_ConservesTotalElectronsWithinWindow(t *testing.T) {
	sp := halfLifeSpecies(t, 10)
	c := standardSetup(t, []traps.Species{sp}, DefaultOptions())
	img := brightSpotImage(20, 2, 800)

	before := img.Sum()
	out, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	after := out.Sum()
	// Any electrons still bound in traps at the end of the column are
	// missing from the pixel sum; with only one bright row near the start
	// of the column the amount left in traps by the last row is small but
	// non-zero, so conservation is checked loosely here (the corrector's
	// round-trip test is the tighter conservation check, S5).
	if after > before+1e-6 {
		t.Errorf("sum grew from %v to %v: clocking must never create electrons", before, after)
	}
	if before-after > before*0.05 {
		t.Errorf("lost more than 5%% of electrons to traps: before %v after %v", before, after)
	}
}

func TestClock_MonitoredStepsNeverCaptureFromAnEmptyPixel(t *testing.T) {
	// Guards against capture without a matching image change: a monitored,
	// zero-multiplier express step must never run Capture, which would fill
	// the trap store from electrons nobody ever took from a pixel. With
	// Express 0 (DefaultOptions) the express matrix marks no step as
	// monitored, so this run exercises only ordinary steps and checks the
	// resulting pixel sum and the rows ahead of the bright pixel.
	sp := halfLifeSpecies(t, 10)
	c := standardSetup(t, []traps.Species{sp}, DefaultOptions())
	img := brightSpotImage(20, 2, 800)

	before := img.Sum()
	out, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	after := out.Sum()
	if after > before+1e-9 {
		t.Errorf("sum grew from %v to %v: a monitored step captured electrons that were never removed from any pixel", before, after)
	}
	// Rows ahead of the bright pixel (nearer the readout; releases go to
	// row r+1 under force_release_away_from_readout) must not receive any
	// charge, so they must stay exactly at their input value.
	for row := 0; row < 2; row++ {
		if out.At(row, 0) != img.At(row, 0) {
			t.Errorf("row %d ahead of the bright pixel changed from %v to %v", row, img.At(row, 0), out.At(row, 0))
		}
	}
}

func TestClock_TrailIsMonotonicDecreasingAwayFromBrightPixel(t *testing.T) {
	sp := halfLifeSpecies(t, 10)
	c := standardSetup(t, []traps.Species{sp}, DefaultOptions())
	img := brightSpotImage(20, 2, 800)

	out, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	prev := out.At(3, 0)
	if prev <= 0 {
		t.Fatalf("expected a non-zero trail at row 3, got %v", prev)
	}
	for r := 4; r < 10; r++ {
		v := out.At(r, 0)
		if v > prev {
			t.Errorf("trail row %d (%v) exceeds row %d (%v): expected a decaying tail", r, v, r-1, prev)
		}
		prev = v
	}
}

func TestClock_RaisingDensityNeverShrinksTheTrailEffect(t *testing.T) {
	img := brightSpotImage(20, 2, 800)

	low := standardSetup(t, []traps.Species{halfLifeSpecies(t, 1)}, DefaultOptions())
	high := standardSetup(t, []traps.Species{halfLifeSpecies(t, 20)}, DefaultOptions())

	outLow, err := low.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	outHigh, err := high.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	diffLow := img.MaxAbsDiff(outLow)
	diffHigh := img.MaxAbsDiff(outHigh)
	if diffHigh < diffLow {
		t.Errorf("higher trap density produced a smaller max deviation (%v) than lower density (%v)", diffHigh, diffLow)
	}
}

func TestClock_ChargeInjectionGivesEveryRowTheSameTrail(t *testing.T) {
	sp := halfLifeSpecies(t, 10)
	phase, err := ccd.SinglePhase(1000, 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	r, err := roe.NewChargeInjection([]float64{1}, 0, -1, true, true, false)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New([]traps.Species{sp}, phase, r, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}

	img := pixel.New(10, 2)
	for row := 0; row < 10; row++ {
		img.Set(row, 0, 500)
		img.Set(row, 1, 500)
	}
	out, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	base := out.At(0, 0)
	for row := 1; row < 10; row++ {
		if math.Abs(out.At(row, 0)-base) > 1e-6 {
			t.Errorf("charge injection row %d trail %v differs from row 0 trail %v", row, out.At(row, 0), base)
		}
	}
}

func TestClock_OverscanRowsOnlyReceiveReleasedCharge(t *testing.T) {
	sp := halfLifeSpecies(t, 10)
	phase, err := ccd.SinglePhase(1000, 0, 1, 0)
	if err != nil {
		t.Fatal(err)
	}
	// Rows 0-4 are photosensitive; rows 5-19 are overscan.
	r, err := roe.NewStandard([]float64{1}, 0, 5, true, false, true, false)
	if err != nil {
		t.Fatal(err)
	}
	c, err := New([]traps.Species{sp}, phase, r, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	img := pixel.New(20, 1)
	for row := 0; row < 5; row++ {
		img.Set(row, 0, 800)
	}

	before := img.Sum()
	out, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	after := out.Sum()
	if after > before+1e-9 {
		t.Errorf("sum grew from %v to %v across overscan rows", before, after)
	}
}

func TestClock_RejectsMismatchedPhaseCounts(t *testing.T) {
	sp := halfLifeSpecies(t, 10)
	phase, _ := ccd.SinglePhase(1000, 0, 1, 0)
	r, _ := roe.NewStandard([]float64{1, 1}, 0, -1, true, false, true, false)
	if _, err := New([]traps.Species{sp}, phase, r, DefaultOptions()); err == nil {
		t.Error("expected error for CCD/ROE phase count mismatch")
	}
}

func TestClock_WindowLeavesRowsOutsideItUnchanged(t *testing.T) {
	sp := halfLifeSpecies(t, 10)
	opts := DefaultOptions()
	opts.WindowStart = 0
	opts.WindowStop = 3
	c := standardSetup(t, []traps.Species{sp}, opts)
	img := brightSpotImage(20, 2, 800)

	out, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	for row := 3; row < 20; row++ {
		if out.At(row, 0) != img.At(row, 0) {
			t.Errorf("row %d outside window changed: got %v, want input %v", row, out.At(row, 0), img.At(row, 0))
		}
	}
}

func TestClock_TimeWindowLeavesLaterStepsUnchanged(t *testing.T) {
	sp := halfLifeSpecies(t, 10)
	opts := DefaultOptions()
	opts.Express = 0
	opts.TimeStart = 0
	opts.TimeStop = 1
	c := standardSetup(t, []traps.Species{sp}, opts)
	img := brightSpotImage(20, 2, 800)

	full := DefaultOptions()
	full.Express = 0
	cFull := standardSetup(t, []traps.Species{sp}, full)

	outWindowed, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	outFull, err := cFull.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	if outWindowed.MaxAbsDiff(img) >= outFull.MaxAbsDiff(img) {
		t.Errorf("restricting to one transfer-time step should trail less than the full run: windowed diff %v, full diff %v",
			outWindowed.MaxAbsDiff(img), outFull.MaxAbsDiff(img))
	}
}

func TestClock_RejectsInvertedTimeWindow(t *testing.T) {
	sp := halfLifeSpecies(t, 10)
	opts := DefaultOptions()
	opts.TimeStart = 5
	opts.TimeStop = 2
	c := standardSetup(t, []traps.Species{sp}, opts)
	img := brightSpotImage(20, 2, 800)

	if _, err := c.Clock(img); err == nil {
		t.Error("expected error for time_start after time_stop")
	}
}

func TestClock_AllowNegativePixelsFalseClipsOutput(t *testing.T) {
	sp, err := traps.NewInstantCapture(1e6, 1e9, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	opts := DefaultOptions()
	opts.AllowNegativePixels = false
	c := standardSetup(t, []traps.Species{sp}, opts)
	img := brightSpotImage(5, 0, 10)

	out, err := c.Clock(img)
	if err != nil {
		t.Fatal(err)
	}
	for row := 0; row < 5; row++ {
		if out.At(row, 0) < 0 {
			t.Errorf("row %d = %v, want >= 0 with AllowNegativePixels=false", row, out.At(row, 0))
		}
	}
}
