// Package clock implements the forward-trailing clocker: §4.4's nested loop
// over columns, express steps, rows, and CCD phases that turns a trap
// population and a clocking sequence into a trailed image.
package clock

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arctic-cti/core/ccd"
	"github.com/arctic-cti/core/pixel"
	"github.com/arctic-cti/core/roe"
	"github.com/arctic-cti/core/traps"
)

// Clocker binds a trap population to one CCD/ROE pair and clocks images
// through it. A Clocker has no mutable state of its own between calls: each
// Clock call builds its own occupancy stores and express matrix, per §5's
// "no shared mutable state between calls" rule.
type Clocker struct {
	Species []traps.Species
	CCD     ccd.CCD
	ROE     roe.ROE
	Opts    Options
}

// New validates that ccdObj and roeObj agree on phase count before
// returning a usable Clocker.
func New(species []traps.Species, ccdObj ccd.CCD, roeObj roe.ROE, opts Options) (*Clocker, error) {
	if ccdObj.NumPhases() != roeObj.NumPhases() {
		return nil, fmt.Errorf("clock: ccd has %d phases, roe has %d dwell_times", ccdObj.NumPhases(), roeObj.NumPhases())
	}
	return &Clocker{Species: species, CCD: ccdObj, ROE: roeObj, Opts: opts}, nil
}

// Clock runs forward trailing over img's rows (the "parallel" direction;
// callers wanting serial trailing pass img.Transpose() and transpose the
// result back). It returns a new image; img is never mutated.
func (c *Clocker) Clock(img *pixel.Image) (*pixel.Image, error) {
	nRows, nCols := img.Rows(), img.Cols()
	start, stop := c.Opts.resolveWindow(nRows)
	if start > stop {
		return nil, fmt.Errorf("clock: window_start %d is after window_stop %d", start, stop)
	}

	expr, err := roe.NewExpressMatrix(c.ROE, nRows, c.Opts.Express)
	if err != nil {
		return nil, fmt.Errorf("clock: building express matrix: %w", err)
	}
	timeStart, timeStop := c.Opts.resolveTimeWindow(expr.NSteps())
	if timeStart > timeStop {
		return nil, fmt.Errorf("clock: time_start %d is after time_stop %d", timeStart, timeStop)
	}

	nPhases := c.CCD.NumPhases()
	scaledPerPhase := make([][]traps.Species, nPhases)
	for p := 0; p < nPhases; p++ {
		scaled := make([]traps.Species, len(c.Species))
		for i, sp := range c.Species {
			sp.Density = c.CCD.EffectiveDensity(p, sp.Density)
			scaled[i] = sp
		}
		scaledPerPhase[p] = scaled
	}
	speciesIdx := make([]int, len(c.Species))
	for i := range speciesIdx {
		speciesIdx[i] = i
	}

	if c.Opts.Verbosity >= 1 {
		logrus.Infof("clock: trailing %d rows x %d cols, window [%d,%d), time [%d,%d) of %d express steps, %d phases",
			nRows, nCols, start, stop, timeStart, timeStop, expr.NSteps(), nPhases)
	}

	out := img.Clone()
	occupancy := make([]*traps.Store, nPhases)
	for p := range occupancy {
		occupancy[p] = traps.NewStore(scaledPerPhase[p])
	}
	var transferCount int64

	for col := 0; col < nCols; col++ {
		if c.ROE.EmptyTrapsBetweenColumns {
			for p := range occupancy {
				occupancy[p].Empty()
			}
			transferCount = 0
		}
		for e := 0; e < expr.NSteps(); e++ {
			if e == 0 && c.ROE.EmptyTrapsForFirstTransfers {
				for p := range occupancy {
					occupancy[p].Empty()
				}
				transferCount = 0
			}
			if e < timeStart || e >= timeStop {
				// Outside the transfer-time window: purely a speed cut, so the
				// step (and any pixels it would have touched) is left as-is.
				continue
			}
			for r := start; r < stop; r++ {
				mult := expr.Multiplier(e, r)
				monitored := expr.IsMonitored(e, r)
				if mult == 0 && !monitored {
					continue
				}
				// Overscan rows (§4.4) have drained past the photosensitive
				// array: clocking still moves released charge through them, but
				// they never hold signal of their own to capture into a trap, so
				// capture is suppressed there regardless of mult.
				isOverscan := c.ROE.IsOverscanRow(r)

				for p := 0; p < nPhases; p++ {
					dt := c.ROE.DwellTimes[p]

					released := occupancy[p].Release(dt)
					if mult == 0 {
						// Monitored-only step: no transfer is applied this express
						// step, so no cloud ever forms here to capture from.
						// Evolving Release alone keeps releases between rare
						// express-step updates from being forgotten (§4.3)
						// without fabricating a capture the pixel never paid for.
						continue
					}

					if !isOverscan {
						charge := out.At(r, col)
						vcloud := c.CCD.Phases[p].FractionalVolume(charge)
						captured := occupancy[p].Capture(vcloud, dt, speciesIdx)

						appliedCapture := captured * mult
						current := out.At(r, col)
						if appliedCapture > current {
							// A pixel cannot go negative from capture: the trap
							// store may have claimed more than the pixel holds,
							// but only what the pixel actually has is removed.
							appliedCapture = current
						}
						if appliedCapture > 0 {
							out.Add(r, col, -appliedCapture)
						}
					}

					appliedRelease := released * mult
					if appliedRelease != 0 {
						releaseRow := r
						if c.ROE.ForceReleaseAwayFromReadout {
							releaseRow = r + 1
						}
						if releaseRow < stop {
							out.Add(releaseRow, col, appliedRelease)
						}
						// releaseRow == stop: the target is past the window's
						// last row (or has no physical pixel when stop ==
						// nRows); conceptually discarded, per §4.4's edge-case
						// policy, so rows outside the window keep their input.
					}
				}
				transferCount++
				if c.Opts.PruneFrequency > 0 && transferCount%c.Opts.PruneFrequency == 0 {
					for p := range occupancy {
						occupancy[p].Prune(c.Opts.PruneNElectrons)
					}
				}
			}
		}
	}

	if !c.Opts.AllowNegativePixels {
		out.ClipNegative()
	}
	return out, nil
}
