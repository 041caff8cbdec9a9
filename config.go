// Package arctic is the public facade: the two operations add_cti and
// remove_cti described in §6, wired on top of the traps, ccd, roe, clock
// and correct packages.
package arctic

import (
	"github.com/arctic-cti/core/ccd"
	"github.com/arctic-cti/core/clock"
	"github.com/arctic-cti/core/roe"
	"github.com/arctic-cti/core/traps"
)

// DirectionParams groups one direction's (parallel or serial) model and
// clocking knobs, reused for both parameter blocks in §6's external
// interface.
type DirectionParams struct {
	Species []traps.Species
	CCD     ccd.CCD
	ROE     roe.ROE

	Express         int
	WindowStart     int
	WindowStop      int
	TimeStart       int
	TimeStop        int
	PruneNElectrons float64
	PruneFrequency  int64
}

func (p DirectionParams) toClockerOptions(allowNegativePixels bool, verbosity int) clock.Options {
	return clock.Options{
		Express:             p.Express,
		WindowStart:         p.WindowStart,
		WindowStop:          p.WindowStop,
		TimeStart:           p.TimeStart,
		TimeStop:            p.TimeStop,
		PruneNElectrons:     p.PruneNElectrons,
		PruneFrequency:      p.PruneFrequency,
		AllowNegativePixels: allowNegativePixels,
		Verbosity:           verbosity,
	}
}

func (p DirectionParams) newClocker(allowNegativePixels bool, verbosity int) (*clock.Clocker, error) {
	opts := p.toClockerOptions(allowNegativePixels, verbosity)
	c, err := clock.New(p.Species, p.CCD, p.ROE, opts)
	if err != nil {
		return nil, configErrorf("%v", err)
	}
	return c, nil
}

// checkWindow reports a DimensionError if this direction's window is
// incompatible with an image of the given row count (§7: "image dimensions
// incompatible with windows"), before any clocking runs.
func (p DirectionParams) checkWindow(rows int) error {
	if p.WindowStart < 0 {
		return dimensionErrorf("window_start %d is negative", p.WindowStart)
	}
	if p.WindowStart > rows {
		return dimensionErrorf("window_start %d exceeds image row count %d", p.WindowStart, rows)
	}
	if p.WindowStop > 0 {
		if p.WindowStop > rows {
			return dimensionErrorf("window_stop %d exceeds image row count %d", p.WindowStop, rows)
		}
		if p.WindowStart > p.WindowStop {
			return dimensionErrorf("window_start %d is after window_stop %d", p.WindowStart, p.WindowStop)
		}
	}
	return nil
}
