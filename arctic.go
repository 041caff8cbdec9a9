package arctic

import (
	"github.com/arctic-cti/core/correct"
	"github.com/arctic-cti/core/pixel"
)

// AddCTI forward-trails image through the requested directions and returns
// the trailed image; image is never mutated (§6). At least one of parallel
// or serial must be non-nil.
func AddCTI(image *pixel.Image, parallel, serial *DirectionParams, allowNegativePixels bool, verbosity int) (*pixel.Image, error) {
	if parallel == nil && serial == nil {
		return nil, configErrorf("at least one of parallel or serial parameters must be present")
	}
	if err := checkDirectionWindows(image, parallel, serial); err != nil {
		return nil, err
	}

	out := image
	if parallel != nil {
		c, err := parallel.newClocker(allowNegativePixels, verbosity)
		if err != nil {
			return nil, err
		}
		out, err = c.Clock(out)
		if err != nil {
			return nil, err
		}
		if out.Rows() != image.Rows() || out.Cols() != image.Cols() {
			return nil, internalErrorf("parallel clocking changed image shape from %dx%d to %dx%d",
				image.Rows(), image.Cols(), out.Rows(), out.Cols())
		}
	}
	if serial != nil {
		c, err := serial.newClocker(allowNegativePixels, verbosity)
		if err != nil {
			return nil, err
		}
		transposed := out.Transpose()
		trailed, err := c.Clock(transposed)
		if err != nil {
			return nil, err
		}
		if trailed.Rows() != transposed.Rows() || trailed.Cols() != transposed.Cols() {
			return nil, internalErrorf("serial clocking changed image shape from %dx%d to %dx%d",
				transposed.Rows(), transposed.Cols(), trailed.Rows(), trailed.Cols())
		}
		out = trailed.Transpose()
	}
	return out, nil
}

// RemoveCTI estimates the pre-CTI image whose forward trail matches
// observed, via §4.5's fixed-point iteration over the same direction
// parameters AddCTI accepts.
func RemoveCTI(observed *pixel.Image, nIterations int, parallel, serial *DirectionParams, allowNegativePixels bool, verbosity int) (*pixel.Image, []correct.Residual, error) {
	if parallel == nil && serial == nil {
		return nil, nil, configErrorf("at least one of parallel or serial parameters must be present")
	}

	if nIterations <= 0 {
		return nil, nil, configErrorf("n_iterations must be > 0, got %d", nIterations)
	}
	if err := checkDirectionWindows(observed, parallel, serial); err != nil {
		return nil, nil, err
	}

	c := correct.Corrector{
		NIterations:         nIterations,
		AllowNegativePixels: allowNegativePixels,
		Verbosity:           verbosity,
	}
	if parallel != nil {
		clocker, err := parallel.newClocker(allowNegativePixels, verbosity)
		if err != nil {
			return nil, nil, err
		}
		c.Parallel = clocker.Clock
	}
	if serial != nil {
		clocker, err := serial.newClocker(allowNegativePixels, verbosity)
		if err != nil {
			return nil, nil, err
		}
		c.Serial = clocker.Clock
	}

	estimate, residuals, err := c.RemoveCTI(observed)
	if err != nil {
		return nil, nil, err
	}
	return estimate, residuals, nil
}

// checkDirectionWindows validates parallel's window against image's row
// count and serial's window against image's column count (serial clocks
// the transpose, §3), surfacing a DimensionError before any clocking runs.
func checkDirectionWindows(image *pixel.Image, parallel, serial *DirectionParams) error {
	if parallel != nil {
		if err := parallel.checkWindow(image.Rows()); err != nil {
			return err
		}
	}
	if serial != nil {
		if err := serial.checkWindow(image.Cols()); err != nil {
			return err
		}
	}
	return nil
}
