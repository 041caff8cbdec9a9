// Package correct implements the §4.5 fixed-point CTI corrector: given an
// observed (trailed) image and a forward model, it estimates the image that
// would have produced the observation.
package correct

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/arctic-cti/core/pixel"
)

// Forward applies one direction's forward trailing model (add_cti for a
// single direction) to an image. clock.Clocker.Clock satisfies this.
type Forward func(img *pixel.Image) (*pixel.Image, error)

// Corrector runs the fixed-point iteration of §4.5 against one or two
// forward models (parallel, serial, or both).
type Corrector struct {
	Parallel Forward
	Serial   Forward

	NIterations         int
	AllowNegativePixels bool
	Verbosity           int
}

// Residual records one iteration's correction magnitude, mirroring the
// teacher's per-tick Metrics accumulation (sim/metrics.go): a plain slice of
// per-iteration values a caller can inspect after RemoveCTI returns.
type Residual struct {
	Iteration   int
	MaxAbsDelta float64
}

// RemoveCTI runs the §4.5 algorithm: estimate starts at observed, and each
// iteration nudges it by the gap between observed and the estimate's forward
// trail. Returns the corrected image and the per-iteration residual trace.
func (c Corrector) RemoveCTI(observed *pixel.Image) (*pixel.Image, []Residual, error) {
	if c.Parallel == nil && c.Serial == nil {
		return nil, nil, fmt.Errorf("correct: at least one of Parallel or Serial must be set")
	}
	if c.NIterations <= 0 {
		return nil, nil, fmt.Errorf("correct: n_iterations must be > 0, got %d", c.NIterations)
	}

	estimate := observed.Clone()
	residuals := make([]Residual, 0, c.NIterations)

	for i := 1; i <= c.NIterations; i++ {
		trailed, err := c.forwardBoth(estimate)
		if err != nil {
			return nil, nil, fmt.Errorf("correct: forward model at iteration %d: %w", i, err)
		}

		delta := observed.Sub(trailed)
		next := estimate.AddImage(delta)
		if !c.AllowNegativePixels && i == 1 {
			next.ClipNegative()
		}

		res := Residual{Iteration: i, MaxAbsDelta: estimate.MaxAbsDiff(next)}
		residuals = append(residuals, res)
		if c.Verbosity >= 1 {
			logrus.Infof("correct: iteration %d max|Δ|=%v", i, res.MaxAbsDelta)
		}

		estimate = next
	}
	return estimate, residuals, nil
}

// forwardBoth applies parallel then serial forward trailing, in image
// coordinates, matching §4.5's "each iteration applies forward parallel then
// forward serial; the delta is applied in image coordinates once".
func (c Corrector) forwardBoth(img *pixel.Image) (*pixel.Image, error) {
	out := img
	var err error
	if c.Parallel != nil {
		out, err = c.Parallel(out)
		if err != nil {
			return nil, fmt.Errorf("parallel direction: %w", err)
		}
	}
	if c.Serial != nil {
		transposed := out.Transpose()
		trailed, err := c.Serial(transposed)
		if err != nil {
			return nil, fmt.Errorf("serial direction: %w", err)
		}
		out = trailed.Transpose()
	}
	return out, nil
}
