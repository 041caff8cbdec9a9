package clock

// Options are the per-direction knobs accepted alongside a ROE/CCD/species
// triple (§6's parallel_/serial_ parameter groups, collapsed to one struct
// reused for both directions).
type Options struct {
	// Express is the number of express steps; 0 means no compression (one
	// step per physical transfer).
	Express int

	// WindowStart/WindowStop restrict the row range actually clocked, for
	// speed; rows outside [WindowStart, WindowStop) are left at their input
	// values. WindowStop <= 0 means "through the last row".
	WindowStart int
	WindowStop  int

	// TimeStart/TimeStop restrict the express-step range actually clocked,
	// for speed; steps outside [TimeStart, TimeStop) are skipped entirely
	// (as if their multiplier were zero), leaving whatever charge they would
	// have moved at its input value. TimeStop <= 0 means "through the last
	// step".
	TimeStart int
	TimeStop  int

	// PruneNElectrons and PruneFrequency bound the watermark store's size;
	// PruneFrequency <= 0 disables pruning entirely.
	PruneNElectrons float64
	PruneFrequency  int64

	// AllowNegativePixels, when false, clips the output image at 0 once all
	// clocking is complete. Defaults to true (DefaultOptions) so forward
	// trailing stays linear for the corrector's fixed-point iteration.
	AllowNegativePixels bool

	// Verbosity follows §6's 0/1/2 convention: 0 silent, 1 standard, 2 extra.
	Verbosity int
}

// DefaultOptions returns the zero-configuration options: full express, full
// window, no pruning, AllowNegativePixels true, silent.
func DefaultOptions() Options {
	return Options{
		WindowStop:          -1,
		TimeStop:            -1,
		AllowNegativePixels: true,
	}
}

func (o Options) resolveWindow(nRows int) (start, stop int) {
	start = o.WindowStart
	if start < 0 {
		start = 0
	}
	stop = o.WindowStop
	if stop <= 0 || stop > nRows {
		stop = nRows
	}
	return start, stop
}

func (o Options) resolveTimeWindow(nSteps int) (start, stop int) {
	start = o.TimeStart
	if start < 0 {
		start = 0
	}
	stop = o.TimeStop
	if stop <= 0 || stop > nSteps {
		stop = nSteps
	}
	return start, stop
}
