package traps

import (
	"fmt"
	"sort"
)

// Watermark is one occupancy record: a contiguous volume range
// [previous cumulative volume, Volume] over which every species in the
// owning Store has a uniform fill fraction.
type Watermark struct {
	// Volume is the cumulative, strictly-ascending upper bound of this
	// watermark's volume range, in [0,1].
	Volume float64
	// Fill holds, per species index (matching Store.species), the
	// fraction of that species' traps filled across this volume range.
	Fill []float64
}

// Store tracks watermark occupancy for one pixel-phase across a fixed,
// ordered list of trap species. A Store owns its species' effective
// densities (already scaled by fraction_of_traps_per_phase, §4.2); the
// clocker constructs one Store per CCD phase per Clock call and empties it
// between columns only when the ROE asks for that.
type Store struct {
	species []Species
	marks   []Watermark

	transferCount int64
}

// NewStore builds a Store for the given species list, starting empty
// (invariant iv: the single watermark (0,0)).
func NewStore(species []Species) *Store {
	st := &Store{species: species}
	st.Empty()
	return st
}

// Species returns the species list this store tracks, in index order.
func (st *Store) Species() []Species { return st.species }

// Empty resets occupancy to the single watermark (0,0), per §4.1.
func (st *Store) Empty() {
	st.marks = []Watermark{{Volume: 0, Fill: make([]float64, len(st.species))}}
}

// NTrappedElectrons returns the number of electrons bound in species index
// idx at cloud volume V, per invariant (iii).
func (st *Store) NTrappedElectrons(volume float64, idx int) float64 {
	density := st.species[idx].Density
	if density == 0 {
		return 0
	}
	var total float64
	prev := 0.0
	for _, m := range st.marks {
		if m.Volume <= volume {
			total += (m.Volume - prev) * density * m.Fill[idx]
		} else {
			if volume > prev {
				total += (volume - prev) * density * m.Fill[idx]
			}
			break
		}
		prev = m.Volume
	}
	return total
}

// TotalTrappedElectrons sums NTrappedElectrons across every species.
func (st *Store) TotalTrappedElectrons(volume float64) float64 {
	var total float64
	for idx := range st.species {
		total += st.NTrappedElectrons(volume, idx)
	}
	return total
}

// watermarkIndexAt returns the index of the watermark whose Volume exactly
// equals v, splitting an existing watermark (or appending a new one) if
// necessary so that such a boundary exists. The returned index is the last
// watermark with Volume <= v (equivalently, Volume == v after the split).
func (st *Store) watermarkIndexAt(v float64) int {
	if v <= 0 {
		return 0
	}
	n := len(st.marks)
	idx := sort.Search(n, func(i int) bool { return st.marks[i].Volume >= v })

	if idx < n && st.marks[idx].Volume == v {
		return idx
	}
	if idx == n {
		// v is above every existing watermark: extend with a fresh band
		// that starts from zero fill unless instant-capture species are
		// about to fill it in the same capture call (handled by caller).
		fill := make([]float64, len(st.species))
		st.marks = append(st.marks, Watermark{Volume: v, Fill: fill})
		return len(st.marks) - 1
	}
	// v falls strictly inside watermark idx: split it. The lower half
	// (the new entry, at volume v) and the upper half (the original
	// watermark, volume unchanged) both start with the pre-split fill;
	// the caller raises the lower bins' fills afterward.
	fillCopy := make([]float64, len(st.marks[idx].Fill))
	copy(fillCopy, st.marks[idx].Fill)
	st.marks = append(st.marks, Watermark{})
	copy(st.marks[idx+1:], st.marks[idx:])
	st.marks[idx] = Watermark{Volume: v, Fill: fillCopy}
	return idx
}

// Capture exposes every trap below cloud volume V to a filling cloud for
// duration dt and returns the total number of electrons captured across
// every species (§4.1). Capture never reduces a fill.
func (st *Store) Capture(volumeCloud, dt float64, speciesIdx []int) float64 {
	if volumeCloud <= 0 || dt <= 0 {
		return 0
	}
	upTo := st.watermarkIndexAt(volumeCloud)

	var captured float64
	prev := 0.0
	for j := 0; j <= upTo; j++ {
		width := st.marks[j].Volume - prev
		prev = st.marks[j].Volume
		if width <= 0 {
			continue
		}
		for _, idx := range speciesIdx {
			s := st.species[idx]
			if s.Density == 0 {
				continue
			}
			if s.InScreenedWindow(st.marks[j].Volume) {
				continue
			}
			before := st.marks[j].Fill[idx]
			delta := s.captureFillDelta(dt, before)
			if delta <= 0 {
				continue
			}
			st.marks[j].Fill[idx] = before + delta
			captured += width * s.Density * delta
		}
	}
	st.mergeAdjacent()
	return captured
}

// Release evolves every watermark's fill toward 0 over duration dt and
// returns the total number of electrons liberated across every species
// (§4.1).
func (st *Store) Release(dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	var released float64
	prev := 0.0
	for j := range st.marks {
		width := st.marks[j].Volume - prev
		prev = st.marks[j].Volume
		if width <= 0 {
			continue
		}
		for idx, s := range st.species {
			if s.Density == 0 || st.marks[j].Fill[idx] == 0 {
				continue
			}
			before := st.marks[j].Fill[idx]
			factor := s.releaseFactor(dt)
			after := before * factor
			released += width * s.Density * (before - after)
			st.marks[j].Fill[idx] = after
		}
	}
	st.mergeAdjacent()
	return released
}

// CaptureRelease is a combined per-dwell step (the clocker calls Release and
// Capture separately instead, to scale each by the express multiplier): traps
// release first (modelling charge already present decaying over the
// dwell), then the (possibly taller) cloud captures from the post-release
// state. It returns the net electrons added to the pixel: release minus
// capture.
func (st *Store) CaptureRelease(volumeCloud, dt float64, speciesIdx []int) float64 {
	released := st.Release(dt)
	captured := st.Capture(volumeCloud, dt, speciesIdx)
	st.transferCount++
	return released - captured
}

// mergeAdjacent collapses neighbouring watermarks whose fill is identical
// for every species, keeping the watermark list as short as the current
// occupancy state allows.
func (st *Store) mergeAdjacent() {
	out := st.marks[:1]
	for _, m := range st.marks[1:] {
		last := &out[len(out)-1]
		if sameFill(last.Fill, m.Fill) {
			last.Volume = m.Volume
			continue
		}
		out = append(out, m)
	}
	st.marks = out
	st.checkInvariant()
}

// checkInvariant panics if the watermark list's defining invariant —
// strictly ascending cumulative volume, never exceeding 1 — is broken.
// A violation here is a bug in watermarkIndexAt or mergeAdjacent itself,
// never something a caller's input can trigger, so it panics rather than
// returning an InternalConsistencyError a caller could catch and ignore.
func (st *Store) checkInvariant() {
	prev := 0.0
	for i, m := range st.marks {
		if m.Volume < 0 || m.Volume > 1 || (i > 0 && m.Volume <= prev) {
			panic(fmt.Sprintf("traps: watermark volumes out of order or out of range: %v after %v", m.Volume, prev))
		}
		prev = m.Volume
	}
}

func sameFill(a, b []float64) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Prune folds every watermark after the first whose total bound electrons,
// summed across every species, fall below thresholdElectrons into the
// watermark before it (which then spans both volume ranges with its own
// fill); it is not limited to the trailing watermarks. This bounds the
// watermark count for long columns; it is a performance control, not a
// correctness requirement (§4.1, open question ii: results are not
// bit-identical to prune_frequency=0 runs once pruning fires).
func (st *Store) Prune(thresholdElectrons float64) {
	if len(st.marks) <= 1 {
		return
	}
	kept := make([]Watermark, 0, len(st.marks))
	kept = append(kept, st.marks[0])
	prev := st.marks[0].Volume
	for _, m := range st.marks[1:] {
		width := m.Volume - prev
		prev = m.Volume
		var electrons float64
		for idx, s := range st.species {
			electrons += width * s.Density * m.Fill[idx]
		}
		if electrons < thresholdElectrons {
			// Fold this negligible band into the previous kept watermark
			// rather than dropping it outright, so cumulative volume stays
			// continuous and no width goes unaccounted.
			kept[len(kept)-1].Volume = m.Volume
			continue
		}
		kept = append(kept, m)
	}
	st.marks = kept
}

// TransferCount reports how many CaptureRelease calls this store has
// processed. Separate Release and Capture calls are not counted; the
// clocker keeps its own transfer count to decide when to call Prune.
func (st *Store) TransferCount() int64 { return st.transferCount }

// Watermarks returns a read-only view of the current watermark list, for
// inspection and the P4 ordering invariant in tests.
func (st *Store) Watermarks() []Watermark { return st.marks }
