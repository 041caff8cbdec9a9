package roe

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// ExpressMatrix is the express-compressed transfer schedule for a column:
// Multipliers[e][row] physical transfers row undergoes during express step
// e, and Monitor[e][row] non-zero where the occupancy store must still
// evolve at that step even though no transfer is applied (see §4.3's
// monitor-matrix rule). Both are gonum dense matrices (§4.7 of the expanded
// spec), built and read through At/Set; the integer-rounding pass works on
// them with plain loops.
type ExpressMatrix struct {
	Multipliers *mat.Dense
	Monitor     *mat.Dense
	nSteps      int
	nRows       int
}

// NSteps reports the number of express steps (matrix rows).
func (m ExpressMatrix) NSteps() int { return m.nSteps }

// NRows reports the number of image rows (matrix columns).
func (m ExpressMatrix) NRows() int { return m.nRows }

// Multiplier returns the physical-transfer count row undergoes at express
// step e.
func (m ExpressMatrix) Multiplier(e, row int) float64 {
	return m.Multipliers.At(e, row)
}

// IsMonitored reports whether the occupancy store must still be advanced at
// step e for row even when Multiplier(e, row) is zero.
func (m ExpressMatrix) IsMonitored(e, row int) bool {
	return m.Monitor.At(e, row) != 0
}

// NewExpressMatrix builds the express matrix for nRows image rows clocked
// under roe, compressing into `express` effective steps. express <= 0 or
// express >= the largest physical transfer count means "no compression":
// one step per physical transfer (§4.3).
//
// Construction: every row's physical transfers are aligned so they finish
// together at the readout (row r's n_r transfers occupy the final n_r
// "depth" units of the shared [0, maxTransfers) axis). Express steps bin
// that axis into equal-width windows; a row's multiplier at a step is the
// length of its active interval that overlaps the window. This keeps the
// per-row column sum exactly equal to the row's physical transfer count
// while making early steps cover only rows far from the readout (the ones
// whose active interval starts earliest) and late steps cover rows close to
// the readout, matching §4.3's ordering requirement.
func NewExpressMatrix(roeParams ROE, nRows, express int) (ExpressMatrix, error) {
	if nRows <= 0 {
		return ExpressMatrix{}, fmt.Errorf("roe: nRows must be > 0, got %d", nRows)
	}
	transfers := roeParams.TransferCounts(nRows)
	maxTransfers := 0
	for _, n := range transfers {
		if n > maxTransfers {
			maxTransfers = n
		}
	}
	if maxTransfers == 0 {
		return ExpressMatrix{}, fmt.Errorf("roe: all rows have zero transfers")
	}

	nSteps := express
	if nSteps <= 0 || nSteps > maxTransfers {
		nSteps = maxTransfers
	}

	mult := mat.NewDense(nSteps, nRows, nil)
	binWidth := float64(maxTransfers) / float64(nSteps)
	for row, n := range transfers {
		activeStart := float64(maxTransfers - n)
		for e := 0; e < nSteps; e++ {
			lo := float64(e) * binWidth
			hi := float64(e+1) * binWidth
			overlap := minF(hi, float64(maxTransfers)) - maxF(lo, activeStart)
			if overlap < 0 {
				overlap = 0
			}
			if overlap > 0 {
				mult.Set(e, row, overlap)
			}
		}
	}

	if roeParams.UseIntegerExpressMatrix {
		integerizeColumns(mult, transfers)
	}

	monitor := mat.NewDense(nSteps, nRows, nil)
	if !roeParams.EmptyTrapsForFirstTransfers {
		for row := range transfers {
			// Only zero-multiplier steps at or after the row's first
			// active step count as gaps "between rare express-step
			// updates" (§4.3): steps before the row has started clocking
			// are not yet monitored, and at full expansion (no
			// compression) a row's active span never has an interior
			// zero, so no steps are marked there at all.
			firstActive := -1
			for e := 0; e < nSteps; e++ {
				if mult.At(e, row) != 0 {
					firstActive = e
					break
				}
			}
			if firstActive < 0 {
				continue
			}
			for e := firstActive; e < nSteps; e++ {
				if mult.At(e, row) == 0 {
					monitor.Set(e, row, 1)
				}
			}
		}
	}

	return ExpressMatrix{Multipliers: mult, Monitor: monitor, nSteps: nSteps, nRows: nRows}, nil
}

// integerizeColumns rounds each column of mult to integers via the
// largest-remainder method, preserving the exact physical transfer count as
// the column's integer sum.
func integerizeColumns(mult *mat.Dense, transfers []int) {
	nSteps, nRows := mult.Dims()
	for row := 0; row < nRows; row++ {
		target := transfers[row]
		type cell struct {
			step int
			frac float64
		}
		cells := make([]cell, nSteps)
		floorSum := 0
		for e := 0; e < nSteps; e++ {
			v := mult.At(e, row)
			fl := float64(int(v))
			cells[e] = cell{step: e, frac: v - fl}
			mult.Set(e, row, fl)
			floorSum += int(fl)
		}
		remainder := target - floorSum
		sort.Slice(cells, func(i, j int) bool { return cells[i].frac > cells[j].frac })
		for i := 0; i < remainder && i < len(cells); i++ {
			e := cells[i].step
			mult.Set(e, row, mult.At(e, row)+1)
		}
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
