package roe

// TransferCounts returns, for each of nRows image rows, the number of
// physical pixel-to-pixel transfers that row undergoes before its charge
// reaches the readout node. This is the clocking sequence referenced by
// §4.3: Standard rows accumulate one transfer per row of distance plus the
// prescan offset; ChargeInjection rows all undergo the same count since
// charge enters at the far end; TrapPumping shuffles each pixel forward and
// back n_pumps times with no net displacement.
func (r ROE) TransferCounts(nRows int) []int {
	counts := make([]int, nRows)
	switch r.Type {
	case ChargeInjection:
		n := nRows + r.PrescanOffset
		for i := range counts {
			counts[i] = n
		}
	case TrapPumping:
		n := 2 * r.NPumps
		for i := range counts {
			counts[i] = n
		}
	default: // Standard
		for i := range counts {
			counts[i] = i + 1 + r.PrescanOffset
		}
	}
	return counts
}
