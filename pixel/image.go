// Package pixel defines the dense 2-D electron-count grid that the CTI
// engine clocks charge through, plus the handful of array operations the
// clocker and corrector need. Row 0 is nearest the readout node (it
// undergoes the fewest transfers); serial clocking operates on the
// transpose of an Image.
package pixel

// Image is a dense grid of electron counts, ordered row-major. Rows are the
// parallel-clocking direction (toward the readout at row 0's far side);
// columns are independent for parallel clocking.
type Image struct {
	rows, cols int
	data       []float64
}

// New allocates a zero-valued Image of the given shape.
func New(rows, cols int) *Image {
	return &Image{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// FromRows copies a ragged-safe [][]float64 into an Image. All rows must
// have the same length.
func FromRows(rows [][]float64) *Image {
	if len(rows) == 0 {
		return &Image{}
	}
	cols := len(rows[0])
	img := New(len(rows), cols)
	for r, row := range rows {
		copy(img.data[r*cols:(r+1)*cols], row)
	}
	return img
}

// Rows returns the image's row count.
func (img *Image) Rows() int { return img.rows }

// Cols returns the image's column count.
func (img *Image) Cols() int { return img.cols }

// At returns the electron count at (row, col).
func (img *Image) At(row, col int) float64 {
	return img.data[row*img.cols+col]
}

// Set stores the electron count at (row, col).
func (img *Image) Set(row, col int, v float64) {
	img.data[row*img.cols+col] = v
}

// Add adds delta to the electron count at (row, col).
func (img *Image) Add(row, col int, delta float64) {
	img.data[row*img.cols+col] += delta
}

// Clone returns an independent deep copy.
func (img *Image) Clone() *Image {
	out := &Image{rows: img.rows, cols: img.cols, data: make([]float64, len(img.data))}
	copy(out.data, img.data)
	return out
}

// ToRows materialises the image as [][]float64, e.g. for callers that want
// to inspect or serialise the result; this is the only supported export
// path (the core has no image-file codec, per spec).
func (img *Image) ToRows() [][]float64 {
	out := make([][]float64, img.rows)
	for r := 0; r < img.rows; r++ {
		row := make([]float64, img.cols)
		copy(row, img.data[r*img.cols:(r+1)*img.cols])
		out[r] = row
	}
	return out
}

// Transpose returns a new Image with rows and columns swapped. Serial
// clocking runs the parallel clocker against the transpose, then transposes
// the result back.
func (img *Image) Transpose() *Image {
	out := New(img.cols, img.rows)
	for r := 0; r < img.rows; r++ {
		for c := 0; c < img.cols; c++ {
			out.Set(c, r, img.At(r, c))
		}
	}
	return out
}

// Sum returns the total electron count across the whole image.
func (img *Image) Sum() float64 {
	var total float64
	for _, v := range img.data {
		total += v
	}
	return total
}

// ClipNegative replaces every negative pixel with 0, in place.
func (img *Image) ClipNegative() {
	for i, v := range img.data {
		if v < 0 {
			img.data[i] = 0
		}
	}
}

// Sub returns a new Image holding img - other, element-wise. Panics if the
// shapes differ; callers within this module only ever diff same-shaped
// images produced from the same input.
func (img *Image) Sub(other *Image) *Image {
	if img.rows != other.rows || img.cols != other.cols {
		panic("pixel: Sub shape mismatch")
	}
	out := New(img.rows, img.cols)
	for i := range img.data {
		out.data[i] = img.data[i] - other.data[i]
	}
	return out
}

// AddImage returns a new Image holding img + other, element-wise.
func (img *Image) AddImage(other *Image) *Image {
	if img.rows != other.rows || img.cols != other.cols {
		panic("pixel: AddImage shape mismatch")
	}
	out := New(img.rows, img.cols)
	for i := range img.data {
		out.data[i] = img.data[i] + other.data[i]
	}
	return out
}

// MaxAbsDiff returns the largest absolute per-pixel difference between img
// and other, used by the corrector to judge convergence.
func (img *Image) MaxAbsDiff(other *Image) float64 {
	var maxDiff float64
	for i := range img.data {
		d := img.data[i] - other.data[i]
		if d < 0 {
			d = -d
		}
		if d > maxDiff {
			maxDiff = d
		}
	}
	return maxDiff
}
