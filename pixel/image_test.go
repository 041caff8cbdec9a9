package pixel

import "testing"

func TestFromRows_RoundTrip(t *testing.T) {
	rows := [][]float64{
		{1, 2, 3},
		{4, 5, 6},
	}
	img := FromRows(rows)
	if img.Rows() != 2 || img.Cols() != 3 {
		t.Fatalf("shape = (%d,%d), want (2,3)", img.Rows(), img.Cols())
	}
	got := img.ToRows()
	for r := range rows {
		for c := range rows[r] {
			if got[r][c] != rows[r][c] {
				t.Errorf("[%d][%d] = %v, want %v", r, c, got[r][c], rows[r][c])
			}
		}
	}
}

func TestTranspose_SwapsShapeAndValues(t *testing.T) {
	img := FromRows([][]float64{
		{1, 2, 3},
		{4, 5, 6},
	})
	tr := img.Transpose()
	if tr.Rows() != 3 || tr.Cols() != 2 {
		t.Fatalf("shape = (%d,%d), want (3,2)", tr.Rows(), tr.Cols())
	}
	if tr.At(2, 1) != 6 {
		t.Errorf("At(2,1) = %v, want 6", tr.At(2, 1))
	}
	if tr.Transpose().Sub(img).Sum() != 0 {
		t.Errorf("double transpose did not round-trip")
	}
}

func TestClone_IsIndependent(t *testing.T) {
	img := FromRows([][]float64{{1, 2}})
	clone := img.Clone()
	clone.Set(0, 0, 99)
	if img.At(0, 0) != 1 {
		t.Errorf("mutating clone affected original: At(0,0) = %v", img.At(0, 0))
	}
}

func TestClipNegative(t *testing.T) {
	img := FromRows([][]float64{{-5, 3, -0.5}})
	img.ClipNegative()
	want := []float64{0, 3, 0}
	for c, w := range want {
		if img.At(0, c) != w {
			t.Errorf("At(0,%d) = %v, want %v", c, img.At(0, c), w)
		}
	}
}

func TestSub_ElementWise(t *testing.T) {
	a := FromRows([][]float64{{10, 10}})
	b := FromRows([][]float64{{3, 4}})
	d := a.Sub(b)
	if d.At(0, 0) != 7 || d.At(0, 1) != 6 {
		t.Errorf("Sub = %v, want [7 6]", d.ToRows())
	}
}

func TestMaxAbsDiff(t *testing.T) {
	a := FromRows([][]float64{{1, 2, 3}})
	b := FromRows([][]float64{{1, 5, 1}})
	if got := a.MaxAbsDiff(b); got != 3 {
		t.Errorf("MaxAbsDiff = %v, want 3", got)
	}
}

func TestSum_ZeroImageIsZero(t *testing.T) {
	img := New(4, 4)
	if img.Sum() != 0 {
		t.Errorf("Sum() of fresh image = %v, want 0", img.Sum())
	}
}
