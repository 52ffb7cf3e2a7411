package portfolio

import "testing"

func TestPercentile_LinearInterpolation(t *testing.T) {
	cases := []struct {
		xs   []float64
		q    float64
		want float64
	}{
		{[]float64{1, 2, 3, 4}, 5, 1.15},
		{[]float64{4, 3, 2, 1}, 50, 2.5},
		{[]float64{4, 3, 2, 1}, 100, 4},
		{[]float64{4, 3, 2, 1}, 0, 1},
		{[]float64{-0.3}, 5, -0.3},
		{nil, 5, 0},
	}
	for _, tc := range cases {
		assertClose(t, "percentile", percentile(tc.xs, tc.q), tc.want, 1e-12)
	}
}

func TestPercentile_DoesNotSortInput(t *testing.T) {
	xs := []float64{3, 1, 2}
	percentile(xs, 50)
	if xs[0] != 3 || xs[1] != 1 || xs[2] != 2 {
		t.Fatalf("input reordered: %v", xs)
	}
}

func TestPopStdDev(t *testing.T) {
	// [2 4 4 4 5 5 7 9]: mean 5, population variance 4
	assertClose(t, "std", popStdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 2, 1e-12)
	assertClose(t, "empty", popStdDev(nil), 0, 0)
}
