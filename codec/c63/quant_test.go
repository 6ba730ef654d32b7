package c63

import "testing"

func TestScaleQTableUnityAtQP10(t *testing.T) {
	got := scaleQTable(defaultLumaQTable, 10)
	if got != defaultLumaQTable {
		t.Errorf("scaleQTable(luma, 10) = %v, want unscaled table", got)
	}
}

func TestScaleQTableHalvesAtQP20(t *testing.T) {
	got := scaleQTable(defaultLumaQTable, 20)
	for i, v := range defaultLumaQTable {
		want := clampUint8(roundHalfAwayFromZero(float64(v) / 2.0))
		if got[i] != want {
			t.Errorf("scaleQTable(luma,20)[%d] = %d, want %d", i, got[i], want)
		}
	}
}

func TestRoundHalfAwayFromZero(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.5, 1}, {-0.5, -1}, {2.5, 3}, {-2.5, -3}, {0.4, 0}, {-0.4, 0}, {0, 0},
	}
	for _, tc := range cases {
		if got := roundHalfAwayFromZero(tc.in); got != tc.want {
			t.Errorf("roundHalfAwayFromZero(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClampUint8(t *testing.T) {
	cases := []struct {
		in   float64
		want uint8
	}{
		{-10, 0}, {0, 0}, {128, 128}, {255, 255}, {300, 255},
	}
	for _, tc := range cases {
		if got := clampUint8(tc.in); got != tc.want {
			t.Errorf("clampUint8(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
