package geometry

import "testing"

func TestNewRejectsZeroDims(t *testing.T) {
	for _, tc := range []struct{ w, h int }{{0, 10}, {10, 0}, {0, 0}, {-1, 10}} {
		if _, err := New(tc.w, tc.h); err != ErrZeroDim {
			t.Errorf("New(%d, %d) = %v, want ErrZeroDim", tc.w, tc.h, err)
		}
	}
}

func TestInvariants(t *testing.T) {
	cases := []struct{ w, h int }{
		{16, 16}, {1, 1}, {176, 144}, {352, 288}, {1920, 1080}, {17, 33}, {8, 8},
	}
	for _, tc := range cases {
		g, err := New(tc.w, tc.h)
		if err != nil {
			t.Fatalf("New(%d,%d): %v", tc.w, tc.h, err)
		}
		if g.YPW%16 != 0 || g.YPH%16 != 0 {
			t.Errorf("New(%d,%d): luma padded dims not multiple of 16: %dx%d", tc.w, tc.h, g.YPW, g.YPH)
		}
		if g.UPW%8 != 0 || g.UPH%8 != 0 || g.VPW%8 != 0 || g.VPH%8 != 0 {
			t.Errorf("New(%d,%d): chroma padded dims not multiple of 8: U=%dx%d V=%dx%d", tc.w, tc.h, g.UPW, g.UPH, g.VPW, g.VPH)
		}
		if g.UPW != g.VPW || g.UPH != g.VPH {
			t.Errorf("New(%d,%d): U/V dims differ", tc.w, tc.h)
		}
		if g.MBRowsY*8 != g.YPH || g.MBColsY*8 != g.YPW {
			t.Errorf("New(%d,%d): luma mb grid doesn't tile padded plane", tc.w, tc.h)
		}
		if g.MBRowsC != g.MBRowsY/2 || g.MBColsC != g.MBColsY/2 {
			t.Errorf("New(%d,%d): chroma mb grid not half of luma", tc.w, tc.h)
		}
	}
}

func TestKnownValues(t *testing.T) {
	g, err := New(176, 144)
	if err != nil {
		t.Fatal(err)
	}
	want := Geometry{Width: 176, Height: 144, YPW: 176, YPH: 144, UPW: 88, UPH: 72, VPW: 88, VPH: 72, MBRowsY: 18, MBColsY: 22, MBRowsC: 9, MBColsC: 11}
	if g != want {
		t.Errorf("New(176,144) = %+v, want %+v", g, want)
	}
}
