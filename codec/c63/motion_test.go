package c63

import "testing"

func TestBetterTieBreak(t *testing.T) {
	cases := []struct {
		name                             string
		sad, mvx, mvy                    int
		bestSAD, bestMVX, bestMVY        int
		want                             bool
	}{
		{"lower SAD wins", 5, 3, 3, 10, 0, 0, true},
		{"higher SAD loses", 10, 0, 0, 5, 3, 3, false},
		{"equal SAD, smaller magnitude wins", 5, 1, 0, 5, 2, 0, true},
		{"equal SAD, larger magnitude loses", 5, 2, 0, 5, 1, 0, false},
		{"equal SAD and magnitude, smaller mvy wins", 5, 0, -1, 5, 1, 0, true},
		{"equal SAD magnitude and mvy, smaller mvx wins", 5, -1, 0, 5, 1, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := better(tc.sad, tc.mvx, tc.mvy, tc.bestSAD, tc.bestMVX, tc.bestMVY)
			if got != tc.want {
				t.Errorf("better(%d,%d,%d,%d,%d,%d) = %v, want %v",
					tc.sad, tc.mvx, tc.mvy, tc.bestSAD, tc.bestMVX, tc.bestMVY, got, tc.want)
			}
		})
	}
}

func TestSearchBlockFindsExactMatch(t *testing.T) {
	const w, h = 32, 32
	ref := make([]uint8, w*h)
	for i := range ref {
		ref[i] = uint8(i % 256)
	}
	// cur is ref shifted by (+3,-2): the block at (16,16) in cur matches the
	// block at (19,14) in ref exactly.
	cur := make([]uint8, w*h)
	for y := 0; y < blockSize; y++ {
		for x := 0; x < blockSize; x++ {
			cur[(16+y)*w+16+x] = ref[(14+y)*w+19+x]
		}
	}

	mb := searchBlock(cur, ref, w, h, 16, 16, 8)
	if !mb.UseMV {
		t.Fatal("searchBlock: UseMV = false, want true")
	}
	if mb.MVX != 3 || mb.MVY != -2 {
		t.Errorf("searchBlock found mv (%d,%d), want (3,-2)", mb.MVX, mb.MVY)
	}
}

func TestSearchBlockClampsToPlaneBounds(t *testing.T) {
	const w, h = 16, 16
	ref := make([]uint8, w*h)
	cur := make([]uint8, w*h)
	// Search range larger than the plane: must not panic or produce an
	// out-of-bounds candidate.
	mb := searchBlock(cur, ref, w, h, 0, 0, 64)
	if mb.MVX < -0 || mb.MVX > w-blockSize || mb.MVY < -0 || mb.MVY > h-blockSize {
		t.Errorf("searchBlock produced out-of-range mv (%d,%d) for an 8x8 block at origin of a %dx%d plane", mb.MVX, mb.MVY, w, h)
	}
}

func TestCompensateMotionCopiesReferencedBlock(t *testing.T) {
	const w, h, mbCols = 16, 16, 2
	ref := make([]uint8, w*h)
	for i := range ref {
		ref[i] = uint8(i % 256)
	}
	mbs := []Macroblock{
		{UseMV: true, MVX: 8, MVY: 0},
		{UseMV: false},
	}
	predicted := make([]uint8, w*h)
	compensateMotion(mbs, ref, w, h, mbCols, predicted)

	for y := 0; y < blockSize; y++ {
		for x := 0; x < blockSize; x++ {
			got := predicted[y*w+x]
			want := ref[y*w+8+x]
			if got != want {
				t.Errorf("predicted[%d][%d] = %d, want %d", y, x, got, want)
			}
		}
	}
}

func TestEstimateMotionMatchesSerialSearch(t *testing.T) {
	const w, h = 32, 16
	mbRows, mbCols := h/blockSize, w/blockSize
	ref := make([]uint8, w*h)
	cur := make([]uint8, w*h)
	for i := range ref {
		ref[i] = uint8((i*7 + 3) % 256)
		cur[i] = uint8((i*11 + 1) % 256)
	}

	got := estimateMotion(cur, ref, w, h, mbRows, mbCols, 4)

	for mbY := 0; mbY < mbRows; mbY++ {
		for mbX := 0; mbX < mbCols; mbX++ {
			want := searchBlock(cur, ref, w, h, mbX*blockSize, mbY*blockSize, 4)
			g := got[mbY*mbCols+mbX]
			if g != want {
				t.Errorf("estimateMotion[%d,%d] = %+v, want %+v (sharding must not change the result)", mbY, mbX, g, want)
			}
		}
	}
}
