/*
DESCRIPTION
  motion.go implements block-matching motion estimation and the motion
  compensation that consumes its result. The per-row search is sharded
  across a small worker pool; each macroblock's SAD search is independent
  of every other, so sharding never changes which vector is chosen.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package c63

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// estimateMotion searches, for every macroblock in a w x h plane, the
// position within +/-range pixels on ref that minimizes the sum of absolute
// differences against the same block in cur. The search window is clamped
// to the plane bounds. Ties prefer the smallest |mvx|+|mvy|, then smallest
// mvy, then smallest mvx.
func estimateMotion(cur, ref []uint8, w, h, mbRows, mbCols, searchRange int) []Macroblock {
	mbs := make([]Macroblock, mbRows*mbCols)

	g := new(errgroup.Group)
	workers := runtime.GOMAXPROCS(0)
	if workers > mbRows {
		workers = mbRows
	}
	if workers < 1 {
		workers = 1
	}

	rowsPerWorker := (mbRows + workers - 1) / workers
	for wk := 0; wk < workers; wk++ {
		startRow := wk * rowsPerWorker
		endRow := startRow + rowsPerWorker
		if endRow > mbRows {
			endRow = mbRows
		}
		if startRow >= endRow {
			continue
		}
		g.Go(func() error {
			for mbY := startRow; mbY < endRow; mbY++ {
				for mbX := 0; mbX < mbCols; mbX++ {
					mbs[mbY*mbCols+mbX] = searchBlock(cur, ref, w, h, mbX*blockSize, mbY*blockSize, searchRange)
				}
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return an error

	return mbs
}

// searchBlock performs the SAD-minimizing search for the block whose
// top-left corner is (bx, by).
func searchBlock(cur, ref []uint8, w, h, bx, by, searchRange int) Macroblock {
	left := bx - searchRange
	if left < 0 {
		left = 0
	}
	top := by - searchRange
	if top < 0 {
		top = 0
	}
	right := bx + searchRange
	if right > w-blockSize {
		right = w - blockSize
	}
	bottom := by + searchRange
	if bottom > h-blockSize {
		bottom = h - blockSize
	}

	best := Macroblock{UseMV: true}
	bestSAD := -1

	for cy := top; cy <= bottom; cy++ {
		for cx := left; cx <= right; cx++ {
			sad := blockSAD(cur, ref, w, bx, by, cx, cy)
			mvx, mvy := cx-bx, cy-by
			if bestSAD < 0 || better(sad, mvx, mvy, bestSAD, best.MVX, best.MVY) {
				bestSAD = sad
				best.MVX = mvx
				best.MVY = mvy
			}
		}
	}
	return best
}

// better reports whether candidate (sad, mvx, mvy) should replace the
// current best (bestSAD, bestMVX, bestMVY) under the declared tie-break
// rule: smaller SAD wins outright; on equal SAD, smaller |mvx|+|mvy| wins;
// on a further tie, smaller mvy then smaller mvx wins.
func better(sad, mvx, mvy, bestSAD, bestMVX, bestMVY int) bool {
	if sad != bestSAD {
		return sad < bestSAD
	}
	mag, bestMag := abs(mvx)+abs(mvy), abs(bestMVX)+abs(bestMVY)
	if mag != bestMag {
		return mag < bestMag
	}
	if mvy != bestMVY {
		return mvy < bestMVY
	}
	return mvx < bestMVX
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// blockSAD computes the sum of absolute differences between the 8x8 block
// of cur at (bx,by) and the 8x8 block of ref at (cx,cy), both in a plane of
// stride w.
func blockSAD(cur, ref []uint8, w, bx, by, cx, cy int) int {
	sad := 0
	for y := 0; y < blockSize; y++ {
		curRow := (by+y)*w + bx
		refRow := (cy+y)*w + cx
		for x := 0; x < blockSize; x++ {
			d := int(cur[curRow+x]) - int(ref[refRow+x])
			sad += abs(d)
		}
	}
	return sad
}

// compensateMotion copies, for every macroblock with UseMV set, the
// referenced 8x8 block from ref into the corresponding position of
// predicted. Blocks without UseMV leave predicted untouched (zero).
func compensateMotion(mbs []Macroblock, ref []uint8, w, h, mbCols int, predicted []uint8) {
	for i, mb := range mbs {
		if !mb.UseMV {
			continue
		}
		mbX := i % mbCols
		mbY := i / mbCols
		bx := mbX * blockSize
		by := mbY * blockSize
		rx := bx + mb.MVX
		ry := by + mb.MVY
		for y := 0; y < blockSize; y++ {
			dstRow := (by+y)*w + bx
			srcRow := (ry+y)*w + rx
			copy(predicted[dstRow:dstRow+blockSize], ref[srcRow:srcRow+blockSize])
		}
	}
}
