/*
DESCRIPTION
  types.go defines the data model shared across the c63 encoder: planes,
  macroblocks, and the per-frame artifacts produced by the encode pipeline.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package c63 implements the per-frame encode pipeline of a two-node
// cooperative video encoder: motion estimation and compensation, forward and
// inverse DCT, quantization, and reconstruction. It holds no knowledge of
// how frames arrive or leave the process; see protocol/c63proto for that.
package c63

// Plane identifies one of the three colour planes a Frame carries.
type Plane int

const (
	PlaneY Plane = iota
	PlaneU
	PlaneV
)

// String returns a short name for the plane, used in diagnostics.
func (p Plane) String() string {
	switch p {
	case PlaneY:
		return "Y"
	case PlaneU:
		return "U"
	case PlaneV:
		return "V"
	default:
		return "?"
	}
}

// Macroblock carries the motion vector (if any) found for one 8x8 block
// position during motion estimation.
type Macroblock struct {
	UseMV bool
	MVX   int
	MVY   int
}

// Planes groups the three 8-bit sample planes of a frame, stored in padded,
// raster-order, flat buffers (never typed struct arrays — plane offsets are
// always derived from Geometry).
type Planes struct {
	Y, U, V []uint8
}

// RawFrame is an unencoded source frame at padded dimensions. The border
// outside the original width/height is allocated but its contents are
// undefined until a reader fills them.
type RawFrame struct {
	Y, U, V []uint8
}

// Residuals holds the quantized DCT coefficients for one frame, one entry
// per padded-plane pixel laid out block by block in raster order.
type Residuals struct {
	Ydct, Udct, Vdct []int16
}

// Frame aggregates everything the encode pipeline produces for a single
// input frame.
type Frame struct {
	Keyframe bool

	// MBs[p] holds one Macroblock per block position for plane p, sized by
	// the chroma-aware macroblock grid.
	MBs [3][]Macroblock

	Residuals Residuals
	Predicted Planes // zero for keyframes
	Recons    Planes // reference for the next frame
}
