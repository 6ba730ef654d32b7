/*
DESCRIPTION
  geometry.go computes the padded plane dimensions and macroblock grid
  derived from a raw frame's width and height. This is pure and stateless;
  every other package treats a Geometry value as the single source of truth
  for plane sizes and block counts.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package geometry computes padded plane dimensions and macroblock grids for
// 4:2:0 YUV frames of an arbitrary source width and height.
package geometry

import "errors"

// mbSize is the side length in pixels of a macroblock.
const mbSize = 8

// ErrZeroDim is returned by New when either dimension is zero.
var ErrZeroDim = errors.New("geometry: width and height must be non-zero")

// Geometry holds the padded plane dimensions and macroblock grid derived
// from a raw (width, height) pair. A Geometry is immutable once built.
type Geometry struct {
	Width, Height int // original, unpadded dimensions

	YPW, YPH int // padded luma plane dimensions
	UPW, UPH int // padded chroma (U) plane dimensions
	VPW, VPH int // padded chroma (V) plane dimensions, always == U

	MBRowsY, MBColsY int // luma macroblock grid
	MBRowsC, MBColsC int // chroma macroblock grid (half of luma, rounded up)
}

// New computes the Geometry for a raw frame of the given width and height.
// It returns ErrZeroDim if either is zero or negative.
func New(width, height int) (Geometry, error) {
	if width <= 0 || height <= 0 {
		return Geometry{}, ErrZeroDim
	}

	ypw := roundUp(width, 16)
	yph := roundUp(height, 16)
	upw := roundUp(width, 16) / 2
	uph := roundUp(height, 16) / 2

	g := Geometry{
		Width:  width,
		Height: height,
		YPW:    ypw,
		YPH:    yph,
		UPW:    upw,
		UPH:    uph,
		VPW:    upw,
		VPH:    uph,
	}
	g.MBRowsY = g.YPH / mbSize
	g.MBColsY = g.YPW / mbSize
	g.MBRowsC = g.MBRowsY / 2
	g.MBColsC = g.MBColsY / 2
	return g, nil
}

// roundUp rounds n up to the nearest multiple of m.
func roundUp(n, m int) int {
	return (n + m - 1) / m * m
}

// YSize returns the number of samples in the padded luma plane.
func (g Geometry) YSize() int { return g.YPW * g.YPH }

// USize returns the number of samples in the padded U plane.
func (g Geometry) USize() int { return g.UPW * g.UPH }

// VSize returns the number of samples in the padded V plane.
func (g Geometry) VSize() int { return g.VPW * g.VPH }

// MBCountY returns the number of luma macroblocks.
func (g Geometry) MBCountY() int { return g.MBRowsY * g.MBColsY }

// MBCountC returns the number of chroma macroblocks (same for U and V).
func (g Geometry) MBCountC() int { return g.MBRowsC * g.MBColsC }
