/*
DESCRIPTION
  quant.go holds the default JPEG-style quantization tables and the scaling
  that derives a session's working tables from a quality parameter.

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

import "math"

// blockLen is the number of coefficients in an 8x8 block, in raster order.
const blockLen = 64

// QuantTable is an 8x8 table of per-coefficient quantization divisors for
// one colour component, stored in raster order.
type QuantTable [blockLen]uint8

// defaultLumaQTable and defaultChromaQTable are the standard JPEG
// annex-K quantization tables at quality 50, in raster (not zig-zag) order.
var (
	defaultLumaQTable = QuantTable{
		16, 11, 10, 16, 24, 40, 51, 61,
		12, 12, 14, 19, 26, 58, 60, 55,
		14, 13, 16, 24, 40, 57, 69, 56,
		14, 17, 22, 29, 51, 87, 80, 62,
		18, 22, 37, 56, 68, 109, 103, 77,
		24, 35, 55, 64, 81, 104, 113, 92,
		49, 64, 78, 87, 103, 121, 120, 101,
		72, 92, 95, 98, 112, 100, 103, 99,
	}
	defaultChromaQTable = QuantTable{
		17, 18, 24, 47, 99, 99, 99, 99,
		18, 21, 26, 66, 99, 99, 99, 99,
		24, 26, 56, 99, 99, 99, 99, 99,
		47, 66, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
		99, 99, 99, 99, 99, 99, 99, 99,
	}
)

// scaleQTable scales a default table by 1/(qp/10.0), rounding to nearest
// (ties away from zero) and clamping to the 8-bit range.
func scaleQTable(base QuantTable, qp int) QuantTable {
	factor := float64(qp) / 10.0
	var out QuantTable
	for i, v := range base {
		scaled := roundHalfAwayFromZero(float64(v) / factor)
		out[i] = clampUint8(scaled)
	}
	return out
}

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return math.Floor(x + 0.5)
	}
	return math.Ceil(x - 0.5)
}

func clampUint8(x float64) uint8 {
	switch {
	case x < 0:
		return 0
	case x > 255:
		return 255
	default:
		return uint8(x)
	}
}
