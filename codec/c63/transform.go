/*
DESCRIPTION
  transform.go implements the forward and inverse 2D DCT over 8x8 blocks,
  and the quantization / dequantization that sandwiches it. The forward and
  inverse transforms are written out by hand rather than pulled from a
  library: see DESIGN.md for why the pack's DCT (gonum's dsp/fourier) was
  rejected for this specific piece.

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

const blockSize = 8

// dctBasis[u][x] = cos((2x+1)*u*pi/16), precomputed once.
var dctBasis [blockSize][blockSize]float64

func init() {
	for u := 0; u < blockSize; u++ {
		for x := 0; x < blockSize; x++ {
			dctBasis[u][x] = math.Cos(float64(2*x+1) * float64(u) * math.Pi / 16.0)
		}
	}
}

// alpha returns the DCT-II normalization coefficient for index u.
func alpha(u int) float64 {
	if u == 0 {
		return 1.0 / math.Sqrt2
	}
	return 1.0
}

// dct1D computes the forward 1D DCT-II of an 8-element row/column.
func dct1D(in [blockSize]float64) [blockSize]float64 {
	var out [blockSize]float64
	for u := 0; u < blockSize; u++ {
		var sum float64
		for x := 0; x < blockSize; x++ {
			sum += in[x] * dctBasis[u][x]
		}
		out[u] = 0.5 * alpha(u) * sum
	}
	return out
}

// idct1D computes the inverse 1D DCT (DCT-III), the exact inverse of dct1D.
func idct1D(in [blockSize]float64) [blockSize]float64 {
	var out [blockSize]float64
	for x := 0; x < blockSize; x++ {
		var sum float64
		for u := 0; u < blockSize; u++ {
			sum += alpha(u) * in[u] * dctBasis[u][x]
		}
		out[x] = 0.5 * sum
	}
	return out
}

// dct2D applies the separable forward DCT to an 8x8 block: rows then
// columns.
func dct2D(block [blockSize][blockSize]float64) [blockSize][blockSize]float64 {
	var tmp, out [blockSize][blockSize]float64
	for y := 0; y < blockSize; y++ {
		tmp[y] = dct1D(block[y])
	}
	for x := 0; x < blockSize; x++ {
		var col [blockSize]float64
		for y := 0; y < blockSize; y++ {
			col[y] = tmp[y][x]
		}
		col = dct1D(col)
		for y := 0; y < blockSize; y++ {
			out[y][x] = col[y]
		}
	}
	return out
}

// idct2D applies the separable inverse DCT to an 8x8 block.
func idct2D(block [blockSize][blockSize]float64) [blockSize][blockSize]float64 {
	var tmp, out [blockSize][blockSize]float64
	for x := 0; x < blockSize; x++ {
		var col [blockSize]float64
		for y := 0; y < blockSize; y++ {
			col[y] = block[y][x]
		}
		col = idct1D(col)
		for y := 0; y < blockSize; y++ {
			tmp[y][x] = col[y]
		}
	}
	for y := 0; y < blockSize; y++ {
		out[y] = idct1D(tmp[y])
	}
	return out
}

// dctQuantize tiles the w x h padded plane into 8x8 blocks, subtracts pred
// from in, applies the forward DCT, divides by qtable (rounding to nearest,
// ties away from zero), and writes the quantized coefficients into out.
// in, pred, and out are flat, raster-order, padded-plane buffers.
func dctQuantize(in, pred []uint8, w, h int, out []int16, qtable QuantTable) {
	for by := 0; by < h; by += blockSize {
		for bx := 0; bx < w; bx += blockSize {
			var block [blockSize][blockSize]float64
			for y := 0; y < blockSize; y++ {
				row := (by+y)*w + bx
				for x := 0; x < blockSize; x++ {
					block[y][x] = float64(in[row+x]) - float64(pred[row+x])
				}
			}
			coeffs := dct2D(block)
			for y := 0; y < blockSize; y++ {
				row := (by+y)*w + bx
				for x := 0; x < blockSize; x++ {
					q := float64(qtable[y*blockSize+x])
					out[row+x] = int16(roundHalfAwayFromZero(coeffs[y][x] / q))
				}
			}
		}
	}
}

// dequantizeIDCT is the inverse of dctQuantize: it multiplies by qtable,
// applies the inverse DCT, adds pred, clamps to [0,255], and writes 8-bit
// samples into out.
func dequantizeIDCT(in []int16, pred []uint8, w, h int, out []uint8, qtable QuantTable) {
	for by := 0; by < h; by += blockSize {
		for bx := 0; bx < w; bx += blockSize {
			var coeffs [blockSize][blockSize]float64
			for y := 0; y < blockSize; y++ {
				row := (by+y)*w + bx
				for x := 0; x < blockSize; x++ {
					q := float64(qtable[y*blockSize+x])
					coeffs[y][x] = float64(in[row+x]) * q
				}
			}
			block := idct2D(coeffs)
			for y := 0; y < blockSize; y++ {
				row := (by+y)*w + bx
				for x := 0; x < blockSize; x++ {
					v := block[y][x] + float64(pred[row+x])
					out[row+x] = clampUint8(roundHalfAwayFromZero(v))
				}
			}
		}
	}
}
