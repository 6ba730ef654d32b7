/*
DESCRIPTION
  shuttle.go serializes raw YUV frames into the raw shared segment and
  deserializes encoded frame artifacts out of the result shared segment.
  Every segment is treated as a flat byte buffer with offsets derived from
  geometry.Geometry — never as a typed struct array (spec.md §9).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package c63proto

import (
	"encoding/binary"
	"fmt"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/geometry"
)

// mbRecordSize is the wire size of one encoded Macroblock: a use_mv flag
// byte followed by two little-endian int32 motion vector components.
const mbRecordSize = 1 + 4 + 4

// RawSegSize returns the number of bytes a RawSeg must hold for frames of
// geometry g.
func RawSegSize(g geometry.Geometry) int {
	return g.YSize() + g.USize() + g.VSize()
}

// ResultSegSize returns the number of bytes a ResultSeg must hold for
// frames of geometry g: a keyframe flag, three macroblock arrays, and three
// quantized coefficient arrays.
func ResultSegSize(g geometry.Geometry) int {
	mbBytes := (g.MBCountY() + 2*g.MBCountC()) * mbRecordSize
	dctBytes := (g.YSize() + g.USize() + g.VSize()) * 2 // int16 per coefficient
	return 1 + mbBytes + dctBytes
}

// WriteRaw copies raw's three planes into seg in padded Y, U, V order. seg
// must be at least RawSegSize(g) bytes.
func WriteRaw(seg []byte, raw *c63.RawFrame, g geometry.Geometry) error {
	want := RawSegSize(g)
	if len(seg) < want {
		return fmt.Errorf("c63proto: raw segment too small: got %d bytes, want >= %d", len(seg), want)
	}
	off := 0
	off += copy(seg[off:], raw.Y)
	off += copy(seg[off:], raw.U)
	copy(seg[off:], raw.V)
	return nil
}

// ReadRaw builds a RawFrame by copying seg's Y, U, V planes out. seg must be
// at least RawSegSize(g) bytes.
func ReadRaw(seg []byte, g geometry.Geometry) (*c63.RawFrame, error) {
	want := RawSegSize(g)
	if len(seg) < want {
		return nil, fmt.Errorf("c63proto: raw segment too small: got %d bytes, want >= %d", len(seg), want)
	}
	raw := &c63.RawFrame{
		Y: make([]uint8, g.YSize()),
		U: make([]uint8, g.USize()),
		V: make([]uint8, g.VSize()),
	}
	off := 0
	off += copy(raw.Y, seg[off:off+g.YSize()])
	off += copy(raw.U, seg[off:off+g.USize()])
	copy(raw.V, seg[off:off+g.VSize()])
	return raw, nil
}

// WriteResult serializes f's keyframe flag, macroblock arrays, and
// quantized coefficient arrays into seg. seg must be at least
// ResultSegSize(g) bytes.
func WriteResult(seg []byte, f *c63.Frame, g geometry.Geometry) error {
	want := ResultSegSize(g)
	if len(seg) < want {
		return fmt.Errorf("c63proto: result segment too small: got %d bytes, want >= %d", len(seg), want)
	}

	off := 0
	if f.Keyframe {
		seg[off] = 1
	} else {
		seg[off] = 0
	}
	off++

	for _, mbs := range f.MBs {
		off = writeMBs(seg, off, mbs)
	}
	off = writeDCT(seg, off, f.Residuals.Ydct)
	off = writeDCT(seg, off, f.Residuals.Udct)
	writeDCT(seg, off, f.Residuals.Vdct)
	return nil
}

// ReadResult deserializes a Frame's keyframe flag, macroblock arrays, and
// quantized coefficient arrays out of seg. The returned Frame has no
// Predicted or Recons planes populated: those are server-internal state,
// never carried on the wire.
func ReadResult(seg []byte, g geometry.Geometry) (*c63.Frame, error) {
	want := ResultSegSize(g)
	if len(seg) < want {
		return nil, fmt.Errorf("c63proto: result segment too small: got %d bytes, want >= %d", len(seg), want)
	}

	f := &c63.Frame{}
	off := 0
	f.Keyframe = seg[off] != 0
	off++

	counts := []int{g.MBCountY(), g.MBCountC(), g.MBCountC()}
	for i, n := range counts {
		var mbs []c63.Macroblock
		mbs, off = readMBs(seg, off, n)
		f.MBs[i] = mbs
	}

	f.Residuals.Ydct, off = readDCT(seg, off, g.YSize())
	f.Residuals.Udct, off = readDCT(seg, off, g.USize())
	f.Residuals.Vdct, _ = readDCT(seg, off, g.VSize())

	return f, nil
}

func writeMBs(seg []byte, off int, mbs []c63.Macroblock) int {
	for _, mb := range mbs {
		if mb.UseMV {
			seg[off] = 1
		} else {
			seg[off] = 0
		}
		binary.LittleEndian.PutUint32(seg[off+1:], uint32(int32(mb.MVX)))
		binary.LittleEndian.PutUint32(seg[off+5:], uint32(int32(mb.MVY)))
		off += mbRecordSize
	}
	return off
}

func readMBs(seg []byte, off, n int) ([]c63.Macroblock, int) {
	mbs := make([]c63.Macroblock, n)
	for i := range mbs {
		mbs[i].UseMV = seg[off] != 0
		mbs[i].MVX = int(int32(binary.LittleEndian.Uint32(seg[off+1:])))
		mbs[i].MVY = int(int32(binary.LittleEndian.Uint32(seg[off+5:])))
		off += mbRecordSize
	}
	return mbs, off
}

func writeDCT(seg []byte, off int, coeffs []int16) int {
	for _, c := range coeffs {
		binary.LittleEndian.PutUint16(seg[off:], uint16(c))
		off += 2
	}
	return off
}

func readDCT(seg []byte, off, n int) ([]int16, int) {
	coeffs := make([]int16, n)
	for i := range coeffs {
		coeffs[i] = int16(binary.LittleEndian.Uint16(seg[off:]))
		off += 2
	}
	return coeffs, off
}
