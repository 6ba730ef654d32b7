/*
DESCRIPTION
  raw.go is a minimal sink.Writer that dumps each encoded frame's keyframe
  flag, macroblocks, and quantized coefficients as a simple self-describing
  binary container. No entropy coder is in scope for this core (spec.md
  §1); this exists to give the client CLI a real output artifact to produce
  and round-trip in tests.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package raw implements sink.Writer as a simple length-free binary dump of
// encoded frame artifacts, sized by a fixed geometry established up front.
package raw

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/geometry"
)

// magic identifies the container format and its version.
var magic = [4]byte{'c', '6', '3', '1'}

// Writer is a sink.Writer that appends each frame to a file in a simple
// binary container: a fixed header followed by one record per frame.
type Writer struct {
	f *os.File
	w *bufio.Writer
	g geometry.Geometry
}

// New creates (truncating if necessary) the file at path and writes its
// header, describing frames of geometry g.
func New(path string, g geometry.Geometry) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("raw: could not create output file: %w", err)
	}
	w := &Writer{f: f, w: bufio.NewWriter(f), g: g}
	if err := w.writeHeader(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader() error {
	if _, err := w.w.Write(magic[:]); err != nil {
		return err
	}
	return writeUint32s(w.w, uint32(w.g.Width), uint32(w.g.Height))
}

// WriteFrame appends f to the output, encoding its keyframe flag,
// macroblock arrays, and quantized coefficients.
func (w *Writer) WriteFrame(f *c63.Frame) error {
	var kf byte
	if f.Keyframe {
		kf = 1
	}
	if err := w.w.WriteByte(kf); err != nil {
		return fmt.Errorf("raw: write keyframe flag: %w", err)
	}
	for _, mbs := range f.MBs {
		if err := writeMBs(w.w, mbs); err != nil {
			return fmt.Errorf("raw: write macroblocks: %w", err)
		}
	}
	for _, coeffs := range [][]int16{f.Residuals.Ydct, f.Residuals.Udct, f.Residuals.Vdct} {
		if err := writeInt16s(w.w, coeffs); err != nil {
			return fmt.Errorf("raw: write coefficients: %w", err)
		}
	}
	return nil
}

// Close flushes buffered output and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return fmt.Errorf("raw: flush: %w", err)
	}
	return w.f.Close()
}

func writeUint32s(w *bufio.Writer, vs ...uint32) error {
	var buf [4]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint32(buf[:], v)
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func writeMBs(w *bufio.Writer, mbs []c63.Macroblock) error {
	var buf [9]byte
	for _, mb := range mbs {
		if mb.UseMV {
			buf[0] = 1
		} else {
			buf[0] = 0
		}
		binary.LittleEndian.PutUint32(buf[1:5], uint32(int32(mb.MVX)))
		binary.LittleEndian.PutUint32(buf[5:9], uint32(int32(mb.MVY)))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}

func writeInt16s(w *bufio.Writer, vs []int16) error {
	var buf [2]byte
	for _, v := range vs {
		binary.LittleEndian.PutUint16(buf[:], uint16(v))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}
