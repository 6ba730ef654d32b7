/*
DESCRIPTION
  yuvfile.go provides an implementation of device.Source for raw planar
  4:2:0 YUV files, and ReadFrame, which reads one whole padded frame at a
  time for the c63 client handshake.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package yuvfile provides a raw planar YUV 4:2:0 file reader implementing
// device.Source and protocol/c63proto.FrameSource.
package yuvfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/geometry"
	"github.com/ausocean/utils/logging"
)

// Reader is a device.Source backed by a file of concatenated, padded,
// planar YUV 4:2:0 frames.
type Reader struct {
	path      string
	f         *os.File
	isRunning bool
	log       logging.Logger
	mu        sync.Mutex
}

// New returns a new, unstarted Reader for the file at path.
func New(l logging.Logger, path string) *Reader {
	return &Reader{log: l, path: path}
}

// Name returns "YUVFile".
func (r *Reader) Name() string { return "YUVFile" }

// Start opens the underlying file.
func (r *Reader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var err error
	r.f, err = os.Open(r.path)
	if err != nil {
		return fmt.Errorf("yuvfile: could not open input file: %w", err)
	}
	r.isRunning = true
	return nil
}

// Stop closes the underlying file.
func (r *Reader) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.isRunning = false
	return err
}

// IsRunning reports whether Start has been called without a subsequent
// Stop.
func (r *Reader) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isRunning
}

// Read implements io.Reader by reading directly from the underlying file.
func (r *Reader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.f == nil {
		return 0, errors.New("yuvfile: reader is closed, not started")
	}
	return r.f.Read(p)
}

// ReadFrame reads one whole frame from the file into padded, zero-filled
// planes sized by g. The file itself holds only the unpadded samples —
// width*height luma, (width*height)/4 each of U and V. Each plane's samples
// are copied in file order to the start of its padded plane, not row by row
// at the padded stride, so when the width is not a multiple of 16 the source
// rows do not line up with the plane's rows. The bytes of each plane past
// those samples are never read from the file and stay zero.
//
// It returns io.EOF if the file ends exactly on a frame boundary, or
// io.ErrUnexpectedEOF if it ends partway through a frame — both of which
// the handshake protocol treats as a clean end of stream (spec.md §7).
func (r *Reader) ReadFrame(g geometry.Geometry) (*c63.RawFrame, error) {
	raw := &c63.RawFrame{
		Y: make([]uint8, g.YSize()),
		U: make([]uint8, g.USize()),
		V: make([]uint8, g.VSize()),
	}

	ySize := g.Width * g.Height
	cSize := (g.Width * g.Height) / 4

	n, err := io.ReadFull(r, raw.Y[:ySize])
	if err == io.EOF && n == 0 {
		return nil, io.EOF
	}
	if err != nil {
		return nil, io.ErrUnexpectedEOF
	}

	if _, err := io.ReadFull(r, raw.U[:cSize]); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	if _, err := io.ReadFull(r, raw.V[:cSize]); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return raw, nil
}
