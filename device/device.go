/*
DESCRIPTION
  device.go provides Source, an interface that describes a startable,
  stoppable raw YUV frame source.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides an interface for raw YUV frame sources that can
// be started and stopped, and a manual, pipe-backed implementation useful
// for tests and for feeding frames programmatically.
package device

import (
	"errors"
	"io"
)

// Source describes a startable, stoppable raw YUV source. Source is an
// io.Reader: Read returns however many bytes of the padded planar stream
// are currently available, not necessarily a whole frame — callers that
// need whole frames should use io.ReadFull against a buffer sized by
// geometry.Geometry, as device/yuvfile does.
type Source interface {
	io.Reader

	// Name returns the name of the Source.
	Name() string

	// Start begins making frame data available via Read.
	Start() error

	// Stop stops the Source. Reads after Stop fail.
	Stop() error

	// IsRunning reports whether Start has been called without a
	// subsequent Stop.
	IsRunning() bool
}

// ManualInput is a Source that is fed programmatically via Write rather
// than reading from a file or device. It is backed by an io.Pipe, so every
// Write must be matched by a Read of at least as many bytes, or the writer
// blocks.
type ManualInput struct {
	isRunning bool
	reader    *io.PipeReader
	writer    *io.PipeWriter
}

// NewManualInput returns a new, unstarted ManualInput.
func NewManualInput() *ManualInput {
	return &ManualInput{}
}

// Read reads from the manual input and puts the bytes into p.
func (m *ManualInput) Read(p []byte) (int, error) {
	if !m.isRunning {
		return 0, errors.New("device: manual input has not been started, can't read")
	}
	return m.reader.Read(p)
}

// Name returns the name of ManualInput i.e. "ManualInput".
func (m *ManualInput) Name() string { return "ManualInput" }

// Start opens the pipe and sets the isRunning flag.
func (m *ManualInput) Start() error {
	m.isRunning = true
	m.reader, m.writer = io.Pipe()
	return nil
}

// Stop closes the pipe and clears the isRunning flag.
func (m *ManualInput) Stop() error {
	if m.reader != nil {
		m.reader.Close()
	}
	m.isRunning = false
	return nil
}

// IsRunning reports whether Start has been called without a subsequent
// Stop.
func (m *ManualInput) IsRunning() bool { return m.isRunning }

// Write writes p to the ManualInput's writer side of its pipe.
func (m *ManualInput) Write(p []byte) (int, error) {
	if !m.isRunning {
		return 0, errors.New("device: manual input has not been started, can't write")
	}
	return m.writer.Write(p)
}
