/*
DESCRIPTION
  sink.go declares Writer, the interface the client hands encoded frames to.
  The core does not prescribe the output bitstream format (spec.md §6); an
  entropy coder / container writer is an external collaborator behind this
  interface.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sink declares the Writer interface the c63 client hands encoded
// frames to, and implements protocol/c63proto.ResultSink against it.
package sink

import "github.com/ausocean/c63/codec/c63"

// Writer consumes encoded frame artifacts and is responsible for producing
// whatever final output artifact the caller wants — a bitstream file, a
// test buffer, or a network sink. Close flushes and releases any
// underlying resource.
type Writer interface {
	WriteFrame(f *c63.Frame) error
	Close() error
}

// Adapter adapts a Writer to protocol/c63proto.ResultSink.
type Adapter struct {
	W Writer
}

// WriteFrame implements protocol/c63proto.ResultSink.
func (a Adapter) WriteFrame(f *c63.Frame) error { return a.W.WriteFrame(f) }
