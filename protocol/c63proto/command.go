/*
DESCRIPTION
  command.go defines the command word alphabet and the CmdCell type: a
  polled, atomically accessed cell living inside a shared-memory segment
  that the two nodes use to coordinate frame handoff (spec.md §4.6, §9).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package c63proto implements the inter-node handshake protocol, frame
// shuttle, and command-word coordination for a two-node c63 session. It
// consumes only the transport.Transport interface; it has no idea what a
// physical shared-memory fabric actually is.
package c63proto

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"
	"unsafe"
)

// Command is a polled command word exchanged between client and server.
type Command int32

const (
	// Invalid is the ack/reset state: "no new command pending."
	Invalid Command = iota
	// Done marks that the segment data for the current frame is valid and
	// ready for the peer to consume.
	Done
	// Quit signals clean shutdown; the server must drain no further
	// frames once it observes Quit.
	Quit
)

func (c Command) String() string {
	switch c {
	case Invalid:
		return "INVALID"
	case Done:
		return "DONE"
	case Quit:
		return "QUIT"
	default:
		return fmt.Sprintf("Command(%d)", int32(c))
	}
}

// CmdCellSize is the number of bytes a CmdCell occupies in its backing
// segment: a command word plus the initial frame dimensions.
const CmdCellSize = 12

// CmdCell is a {cmd, img_width, img_height} record living at the start of a
// command segment. The command word is accessed with atomic load/store so
// that a write by one node is visible to the other as soon as it observes
// the new value — modeling the spec's "volatile polled command word" as an
// acquire/release pair rather than a raw shared variable (spec.md §9).
//
// CmdCell does not own its backing memory: it is a view over a byte slice
// obtained from a transport.Segment via MapLocal/MapRemote, so that two
// CmdCell values on either side of a Pair observe the same bytes.
type CmdCell struct {
	buf []byte // len(buf) >= CmdCellSize
}

// NewCmdCell wraps buf as a CmdCell. buf must be at least CmdCellSize bytes
// and must remain valid for the CmdCell's lifetime.
func NewCmdCell(buf []byte) (*CmdCell, error) {
	if len(buf) < CmdCellSize {
		return nil, fmt.Errorf("c63proto: command segment too small: got %d bytes, want >= %d", len(buf), CmdCellSize)
	}
	return &CmdCell{buf: buf}, nil
}

// cmdPtr returns the address of the command word as *int32 for use with
// sync/atomic. buf[0:4] is required to be 4-byte aligned, which holds for
// any segment the transport allocates at a page or word boundary.
func (c *CmdCell) cmdPtr() *int32 {
	return (*int32)(unsafe.Pointer(&c.buf[0]))
}

// StoreCmd atomically publishes cmd (a release).
func (c *CmdCell) StoreCmd(cmd Command) {
	atomic.StoreInt32(c.cmdPtr(), int32(cmd))
}

// LoadCmd atomically observes the current command word (an acquire).
func (c *CmdCell) LoadCmd() Command {
	return Command(atomic.LoadInt32(c.cmdPtr()))
}

// SetDims writes the initial frame dimensions. Callers must StoreCmd after
// SetDims so the peer cannot observe dimensions without the accompanying
// release.
func (c *CmdCell) SetDims(width, height int) {
	binary.LittleEndian.PutUint32(c.buf[4:8], uint32(width))
	binary.LittleEndian.PutUint32(c.buf[8:12], uint32(height))
}

// Dims reads the frame dimensions. Callers must LoadCmd first (an acquire)
// to establish happens-before with the peer's SetDims.
func (c *CmdCell) Dims() (width, height int) {
	width = int(binary.LittleEndian.Uint32(c.buf[4:8]))
	height = int(binary.LittleEndian.Uint32(c.buf[8:12]))
	return width, height
}
