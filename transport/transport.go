/*
DESCRIPTION
  transport.go declares the interface the c63 core consumes to move bytes
  between two nodes over a shared-memory interconnect. The core never talks
  to a physical fabric directly; it is handed a Transport and treats
  everything below that boundary as an external collaborator.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package transport declares the shared-memory transport interface consumed
// by protocol/c63proto, and provides a usable in-process reference
// implementation (shmpair) for testing and for running both nodes of a c63
// session in a single binary.
package transport

import (
	"context"
	"time"
)

// Role enumerates the segment roles in the (group<<16)|role composite
// segment ID convention.
type Role uint16

const (
	RoleRawClient Role = iota + 1
	RoleRawServer
	RoleCmdClient
	RoleCmdServer
	RoleResultClient
	RoleResultServer
)

// SegmentID builds the composite segment identifier (group<<16)|role used
// to address a segment on the fabric.
func SegmentID(group uint32, role Role) uint32 {
	return group<<16 | uint32(role)
}

// Segment is an opaque handle to a local or remote shared-memory segment.
// Implementations define their own concrete type; the core only ever holds
// and passes around the interface value.
type Segment interface {
	// ID returns the segment's composite identifier.
	ID() uint32
	// Size returns the segment's size in bytes.
	Size() int
}

// DMAQueue is an opaque handle to a one-shot DMA transfer queue. The spec's
// max_entries=1 pattern means no pipelining is ever in flight on a queue at
// once.
type DMAQueue interface{}

// DMAHandle identifies a single in-flight (or completed) DMA transfer.
type DMAHandle interface{}

// Transport is the set of operations the c63 core requires of a
// shared-memory interconnect. It is deliberately narrow: create/export/map
// segments, and copy bytes between them via a one-shot DMA transfer.
type Transport interface {
	// CreateSegment creates and owns a local segment of the given size,
	// addressable by id.
	CreateSegment(id uint32, size int) (Segment, error)

	// Prepare makes a locally created segment ready to be mapped.
	Prepare(seg Segment) error

	// SetAvailable exports seg so that a remote node may connect to it.
	SetAvailable(seg Segment) error

	// ConnectRemote connects to a segment exported by node, identified by
	// id, retrying internally until timeout elapses or ctx is cancelled.
	ConnectRemote(ctx context.Context, node int, id uint32, timeout time.Duration) (Segment, error)

	// MapLocal returns a byte slice view of size bytes at offset into a
	// locally owned segment.
	MapLocal(seg Segment, offset, size int) ([]byte, error)

	// MapRemote returns a byte slice view of size bytes at offset into a
	// remote segment, suitable as a DMA source or destination.
	MapRemote(seg Segment, offset, size int) ([]byte, error)

	// CreateDMAQueue creates a transfer queue with room for at most
	// maxEntries outstanding transfers.
	CreateDMAQueue(maxEntries int) (DMAQueue, error)

	// StartDMA begins copying size bytes from localOff in src to remoteOff
	// in dst, returning a handle to await completion.
	StartDMA(q DMAQueue, src, dst Segment, localOff, size, remoteOff int) (DMAHandle, error)

	// WaitDMA blocks until handle completes or timeout elapses.
	WaitDMA(q DMAQueue, handle DMAHandle, timeout time.Duration) error

	// Terminate releases all transport resources. It is always safe to
	// call once all in-flight DMA has completed.
	Terminate() error
}
