/*
DESCRIPTION
  shmpair.go is a usable in-process implementation of the Transport
  interface. It models two nodes sharing a pool of named byte arenas, with
  DMA transfers performed as real (if instantaneous) background copies so
  that WaitDMA has something to actually wait for. It is not a driver for
  any physical interconnect fabric; it exists so protocol/c63proto and
  cmd/c63-client + cmd/c63-server are runnable end-to-end without a real
  shared-memory network, and so tests can exercise the full client/server
  handshake against a mock transport (spec.md §8 scenario S6).

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package transport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// segment is the concrete Segment implementation shared by both ends of a
// Pair: a plain byte arena addressed by composite ID.
type segment struct {
	id   uint32
	data []byte
}

func (s *segment) ID() uint32 { return s.id }
func (s *segment) Size() int  { return len(s.data) }

// fabric is the shared state visible to both nodes of a Pair: every segment
// either side has created, keyed by composite ID.
type fabric struct {
	mu       sync.Mutex
	segments map[uint32]*segment
}

// Node is one side of an in-process shared-memory pair.
type Node struct {
	name string
	f    *fabric
}

// queue is the concrete DMAQueue: a semaphore limiting outstanding
// transfers to maxEntries, matching the spec's max_entries=1 no-pipelining
// pattern.
type queue struct {
	sem chan struct{}
}

// handle is the concrete DMAHandle: a channel closed when the transfer
// completes, and the error (if any) it completed with.
type handle struct {
	done chan struct{}
	err  error
}

// NewPair returns two Nodes, named client and server, that share the same
// underlying fabric of segments.
func NewPair() (client, server *Node) {
	f := &fabric{segments: make(map[uint32]*segment)}
	return &Node{name: "client", f: f}, &Node{name: "server", f: f}
}

func (n *Node) CreateSegment(id uint32, size int) (Segment, error) {
	n.f.mu.Lock()
	defer n.f.mu.Unlock()
	if _, ok := n.f.segments[id]; ok {
		return nil, fmt.Errorf("shmpair: segment %d already exists", id)
	}
	seg := &segment{id: id, data: make([]byte, size)}
	n.f.segments[id] = seg
	return seg, nil
}

func (n *Node) Prepare(seg Segment) error { return nil }

func (n *Node) SetAvailable(seg Segment) error { return nil }

// ConnectRemote polls the fabric until the segment identified by id exists,
// ctx is cancelled, or timeout elapses. node is unused: a Pair has exactly
// one remote peer.
func (n *Node) ConnectRemote(ctx context.Context, node int, id uint32, timeout time.Duration) (Segment, error) {
	deadline := time.Now().Add(timeout)
	for {
		n.f.mu.Lock()
		seg, ok := n.f.segments[id]
		n.f.mu.Unlock()
		if ok {
			return seg, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if timeout > 0 && time.Now().After(deadline) {
			return nil, fmt.Errorf("shmpair: timed out connecting to segment %d", id)
		}
		time.Sleep(time.Millisecond)
	}
}

func (n *Node) MapLocal(seg Segment, offset, size int) ([]byte, error) {
	return mapSegment(seg, offset, size)
}

func (n *Node) MapRemote(seg Segment, offset, size int) ([]byte, error) {
	return mapSegment(seg, offset, size)
}

func mapSegment(seg Segment, offset, size int) ([]byte, error) {
	s, ok := seg.(*segment)
	if !ok {
		return nil, errors.New("shmpair: foreign segment type")
	}
	if offset < 0 || size < 0 || offset+size > len(s.data) {
		return nil, fmt.Errorf("shmpair: map out of bounds: offset=%d size=%d segment=%d", offset, size, len(s.data))
	}
	return s.data[offset : offset+size], nil
}

func (n *Node) CreateDMAQueue(maxEntries int) (DMAQueue, error) {
	if maxEntries < 1 {
		return nil, errors.New("shmpair: maxEntries must be at least 1")
	}
	return &queue{sem: make(chan struct{}, maxEntries)}, nil
}

// StartDMA copies size bytes from src[localOff:] to dst[remoteOff:] on a
// background goroutine and returns a handle that completes when the copy
// does. Acquiring the queue's semaphore enforces the max_entries bound.
func (n *Node) StartDMA(q DMAQueue, src, dst Segment, localOff, size, remoteOff int) (DMAHandle, error) {
	qq, ok := q.(*queue)
	if !ok {
		return nil, errors.New("shmpair: foreign queue type")
	}
	srcBuf, err := mapSegment(src, localOff, size)
	if err != nil {
		return nil, errors.Wrap(err, "shmpair: bad DMA source")
	}
	dstBuf, err := mapSegment(dst, remoteOff, size)
	if err != nil {
		return nil, errors.Wrap(err, "shmpair: bad DMA destination")
	}

	select {
	case qq.sem <- struct{}{}:
	default:
		return nil, errors.New("shmpair: DMA queue full")
	}

	h := &handle{done: make(chan struct{})}
	go func() {
		defer close(h.done)
		defer func() { <-qq.sem }()
		copy(dstBuf, srcBuf)
	}()
	return h, nil
}

func (n *Node) WaitDMA(q DMAQueue, h DMAHandle, timeout time.Duration) error {
	hh, ok := h.(*handle)
	if !ok {
		return errors.New("shmpair: foreign handle type")
	}
	if timeout <= 0 {
		<-hh.done
		return hh.err
	}
	select {
	case <-hh.done:
		return hh.err
	case <-time.After(timeout):
		return fmt.Errorf("shmpair: DMA wait timed out")
	}
}

func (n *Node) Terminate() error { return nil }
