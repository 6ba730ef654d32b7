/*
DESCRIPTION
  netseg.go implements the Transport interface over a single TCP connection
  between two nodes, so cmd/c63-client and cmd/c63-server can actually run
  as two separate processes (or two separate machines) without requiring a
  real shared-memory interconnect, which is explicitly out of scope for
  this core (spec.md §1) and not available in this pack.

  It is not a shared-memory emulation: there is no way to give a []byte a
  live view of another process's memory over a socket. Instead:
    - A segment a node creates locally (CreateSegment) is real local
      memory, written directly by MapLocal.
    - A DMA push (StartDMA) ships the source bytes over the wire tagged by
      the destination segment's ID; the receiver, on observing that it owns
      a local segment with that ID, copies the payload in and acks.
    - Small "control" segments (command cells) are additionally mirrored to
      the peer on a tight timer, so that MapRemote on a peer's command
      segment returns a local buffer that tracks the peer's writes closely
      enough for polling to observe them promptly. This replaces hardware
      cache-coherent visibility with best-effort, latest-wins network push.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package netseg implements transport.Transport over a TCP connection
// between exactly two nodes.
package netseg

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ausocean/c63/transport"
)

// controlSegmentMaxSize is the largest segment size eligible for the
// periodic mirror push. Data segments (raw/result, potentially megabytes)
// are only ever sent on an explicit DMA.
const controlSegmentMaxSize = 64

// syncInterval is how often an owned control segment is mirrored to the
// peer.
const syncInterval = 200 * time.Microsecond

const (
	kindUpdate byte = iota
	kindAck
)

type segHandle struct {
	id   uint32
	size int
}

func (s segHandle) ID() uint32 { return s.id }
func (s segHandle) Size() int  { return s.size }

type dmaQueue struct {
	sem chan struct{}
}

type dmaHandle struct {
	done chan error
}

// Node is one end of a TCP-connected Transport pair.
type Node struct {
	conn   net.Conn
	w      *bufio.Writer
	writeMu sync.Mutex

	mu            sync.Mutex
	local         map[uint32][]byte
	remoteMirrors map[uint32][]byte
	pushers       map[uint32]chan struct{} // closed on Terminate, one per owned control segment

	corrMu   sync.Mutex
	nextCorr uint64
	pending  map[uint64]chan error

	closed atomic.Bool
}

// Listen blocks until a peer dials addr, then returns a connected Node.
func Listen(ctx context.Context, addr string) (*Node, error) {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netseg: listen: %w", err)
	}
	defer ln.Close()

	type result struct {
		conn net.Conn
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		conn, err := ln.Accept()
		ch <- result{conn, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("netseg: accept: %w", r.err)
		}
		return newNode(r.conn), nil
	}
}

// Dial connects to a peer listening at addr.
func Dial(ctx context.Context, addr string) (*Node, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("netseg: dial: %w", err)
	}
	return newNode(conn), nil
}

func newNode(conn net.Conn) *Node {
	n := &Node{
		conn:          conn,
		w:             bufio.NewWriter(conn),
		local:         make(map[uint32][]byte),
		remoteMirrors: make(map[uint32][]byte),
		pushers:       make(map[uint32]chan struct{}),
		pending:       make(map[uint64]chan error),
	}
	go n.readLoop()
	return n
}

func (n *Node) CreateSegment(id uint32, size int) (transport.Segment, error) {
	n.mu.Lock()
	if _, ok := n.local[id]; ok {
		n.mu.Unlock()
		return nil, fmt.Errorf("netseg: segment %d already exists", id)
	}
	n.local[id] = make([]byte, size)
	n.mu.Unlock()

	if size <= controlSegmentMaxSize {
		n.startPusher(id)
	}
	return segHandle{id: id, size: size}, nil
}

func (n *Node) startPusher(id uint32) {
	stop := make(chan struct{})
	n.mu.Lock()
	n.pushers[id] = stop
	n.mu.Unlock()

	go func() {
		t := time.NewTicker(syncInterval)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				n.mu.Lock()
				buf := n.local[id]
				payload := append([]byte(nil), buf...)
				n.mu.Unlock()
				_ = n.writeFrame(kindUpdate, false, 0, id, 0, payload)
			}
		}
	}()
}

func (n *Node) Prepare(seg transport.Segment) error      { return nil }
func (n *Node) SetAvailable(seg transport.Segment) error { return nil }

// ConnectRemote succeeds immediately: there is no discovery handshake in
// this transport, since both sides derive segment IDs and sizes
// independently from shared geometry. node is unused — a Node has exactly
// one peer.
func (n *Node) ConnectRemote(ctx context.Context, node int, id uint32, timeout time.Duration) (transport.Segment, error) {
	return segHandle{id: id}, nil
}

func (n *Node) MapLocal(seg transport.Segment, offset, size int) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	buf, ok := n.local[seg.ID()]
	if !ok {
		return nil, fmt.Errorf("netseg: no local segment %d", seg.ID())
	}
	if offset < 0 || size < 0 || offset+size > len(buf) {
		return nil, fmt.Errorf("netseg: map out of bounds: offset=%d size=%d segment=%d", offset, size, len(buf))
	}
	return buf[offset : offset+size], nil
}

// MapRemote returns a view into the local mirror of a peer-owned segment,
// allocating it on first use. The mirror is kept current by readLoop as
// update messages for this ID arrive.
func (n *Node) MapRemote(seg transport.Segment, offset, size int) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	buf, ok := n.remoteMirrors[seg.ID()]
	if !ok || len(buf) < offset+size {
		grown := make([]byte, offset+size)
		copy(grown, buf)
		buf = grown
		n.remoteMirrors[seg.ID()] = buf
	}
	return buf[offset : offset+size], nil
}

func (n *Node) CreateDMAQueue(maxEntries int) (transport.DMAQueue, error) {
	if maxEntries < 1 {
		return nil, fmt.Errorf("netseg: maxEntries must be at least 1")
	}
	return &dmaQueue{sem: make(chan struct{}, maxEntries)}, nil
}

// StartDMA ships size bytes from src[localOff:] to the peer, tagged with
// dst's ID and remoteOff, and registers a correlation entry that resolves
// when the peer acks having applied it.
func (n *Node) StartDMA(q transport.DMAQueue, src, dst transport.Segment, localOff, size, remoteOff int) (transport.DMAHandle, error) {
	qq, ok := q.(*dmaQueue)
	if !ok {
		return nil, fmt.Errorf("netseg: foreign queue type")
	}
	n.mu.Lock()
	buf, ok := n.local[src.ID()]
	n.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("netseg: DMA source %d is not a local segment", src.ID())
	}
	if localOff < 0 || size < 0 || localOff+size > len(buf) {
		return nil, fmt.Errorf("netseg: DMA source out of bounds")
	}
	payload := append([]byte(nil), buf[localOff:localOff+size]...)

	select {
	case qq.sem <- struct{}{}:
	default:
		return nil, fmt.Errorf("netseg: DMA queue full")
	}

	corr := n.nextCorrID()
	done := make(chan error, 1)
	n.corrMu.Lock()
	n.pending[corr] = done
	n.corrMu.Unlock()

	if err := n.writeFrame(kindUpdate, true, corr, dst.ID(), remoteOff, payload); err != nil {
		<-qq.sem
		return nil, fmt.Errorf("netseg: send DMA: %w", err)
	}

	h := &dmaHandle{done: make(chan error, 1)}
	go func() {
		defer func() { <-qq.sem }()
		h.done <- <-done
	}()
	return h, nil
}

func (n *Node) WaitDMA(q transport.DMAQueue, handle transport.DMAHandle, timeout time.Duration) error {
	h, ok := handle.(*dmaHandle)
	if !ok {
		return fmt.Errorf("netseg: foreign handle type")
	}
	if timeout <= 0 {
		return <-h.done
	}
	select {
	case err := <-h.done:
		return err
	case <-time.After(timeout):
		return fmt.Errorf("netseg: DMA wait timed out")
	}
}

func (n *Node) Terminate() error {
	if !n.closed.CompareAndSwap(false, true) {
		return nil
	}
	n.mu.Lock()
	for _, stop := range n.pushers {
		close(stop)
	}
	n.mu.Unlock()
	return n.conn.Close()
}

func (n *Node) nextCorrID() uint64 {
	n.corrMu.Lock()
	defer n.corrMu.Unlock()
	n.nextCorr++
	return n.nextCorr
}

// writeFrame serializes and sends one wire frame. Frame layout:
// kind(1) [update: needAck(1) corrID(8) segID(4) offset(4) length(4) payload(length)]
// [ack: corrID(8)]
func (n *Node) writeFrame(kind byte, needAck bool, corr uint64, segID uint32, offset int, payload []byte) error {
	n.writeMu.Lock()
	defer n.writeMu.Unlock()

	if err := n.w.WriteByte(kind); err != nil {
		return err
	}
	switch kind {
	case kindAck:
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], corr)
		if _, err := n.w.Write(buf[:]); err != nil {
			return err
		}
	case kindUpdate:
		var hdr [17]byte
		if needAck {
			hdr[0] = 1
		}
		binary.LittleEndian.PutUint64(hdr[1:9], corr)
		binary.LittleEndian.PutUint32(hdr[9:13], segID)
		binary.LittleEndian.PutUint32(hdr[13:17], uint32(offset))
		if _, err := n.w.Write(hdr[:]); err != nil {
			return err
		}
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(payload)))
		if _, err := n.w.Write(lenBuf[:]); err != nil {
			return err
		}
		if _, err := n.w.Write(payload); err != nil {
			return err
		}
	}
	return n.w.Flush()
}

func (n *Node) readLoop() {
	r := bufio.NewReader(n.conn)
	for {
		kind, err := r.ReadByte()
		if err != nil {
			return
		}
		switch kind {
		case kindAck:
			var buf [8]byte
			if _, err := readFull(r, buf[:]); err != nil {
				return
			}
			corr := binary.LittleEndian.Uint64(buf[:])
			n.corrMu.Lock()
			ch, ok := n.pending[corr]
			delete(n.pending, corr)
			n.corrMu.Unlock()
			if ok {
				ch <- nil
			}
		case kindUpdate:
			var hdr [17]byte
			if _, err := readFull(r, hdr[:]); err != nil {
				return
			}
			needAck := hdr[0] == 1
			corr := binary.LittleEndian.Uint64(hdr[1:9])
			segID := binary.LittleEndian.Uint32(hdr[9:13])
			offset := int(binary.LittleEndian.Uint32(hdr[13:17]))

			var lenBuf [4]byte
			if _, err := readFull(r, lenBuf[:]); err != nil {
				return
			}
			length := int(binary.LittleEndian.Uint32(lenBuf[:]))
			payload := make([]byte, length)
			if _, err := readFull(r, payload); err != nil {
				return
			}

			n.applyUpdate(segID, offset, payload)

			if needAck {
				_ = n.writeFrame(kindAck, false, corr, 0, 0, nil)
			}
		default:
			return
		}
	}
}

func (n *Node) applyUpdate(segID uint32, offset int, payload []byte) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if buf, ok := n.local[segID]; ok {
		copy(buf[offset:], payload)
		return
	}
	mirror, ok := n.remoteMirrors[segID]
	if !ok || len(mirror) < offset+len(payload) {
		grown := make([]byte, offset+len(payload))
		copy(grown, mirror)
		mirror = grown
		n.remoteMirrors[segID] = mirror
	}
	copy(mirror[offset:], payload)
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		k, err := r.Read(buf[total:])
		total += k
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
