/*
DESCRIPTION
  handshake.go drives the per-frame client/server exchange: the initial
  dimension handshake, and the steady-state ready/done cycle that hands raw
  frames to the server and encoded artifacts back to the client. Every
  suspension point is a busy-wait spin (optionally backed off with a short
  sleep) on a command word, per spec.md §5.

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
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/geometry"
	"github.com/ausocean/c63/transport"
	"github.com/ausocean/utils/logging"
)

// spinBackoff is the sleep between polls of a command word. It trades a
// little latency for not pegging a CPU core; set to zero for a true spin.
const spinBackoff = 100 * time.Microsecond

// connectTimeout bounds how long a node waits for the peer to export a
// segment during setup. The steady-state per-frame waits are infinite, per
// spec.md §5 ("Timeouts: None at the core level").
const connectTimeout = 30 * time.Second

// dmaTimeout bounds an individual DMA transfer. The protocol itself places
// no timeout on DMA (spec.md §5); this exists only as a safety net so a
// wedged transport can't hang a node forever.
const dmaTimeout = 10 * time.Second

// FrameSource supplies raw YUV frames to the client side of the protocol.
// ReadFrame returns io.EOF on a clean end of stream, or
// io.ErrUnexpectedEOF if the source is exhausted mid-frame; either causes
// the client to emit Quit and terminate cleanly (spec.md §7).
type FrameSource interface {
	ReadFrame(g geometry.Geometry) (*c63.RawFrame, error)
}

// ResultSink consumes encoded frame artifacts on the client side, handing
// them to whatever external bitstream writer is in use.
type ResultSink interface {
	WriteFrame(f *c63.Frame) error
}

// Client drives the client side of a c63 session: read raw frames, ship
// them to the server, and hand back the results it returns.
type Client struct {
	Transport      transport.Transport
	Group          uint32
	RemoteNode     int
	Width, Height  int
	FrameCap       int // 0 means unlimited
	Source         FrameSource
	Sink           ResultSink
	Log            logging.Logger

	g                                  geometry.Geometry
	rawSeg, cmdSeg, resultSeg          transport.Segment
	remoteRawSeg, remoteCmdSeg         transport.Segment
	localRawBuf                        []byte
	localResultBuf                     []byte
	cmdOut, cmdIn                      *CmdCell
	queue                              transport.DMAQueue
}

// Run executes the client side of the protocol to completion: the initial
// handshake, then the per-frame loop, until the source is exhausted, the
// frame cap is reached, or ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	g, err := geometry.New(c.Width, c.Height)
	if err != nil {
		return fmt.Errorf("c63proto: client: %w", err)
	}
	c.g = g

	if err := c.setupLocalAndCmd(ctx); err != nil {
		return fmt.Errorf("c63proto: client setup: %w", err)
	}
	defer c.Transport.Terminate()

	// Publish dimensions before connecting to the server's raw segment:
	// the server doesn't create that segment until it has learned the
	// geometry from this handshake, so connecting any earlier would
	// deadlock both sides waiting on each other.
	c.cmdOut.SetDims(c.Width, c.Height)
	c.cmdOut.StoreCmd(Done)
	c.logf("sent initial handshake: %dx%d", c.Width, c.Height)

	if err := c.connectDataChannel(ctx); err != nil {
		return fmt.Errorf("c63proto: client: %w", err)
	}

	frames := 0
	for {
		c.cmdIn.StoreCmd(Invalid)

		raw, err := c.Source.ReadFrame(g)
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			c.logf("end of input after %d frames, sending QUIT", frames)
			c.cmdOut.StoreCmd(Quit)
			return nil
		}
		if err != nil {
			c.cmdOut.StoreCmd(Quit)
			return fmt.Errorf("c63proto: client: read frame: %w", err)
		}

		if err := WriteRaw(c.localRawBuf, raw, g); err != nil {
			return fmt.Errorf("c63proto: client: %w", err)
		}

		h, err := c.Transport.StartDMA(c.queue, c.rawSeg, c.remoteRawSeg, 0, RawSegSize(g), 0)
		if err != nil {
			return fmt.Errorf("c63proto: client: start raw DMA: %w", err)
		}
		if err := c.Transport.WaitDMA(c.queue, h, dmaTimeout); err != nil {
			return fmt.Errorf("c63proto: client: wait raw DMA: %w", err)
		}

		c.cmdOut.StoreCmd(Done)

		if err := spinUntil(ctx, func() bool { return c.cmdIn.LoadCmd() == Done }); err != nil {
			return fmt.Errorf("c63proto: client: %w", err)
		}

		frame, err := ReadResult(c.localResultBuf, g)
		if err != nil {
			return fmt.Errorf("c63proto: client: %w", err)
		}
		if err := c.Sink.WriteFrame(frame); err != nil {
			return fmt.Errorf("c63proto: client: sink: %w", err)
		}

		frames++
		if c.FrameCap > 0 && frames >= c.FrameCap {
			c.logf("reached frame cap of %d, sending QUIT", c.FrameCap)
			c.cmdOut.StoreCmd(Quit)
			return nil
		}
	}
}

// setupLocalAndCmd creates the client's own segments and connects to the
// server's command segment, which (unlike the server's data segments) the
// server creates unconditionally at startup without needing to know the
// frame geometry first.
func (c *Client) setupLocalAndCmd(ctx context.Context) error {
	var err error

	c.rawSeg, err = c.Transport.CreateSegment(transport.SegmentID(c.Group, transport.RoleRawClient), RawSegSize(c.g))
	if err != nil {
		return err
	}
	c.cmdSeg, err = c.Transport.CreateSegment(transport.SegmentID(c.Group, transport.RoleCmdClient), CmdCellSize)
	if err != nil {
		return err
	}
	c.resultSeg, err = c.Transport.CreateSegment(transport.SegmentID(c.Group, transport.RoleResultClient), ResultSegSize(c.g))
	if err != nil {
		return err
	}
	for _, seg := range []transport.Segment{c.rawSeg, c.cmdSeg, c.resultSeg} {
		if err := c.Transport.Prepare(seg); err != nil {
			return err
		}
		if err := c.Transport.SetAvailable(seg); err != nil {
			return err
		}
	}

	c.remoteCmdSeg, err = c.Transport.ConnectRemote(ctx, c.RemoteNode, transport.SegmentID(c.Group, transport.RoleCmdServer), connectTimeout)
	if err != nil {
		return err
	}

	c.localRawBuf, err = c.Transport.MapLocal(c.rawSeg, 0, RawSegSize(c.g))
	if err != nil {
		return err
	}
	c.localResultBuf, err = c.Transport.MapLocal(c.resultSeg, 0, ResultSegSize(c.g))
	if err != nil {
		return err
	}

	cmdOutBuf, err := c.Transport.MapLocal(c.cmdSeg, 0, CmdCellSize)
	if err != nil {
		return err
	}
	c.cmdOut, err = NewCmdCell(cmdOutBuf)
	if err != nil {
		return err
	}
	cmdInBuf, err := c.Transport.MapRemote(c.remoteCmdSeg, 0, CmdCellSize)
	if err != nil {
		return err
	}
	c.cmdIn, err = NewCmdCell(cmdInBuf)
	if err != nil {
		return err
	}

	c.queue, err = c.Transport.CreateDMAQueue(1)
	return err
}

// connectDataChannel connects to the server's raw segment, which only
// exists once the server has processed the initial dimension handshake.
func (c *Client) connectDataChannel(ctx context.Context) error {
	var err error
	c.remoteRawSeg, err = c.Transport.ConnectRemote(ctx, c.RemoteNode, transport.SegmentID(c.Group, transport.RoleRawServer), connectTimeout)
	return err
}

func (c *Client) logf(format string, args ...interface{}) {
	if c.Log != nil {
		c.Log.Info(fmt.Sprintf(format, args...))
	}
}

// spinUntil busy-waits, with a short backoff, until cond returns true or ctx
// is cancelled.
func spinUntil(ctx context.Context, cond func() bool) error {
	for !cond() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		time.Sleep(spinBackoff)
	}
	return nil
}
