/*
DESCRIPTION
  server.go drives the server side of a c63 session: wait for the initial
  dimension handshake, then loop encoding each frame the client hands over
  and publishing the result back.

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
	"fmt"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/geometry"
	"github.com/ausocean/c63/transport"
	"github.com/ausocean/utils/logging"
)

// Server drives the server side of a c63 session: encode every frame the
// client hands over and publish the result back.
type Server struct {
	Transport  transport.Transport
	Group      uint32
	RemoteNode int
	Log        logging.Logger

	// State, if non-nil, is used instead of building a fresh *c63.State
	// from the handshake dimensions, letting a caller inject a pre-built
	// State (e.g. one with a smaller keyframe interval); when it is nil,
	// Run builds State from the dimensions the client announces.
	State *c63.State

	// NewState, if non-nil, builds State from the dimensions the client
	// announces, letting callers fix codec options (QP, search range,
	// keyframe interval) without knowing the geometry up front. Ignored if
	// State is already set. Defaults to c63.NewState with no options.
	NewState func(width, height int) (*c63.State, error)

	g                              geometry.Geometry
	rawSeg, cmdSeg, resultSeg      transport.Segment
	remoteCmdSeg, remoteResultSeg  transport.Segment
	localRawBuf, localResultBuf    []byte
	cmdIn, cmdOut                  *CmdCell
	queue                          transport.DMAQueue
}

// Run executes the server side of the protocol: block for the initial
// handshake, build (or adopt) codec State from the announced dimensions,
// then loop until the client sends Quit or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.setupCmdChannel(ctx); err != nil {
		return fmt.Errorf("c63proto: server setup: %w", err)
	}

	if err := spinUntil(ctx, func() bool { return s.cmdIn.LoadCmd() != Invalid }); err != nil {
		return fmt.Errorf("c63proto: server: %w", err)
	}
	if s.cmdIn.LoadCmd() == Quit {
		return nil
	}
	width, height := s.cmdIn.Dims()
	s.cmdIn.StoreCmd(Invalid)

	g, err := geometry.New(width, height)
	if err != nil {
		return fmt.Errorf("c63proto: server: geometry mismatch for %dx%d: %w", width, height, err)
	}
	s.g = g

	if s.State == nil {
		newState := s.NewState
		if newState == nil {
			newState = func(w, h int) (*c63.State, error) { return c63.NewState(w, h) }
		}
		s.State, err = newState(width, height)
		if err != nil {
			return fmt.Errorf("c63proto: server: %w", err)
		}
	}

	if err := s.setupDataChannels(ctx); err != nil {
		return fmt.Errorf("c63proto: server setup: %w", err)
	}
	defer s.Transport.Terminate()

	s.logf("server ready for %dx%d frames", width, height)

	for {
		if err := spinUntil(ctx, func() bool { return s.cmdIn.LoadCmd() != Invalid }); err != nil {
			return fmt.Errorf("c63proto: server: %w", err)
		}
		if s.cmdIn.LoadCmd() == Quit {
			s.logf("received QUIT after %d frames", s.State.FrameNum)
			return nil
		}
		s.cmdIn.StoreCmd(Invalid)

		raw, err := ReadRaw(s.localRawBuf, g)
		if err != nil {
			return fmt.Errorf("c63proto: server: %w", err)
		}

		frame, err := s.State.Encode(raw)
		if err != nil {
			return fmt.Errorf("c63proto: server: encode: %w", err)
		}

		if err := WriteResult(s.localResultBuf, frame, g); err != nil {
			return fmt.Errorf("c63proto: server: %w", err)
		}

		h, err := s.Transport.StartDMA(s.queue, s.resultSeg, s.remoteResultSeg, 0, ResultSegSize(g), 0)
		if err != nil {
			return fmt.Errorf("c63proto: server: start result DMA: %w", err)
		}
		if err := s.Transport.WaitDMA(s.queue, h, dmaTimeout); err != nil {
			return fmt.Errorf("c63proto: server: wait result DMA: %w", err)
		}

		s.cmdOut.StoreCmd(Done)
	}
}

// setupCmdChannel creates the server's own command segment and connects to
// the client's, so the initial handshake can proceed before the frame
// geometry (and therefore the size of the data segments) is known.
func (s *Server) setupCmdChannel(ctx context.Context) error {
	var err error
	s.cmdSeg, err = s.Transport.CreateSegment(transport.SegmentID(s.Group, transport.RoleCmdServer), CmdCellSize)
	if err != nil {
		return err
	}
	if err := s.Transport.Prepare(s.cmdSeg); err != nil {
		return err
	}
	if err := s.Transport.SetAvailable(s.cmdSeg); err != nil {
		return err
	}

	s.remoteCmdSeg, err = s.Transport.ConnectRemote(ctx, s.RemoteNode, transport.SegmentID(s.Group, transport.RoleCmdClient), connectTimeout)
	if err != nil {
		return err
	}

	cmdOutBuf, err := s.Transport.MapLocal(s.cmdSeg, 0, CmdCellSize)
	if err != nil {
		return err
	}
	s.cmdOut, err = NewCmdCell(cmdOutBuf)
	if err != nil {
		return err
	}

	cmdInBuf, err := s.Transport.MapRemote(s.remoteCmdSeg, 0, CmdCellSize)
	if err != nil {
		return err
	}
	s.cmdIn, err = NewCmdCell(cmdInBuf)
	return err
}

// setupDataChannels creates the server's raw and result segments (now that
// geometry is known) and connects to the client's result segment.
func (s *Server) setupDataChannels(ctx context.Context) error {
	var err error
	s.rawSeg, err = s.Transport.CreateSegment(transport.SegmentID(s.Group, transport.RoleRawServer), RawSegSize(s.g))
	if err != nil {
		return err
	}
	s.resultSeg, err = s.Transport.CreateSegment(transport.SegmentID(s.Group, transport.RoleResultServer), ResultSegSize(s.g))
	if err != nil {
		return err
	}
	for _, seg := range []transport.Segment{s.rawSeg, s.resultSeg} {
		if err := s.Transport.Prepare(seg); err != nil {
			return err
		}
		if err := s.Transport.SetAvailable(seg); err != nil {
			return err
		}
	}

	s.remoteResultSeg, err = s.Transport.ConnectRemote(ctx, s.RemoteNode, transport.SegmentID(s.Group, transport.RoleResultClient), connectTimeout)
	if err != nil {
		return err
	}

	s.localRawBuf, err = s.Transport.MapLocal(s.rawSeg, 0, RawSegSize(s.g))
	if err != nil {
		return err
	}
	s.localResultBuf, err = s.Transport.MapLocal(s.resultSeg, 0, ResultSegSize(s.g))
	if err != nil {
		return err
	}

	s.queue, err = s.Transport.CreateDMAQueue(1)
	return err
}

func (s *Server) logf(format string, args ...interface{}) {
	if s.Log != nil {
		s.Log.Info(fmt.Sprintf(format, args...))
	}
}
