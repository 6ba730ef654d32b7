/*
DESCRIPTION
  encode.go orchestrates the per-frame encode pipeline: advance the
  reference/current frame ring, decide keyframe vs. inter frame, drive
  motion estimation/compensation, and run the transform stage to produce
  quantized residuals and a reconstruction for the next frame's reference.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package c63

import "fmt"

// Encode runs the full per-frame pipeline against raw and returns the
// resulting Frame. The returned Frame's Recons planes become the reference
// for the next call to Encode on the same State.
//
// Encode is not safe for concurrent use on the same State: the server's
// handshake loop (protocol/c63proto) guarantees frame N+1 never starts
// before frame N completes.
func (s *State) Encode(raw *RawFrame) (*Frame, error) {
	g := s.Geometry
	if len(raw.Y) != g.YSize() || len(raw.U) != g.USize() || len(raw.V) != g.VSize() {
		return nil, fmt.Errorf("c63: raw frame plane sizes don't match session geometry")
	}

	// Advance the ring: the previous cur becomes the new ref, and we start
	// a fresh cur for this frame.
	if s.cur != nil {
		s.ref = refSlot{frame: s.cur, ok: true}
	}
	cur := s.newFrame()
	s.cur = cur

	cur.Keyframe = s.FrameNum == 0 || s.FramesSinceKeyframe == s.KeyframeInterval
	if cur.Keyframe {
		s.FramesSinceKeyframe = 0
	}

	if !cur.Keyframe && s.ref.ok {
		s.motionEstimateAndCompensate(raw, cur)
	}
	// Keyframes, and the very first frame of a session, leave Predicted at
	// zero and every mbs[*].UseMV false (the zero value of Macroblock).

	dctQuantize(raw.Y, cur.Predicted.Y, g.YPW, g.YPH, cur.Residuals.Ydct, s.QTables[PlaneY])
	dctQuantize(raw.U, cur.Predicted.U, g.UPW, g.UPH, cur.Residuals.Udct, s.QTables[PlaneU])
	dctQuantize(raw.V, cur.Predicted.V, g.VPW, g.VPH, cur.Residuals.Vdct, s.QTables[PlaneV])

	dequantizeIDCT(cur.Residuals.Ydct, cur.Predicted.Y, g.YPW, g.YPH, cur.Recons.Y, s.QTables[PlaneY])
	dequantizeIDCT(cur.Residuals.Udct, cur.Predicted.U, g.UPW, g.UPH, cur.Recons.U, s.QTables[PlaneU])
	dequantizeIDCT(cur.Residuals.Vdct, cur.Predicted.V, g.VPW, g.VPH, cur.Recons.V, s.QTables[PlaneV])

	s.FrameNum++
	s.FramesSinceKeyframe++

	// This frame's reconstruction is the reference for the next one, and is
	// available as soon as this call returns.
	s.ref = refSlot{frame: cur, ok: true}

	return cur, nil
}

// motionEstimateAndCompensate runs motion estimation for every plane of cur
// against s.ref, then compensates cur.Predicted from the result.
func (s *State) motionEstimateAndCompensate(raw *RawFrame, cur *Frame) {
	g := s.Geometry
	ref := s.ref.frame

	cur.MBs[PlaneY] = estimateMotion(raw.Y, ref.Recons.Y, g.YPW, g.YPH, g.MBRowsY, g.MBColsY, s.SearchRange)
	cur.MBs[PlaneU] = estimateMotion(raw.U, ref.Recons.U, g.UPW, g.UPH, g.MBRowsC, g.MBColsC, s.SearchRange)
	cur.MBs[PlaneV] = estimateMotion(raw.V, ref.Recons.V, g.VPW, g.VPH, g.MBRowsC, g.MBColsC, s.SearchRange)

	compensateMotion(cur.MBs[PlaneY], ref.Recons.Y, g.YPW, g.YPH, g.MBColsY, cur.Predicted.Y)
	compensateMotion(cur.MBs[PlaneU], ref.Recons.U, g.UPW, g.UPH, g.MBColsC, cur.Predicted.U)
	compensateMotion(cur.MBs[PlaneV], ref.Recons.V, g.VPW, g.VPH, g.MBColsC, cur.Predicted.V)
}
