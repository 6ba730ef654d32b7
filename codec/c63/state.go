/*
DESCRIPTION
  state.go holds the codec session state: geometry, quantization tables,
  and the reference/current frame handoff across the life of a session.

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

import "github.com/ausocean/c63/geometry"

// Spec-mandated defaults (spec.md §3).
const (
	DefaultQP               = 25
	DefaultSearchRange      = 16
	DefaultKeyframeInterval = 100
)

// refSlot models the server's reference frame as an explicit two-state
// holder rather than an unchecked nullable pointer: Ok is false until the
// first frame has been encoded.
type refSlot struct {
	frame *Frame
	ok    bool
}

// State is a codec session's working state, owned exclusively by the server
// process and mutated only by Encode.
type State struct {
	Geometry geometry.Geometry

	// QTables holds one quantization table per plane; U and V share the
	// same scaled chroma table.
	QTables [3]QuantTable

	QP               int
	SearchRange      int
	KeyframeInterval int

	FrameNum            int
	FramesSinceKeyframe int

	ref refSlot
	cur *Frame
}

// Option configures a State at construction time.
type Option func(*State)

// WithQP overrides the default quantization parameter.
func WithQP(qp int) Option { return func(s *State) { s.QP = qp } }

// WithSearchRange overrides the default motion search range, in pixels.
func WithSearchRange(r int) Option { return func(s *State) { s.SearchRange = r } }

// WithKeyframeInterval overrides the default keyframe cadence.
func WithKeyframeInterval(n int) Option { return func(s *State) { s.KeyframeInterval = n } }

// NewState builds a new codec session for frames of the given raw width and
// height. The reference frame is unset until the first call to Encode.
func NewState(width, height int, opts ...Option) (*State, error) {
	g, err := geometry.New(width, height)
	if err != nil {
		return nil, err
	}

	s := &State{
		Geometry:         g,
		QP:               DefaultQP,
		SearchRange:      DefaultSearchRange,
		KeyframeInterval: DefaultKeyframeInterval,
	}
	for _, opt := range opts {
		opt(s)
	}

	lumaQ := scaleQTable(defaultLumaQTable, s.QP)
	chromaQ := scaleQTable(defaultChromaQTable, s.QP)
	s.QTables = [3]QuantTable{lumaQ, chromaQ, chromaQ}

	return s, nil
}

// HasReference reports whether a reconstructed reference frame is available
// (false only before the first frame of a session is encoded).
func (s *State) HasReference() bool { return s.ref.ok }

// newFrame allocates a zeroed Frame sized by the session's geometry.
func (s *State) newFrame() *Frame {
	g := s.Geometry
	f := &Frame{
		MBs: [3][]Macroblock{
			make([]Macroblock, g.MBCountY()),
			make([]Macroblock, g.MBCountC()),
			make([]Macroblock, g.MBCountC()),
		},
		Residuals: Residuals{
			Ydct: make([]int16, g.YSize()),
			Udct: make([]int16, g.USize()),
			Vdct: make([]int16, g.VSize()),
		},
		Predicted: Planes{
			Y: make([]uint8, g.YSize()),
			U: make([]uint8, g.USize()),
			V: make([]uint8, g.VSize()),
		},
		Recons: Planes{
			Y: make([]uint8, g.YSize()),
			U: make([]uint8, g.USize()),
			V: make([]uint8, g.VSize()),
		},
	}
	return f
}
