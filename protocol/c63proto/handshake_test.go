package c63proto

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/geometry"
	"github.com/ausocean/c63/transport"
)

// fixedSource hands out n frames filled with fill, then io.EOF.
type fixedSource struct {
	mu   sync.Mutex
	left int
	fill uint8
}

func (s *fixedSource) ReadFrame(g geometry.Geometry) (*c63.RawFrame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.left == 0 {
		return nil, io.EOF
	}
	s.left--
	return &c63.RawFrame{
		Y: fillBytes(g.YSize(), s.fill),
		U: fillBytes(g.USize(), s.fill),
		V: fillBytes(g.VSize(), s.fill),
	}, nil
}

func fillBytes(n int, v uint8) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = v
	}
	return b
}

// collectSink records every frame the client hands it.
type collectSink struct {
	mu     sync.Mutex
	frames []*c63.Frame
}

func (s *collectSink) WriteFrame(f *c63.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	return nil
}

func (s *collectSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

// TestClientServerSessionEndToEnd exercises the full handshake and per-frame
// loop against the in-process shmpair transport: every frame the source
// produces arrives at the sink, and the first is a keyframe whose residuals
// for a constant-fill source carry only the DC term of each block.
func TestClientServerSessionEndToEnd(t *testing.T) {
	clientNode, serverNode := transport.NewPair()

	const width, height = 32, 16
	const nFrames = 5

	sink := &collectSink{}
	client := &Client{
		Transport: clientNode,
		Group:     1,
		Width:     width,
		Height:    height,
		Source:    &fixedSource{left: nFrames, fill: 77},
		Sink:      sink,
	}
	server := &Server{
		Transport: serverNode,
		Group:     1,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Run(ctx) }()

	if err := client.Run(ctx); err != nil {
		t.Fatalf("client.Run: %v", err)
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("server.Run: %v", err)
	}

	if got := sink.count(); got != nFrames {
		t.Fatalf("sink received %d frames, want %d", got, nFrames)
	}
	if !sink.frames[0].Keyframe {
		t.Error("first frame delivered to the sink must be a keyframe")
	}
	for i := range sink.frames[0].Residuals.Ydct {
		if i%width%8 == 0 && i/width%8 == 0 {
			continue // DC term of an 8x8 block: nonzero against a keyframe's zero predictor
		}
		if sink.frames[0].Residuals.Ydct[i] != 0 {
			t.Fatalf("first frame of a constant-fill source has a nonzero AC residual at %d, want 0", i)
			break
		}
	}
}

func TestServerQuitsOnImmediateEOF(t *testing.T) {
	clientNode, serverNode := transport.NewPair()
	client := &Client{
		Transport: clientNode,
		Group:     2,
		Width:     16,
		Height:    16,
		Source:    &fixedSource{left: 0},
		Sink:      &collectSink{},
	}
	server := &Server{Transport: serverNode, Group: 2}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() { serverErr <- server.Run(ctx) }()

	if err := client.Run(ctx); err != nil {
		t.Fatalf("client.Run: %v", err)
	}
	if err := <-serverErr; err != nil {
		t.Fatalf("server.Run: %v", err)
	}
}
