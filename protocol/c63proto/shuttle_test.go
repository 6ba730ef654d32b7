package c63proto

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/geometry"
)

func TestRawRoundTrip(t *testing.T) {
	g, err := geometry.New(17, 19)
	if err != nil {
		t.Fatal(err)
	}
	raw := &c63.RawFrame{
		Y: make([]uint8, g.YSize()),
		U: make([]uint8, g.USize()),
		V: make([]uint8, g.VSize()),
	}
	for i := range raw.Y {
		raw.Y[i] = uint8(i)
	}
	for i := range raw.U {
		raw.U[i] = uint8(i * 2)
	}
	for i := range raw.V {
		raw.V[i] = uint8(i * 3)
	}

	seg := make([]byte, RawSegSize(g))
	if err := WriteRaw(seg, raw, g); err != nil {
		t.Fatal(err)
	}
	got, err := ReadRaw(seg, g)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(raw, got); diff != "" {
		t.Errorf("RawFrame round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteRawRejectsUndersizedSegment(t *testing.T) {
	g, _ := geometry.New(16, 16)
	raw := &c63.RawFrame{Y: make([]uint8, g.YSize()), U: make([]uint8, g.USize()), V: make([]uint8, g.VSize())}
	if err := WriteRaw(make([]byte, 1), raw, g); err == nil {
		t.Error("WriteRaw into an undersized segment: got nil error, want an error")
	}
}

func TestResultRoundTrip(t *testing.T) {
	g, err := geometry.New(24, 16)
	if err != nil {
		t.Fatal(err)
	}
	s, err := c63.NewState(24, 16)
	if err != nil {
		t.Fatal(err)
	}
	raw := &c63.RawFrame{Y: make([]uint8, g.YSize()), U: make([]uint8, g.USize()), V: make([]uint8, g.VSize())}
	for i := range raw.Y {
		raw.Y[i] = uint8(i % 251)
	}
	f, err := s.Encode(raw)
	if err != nil {
		t.Fatal(err)
	}

	seg := make([]byte, ResultSegSize(g))
	if err := WriteResult(seg, f, g); err != nil {
		t.Fatal(err)
	}
	got, err := ReadResult(seg, g)
	if err != nil {
		t.Fatal(err)
	}

	if got.Keyframe != f.Keyframe {
		t.Errorf("Keyframe = %v, want %v", got.Keyframe, f.Keyframe)
	}
	if diff := cmp.Diff(f.MBs, got.MBs); diff != "" {
		t.Errorf("MBs round trip mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(f.Residuals, got.Residuals); diff != "" {
		t.Errorf("Residuals round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestReadResultRejectsUndersizedSegment(t *testing.T) {
	g, _ := geometry.New(16, 16)
	if _, err := ReadResult(make([]byte, 1), g); err == nil {
		t.Error("ReadResult from an undersized segment: got nil error, want an error")
	}
}
