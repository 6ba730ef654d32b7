package raw

import (
	"encoding/binary"
	"os"
	"testing"

	"github.com/ausocean/c63/codec/c63"
	"github.com/ausocean/c63/geometry"
)

func TestWriteFrameHeaderAndRecord(t *testing.T) {
	g, err := geometry.New(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	path := t.TempDir() + "/out.c63"

	w, err := New(path, g)
	if err != nil {
		t.Fatal(err)
	}

	f := &c63.Frame{
		Keyframe: true,
		MBs: [3][]c63.Macroblock{
			make([]c63.Macroblock, g.MBCountY()),
			make([]c63.Macroblock, g.MBCountC()),
			make([]c63.Macroblock, g.MBCountC()),
		},
		Residuals: c63.Residuals{
			Ydct: make([]int16, g.YSize()),
			Udct: make([]int16, g.USize()),
			Vdct: make([]int16, g.VSize()),
		},
	}
	f.Residuals.Ydct[0] = 42

	if err := w.WriteFrame(f); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(data[:4]) != "c631" {
		t.Fatalf("header magic = %q, want %q", data[:4], "c631")
	}
	gotW := binary.LittleEndian.Uint32(data[4:8])
	gotH := binary.LittleEndian.Uint32(data[8:12])
	if int(gotW) != g.Width || int(gotH) != g.Height {
		t.Errorf("header dims = %dx%d, want %dx%d", gotW, gotH, g.Width, g.Height)
	}

	body := data[12:]
	if body[0] != 1 {
		t.Errorf("keyframe flag byte = %d, want 1", body[0])
	}

	mbBytes := (g.MBCountY() + 2*g.MBCountC()) * 9
	dctOff := 1 + mbBytes
	gotDC := int16(binary.LittleEndian.Uint16(body[dctOff:]))
	if gotDC != 42 {
		t.Errorf("first luma coefficient = %d, want 42", gotDC)
	}
}

func TestWriteFrameAppendsMultipleRecords(t *testing.T) {
	g, err := geometry.New(16, 16)
	if err != nil {
		t.Fatal(err)
	}
	path := t.TempDir() + "/out.c63"
	w, err := New(path, g)
	if err != nil {
		t.Fatal(err)
	}

	empty := func(kf bool) *c63.Frame {
		return &c63.Frame{
			Keyframe: kf,
			MBs: [3][]c63.Macroblock{
				make([]c63.Macroblock, g.MBCountY()),
				make([]c63.Macroblock, g.MBCountC()),
				make([]c63.Macroblock, g.MBCountC()),
			},
			Residuals: c63.Residuals{
				Ydct: make([]int16, g.YSize()),
				Udct: make([]int16, g.USize()),
				Vdct: make([]int16, g.VSize()),
			},
		}
	}
	if err := w.WriteFrame(empty(true)); err != nil {
		t.Fatal(err)
	}
	if err := w.WriteFrame(empty(false)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	recordSize := 1 + (g.MBCountY()+2*g.MBCountC())*9 + (g.YSize()+g.USize()+g.VSize())*2
	wantSize := int64(12 + 2*recordSize)
	if info.Size() != wantSize {
		t.Errorf("file size = %d, want %d", info.Size(), wantSize)
	}
}
