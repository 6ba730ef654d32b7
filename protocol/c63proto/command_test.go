package c63proto

import "testing"

func TestNewCmdCellRejectsShortBuffer(t *testing.T) {
	if _, err := NewCmdCell(make([]byte, CmdCellSize-1)); err == nil {
		t.Error("NewCmdCell with a short buffer: got nil error, want an error")
	}
}

func TestCmdCellStoreLoadRoundTrip(t *testing.T) {
	c, err := NewCmdCell(make([]byte, CmdCellSize))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.LoadCmd(); got != Invalid {
		t.Errorf("zero-value CmdCell LoadCmd() = %v, want Invalid", got)
	}
	c.StoreCmd(Done)
	if got := c.LoadCmd(); got != Done {
		t.Errorf("LoadCmd() = %v, want Done", got)
	}
	c.StoreCmd(Quit)
	if got := c.LoadCmd(); got != Quit {
		t.Errorf("LoadCmd() = %v, want Quit", got)
	}
}

func TestCmdCellDimsRoundTrip(t *testing.T) {
	c, err := NewCmdCell(make([]byte, CmdCellSize))
	if err != nil {
		t.Fatal(err)
	}
	c.SetDims(352, 288)
	w, h := c.Dims()
	if w != 352 || h != 288 {
		t.Errorf("Dims() = (%d,%d), want (352,288)", w, h)
	}
}

func TestCommandString(t *testing.T) {
	cases := map[Command]string{Invalid: "INVALID", Done: "DONE", Quit: "QUIT", Command(99): "Command(99)"}
	for cmd, want := range cases {
		if got := cmd.String(); got != want {
			t.Errorf("Command(%d).String() = %q, want %q", cmd, got, want)
		}
	}
}

func TestTwoCmdCellsOverSameBufferObserveEachOther(t *testing.T) {
	buf := make([]byte, CmdCellSize)
	a, err := NewCmdCell(buf)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewCmdCell(buf)
	if err != nil {
		t.Fatal(err)
	}
	a.StoreCmd(Done)
	if got := b.LoadCmd(); got != Done {
		t.Errorf("b.LoadCmd() = %v after a.StoreCmd(Done) on the same buffer, want Done", got)
	}
}
