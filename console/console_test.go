package console

import (
	"bytes"
	"strings"
	"testing"
)

// scriptPort is a scripted in-memory Port.
type scriptPort struct {
	tx bytes.Buffer
	rx []byte
}

func (p *scriptPort) Write(b []byte) (int, error) {
	return p.tx.Write(b)
}

func (p *scriptPort) ReadFull(b []byte) error {
	if len(p.rx) < len(b) {
		return ErrTimeout
	}
	copy(b, p.rx[:len(b)])
	p.rx = p.rx[len(b):]
	return nil
}

func (p *scriptPort) TryReadByte() (byte, bool) {
	if len(p.rx) == 0 {
		return 0, false
	}
	b := p.rx[0]
	p.rx = p.rx[1:]
	return b, true
}

func TestPrintLvl0AlwaysPasses(t *testing.T) {
	port := &scriptPort{}
	c := New(port)

	if err := c.Print(Lvl0, "\r\n>> App State %d", 3); err != nil {
		t.Fatalf("Print: %v", err)
	}
	if got := port.tx.String(); got != "\r\n>> App State 3" {
		t.Errorf("transmitted %q", got)
	}
}

func TestPrintGatedLevels(t *testing.T) {
	port := &scriptPort{}
	c := New(port)

	c.Print(Lvl1, "hidden")
	if port.tx.Len() != 0 {
		t.Fatal("Lvl1 printed while disabled")
	}

	c.Raise(CmdLevel1Enable)
	c.Print(Lvl1, "visible")
	if got := port.tx.String(); got != "visible" {
		t.Errorf("after enable transmitted %q", got)
	}

	c.Print(Lvl2, "secret")
	if got := port.tx.String(); got != "visible" {
		t.Error("Lvl2 printed without the secret token")
	}
	c.Raise(CmdLevel2Enable)
	c.Print(Lvl2, "secret")
	if !strings.HasSuffix(port.tx.String(), "secret") {
		t.Error("Lvl2 suppressed after enable")
	}
}

func TestPrintTruncatesToBuffer(t *testing.T) {
	port := &scriptPort{}
	c := New(port)

	c.Print(Lvl0, "%s", strings.Repeat("x", BufferSize+100))
	if got := port.tx.Len(); got != BufferSize {
		t.Errorf("transmitted %d bytes, want %d", got, BufferSize)
	}
}

func TestTokenMatchRaisesCommand(t *testing.T) {
	port := &scriptPort{rx: []byte("xlg1")}
	c := New(port)

	c.PollCommands()
	if !c.IsRaised(CmdLevel1Enable) {
		t.Error("lg1 token did not raise the command")
	}
	if c.IsRaised(CmdEraseFlash) {
		t.Error("unrelated command raised")
	}
}

func TestSyncRunsActorOnce(t *testing.T) {
	port := &scriptPort{}
	c := New(port)

	runs := 0
	c.SetActor(CmdEraseFlash, func() { runs++ })
	c.Raise(CmdEraseFlash)

	c.Sync()
	c.Sync()
	if runs != 1 {
		t.Errorf("actor ran %d times, want 1", runs)
	}

	// A fresh raise is serviced again.
	c.Raise(CmdEraseFlash)
	c.Sync()
	if runs != 2 {
		t.Errorf("actor ran %d times after re-raise, want 2", runs)
	}
}

func TestReceiveTimeout(t *testing.T) {
	port := &scriptPort{rx: []byte{0x01}}
	c := New(port)

	buf := make([]byte, 4)
	if err := c.Receive(buf); err != ErrTimeout {
		t.Errorf("Receive on short data = %v, want ErrTimeout", err)
	}
}

func TestProgressBar(t *testing.T) {
	port := &scriptPort{}
	c := New(port)

	c.PrintProgressBar()
	c.PrintProgressBar()
	if got := port.tx.String(); got != ".." {
		t.Errorf("progress output %q", got)
	}
}

func TestLoggerFramesLines(t *testing.T) {
	port := &scriptPort{}
	c := New(port)
	logger := NewLogger(c)

	logger.Info("flash:probe", "id", 0x17)
	got := port.tx.String()
	if !strings.HasPrefix(got, "\r\n>> flash:probe") {
		t.Errorf("logged line %q lacks console framing", got)
	}
	if !strings.Contains(got, "id=23") {
		t.Errorf("logged line %q lacks attribute", got)
	}

	// Debug is gated behind the lvl1 command.
	port.tx.Reset()
	logger.Debug("flash:detail")
	if port.tx.Len() != 0 {
		t.Error("debug printed while lvl1 disabled")
	}
	c.Raise(CmdLevel1Enable)
	logger.Debug("flash:detail")
	if port.tx.Len() == 0 {
		t.Error("debug suppressed after lvl1 enable")
	}
}
