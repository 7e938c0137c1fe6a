package ioloop

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/javanhut/raventerm/internal/screen"
	"github.com/javanhut/raventerm/internal/streamhandler"
)

// pipeSession is an in-memory PTYSession backed by an io.Pipe, letting
// tests feed bytes as if a child process wrote them.
type pipeSession struct {
	r          *io.PipeReader
	w          *io.PipeWriter
	resized    chan [2]uint16
	closed     bool
}

func newPipeSession() (*pipeSession, *io.PipeWriter) {
	r, w := io.Pipe()
	return &pipeSession{r: r, resized: make(chan [2]uint16, 4)}, w
}

func (p *pipeSession) Read(b []byte) (int, error)  { return p.r.Read(b) }
func (p *pipeSession) Write(b []byte) (int, error) { return len(b), nil }
func (p *pipeSession) Resize(cols, rows uint16) error {
	p.resized <- [2]uint16{cols, rows}
	return nil
}
func (p *pipeSession) Signal(sig os.Signal) error { return nil }
func (p *pipeSession) Close() error {
	p.closed = true
	return p.r.Close()
}

type noopUI struct{}

func (noopUI) ClipboardRead(byte)               {}
func (noopUI) ClipboardWrite(byte, []byte)      {}
func (noopUI) DesktopNotification(streamhandler.Notification) {}
func (noopUI) TitleChanged(string)              {}
func (noopUI) MouseShapeChanged(string)         {}

func TestReadLoopAppliesBytesAndWakesRenderer(t *testing.T) {
	term := screen.NewTerminal(10, 3, 1)
	session, w := newPipeSession()
	h := streamhandler.New(term, nil, noopUI{}, streamhandler.Config{})
	c := New(term, h, session)

	go c.readLoop()
	go c.mailboxLoop()

	if _, err := w.Write([]byte("hi\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-c.RenderWake():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for render wake")
	}

	row := term.Active().Row(0)
	if string(row.Cells[0].Char) != "h" {
		t.Fatalf("expected 'h' at (0,0), got %q", row.Cells[0].Char)
	}
	w.Close()
	c.shutdown()
}

func TestResizeMessagePropagatesToSession(t *testing.T) {
	term := screen.NewTerminal(10, 3, 1)
	session, w := newPipeSession()
	defer w.Close()
	h := streamhandler.New(term, nil, noopUI{}, streamhandler.Config{})
	c := New(term, h, session)

	go c.mailboxLoop()
	c.Mailbox() <- Resize{Cols: 20, Rows: 6}

	select {
	case got := <-session.resized:
		if got != [2]uint16{20, 6} {
			t.Fatalf("unexpected resize %v", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resize")
	}
	cols, rows := term.Active().Size()
	if cols != 20 || rows != 6 {
		t.Fatalf("expected screen resized to 20x6, got %dx%d", cols, rows)
	}
	c.shutdown()
}
