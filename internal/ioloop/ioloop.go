// Package ioloop coordinates the three threads a running terminal
// session needs: a blocking pty reader, a writer that drains replies
// back to the child, and a mailbox the UI/renderer threads use to push
// work (writes, resizes, title changes, inspector dumps, shutdown)
// without touching the screen directly. Config, colour, clipboard and
// notification messages are accepted by the mailbox but not acted on.
package ioloop

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/javanhut/raventerm/internal/parser"
	"github.com/javanhut/raventerm/internal/screen"
	"github.com/javanhut/raventerm/internal/streamhandler"
)

// PTYSession is the subset of internal/pty.Session the coordinator
// needs; kept as an interface so tests can substitute an in-memory
// pipe.
type PTYSession interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Resize(cols, rows uint16) error
	Signal(sig os.Signal) error
	Close() error
}

// synchronizedOutputDeadline bounds how long a badly-behaved program
// can suppress rendering via DECSET 2026 before the coordinator forces
// a frame through anyway.
const synchronizedOutputDeadline = 250 * time.Millisecond

// Coordinator owns one session's read loop, write loop, and mailbox
// drain loop.
type Coordinator struct {
	Term    *screen.Terminal
	Handler *streamhandler.Handler
	Session PTYSession

	parser *parser.Parser

	mailbox chan Message
	writeCh chan writeJob

	renderWake chan struct{}
	childExit  chan error
	quit       chan struct{}
	quitOnce   sync.Once

	syncTimer *time.Timer

	log zerolog.Logger
}

type writeJob struct {
	data  []byte
	owned bool // true if the coordinator may retain/mutate the slice
}

// New builds a Coordinator. term and handler must already be wired
// together (handler.Term == term); New installs itself as the
// handler's Writer.
func New(term *screen.Terminal, handler *streamhandler.Handler, session PTYSession) *Coordinator {
	c := &Coordinator{
		Term:       term,
		Handler:    handler,
		Session:    session,
		parser:     parser.New(),
		mailbox:    make(chan Message, 256),
		writeCh:    make(chan writeJob, 64),
		renderWake: make(chan struct{}, 1),
		childExit:  make(chan error, 1),
		quit:       make(chan struct{}),
		log:        log.With().Str("component", "ioloop").Logger(),
	}
	handler.Writer = c
	return c
}

// Run starts the reader, writer and mailbox loops and blocks until
// Close is called or the child process exits. It is meant to be
// invoked from its own goroutine by the caller if non-blocking
// startup is desired.
func (c *Coordinator) Run() {
	go c.readLoop()
	go c.writeLoop()
	c.mailboxLoop()
}

// RenderWake returns the channel the renderer thread should select on;
// a receive means at least one frame's worth of state changed.
func (c *Coordinator) RenderWake() <-chan struct{} { return c.renderWake }

// Mailbox returns the channel the UI thread pushes Messages onto.
func (c *Coordinator) Mailbox() chan<- Message { return c.mailbox }

func (c *Coordinator) wake() {
	select {
	case c.renderWake <- struct{}{}:
	default:
	}
}

// readLoop is the pty reader sub-thread: a blocking Read followed by
// handing the chunk to the stream handler, repeated until EOF/error or
// Close. It owns no locks of its own — screen.Screen methods lock
// internally — so a slow renderer never stalls the reader.
func (c *Coordinator) readLoop() {
	buf := make([]byte, 64*1024)
	for {
		select {
		case <-c.quit:
			return
		default:
		}

		n, err := c.Session.Read(buf)
		if n > 0 {
			c.Handler.Process(c.parser, buf[:n])
			c.armSyncTimerIfNeeded()
			c.wake()
		}
		if err != nil {
			if err != io.EOF {
				c.log.Debug().Err(err).Msg("pty read ended")
			}
			select {
			case c.childExit <- err:
			default:
			}
			c.wake()
			return
		}
	}
}

// armSyncTimerIfNeeded starts (or leaves running) the synchronized-
// output safety timer whenever mode 2026 is active, so a frame is
// eventually forced even if the program never clears the mode.
func (c *Coordinator) armSyncTimerIfNeeded() {
	if !c.Term.HasMode(screen.ModeSynchronizedOutput) {
		return
	}
	if c.syncTimer != nil {
		return
	}
	c.syncTimer = time.AfterFunc(synchronizedOutputDeadline, func() {
		c.syncTimer = nil
		c.wake()
	})
}

// writeLoop drains the writer mailbox into the pty, serializing writes
// from both PTY-driven replies and UI-driven input.
func (c *Coordinator) writeLoop() {
	for {
		select {
		case job := <-c.writeCh:
			if _, err := c.Session.Write(job.data); err != nil {
				c.log.Warn().Err(err).Msg("pty write failed")
			}
		case <-c.quit:
			return
		}
	}
}

// TryWrite implements streamhandler.Writer: a non-blocking push onto
// the writer channel.
func (c *Coordinator) TryWrite(p []byte) bool {
	select {
	case c.writeCh <- writeJob{data: append([]byte(nil), p...)}:
		return true
	default:
		return false
	}
}

// Write implements streamhandler.Writer: blocks until the writer
// thread accepts the job.
func (c *Coordinator) Write(p []byte) {
	c.writeCh <- writeJob{data: append([]byte(nil), p...)}
}

// WriteInput sends user keystrokes/paste bytes to the child. Called
// from the UI thread, never from the reader.
func (c *Coordinator) WriteInput(p []byte) {
	c.writeCh <- writeJob{data: append([]byte(nil), p...)}
}

// mailboxLoop is the UI-facing coordination thread: it applies
// write/resize/inspector/title/close messages, each of which may touch the
// Screen, and wakes the renderer afterward.
func (c *Coordinator) mailboxLoop() {
	for {
		select {
		case msg := <-c.mailbox:
			c.applyMessage(msg)
			c.wake()
		case err := <-c.childExit:
			c.handleChildExit(err)
			return
		case <-c.quit:
			return
		}
	}
}

func (c *Coordinator) applyMessage(msg Message) {
	switch m := msg.(type) {
	case WriteSmall:
		c.WriteInput(m.Data)
	case WriteStable:
		c.writeCh <- writeJob{data: m.Data, owned: true}
	case WriteAlloc:
		c.WriteInput(m.Data)
	case Resize:
		c.Term.Resize(int(m.Cols), int(m.Rows))
		c.Term.SetPixelSize(m.PixelWidth, m.Height)
		if err := c.Session.Resize(m.Cols, m.Rows); err != nil {
			c.log.Debug().Err(err).Msg("pty resize failed")
		}
	case Inspector:
		if m.Reply != nil {
			scr := c.Term.Active()
			_, rows := scr.Size()
			m.Reply <- scr.DumpString(0, rows)
		}
	case ResetCursorBlink:
		// Blink phase lives in the renderer's own clock; the
		// coordinator only needs to wake it so the phase resets visibly.
	case SetTitle:
		c.Term.SetTitle(m.Title, false)
	case Close:
		c.shutdown()
	default:
		c.log.Debug().Type("message", msg).Msg("mailbox message not handled, dropped")
	}
}

func (c *Coordinator) handleChildExit(err error) {
	c.log.Info().Err(err).Msg("child process exited")
	c.shutdown()
}

// shutdown signals all loops to stop and releases the pty. Safe to
// call more than once.
func (c *Coordinator) shutdown() {
	c.quitOnce.Do(func() {
		close(c.quit)
		_ = c.Session.Close()
	})
}

// Close requests an orderly shutdown from outside the coordinator.
func (c *Coordinator) Close() {
	select {
	case c.mailbox <- Close{}:
	default:
		c.shutdown()
	}
}
