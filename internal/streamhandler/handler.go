// Package streamhandler converts parser.Action values into
// screen.Terminal mutations and reply writes — the command layer that
// sits between the raw byte parser and the grid model.
package streamhandler

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/javanhut/raventerm/internal/parser"
	"github.com/javanhut/raventerm/internal/screen"
)

// Writer pushes reply bytes toward the child process. TryWrite attempts
// a non-blocking push; Write blocks until accepted. A full mailbox on
// TryWrite must never deadlock the reader; Handler holds no screen
// lock when it falls back to Write, since Screen methods take and
// release their lock on every call.
type Writer interface {
	TryWrite(p []byte) bool
	Write(p []byte)
}

// ClipboardPolicy controls OSC 52 read/write gating.
type ClipboardPolicy uint8

const (
	ClipboardAllow ClipboardPolicy = iota
	ClipboardAsk
	ClipboardDeny
)

// UIEvents receives side-channel notifications the handler cannot
// satisfy on the Screen alone (clipboard, desktop notifications,
// title/shape changes). Implementations must be cheap and must not
// block on the screen lock.
type UIEvents interface {
	ClipboardRead(target byte)
	ClipboardWrite(target byte, data []byte)
	DesktopNotification(n Notification)
	TitleChanged(title string)
	MouseShapeChanged(shape string)
}

// Config is the handful of policy knobs the handler consults while
// dispatching.
type Config struct {
	ClipboardRead  ClipboardPolicy
	ClipboardWrite ClipboardPolicy
	ColorReportFmt ColorReportFormat
	Hostname       string
	TermVersion    string
}

// ColorReportFormat selects how OSC 4/10/11/12 queries render channel
// width in their replies.
type ColorReportFormat uint8

const (
	ColorReportNone ColorReportFormat = iota
	ColorReport8Bit
	ColorReport16Bit
)

// Handler applies parsed VT actions to a Terminal. It is one struct
// with one method per command rather than a dynamic dispatch table:
// the command set is closed and known at compile time.
type Handler struct {
	Term   *screen.Terminal
	Writer Writer
	UI     UIEvents
	Config Config

	log zerolog.Logger

	dcsKind dcsKind
	dcsBuf  []byte

	notifications map[string]*pendingNotification
}

// New builds a Handler bound to term.
func New(term *screen.Terminal, w Writer, ui UIEvents, cfg Config) *Handler {
	return &Handler{
		Term:          term,
		Writer:        w,
		UI:            ui,
		Config:        cfg,
		log:           log.With().Str("component", "streamhandler").Logger(),
		notifications: make(map[string]*pendingNotification),
	}
}

// Process runs one chunk of raw PTY bytes through p and applies every
// resulting action. p carries the parser's byte-level state across
// calls; the caller owns a single long-lived Parser per Terminal.
func (h *Handler) Process(p *parser.Parser, data []byte) {
	for _, b := range data {
		if act := p.Feed(b); act.Kind != parser.ActionNone {
			h.dispatch(p, act)
		}
	}
}

func (h *Handler) dispatch(p *parser.Parser, act parser.Action) {
	switch act.Kind {
	case parser.ActionPrint:
		h.Term.Active().Print(act.Rune)
	case parser.ActionExecute:
		h.execute(act.Byte)
	case parser.ActionEscDispatch:
		h.escDispatch(p, act.Final)
	case parser.ActionCSIDispatch:
		h.csiDispatch(p, act.Final)
	case parser.ActionOSCEnd:
		h.oscDispatch(p.OSCString())
	case parser.ActionAPCEnd:
		h.apcDispatch(p.OSCString())
	case parser.ActionHook:
		h.dcsHook(p, act.Final)
	case parser.ActionPut:
		h.dcsPut(act.Byte)
	case parser.ActionUnhook:
		h.dcsUnhook()
	}
}

func (h *Handler) execute(b byte) {
	scr := h.Term.Active()
	switch b {
	case 0x08: // BS
		scr.Backspace()
	case 0x09: // HT
		scr.Tab()
	case 0x0a, 0x0b, 0x0c: // LF, VT, FF
		if h.Term.HasMode(screen.ModeLinefeed) {
			scr.NextLine()
		} else {
			scr.Index()
		}
	case 0x0d: // CR
		scr.CarriageReturn()
	}
}

func (h *Handler) escDispatch(p *parser.Parser, final byte) {
	scr := h.Term.Active()
	inter := p.Intermediate()
	if len(inter) == 1 {
		switch inter[0] {
		case '(', ')', '*', '+':
			slot := map[byte]int{'(': 0, ')': 1, '*': 2, '+': 3}[inter[0]]
			scr.ConfigureCharset(slot, rune(final))
			return
		case '#':
			if final == '8' {
				scr.DECALN()
			}
			return
		}
	}
	switch final {
	case '7':
		scr.SaveCursor()
	case '8':
		scr.RestoreCursor()
	case 'c':
		h.Term.FullReset()
	case 'D':
		scr.Index()
	case 'M':
		scr.ReverseIndex()
	case 'E':
		scr.NextLine()
	case 'H':
		scr.TabSet()
	case '=', '>':
		// DECKPAM/DECKPNM: application/normal keypad, tracked by the
		// caller's key encoder rather than the Screen.
	}
}

// writeReply pushes a reply toward the child, falling back to a
// blocking write only if the non-blocking path is contended.
func (h *Handler) writeReply(data []byte) {
	if h.Writer == nil || len(data) == 0 {
		return
	}
	if h.Writer.TryWrite(data) {
		return
	}
	h.Writer.Write(data)
}
