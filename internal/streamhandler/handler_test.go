package streamhandler

import (
	"testing"

	"github.com/javanhut/raventerm/internal/parser"
	"github.com/javanhut/raventerm/internal/screen"
)

type fakeWriter struct {
	written [][]byte
}

func (f *fakeWriter) TryWrite(p []byte) bool {
	cp := append([]byte(nil), p...)
	f.written = append(f.written, cp)
	return true
}

func (f *fakeWriter) Write(p []byte) { f.TryWrite(p) }

type fakeUI struct {
	title         string
	notifications []Notification
}

func (f *fakeUI) ClipboardRead(target byte)               {}
func (f *fakeUI) ClipboardWrite(target byte, data []byte) {}
func (f *fakeUI) DesktopNotification(n Notification)      { f.notifications = append(f.notifications, n) }
func (f *fakeUI) TitleChanged(title string)               { f.title = title }
func (f *fakeUI) MouseShapeChanged(shape string)           {}

func newTestHandler() (*Handler, *parser.Parser, *fakeWriter) {
	term := screen.NewTerminal(10, 3, 1)
	w := &fakeWriter{}
	h := New(term, w, &fakeUI{}, Config{})
	return h, parser.New(), w
}

func rowString(scr *screen.Screen, y int) string {
	row := scr.Row(y)
	var out []rune
	for _, c := range row.Cells {
		if c.Char == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, c.Char)
	}
	return string(out)
}

func TestHelloCRLF(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("Hello\r\n"))
	scr := h.Term.Active()
	if got := rowString(scr, 0)[:5]; got != "Hello" {
		t.Fatalf("row 0 = %q", got)
	}
	_, y := scr.Cursor()
	if y != 1 {
		t.Fatalf("expected cursor row 1, got %d", y)
	}
}

func TestEraseDisplayAndHome(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("abc\x1b[2J\x1b[H"))
	scr := h.Term.Active()
	x, y := scr.Cursor()
	if x != 0 || y != 0 {
		t.Fatalf("expected cursor at origin, got %d,%d", x, y)
	}
	if got := rowString(scr, 0); got != "          " {
		t.Fatalf("expected blank row, got %q", got)
	}
}

func TestSGRRoundTrip(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b[1;31mx\x1b[0m"))
	scr := h.Term.Active()
	row := scr.Row(0)
	cell := row.Cells[0]
	if cell.Flags&screen.StyleBold == 0 {
		t.Fatal("expected bold flag set")
	}
	if cell.Fg.Kind != screen.ColorIndexed || cell.Fg.Index != 1 {
		t.Fatalf("expected red fg, got %+v", cell.Fg)
	}
}

func TestAltScreenPreservesPrimaryCursor(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("abc\x1b[?1049h\x1b[5;5Hdef\x1b[?1049l"))
	scr := h.Term.Active()
	x, y := scr.Cursor()
	if x != 3 || y != 0 {
		t.Fatalf("expected primary cursor restored at 3,0; got %d,%d", x, y)
	}
	if h.Term.ActiveKind() != screen.ScreenPrimary {
		t.Fatal("expected to be back on primary screen")
	}
}

func TestSGRMouseReportEncoding(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b[?1000h\x1b[?1006h"))
	out, ok := h.EncodeMouseReport(MouseInput{Button: MouseButtonLeft, Action: MousePress, Col: 4, Row: 2})
	if !ok {
		t.Fatal("expected mouse report to be enabled")
	}
	if string(out) != "\x1b[<0;5;3M" {
		t.Fatalf("unexpected encoding %q", out)
	}
}

func TestOSCTitleUpdatesUIAndTerminal(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b]0;my title\x07"))
	if h.Term.Title() != "my title" {
		t.Fatalf("expected title set, got %q", h.Term.Title())
	}
	if ui := h.UI.(*fakeUI); ui.title != "my title" {
		t.Fatalf("expected UI notified, got %q", ui.title)
	}
}

func TestCursorPositionReportWriteback(t *testing.T) {
	h, p, w := newTestHandler()
	h.Process(p, []byte("\x1b[3;4H\x1b[6n"))
	if len(w.written) != 1 {
		t.Fatalf("expected one reply, got %d", len(w.written))
	}
	if string(w.written[0]) != "\x1b[3;4R" {
		t.Fatalf("unexpected DSR reply %q", w.written[0])
	}
}

func TestOSC8HyperlinkStampsCellsUntilClosed(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b]8;;http://example.com\x07in\x1b]8;;\x07out"))
	scr := h.Term.Active()
	row := scr.Row(0)
	if row.Cells[0].LinkID == 0 || row.Cells[1].LinkID == 0 {
		t.Fatalf("expected linked cells to carry a non-zero LinkID, got %+v %+v", row.Cells[0], row.Cells[1])
	}
	if row.Cells[0].LinkID != row.Cells[1].LinkID {
		t.Fatalf("expected both cells of the same link to share a LinkID")
	}
	if row.Cells[2].LinkID != 0 {
		t.Fatalf("expected cell written after close to carry no LinkID, got %+v", row.Cells[2])
	}
	if uri, ok := h.Term.HyperlinkURI(row.Cells[0].LinkID); !ok || uri != "http://example.com" {
		t.Fatalf("expected HyperlinkURI to resolve back to the opened uri, got %q ok=%v", uri, ok)
	}
}

func TestOSC8ExplicitIDReusesSameLinkID(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b]8;id=x;http://example.com\x07a\x1b]8;;\x07\x1b]8;id=x;http://example.com\x07b\x1b]8;;\x07"))
	scr := h.Term.Active()
	row := scr.Row(0)
	if row.Cells[0].LinkID != row.Cells[1].LinkID {
		t.Fatalf("expected repeated id= to reuse the same LinkID, got %d and %d", row.Cells[0].LinkID, row.Cells[1].LinkID)
	}
}

func TestOSC99NotificationSingleChunk(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b]99;i=1:n=My Title;hello\x07"))
	ui := h.UI.(*fakeUI)
	if len(ui.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(ui.notifications))
	}
	n := ui.notifications[0]
	if n.ID != "1" || n.Title != "My Title" || n.Body != "hello" {
		t.Fatalf("unexpected notification %+v", n)
	}
}

func TestOSC99NotificationMultiChunkAccumulates(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b]99;i=1:d=0;hello \x07"))
	ui := h.UI.(*fakeUI)
	if len(ui.notifications) != 0 {
		t.Fatalf("expected no delivery before d=1, got %d", len(ui.notifications))
	}
	h.Process(p, []byte("\x1b]99;i=1:d=1;world\x07"))
	if len(ui.notifications) != 1 {
		t.Fatalf("expected delivery after d=1, got %d", len(ui.notifications))
	}
	if got := ui.notifications[0].Body; got != "hello world" {
		t.Fatalf("expected accumulated body %q, got %q", "hello world", got)
	}
}

func TestOSC99NotificationBase64Payload(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b]99;i=1:e=1;aGVsbG8=\x07"))
	ui := h.UI.(*fakeUI)
	if len(ui.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(ui.notifications))
	}
	if got := ui.notifications[0].Body; got != "hello" {
		t.Fatalf("expected decoded body %q, got %q", "hello", got)
	}
}

func TestOSC99NWarnAliasesWarning(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b]99;i=1:n=warn;uh oh\x07"))
	ui := h.UI.(*fakeUI)
	if len(ui.notifications) != 1 || !ui.notifications[0].Warning {
		t.Fatalf("expected a warning notification, got %+v", ui.notifications)
	}
}

func TestDECSCUSRBlinkBitAlwaysHonoured(t *testing.T) {
	h, p, _ := newTestHandler()
	h.Process(p, []byte("\x1b[2 q")) // steady block
	if h.Term.CursorBlinkEffective() {
		t.Fatal("expected steady-block DECSCUSR to suppress blink")
	}
	h.Process(p, []byte("\x1b[1 q")) // blinking block
	if !h.Term.CursorBlinkEffective() {
		t.Fatal("expected blinking-block DECSCUSR to enable blink")
	}
}

func TestDECSCUSRBeforeAnySequenceFallsBackToMode12(t *testing.T) {
	h, p, _ := newTestHandler()
	if h.Term.CursorBlinkEffective() {
		t.Fatal("expected no blink before mode 12 is set and DECSCUSR unused")
	}
	h.Process(p, []byte("\x1b[?12h"))
	if !h.Term.CursorBlinkEffective() {
		t.Fatal("expected mode 12 to govern blink before DECSCUSR is ever issued")
	}
}
