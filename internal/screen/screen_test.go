package screen

import (
	"testing"

	"github.com/javanhut/raventerm/internal/booid"
)

func feedString(s *Screen, str string) {
	for _, r := range str {
		switch r {
		case '\n':
			s.Index()
			s.CarriageReturn()
		case '\r':
			s.CarriageReturn()
		default:
			s.Print(r)
		}
	}
}

func rowString(row *Row) string {
	out := make([]rune, 0, len(row.Cells))
	for _, c := range row.Cells {
		if c.IsWideSpacer() {
			continue
		}
		if c.Char == 0 {
			out = append(out, ' ')
			continue
		}
		out = append(out, c.Char)
	}
	return string(out)
}

// scenario 1: printing "Hello\r\n" lands "Hello" on row 0 and leaves
// the cursor at the start of row 1.
func TestHelloCRLFLaysOutRowsAndCursor(t *testing.T) {
	term := NewTerminal(20, 5, 1)
	scr := term.Active()
	feedString(scr, "Hello\r\n")

	if got := rowString(scr.Row(0)); got[:5] != "Hello" {
		t.Fatalf("row 0 = %q, want prefix Hello", got)
	}
	x, y := scr.Cursor()
	if x != 0 || y != 1 {
		t.Fatalf("cursor = (%d,%d), want (0,1)", x, y)
	}
}

// scenario 2: ESC[2J ESC[H clears the whole display and homes the
// cursor.
func TestFullClearAndHome(t *testing.T) {
	term := NewTerminal(10, 3, 1)
	scr := term.Active()
	feedString(scr, "abc\r\ndef")
	scr.SetCursorPos(3, 3)

	scr.EraseDisplay(EraseComplete, false)
	scr.SetCursorPos(1, 1)

	for y := 0; y < 3; y++ {
		for _, c := range scr.Row(y).Cells {
			if c.Char != ' ' && c.Char != 0 {
				t.Fatalf("row %d not blank after full clear: %q", y, rowString(scr.Row(y)))
			}
		}
	}
	x, y := scr.Cursor()
	if x != 0 || y != 0 {
		t.Fatalf("cursor = (%d,%d), want (0,0)", x, y)
	}
}

// scenario 3: SGR attributes set then read back round-trip exactly,
// including indexed and RGB colors and style flags.
func TestSGRRoundTrip(t *testing.T) {
	term := NewTerminal(10, 3, 1)
	scr := term.Active()

	fg := Indexed(3)
	bg := RGB(10, 20, 30)
	scr.SetAttribute(&fg, &bg, StyleBold|StyleUnderline, false)
	scr.Print('x')

	cell := scr.Row(0).Cells[0]
	if cell.Fg != Indexed(3) {
		t.Fatalf("fg = %+v, want indexed 3", cell.Fg)
	}
	if cell.Bg != RGB(10, 20, 30) {
		t.Fatalf("bg = %+v, want rgb(10,20,30)", cell.Bg)
	}
	if cell.Flags&(StyleBold|StyleUnderline) != StyleBold|StyleUnderline {
		t.Fatalf("flags = %v, missing bold/underline", cell.Flags)
	}
}

// scenario 4: entering the alternate screen and writing to it leaves
// the primary screen's cursor and contents untouched; exiting restores
// exactly what was there.
func TestAlternateScreenPreservesPrimary(t *testing.T) {
	term := NewTerminal(10, 3, 1)
	feedString(term.Active(), "primary")
	term.Active().SetCursorPos(1, 4)

	term.EnterAlternate(true)
	feedString(term.Active(), "alt text")

	term.ExitAlternate()
	x, y := term.Active().Cursor()
	if x != 3 || y != 0 {
		t.Fatalf("primary cursor after restore = (%d,%d), want (3,0)", x, y)
	}
	if got := rowString(term.Active().Row(0)); got[:7] != "primary" {
		t.Fatalf("primary row 0 = %q, want prefix primary", got)
	}
}

// Cursor position always stays within [0,cols) x [0,rows).
func TestCursorStaysInBounds(t *testing.T) {
	term := NewTerminal(5, 5, 1)
	scr := term.Active()
	scr.SetCursorPos(100, 100)
	x, y := scr.Cursor()
	if x < 0 || x >= 5 || y < 0 || y >= 5 {
		t.Fatalf("cursor out of bounds: (%d,%d)", x, y)
	}
	scr.CursorUp(100)
	scr.CursorLeft(100)
	x, y = scr.Cursor()
	if x != 0 || y != 0 {
		t.Fatalf("cursor after clamped moves = (%d,%d), want (0,0)", x, y)
	}
}

// Wide runes always pair with a wide-spacer immediately to their
// right; nothing else produces a wide-spacer cell.
func TestWideCellsPairWithSpacer(t *testing.T) {
	term := NewTerminal(10, 2, 1)
	scr := term.Active()
	scr.Print('中') // wide CJK character

	row := scr.Row(0)
	if !row.Cells[0].IsWide() {
		t.Fatal("expected cell 0 to be wide")
	}
	if !row.Cells[1].IsWideSpacer() {
		t.Fatal("expected cell 1 to be the wide spacer")
	}
}

// FullReset is idempotent: applying it twice in a row yields the same
// observable state as applying it once.
func TestFullResetIdempotent(t *testing.T) {
	term := NewTerminal(10, 3, 1)
	scr := term.Active()
	feedString(scr, "junk\r\nmore junk")
	scr.FullReset()
	first := scr.DumpString(0, 3)
	scr.FullReset()
	second := scr.DumpString(0, 3)
	if first != second {
		t.Fatalf("full reset not idempotent:\n%q\n%q", first, second)
	}
}

// SaveCursor/RestoreCursor round-trips position and pen exactly.
func TestSaveRestoreCursorExact(t *testing.T) {
	term := NewTerminal(10, 5, 1)
	scr := term.Active()
	fg := RGB(1, 2, 3)
	scr.SetAttribute(&fg, nil, StyleItalic, false)
	scr.SetCursorPos(2, 4)
	scr.SaveCursor()

	scr.SetCursorPos(1, 1)
	scr.SetAttribute(nil, nil, 0, true)

	scr.RestoreCursor()
	x, y := scr.Cursor()
	if x != 3 || y != 1 {
		t.Fatalf("cursor after restore = (%d,%d), want (3,1)", x, y)
	}
	gotFg, _, flags := scr.Pen()
	if gotFg != RGB(1, 2, 3) || flags&StyleItalic == 0 {
		t.Fatalf("pen after restore = fg=%+v flags=%v, want rgb(1,2,3)+italic", gotFg, flags)
	}
}

// Marking a row clean after a cell-builder cache store leaves the
// content untouched; the dirty bit alone changes.
func TestMarkRowCleanOnlyClearsDirtyBit(t *testing.T) {
	term := NewTerminal(10, 3, 1)
	scr := term.Active()
	feedString(scr, "hi")

	before := rowString(scr.Row(0))
	scr.MarkRowClean(0)
	if scr.Row(0).Dirty {
		t.Fatal("expected Dirty cleared")
	}
	if after := rowString(scr.Row(0)); after != before {
		t.Fatalf("content changed after MarkRowClean: %q -> %q", before, after)
	}
}

// Scrolling content off the top pushes the evicted rows into
// scrollback, the page-list shape scenario 8 depends on.
func TestScrollbackAccumulatesEvictedRows(t *testing.T) {
	gen := booid.NewGenerator(1)
	scr := New(10, 3, gen, true)
	for i := 0; i < 10; i++ {
		feedString(scr, "row\r\n")
	}
	if scr.ScrollbackLen() == 0 {
		t.Fatal("expected rows pushed into scrollback")
	}
}
