package cellbuilder

import (
	"testing"

	"github.com/javanhut/raventerm/internal/screen"
)

// stubShaper is a deterministic monospace shaper for tests: every
// distinct rune gets its own atlas slot the first time it is seen,
// which lets tests assert on AtlasGeneration changes.
type stubShaper struct {
	slots map[rune]uint32
	next  uint32
	gen   uint64
}

func newStubShaper() *stubShaper { return &stubShaper{slots: make(map[rune]uint32)} }

func (s *stubShaper) ShapeCell(c screen.Cell) (Glyph, bool) {
	if c.Char == 0 || c.Char == ' ' {
		return Glyph{}, false
	}
	slot, ok := s.slots[c.Char]
	if !ok {
		slot = s.next
		s.next++
		s.slots[c.Char] = slot
		s.gen++
	}
	return Glyph{AtlasX: slot * 16, Width: 16, Height: 16}, true
}

func (s *stubShaper) AtlasGeneration() uint64 { return s.gen }
func (s *stubShaper) Resize(cols int)         {}

func newTestTerm(cols, rows int) *screen.Terminal {
	return screen.NewTerminal(cols, rows, 1)
}

func feedText(t *screen.Terminal, text string) {
	for _, r := range text {
		t.Active().Print(r)
	}
}

func TestBuildEmitsGlyphRecordsForText(t *testing.T) {
	term := newTestTerm(10, 3)
	feedText(term, "hi")

	b := New(newStubShaper(), 10, 3)
	frame := b.Build(term, true)

	glyphs := 0
	for _, r := range frame.Records {
		if r.Mode == ModeGlyph {
			glyphs++
		}
	}
	if glyphs != 2 {
		t.Fatalf("expected 2 glyph records, got %d (records=%v)", glyphs, frame.Records)
	}
	if !frame.AtlasDirty {
		t.Fatal("expected atlas dirty on first build with new glyphs")
	}
}

func TestBuildCacheHitSkipsReshaping(t *testing.T) {
	term := newTestTerm(10, 3)
	feedText(term, "hello")

	shaper := newStubShaper()
	b := New(shaper, 10, 3)
	b.Build(term, true)

	genAfterFirst := shaper.gen
	b.Build(term, true)
	if shaper.gen != genAfterFirst {
		t.Fatalf("expected no new glyph slots on cache-hit rebuild, gen went %d -> %d", genAfterFirst, shaper.gen)
	}
}

func TestBuildSelectionSwapsColors(t *testing.T) {
	term := newTestTerm(10, 1)
	feedText(term, "abc")
	term.Active().SetSelection(screen.Point{X: 0, Y: 0}, screen.Point{X: 2, Y: 0}, false)

	b := New(newStubShaper(), 10, 1)
	frame := b.Build(term, true)

	var sawBg bool
	for _, r := range frame.Records {
		if r.Mode == ModeBackground && r.GridCol == 0 {
			sawBg = true
		}
	}
	if !sawBg {
		t.Fatal("expected a background record for the selected cell")
	}
}

func TestCellColorsInvertsDefaultColoredCell(t *testing.T) {
	term := newTestTerm(10, 1)
	scr := term.Active()

	cell := screen.NewCell()
	cell.Flags |= screen.StyleInverse

	fg, bg := cellColors(scr, cell, false)
	if fg != (RGBA{0, 0, 0, 255}) {
		t.Fatalf("inverse fg = %+v, want default bg (0,0,0)", fg)
	}
	if bg == nil || *bg != (RGBA{230, 230, 230, 255}) {
		t.Fatalf("inverse bg = %+v, want default fg (230,230,230)", bg)
	}
}

func TestBuildAppendsCursorWhenVisibleAtBottom(t *testing.T) {
	term := newTestTerm(10, 3)
	feedText(term, "x")

	b := New(newStubShaper(), 10, 3)
	frame := b.Build(term, true)

	found := false
	for _, r := range frame.Records {
		if r.Mode == ModeCursorBlock {
			found = true
			if r.GridCol != 1 || r.GridRow != 0 {
				t.Fatalf("expected cursor at (1,0), got (%d,%d)", r.GridCol, r.GridRow)
			}
		}
	}
	if !found {
		t.Fatal("expected a cursor record")
	}
}

func TestBuildCursorHollowWhenUnfocused(t *testing.T) {
	term := newTestTerm(10, 3)
	b := New(newStubShaper(), 10, 3)
	frame := b.Build(term, false)

	for _, r := range frame.Records {
		if r.Mode == ModeCursorBlock {
			t.Fatal("expected hollow cursor mode when unfocused, got block")
		}
	}
}

func TestBuildOmitsCursorWhenScrolledBack(t *testing.T) {
	term := newTestTerm(10, 3)
	for i := 0; i < 40; i++ {
		feedText(term, "line\r\n")
	}
	term.Active().ScrollViewport(-5)

	b := New(newStubShaper(), 10, 3)
	frame := b.Build(term, true)

	for _, r := range frame.Records {
		if r.Mode == ModeCursorBlock || r.Mode == ModeCursorHollow {
			t.Fatal("expected no cursor record while viewport is scrolled back")
		}
	}
}

func TestResizeInvalidatesCache(t *testing.T) {
	term := newTestTerm(10, 3)
	feedText(term, "hi")

	b := New(newStubShaper(), 10, 3)
	b.Build(term, true)

	b.Resize(20, 6)
	term.Resize(20, 6)
	frame := b.Build(term, true)
	if len(frame.Records) == 0 {
		t.Fatal("expected records after resize")
	}
}
