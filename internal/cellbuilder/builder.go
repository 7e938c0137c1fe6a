package cellbuilder

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/javanhut/raventerm/internal/screen"
)

// rowCacheKey identifies a cached row's shaped records. Selection is
// Screen.SelectionValue(y): zero unless the selection intersects this
// row, and distinct for distinct selections over the same row so a
// changed selection never returns a stale highlight.
type rowCacheKey struct {
	Selection uint64
	Screen    screen.ActiveScreen
	RowID     uint64
}

// Frame is one call's worth of cell builder output.
type Frame struct {
	Records []Record
	// AtlasDirty is true when the shaper packed new glyphs since the
	// last Build call; the caller must re-upload the atlas texture
	// before drawing this frame's Records.
	AtlasDirty bool
}

// Builder converts Screen snapshots into GPU cell records, caching
// shaped rows across frames so an unchanged, unscrolled row costs one
// map lookup instead of a re-shape.
type Builder struct {
	shaper Shaper
	cache  *lru.Cache[rowCacheKey, []Record]

	cols, rows int

	lastAtlasGen uint64

	gpuBufferSize  int
	glCellsWritten int
}

// New builds a Builder for a grid of the given size, backed by shaper
// for glyph positioning.
func New(shaper Shaper, cols, rows int) *Builder {
	cache, _ := lru.New[rowCacheKey, []Record](lruCapacity(rows))
	shaper.Resize(cols)
	return &Builder{shaper: shaper, cache: cache, cols: cols, rows: rows}
}

func lruCapacity(rows int) int {
	c := rows * 10
	if c < 80 {
		c = 80
	}
	return c
}

// Resize adapts the builder to a new grid size: the shaper's per-row
// scratch buffer is reallocated to cols*2 cells and the row cache is
// resized (and effectively invalidated, since old entries' row y no
// longer applies to the new layout in general).
func (b *Builder) Resize(cols, rows int) {
	b.cols, b.rows = cols, rows
	b.shaper.Resize(cols)
	b.cache.Purge()
	b.cache.Resize(lruCapacity(rows))
}

// Build shapes every visible row of the Terminal's active Screen into
// GPU cell records, appends a cursor record if appropriate, and
// reports whether the glyph atlas changed since the last call.
// focused controls whether a block-style cursor renders solid or
// hollow.
func (b *Builder) Build(term *screen.Terminal, focused bool) Frame {
	scr := term.Active()
	cols, rows := scr.Size()
	if cols != b.cols || rows != b.rows {
		b.Resize(cols, rows)
	}

	out := make([]Record, 0, rows*cols*3+1)
	activeKind := term.ActiveKind()

	for y := 0; y < rows; y++ {
		row := scr.VisibleRow(y)
		if row == nil {
			continue
		}
		sel := scr.SelectionValue(y)
		key := rowCacheKey{Selection: sel, Screen: activeKind, RowID: row.ID}

		if !row.Dirty {
			if cached, ok := b.cache.Get(key); ok {
				out = append(out, patchedForRow(cached, uint16(y))...)
				continue
			}
		}

		records := b.shapeRow(scr, row, y, sel)
		b.cache.Add(key, records)
		scr.MarkRowClean(y)
		out = append(out, patchedForRow(records, uint16(y))...)
	}

	if scr.AtBottom() && term.HasMode(screen.ModeCursorVisible) {
		if rec, ok := b.cursorRecord(term, scr, focused); ok {
			out = append(out, rec)
		}
	}

	gen := b.shaper.AtlasGeneration()
	atlasDirty := gen != b.lastAtlasGen
	b.lastAtlasGen = gen

	return Frame{Records: out, AtlasDirty: atlasDirty}
}

// patchedForRow returns cached records re-pointed at grid row y,
// without re-shaping. Cached records always carry GridRow 0; callers
// never mutate the cache's backing array in place, since it may be
// shared by a concurrent cache hit against the previous y.
func patchedForRow(cached []Record, y uint16) []Record {
	out := make([]Record, len(cached))
	for i, r := range cached {
		r.GridRow = y
		out[i] = r
	}
	return out
}

// shapeRow runs shaping on one row and emits up to four records per
// cell: background, glyph, underline, strikethrough, in that order.
// Returned records carry GridRow 0; the caller (or a later cache hit)
// patches in the real row.
func (b *Builder) shapeRow(scr *screen.Screen, row *screen.Row, y int, selVal uint64) []Record {
	records := make([]Record, 0, len(row.Cells)*3)
	selected := selVal != 0

	for x, cell := range row.Cells {
		if cell.IsWideSpacer() {
			continue
		}
		fg, bg := cellColors(scr, cell, selected && scr.IsSelected(x, y))

		if bg != nil {
			records = append(records, Record{
				GridCol:   uint16(x),
				Fg:        RGBA{},
				Bg:        *bg,
				Mode:      ModeBackground,
				GridWidth: cellWidth(cell),
			})
		}

		if cell.Char != 0 && cell.Char != ' ' {
			if glyph, ok := b.shaper.ShapeCell(cell); ok {
				mode := ModeGlyph
				if glyph.Color {
					mode = ModeGlyphColor
				}
				records = append(records, Record{
					GridCol:   uint16(x),
					GlyphX:    glyph.AtlasX,
					GlyphY:    glyph.AtlasY,
					GlyphW:    glyph.Width,
					GlyphH:    glyph.Height,
					OffsetX:   glyph.OffsetX,
					OffsetY:   glyph.OffsetY,
					Fg:        fg,
					Mode:      mode,
					GridWidth: cellWidth(cell),
				})
			}
		}

		if cell.Flags&(screen.StyleUnderline|screen.StyleDoubleUnderline) != 0 || cell.LinkID != 0 {
			records = append(records, Record{
				GridCol:   uint16(x),
				Fg:        fg,
				Mode:      ModeUnderline,
				GridWidth: cellWidth(cell),
			})
		}

		if cell.Flags&screen.StyleStrikethrough != 0 {
			records = append(records, Record{
				GridCol:   uint16(x),
				Fg:        fg,
				Mode:      ModeStrikethrough,
				GridWidth: cellWidth(cell),
			})
		}
	}

	return records
}

func cellWidth(c screen.Cell) uint8 {
	if c.IsWide() {
		return 2
	}
	return 1
}

// cellColors applies the color rules: selection swaps to (default fg,
// default bg); inverse swaps fg/bg; faint scales alpha by 175/255;
// background is nil (omitted) when it is the unmodified default.
func cellColors(scr *screen.Screen, c screen.Cell, selected bool) (fg RGBA, bg *RGBA) {
	defaultFgRGB := [3]uint8{230, 230, 230}
	defaultBgRGB := [3]uint8{0, 0, 0}

	if selected {
		fgRGB := scr.PaletteColor(screen.DefaultBg(), defaultBgRGB)
		bgRGB := scr.PaletteColor(screen.DefaultFg(), defaultFgRGB)
		return RGBA{fgRGB[0], fgRGB[1], fgRGB[2], 255}, &RGBA{bgRGB[0], bgRGB[1], bgRGB[2], 255}
	}

	fgRGB := scr.PaletteColor(c.Fg, defaultFgRGB)
	hasBg := c.Bg.Kind != screen.ColorDefault
	bgRGB := scr.PaletteColor(c.Bg, defaultBgRGB)

	if c.Flags&screen.StyleInverse != 0 {
		fgRGB, bgRGB = bgRGB, fgRGB
		hasBg = true
	}

	alpha := uint8(255)
	if c.Flags&screen.StyleFaint != 0 {
		alpha = uint8(uint16(alpha) * 175 / 255)
	}
	fg = RGBA{fgRGB[0], fgRGB[1], fgRGB[2], alpha}

	if hasBg {
		bg = &RGBA{bgRGB[0], bgRGB[1], bgRGB[2], 255}
	}
	return fg, bg
}

// cursorRecord builds the overlay record for the terminal cursor, or
// ok=false if it falls outside the grid (can happen transiently during
// a resize race between Screen and the builder's cached cols/rows).
func (b *Builder) cursorRecord(term *screen.Terminal, scr *screen.Screen, focused bool) (Record, bool) {
	x, y := scr.Cursor()
	cols, rows := scr.Size()
	if x < 0 || x >= cols || y < 0 || y >= rows {
		return Record{}, false
	}

	width := uint8(1)
	if row := scr.Row(y); row != nil && x < len(row.Cells) && row.Cells[x].IsWide() {
		width = 2
	}

	mode := cursorMode(term.CursorStyle(), focused)

	return Record{
		GridCol:   uint16(x),
		GridRow:   uint16(y),
		Mode:      mode,
		GridWidth: width,
	}, true
}

func cursorMode(style screen.CursorStyle, focused bool) Mode {
	switch style.Shape {
	case screen.CursorUnderline:
		return ModeCursorUnderline
	case screen.CursorBar:
		return ModeCursorBar
	default:
		if focused {
			return ModeCursorBlock
		}
		return ModeCursorHollow
	}
}

// GPUBufferPlan decides whether the caller must reallocate its GPU
// buffer or can upload incrementally: reallocate only when the
// required capacity exceeds the last-known buffer size, otherwise
// upload starting at the last write offset.
func (b *Builder) GPUBufferPlan(requiredCapacity int) (reallocate bool, uploadFrom int) {
	if requiredCapacity > b.gpuBufferSize {
		b.gpuBufferSize = requiredCapacity
		b.glCellsWritten = 0
		return true, 0
	}
	from := b.glCellsWritten
	b.glCellsWritten = requiredCapacity
	return false, from
}
