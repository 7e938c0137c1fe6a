package cellbuilder

import "github.com/javanhut/raventerm/internal/screen"

// Glyph is one shaped glyph's position in the shaper's atlas, in texel
// coordinates, plus the pen offset to apply when placing it in a
// cell. Shapers own font loading and atlas packing; this package only
// consumes their output.
type Glyph struct {
	AtlasX, AtlasY uint32
	Width, Height  uint32
	OffsetX        int32
	OffsetY        int32
	Color          bool // true for a pre-colored (emoji) glyph
}

// Shaper is the external collaborator responsible for turning a row of
// Cells into positioned glyphs. Font/glyph-atlas construction is
// outside this package's scope; Shaper is the seam a concrete
// implementation (e.g. a harfbuzz or freetype-backed atlas) plugs
// into.
type Shaper interface {
	// ShapeCell returns the glyph for one cell's rune, or ok=false for
	// cells with no visible glyph (blank, wide-spacer).
	ShapeCell(c screen.Cell) (g Glyph, ok bool)

	// AtlasGeneration increments every time the shaper mutates its
	// atlas texture (new glyph packed in). The builder compares this
	// against the generation it last saw to decide whether the caller
	// needs to re-upload atlas texture data this frame.
	AtlasGeneration() uint64

	// Resize is called when the grid size changes so the shaper can
	// reallocate any per-row scratch buffer it keeps, sized cols*2
	// cells to accommodate worst-case wide-cell shaping.
	Resize(cols int)
}

// NopShaper is a placeholder Shaper that positions nothing. It lets
// the builder run end to end (and lets cmd/raventerm-core exercise
// the full pipeline headlessly) without a real font/atlas backend,
// which is outside this module's scope.
type NopShaper struct{}

func (NopShaper) ShapeCell(c screen.Cell) (Glyph, bool) { return Glyph{}, false }
func (NopShaper) AtlasGeneration() uint64               { return 0 }
func (NopShaper) Resize(cols int)                       {}
