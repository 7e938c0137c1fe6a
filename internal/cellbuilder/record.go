// Package cellbuilder turns a Screen snapshot into the flat array of
// GPU cell records a renderer uploads to a vertex buffer each frame.
// It owns no rendering state itself: glyph shaping and atlas
// management are delegated to a Shaper collaborator so this package
// stays free of any GPU binding.
package cellbuilder

// Mode discriminates what a Record draws. Multiple records can share
// one grid cell: a cell with a non-default background, a character,
// an underline and a strikethrough emits up to four.
type Mode uint8

const (
	ModeBackground Mode = iota
	ModeGlyph
	ModeGlyphColor // color-emoji glyph, sampled from the color atlas
	ModeUnderline
	ModeStrikethrough
	ModeCursorBlock
	ModeCursorHollow
	ModeCursorBar
	ModeCursorUnderline
)

// RGBA is a straight (non-premultiplied) 8-bit color.
type RGBA struct {
	R, G, B, A uint8
}

// Record is one GPU-side instance: a textured or flat-colored quad
// positioned at a grid cell.
type Record struct {
	GridCol, GridRow   uint16
	GlyphX, GlyphY     uint32 // atlas texel origin
	GlyphW, GlyphH     uint32
	OffsetX, OffsetY   int32 // glyph offset from cell origin, signed
	Fg, Bg             RGBA
	Mode               Mode
	GridWidth          uint8 // 1, or 2 for a wide cell/cursor over one
}
