package screen

// ColorKind identifies how a Color's value should be interpreted.
type ColorKind uint8

const (
	ColorDefault ColorKind = iota
	ColorIndexed
	ColorRGB
)

// Color is a terminal foreground/background color: either "use the
// configured default", a palette index, or an explicit 24-bit value.
type Color struct {
	Kind    ColorKind
	Index   uint8
	R, G, B uint8
}

// DefaultFg returns the "use the configured default" foreground color.
func DefaultFg() Color { return Color{Kind: ColorDefault} }

// DefaultBg returns the "use the configured default" background color.
func DefaultBg() Color { return Color{Kind: ColorDefault} }

// Indexed returns a 256-color palette reference.
func Indexed(i uint8) Color { return Color{Kind: ColorIndexed, Index: i} }

// RGB returns an explicit 24-bit color.
func RGB(r, g, b uint8) Color { return Color{Kind: ColorRGB, R: r, G: g, B: b} }

// StyleFlags holds the SGR-derived attribute bits of a Cell.
type StyleFlags uint16

const (
	StyleBold StyleFlags = 1 << iota
	StyleFaint
	StyleItalic
	StyleUnderline
	StyleStrikethrough
	StyleInverse
	StyleInvisible
	StyleProtected
	StyleWide
	StyleWideSpacer
	StyleBlink
	StyleDoubleUnderline
	StyleOverline
)

// Cell is a single addressable position in a Row.
type Cell struct {
	Char      rune
	Fg        Color
	Bg        Color
	Flags     StyleFlags
	LinkID    uint32 // 0 means no hyperlink
	ImagePlac uint64 // 0 means no kitty-graphics placement marker
}

// BlankCell returns a cell holding a space with the given pen state.
func BlankCell(fg, bg Color, flags StyleFlags) Cell {
	return Cell{Char: ' ', Fg: fg, Bg: bg, Flags: flags &^ (StyleWide | StyleWideSpacer)}
}

// NewCell returns a default blank cell.
func NewCell() Cell {
	return Cell{Char: ' ', Fg: DefaultFg(), Bg: DefaultBg()}
}

// IsWide reports whether the cell occupies two grid columns.
func (c Cell) IsWide() bool { return c.Flags&StyleWide != 0 }

// IsWideSpacer reports whether the cell is the non-addressable spacer
// that trails a wide cell.
func (c Cell) IsWideSpacer() bool { return c.Flags&StyleWideSpacer != 0 }

// SemanticPrompt annotates a Row with shell-integration meaning.
type SemanticPrompt uint8

const (
	SemanticNone SemanticPrompt = iota
	SemanticPrompt1
	SemanticPromptContinuation
	SemanticInput
	SemanticCommand
)

// Row is a fixed-width sequence of Cells plus cache/scrollback
// metadata. RowID is assigned once at allocation time from a Booid
// generator and never changes for the lifetime of the backing row
// storage, even when the row scrolls into scrollback.
type Row struct {
	ID                 uint64
	Cells              []Cell
	Dirty              bool
	Wrapped            bool
	Semantic           SemanticPrompt
	ShellRedrawsPrompt bool
}

func newRow(id uint64, cols int, fg, bg Color) *Row {
	cells := make([]Cell, cols)
	for i := range cells {
		cells[i] = BlankCell(fg, bg, 0)
	}
	return &Row{ID: id, Cells: cells, Dirty: true}
}

func (r *Row) resize(cols int, fg, bg Color) {
	if cols == len(r.Cells) {
		return
	}
	next := make([]Cell, cols)
	for i := range next {
		next[i] = BlankCell(fg, bg, 0)
	}
	copy(next, r.Cells)
	r.Cells = next
	r.Dirty = true
}

// clone returns a deep copy of the row with a fresh identity.
func (r *Row) clone(id uint64) *Row {
	cells := make([]Cell, len(r.Cells))
	copy(cells, r.Cells)
	return &Row{ID: id, Cells: cells, Dirty: true, Semantic: r.Semantic}
}
