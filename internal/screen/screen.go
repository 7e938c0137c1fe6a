// Package screen implements the terminal grid model: cells, rows,
// cursor, scrolling regions, scrollback, selection, and the kitty
// graphics/keyboard bookkeeping that rides on top of it. It has no
// knowledge of escape sequences; internal/streamhandler drives it.
package screen

import (
	"strings"
	"sync"

	"github.com/javanhut/raventerm/internal/booid"
	"golang.org/x/text/width"
)

// MaxScrollback caps the number of rows retained above the active
// region on the primary screen.
const MaxScrollback = 10000

// EraseMode selects the range cleared by EraseDisplay/EraseLine.
type EraseMode uint8

const (
	EraseBelow EraseMode = iota
	EraseAbove
	EraseComplete
	EraseScrollback
)

// cursorState bundles cursor position, pen attributes and the bits
// DECSC/DECRC must save together.
type cursorState struct {
	X, Y        int
	PendingWrap bool
	Fg, Bg      Color
	Flags       StyleFlags
	LinkID      uint32  // active OSC 8 hyperlink, 0 if none
	G           [4]rune // G0-G3 designations
	GL, GR      int     // active slots
	SingleShift int     // -1 if none pending
}

func defaultCursor() cursorState {
	return cursorState{Fg: DefaultFg(), Bg: DefaultBg(), G: [4]rune{'B', 'B', 'B', 'B'}, SingleShift: -1}
}

// Screen is one of the two independent grid instances (primary or
// alternate) that make up a Terminal.
type Screen struct {
	mu sync.RWMutex

	gen *booid.Generator

	cols, rows int
	hasScroll  bool // false for the alternate screen: no scrollback is kept

	active     []*Row
	scrollback []*Row

	cursor     cursorState
	savedStack []cursorState

	top, bottom int // scroll region rows, 0-based inclusive
	left, right int // scroll region cols, 0-based inclusive

	tabStops []bool

	mouseShape string
	pwd        string
	titleSet   bool

	kittyStack []KittyKeyboardFlags

	palette          [256]Color
	paletteOverride  [256]bool
	defaultPalette   [256]Color
	protectedDefault bool

	images      map[uint64]*Image
	placements  []*Placement
	pendingLoad *LoadingImage

	sel *Selection

	viewportOffset int // rows scrolled back from bottom, 0 == live
	modeOrigin     bool
}

// New creates a Screen of the given size. hasScroll controls whether
// scrolled-off rows are retained (true for primary, false for
// alternate).
func New(cols, rows int, gen *booid.Generator, hasScroll bool) *Screen {
	s := &Screen{
		gen:       gen,
		cols:      cols,
		rows:      rows,
		hasScroll: hasScroll,
		cursor:    defaultCursor(),
		top:       0, bottom: rows - 1,
		left: 0, right: cols - 1,
		tabStops: defaultTabStops(cols),
		images:   make(map[uint64]*Image),
	}
	s.palette = defaultXtermPalette()
	s.defaultPalette = s.palette
	s.active = make([]*Row, rows)
	for i := range s.active {
		s.active[i] = s.newRow()
	}
	return s
}

func (s *Screen) newRow() *Row {
	return newRow(s.gen.Next(), s.cols, DefaultFg(), DefaultBg())
}

func defaultTabStops(cols int) []bool {
	stops := make([]bool, cols)
	for i := 8; i < cols; i += 8 {
		stops[i] = true
	}
	return stops
}

// Lock/Unlock expose the screen's mutex. Every Screen method takes the
// same mutex itself and sync.RWMutex is not reentrant, so a caller
// holding Lock must not call Screen methods. The stream handler does
// not use Lock: the screen is locked once per Screen call, not once
// per chunk.
func (s *Screen) Lock()   { s.mu.Lock() }
func (s *Screen) Unlock() { s.mu.Unlock() }

// Size returns the current column/row count.
func (s *Screen) Size() (cols, rows int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cols, s.rows
}

// Cursor returns the cursor's logical (0-based) position.
func (s *Screen) Cursor() (x, y int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor.X, s.cursor.Y
}

func (s *Screen) row(y int) *Row {
	if y < 0 || y >= len(s.active) {
		return nil
	}
	return s.active[y]
}

// Row returns the active row at y, or nil if out of range. The
// returned pointer is only valid while the caller holds the lock (or
// the Screen is otherwise known not to mutate concurrently).
func (s *Screen) Row(y int) *Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.row(y)
}

// ScrollbackLen returns the number of rows retained above the active
// region.
func (s *Screen) ScrollbackLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.scrollback)
}

// ScrollbackRow returns scrollback row i (0 = oldest).
func (s *Screen) ScrollbackRow(i int) *Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i < 0 || i >= len(s.scrollback) {
		return nil
	}
	return s.scrollback[i]
}

func (s *Screen) clampCursor() {
	minY, maxY := 0, s.rows-1
	if s.modeOrigin {
		minY, maxY = s.top, s.bottom
	}
	if s.cursor.X < 0 {
		s.cursor.X = 0
	}
	if s.cursor.X >= s.cols {
		s.cursor.X = s.cols - 1
	}
	if s.cursor.Y < minY {
		s.cursor.Y = minY
	}
	if s.cursor.Y > maxY {
		s.cursor.Y = maxY
	}
}

// SetOriginMode is called by Terminal when DECOM (mode 6) toggles.
// modeOrigin mirrors DECOM and is kept on Screen, rather than threaded
// through every call, because so many cursor operations consult it.
func (s *Screen) SetOriginMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modeOrigin = on
	s.cursor.X, s.cursor.Y = 0, 0
	if on {
		s.cursor.Y = s.top
	}
}

// Print writes one codepoint at the cursor and advances it, wrapping
// and scrolling as needed. Wide codepoints consume two columns: the
// second is written as a StyleWideSpacer cell sharing the glyph.
func (s *Screen) Print(cp rune) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.print(cp)
}

func (s *Screen) print(cp rune) {
	cp = s.translateCharset(cp)
	w := width.LookupRune(cp)
	wide := w.Kind() == width.EastAsianWide || w.Kind() == width.EastAsianFullwidth
	need := 1
	if wide {
		need = 2
	}

	if s.cursor.PendingWrap {
		s.doIndexCR()
		s.cursor.PendingWrap = false
	}
	if s.cursor.X+need > s.right+1 {
		s.doIndexCR()
	}

	row := s.row(s.cursor.Y)
	if row == nil {
		return
	}
	cell := Cell{Char: cp, Fg: s.cursor.Fg, Bg: s.cursor.Bg, Flags: s.cursor.Flags, LinkID: s.cursor.LinkID}
	if wide {
		cell.Flags |= StyleWide
	}
	row.Cells[s.cursor.X] = cell
	row.Dirty = true

	if wide && s.cursor.X+1 <= s.right {
		row.Cells[s.cursor.X+1] = Cell{Char: cp, Fg: s.cursor.Fg, Bg: s.cursor.Bg, Flags: s.cursor.Flags | StyleWideSpacer, LinkID: s.cursor.LinkID}
	}

	s.cursor.X += need
	if s.cursor.X > s.right {
		s.cursor.X = s.right
		s.cursor.PendingWrap = true
	}
}

// doIndexCR performs auto-wrap: it marks the cursor's row as
// soft-wrapped, then does a carriage-return + index.
func (s *Screen) doIndexCR() {
	if r := s.row(s.cursor.Y); r != nil {
		r.Wrapped = true
	}
	s.cursor.X = s.left
	s.index()
}

// Index moves the cursor down one line, scrolling the region if
// already at the bottom margin (CSI D equivalent / LF).
func (s *Screen) Index() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.index()
}

func (s *Screen) index() {
	if s.cursor.Y == s.bottom {
		s.scrollUpRegion(1)
	} else if s.cursor.Y < s.rows-1 {
		s.cursor.Y++
	}
}

// ReverseIndex moves the cursor up one line, scrolling down if already
// at the top margin.
func (s *Screen) ReverseIndex() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor.Y == s.top {
		s.scrollDownRegion(1)
	} else if s.cursor.Y > 0 {
		s.cursor.Y--
	}
}

// NextLine is ESC E / OSC 133's newline: carriage return + index.
func (s *Screen) NextLine() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.X = s.left
	s.index()
}

func (s *Screen) CarriageReturn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.X = s.left
	s.cursor.PendingWrap = false
}

func (s *Screen) Backspace() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor.X > s.left {
		s.cursor.X--
	}
	s.cursor.PendingWrap = false
}

func (s *Screen) CursorUp(n int)    { s.moveCursor(0, -n) }
func (s *Screen) CursorDown(n int)  { s.moveCursor(0, n) }
func (s *Screen) CursorLeft(n int)  { s.moveCursor(-n, 0) }
func (s *Screen) CursorRight(n int) { s.moveCursor(n, 0) }

func (s *Screen) moveCursor(dx, dy int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.X += dx
	s.cursor.Y += dy
	s.cursor.PendingWrap = false
	s.clampCursor()
}

// SetCursorPos is CUP: 1-based (row, col), or origin-relative when
// DECOM is set.
func (s *Screen) SetCursorPos(row, col int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	y := row - 1
	x := col - 1
	if s.modeOrigin {
		y += s.top
	}
	s.cursor.X, s.cursor.Y = x, y
	s.cursor.PendingWrap = false
	s.clampCursor()
}

// ReportCursorPos returns the 1-based cursor position, translated
// relative to the scroll region when DECOM is set.
func (s *Screen) ReportCursorPos() (row, col int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	y, x := s.cursor.Y, s.cursor.X
	if s.modeOrigin {
		y -= s.top
	}
	return y + 1, x + 1
}

// scrollUpRegion shifts rows [top,bottom] up by n, pushing rows above
// top's scrollback only when the region spans the whole screen and the
// screen retains scrollback.
func (s *Screen) scrollUpRegion(n int) {
	for i := 0; i < n; i++ {
		if s.top == 0 && s.bottom == s.rows-1 && s.left == 0 && s.right == s.cols-1 {
			if s.hasScroll {
				s.scrollback = append(s.scrollback, s.active[0])
				if len(s.scrollback) > MaxScrollback {
					s.scrollback = s.scrollback[1:]
				}
			}
			copy(s.active, s.active[1:])
			s.active[s.rows-1] = s.newRow()
			continue
		}
		s.shiftRegionRows(s.top, s.bottom, -1)
	}
}

func (s *Screen) scrollDownRegion(n int) {
	for i := 0; i < n; i++ {
		s.shiftRegionRows(s.top, s.bottom, 1)
	}
}

// shiftRegionRows shifts the row range [top,bottom] within the
// scrolling region's columns by delta (negative = up, positive =
// down), clearing the vacated edge.
func (s *Screen) shiftRegionRows(top, bottom, delta int) {
	if delta < 0 {
		for y := top; y <= bottom+delta; y++ {
			s.copyRowCols(s.active[y-delta], s.active[y])
		}
		for y := bottom + delta + 1; y <= bottom; y++ {
			if y >= 0 && y < len(s.active) {
				s.clearRowCols(s.active[y])
			}
		}
	} else {
		for y := bottom; y >= top+delta; y-- {
			s.copyRowCols(s.active[y-delta], s.active[y])
		}
		for y := top; y < top+delta; y++ {
			s.clearRowCols(s.active[y])
		}
	}
}

func (s *Screen) copyRowCols(src, dst *Row) {
	copy(dst.Cells[s.left:s.right+1], src.Cells[s.left:s.right+1])
	dst.Dirty = true
}

func (s *Screen) clearRowCols(row *Row) {
	for x := s.left; x <= s.right; x++ {
		row.Cells[x] = BlankCell(DefaultFg(), DefaultBg(), 0)
	}
	row.Dirty = true
}

// ScrollUp scrolls the whole scrolling region up by n (CSI S).
func (s *Screen) ScrollUp(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollUpRegion(n)
}

// ScrollDown scrolls the whole scrolling region down by n (CSI T).
func (s *Screen) ScrollDown(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollDownRegion(n)
}

// SetTopBottomMargin is DECSTBM. Resets cursor to (0,0)/origin.
func (s *Screen) SetTopBottomMargin(top, bottom int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	top--
	bottom--
	if top < 0 {
		top = 0
	}
	if bottom >= s.rows || bottom <= 0 {
		bottom = s.rows - 1
	}
	if top < bottom {
		s.top, s.bottom = top, bottom
	}
	s.cursor.X, s.cursor.Y = 0, 0
	if s.modeOrigin {
		s.cursor.Y = s.top
	}
}

// SetLeftRightMargin is DECSLRM. Disabling (via Terminal mode 69)
// resets margins to (0, cols-1).
func (s *Screen) SetLeftRightMargin(left, right int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	left--
	right--
	if left < 0 {
		left = 0
	}
	if right >= s.cols || right <= 0 {
		right = s.cols - 1
	}
	if left < right {
		s.left, s.right = left, right
	}
	s.cursor.X, s.cursor.Y = 0, 0
}

// DisableLeftRightMargin resets the margins to the full width.
func (s *Screen) DisableLeftRightMargin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.left, s.right = 0, s.cols-1
}

// ScrollRegion returns the current scrolling region, 0-based inclusive.
func (s *Screen) ScrollRegion() (top, bottom, left, right int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.top, s.bottom, s.left, s.right
}

// EraseDisplay clears per EraseMode. complete additionally scrolls the
// viewport to bottom; the clear-on-prompt protocol (mark current row
// as command, emit a form feed) is driven by the stream handler, which
// owns the PTY write path — EraseDisplay just reports whether the
// cursor sat on a prompt row so the caller can decide.
func (s *Screen) EraseDisplay(mode EraseMode, protected bool) (wasPrompt bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case EraseBelow:
		s.eraseLineRange(s.cursor.Y, s.cursor.X, s.cols-1, protected)
		for y := s.cursor.Y + 1; y < s.rows; y++ {
			s.eraseLineRange(y, 0, s.cols-1, protected)
		}
	case EraseAbove:
		s.eraseLineRange(s.cursor.Y, 0, s.cursor.X, protected)
		for y := 0; y < s.cursor.Y; y++ {
			s.eraseLineRange(y, 0, s.cols-1, protected)
		}
	case EraseComplete:
		wasPrompt = s.row(s.cursor.Y) != nil && s.row(s.cursor.Y).Semantic != SemanticNone
		if wasPrompt {
			s.row(s.cursor.Y).Semantic = SemanticCommand
		}
		for y := 0; y < s.rows; y++ {
			s.eraseLineRange(y, 0, s.cols-1, protected)
		}
		s.viewportOffset = 0
	case EraseScrollback:
		s.scrollback = nil
	}
	return wasPrompt
}

func (s *Screen) eraseLineRange(y, from, to int, protected bool) {
	row := s.row(y)
	if row == nil {
		return
	}
	for x := from; x <= to && x < len(row.Cells); x++ {
		if protected && row.Cells[x].Flags&StyleProtected != 0 {
			continue
		}
		row.Cells[x] = BlankCell(s.cursor.Fg, s.cursor.Bg, 0)
	}
	row.Dirty = true
}

// EraseLine clears within the current row per EraseMode (only
// EraseBelow/EraseAbove/EraseComplete are meaningful).
func (s *Screen) EraseLine(mode EraseMode, protected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch mode {
	case EraseBelow:
		s.eraseLineRange(s.cursor.Y, s.cursor.X, s.cols-1, protected)
	case EraseAbove:
		s.eraseLineRange(s.cursor.Y, 0, s.cursor.X, protected)
	case EraseComplete:
		s.eraseLineRange(s.cursor.Y, 0, s.cols-1, protected)
	}
}

func (s *Screen) DeleteChars(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.row(s.cursor.Y)
	if row == nil {
		return
	}
	end := s.right + 1
	src := s.cursor.X + n
	dst := s.cursor.X
	if src >= end {
		s.eraseLineRange(s.cursor.Y, s.cursor.X, s.right, false)
		return
	}
	copy(row.Cells[dst:end-n], row.Cells[src:end])
	for x := end - n; x < end; x++ {
		row.Cells[x] = BlankCell(s.cursor.Fg, s.cursor.Bg, 0)
	}
	row.Dirty = true
}

func (s *Screen) InsertBlanks(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.row(s.cursor.Y)
	if row == nil {
		return
	}
	end := s.right + 1
	dst := s.cursor.X + n
	if dst >= end {
		s.eraseLineRange(s.cursor.Y, s.cursor.X, s.right, false)
		return
	}
	copy(row.Cells[dst:end], row.Cells[s.cursor.X:end-n])
	for x := s.cursor.X; x < dst; x++ {
		row.Cells[x] = BlankCell(s.cursor.Fg, s.cursor.Bg, 0)
	}
	row.Dirty = true
}

func (s *Screen) DeleteLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor.Y < s.top || s.cursor.Y > s.bottom {
		return
	}
	for i := 0; i < n; i++ {
		s.shiftRegionRows(s.cursor.Y, s.bottom, -1)
	}
}

func (s *Screen) InsertLines(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor.Y < s.top || s.cursor.Y > s.bottom {
		return
	}
	for i := 0; i < n; i++ {
		s.shiftRegionRows(s.cursor.Y, s.bottom, 1)
	}
}

func (s *Screen) EraseChars(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.eraseLineRange(s.cursor.Y, s.cursor.X, minInt(s.cursor.X+n-1, s.cols-1), false)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// SaveCursor is DECSC (ESC 7 / CSI s): pushes the full cursor+pen
// state.
func (s *Screen) SaveCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedStack = append(s.savedStack, s.cursor)
}

// RestoreCursor is DECRC (ESC 8 / CSI u): pops the most recent saved
// state, or resets to default if the stack is empty (xterm behavior).
func (s *Screen) RestoreCursor() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.savedStack) == 0 {
		s.cursor = defaultCursor()
		return
	}
	n := len(s.savedStack) - 1
	s.cursor = s.savedStack[n]
	s.savedStack = s.savedStack[:n]
	s.clampCursor()
}

// SetAttribute merges an SGR attribute into the cursor pen.
func (s *Screen) SetAttribute(fg, bg *Color, flags StyleFlags, reset bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if reset {
		s.cursor.Fg = DefaultFg()
		s.cursor.Bg = DefaultBg()
		s.cursor.Flags = 0
		return
	}
	if fg != nil {
		s.cursor.Fg = *fg
	}
	if bg != nil {
		s.cursor.Bg = *bg
	}
	s.cursor.Flags |= flags
}

// ClearAttributeBits clears specific SGR flag bits (e.g. "not bold").
func (s *Screen) ClearAttributeBits(flags StyleFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.Flags &^= flags
}

// Pen returns the cursor's current attribute state.
func (s *Screen) Pen() (fg, bg Color, flags StyleFlags) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor.Fg, s.cursor.Bg, s.cursor.Flags
}

func (s *Screen) SetProtectedMode(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on {
		s.cursor.Flags |= StyleProtected
	} else {
		s.cursor.Flags &^= StyleProtected
	}
}

// SetLinkID sets the hyperlink id stamped onto cells written by Print
// until the link is closed (id 0 means no active link). OSC 8 drives
// this through Terminal.HyperlinkID.
func (s *Screen) SetLinkID(id uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor.LinkID = id
}

// DECALN fills the screen with 'E' for alignment testing.
func (s *Screen) DECALN() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range s.active {
		for i := range row.Cells {
			row.Cells[i] = Cell{Char: 'E', Fg: DefaultFg(), Bg: DefaultBg()}
		}
		row.Dirty = true
	}
}

func (s *Screen) TabSet() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cursor.X < len(s.tabStops) {
		s.tabStops[s.cursor.X] = true
	}
}

func (s *Screen) TabClear(all bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if all {
		for i := range s.tabStops {
			s.tabStops[i] = false
		}
		return
	}
	if s.cursor.X < len(s.tabStops) {
		s.tabStops[s.cursor.X] = false
	}
}

func (s *Screen) TabReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tabStops = defaultTabStops(s.cols)
}

// Tab advances the cursor to the next tab stop (or the right margin).
func (s *Screen) Tab() {
	s.mu.Lock()
	defer s.mu.Unlock()
	x := s.cursor.X
	for x++; x < len(s.tabStops) && !s.tabStops[x]; x++ {
	}
	if x >= s.cols {
		x = s.cols - 1
	}
	s.cursor.X = x
}

// BackTab moves the cursor to the previous tab stop (CSI Z).
func (s *Screen) BackTab() {
	s.mu.Lock()
	defer s.mu.Unlock()
	x := s.cursor.X
	for x--; x > 0 && !s.tabStops[x]; x-- {
	}
	if x < 0 {
		x = 0
	}
	s.cursor.X = x
}

// FullReset is RIS (ESC c): restores default modes, clears the
// screen, resets the cursor, margins, tab stops and saved state.
func (s *Screen) FullReset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = defaultCursor()
	s.savedStack = nil
	s.top, s.bottom = 0, s.rows-1
	s.left, s.right = 0, s.cols-1
	s.tabStops = defaultTabStops(s.cols)
	s.modeOrigin = false
	s.viewportOffset = 0
	for _, row := range s.active {
		for i := range row.Cells {
			row.Cells[i] = NewCell()
		}
		row.Dirty = true
	}
}

// Resize changes the grid dimensions, re-flowing wrapped lines so
// semantic line boundaries survive a column-count change.
func (s *Screen) Resize(cols, rows int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cols == s.cols && rows == s.rows {
		return
	}
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	flat := s.reflow(cols)

	newActive := make([]*Row, rows)
	var newScrollback []*Row
	start := len(flat) - rows
	if start < 0 {
		for i := 0; i < -start; i++ {
			newActive[i] = s.newRow()
			newActive[i].resize(cols, DefaultFg(), DefaultBg())
		}
		for i, r := range flat {
			newActive[-start+i] = r
		}
	} else {
		newScrollback = flat[:start]
		copy(newActive, flat[start:])
	}

	s.active = newActive
	if s.hasScroll {
		if len(newScrollback) > MaxScrollback {
			newScrollback = newScrollback[len(newScrollback)-MaxScrollback:]
		}
		s.scrollback = newScrollback
	} else {
		s.scrollback = nil
	}

	s.cols, s.rows = cols, rows
	s.top, s.bottom = 0, rows-1
	s.left, s.right = 0, cols-1
	s.tabStops = defaultTabStops(cols)
	s.clampCursor()
}

// reflow concatenates scrollback+active into logical lines (splitting
// on non-wrapped row boundaries) and re-wraps each logical line at the
// new column count, returning a flat row list oldest-first.
func (s *Screen) reflow(newCols int) []*Row {
	all := make([]*Row, 0, len(s.scrollback)+len(s.active))
	all = append(all, s.scrollback...)
	all = append(all, s.active...)

	var out []*Row
	i := 0
	for i < len(all) {
		// Gather a logical line: this row plus any immediately
		// following rows marked Wrapped.
		text := make([]Cell, 0, newCols)
		text = append(text, trimTrailingBlank(all[i].Cells)...)
		for i+1 < len(all) && all[i].Wrapped {
			i++
			text = append(text, trimTrailingBlank(all[i].Cells)...)
		}
		i++

		if len(text) == 0 {
			r := s.newRow()
			r.resize(newCols, DefaultFg(), DefaultBg())
			out = append(out, r)
			continue
		}
		for off := 0; off < len(text); off += newCols {
			end := off + newCols
			wrapped := end < len(text)
			if end > len(text) {
				end = len(text)
			}
			r := s.newRow()
			r.resize(newCols, DefaultFg(), DefaultBg())
			copy(r.Cells, text[off:end])
			r.Wrapped = wrapped
			out = append(out, r)
		}
	}
	return out
}

func trimTrailingBlank(cells []Cell) []Cell {
	end := len(cells)
	for end > 0 && cells[end-1].Char == ' ' && cells[end-1].Flags == 0 && cells[end-1].LinkID == 0 {
		end--
	}
	out := make([]Cell, end)
	copy(out, cells[:end])
	return out
}

// ScrollViewport moves the visible viewport relative to scrollback.
// delta < 0 scrolls toward history, delta > 0 toward the live tail.
func (s *Screen) ScrollViewport(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewportOffset -= delta
	if s.viewportOffset < 0 {
		s.viewportOffset = 0
	}
	if s.viewportOffset > len(s.scrollback) {
		s.viewportOffset = len(s.scrollback)
	}
}

// ScrollToTop / ScrollToBottom are convenience wrappers.
func (s *Screen) ScrollToBottom() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewportOffset = 0
}

func (s *Screen) ScrollToTop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewportOffset = len(s.scrollback)
}

// ViewportOffset returns how many rows the view is scrolled back.
func (s *Screen) ViewportOffset() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewportOffset
}

// AtBottom reports whether the viewport shows the live tail.
func (s *Screen) AtBottom() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewportOffset == 0
}

// VisibleRow returns the Row to display at viewport row y, accounting
// for ViewportOffset.
func (s *Screen) VisibleRow(y int) *Row {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.viewportOffset == 0 {
		return s.row(y)
	}
	idx := len(s.scrollback) - s.viewportOffset + y
	if idx < 0 {
		return nil
	}
	if idx < len(s.scrollback) {
		return s.scrollback[idx]
	}
	gridY := idx - len(s.scrollback)
	if gridY >= s.rows {
		return nil
	}
	return s.row(gridY)
}

// MarkRowClean clears the dirty flag on the row at viewport row y,
// once a consumer (the cell builder) has shaped and cached it.
func (s *Screen) MarkRowClean(y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row := s.rowAtViewportLocked(y); row != nil {
		row.Dirty = false
	}
}

// SetSemanticPrompt marks the current row.
func (s *Screen) SetSemanticPrompt(kind SemanticPrompt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row := s.row(s.cursor.Y); row != nil {
		row.Semantic = kind
	}
}

// SetShellRedrawsPrompt sets the hint on the current row.
func (s *Screen) SetShellRedrawsPrompt(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if row := s.row(s.cursor.Y); row != nil {
		row.ShellRedrawsPrompt = v
	}
}

// SetPwd / Pwd implement OSC 7 bookkeeping.
func (s *Screen) SetPwd(p string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pwd = p
}

func (s *Screen) Pwd() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pwd
}

// DumpString returns the plain-text contents of rows [from,to)
// (viewport-relative), trimming trailing blanks per row.
func (s *Screen) DumpString(from, to int) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var b strings.Builder
	for y := from; y < to; y++ {
		row := s.rowAtViewportLocked(y)
		if row == nil {
			continue
		}
		b.WriteString(rowText(row))
		if y < to-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (s *Screen) rowAtViewportLocked(y int) *Row {
	if s.viewportOffset == 0 {
		return s.row(y)
	}
	idx := len(s.scrollback) - s.viewportOffset + y
	if idx < 0 {
		return nil
	}
	if idx < len(s.scrollback) {
		return s.scrollback[idx]
	}
	gridY := idx - len(s.scrollback)
	if gridY >= s.rows {
		return nil
	}
	return s.row(gridY)
}

func rowText(row *Row) string {
	var b strings.Builder
	for _, c := range row.Cells {
		if c.IsWideSpacer() {
			continue
		}
		if c.Char == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Char)
	}
	return strings.TrimRight(b.String(), " ")
}
