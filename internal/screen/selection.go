package screen

import "strings"

// Point is a screen-relative coordinate pair. Selections store Points
// in viewport-relative form at creation time, so a stored selection
// shifts relative to the text when output scrolls. The package has no
// conversion of a selection to row-id form.
type Point struct {
	X, Y int
}

// Selection is a start/end pair of Points, optionally rectangular. An
// End that precedes Start denotes a reverse selection and is legal.
type Selection struct {
	Start, End  Point
	Rectangular bool
}

// SetSelection installs a new selection in viewport coordinates.
func (s *Screen) SetSelection(start, end Point, rectangular bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = &Selection{Start: start, End: end, Rectangular: rectangular}
}

// ClearSelection removes the active selection.
func (s *Screen) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sel = nil
}

// HasSelection reports whether a selection is active.
func (s *Screen) HasSelection() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sel != nil
}

// ordered returns the selection's bounds with Start <= End.
func (sel *Selection) ordered() (start, end Point) {
	start, end = sel.Start, sel.End
	if end.Y < start.Y || (end.Y == start.Y && end.X < start.X) {
		start, end = end, start
	}
	return
}

// IsSelected reports whether viewport cell (x,y) falls within the
// active selection.
func (s *Screen) IsSelected(x, y int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isSelectedLocked(x, y)
}

func (s *Screen) isSelectedLocked(x, y int) bool {
	if s.sel == nil {
		return false
	}
	start, end := s.sel.ordered()
	if s.sel.Rectangular {
		lo, hi := start.X, end.X
		if hi < lo {
			lo, hi = hi, lo
		}
		return y >= start.Y && y <= end.Y && x >= lo && x <= hi
	}
	if y < start.Y || y > end.Y {
		return false
	}
	if start.Y == end.Y {
		return x >= start.X && x <= end.X
	}
	if y == start.Y {
		return x >= start.X
	}
	if y == end.Y {
		return x <= end.X
	}
	return true
}

// SelectionValue returns a comparable value that is non-zero iff the
// selection intersects viewport row y — used by the cell builder as
// part of its row-cache key.
func (s *Screen) SelectionValue(y int) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sel == nil {
		return 0
	}
	start, end := s.sel.ordered()
	if y < start.Y || y > end.Y {
		return 0
	}
	// Distinguish selections so two different selections covering the
	// same row don't collide in the cache.
	return 1 + (uint64(start.Y)<<40 ^ uint64(start.X)<<24 ^ uint64(end.Y)<<16 ^ uint64(end.X))
}

// SelectionString extracts the selected text. Rectangular selections
// emit one line per row; linear selections concatenate wrapped rows
// without an intermediate newline. trimTrailing strips trailing
// whitespace from each row before joining.
func (s *Screen) SelectionString(trimTrailing bool) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.sel == nil {
		return ""
	}
	start, end := s.sel.ordered()

	var lines []string
	for y := start.Y; y <= end.Y; y++ {
		row := s.rowAtViewportLocked(y)
		if row == nil {
			continue
		}
		lo, hi := 0, len(row.Cells)-1
		if s.sel.Rectangular {
			lo, hi = start.X, end.X
			if hi < lo {
				lo, hi = hi, lo
			}
		} else {
			if y == start.Y {
				lo = start.X
			}
			if y == end.Y {
				hi = end.X
			}
		}
		if hi < lo || lo >= len(row.Cells) {
			lines = append(lines, "")
			continue
		}
		if hi >= len(row.Cells) {
			hi = len(row.Cells) - 1
		}
		line := cellRangeText(row, lo, hi)
		if trimTrailing {
			line = strings.TrimRight(line, " ")
		}
		lines = append(lines, line)
	}

	if s.sel.Rectangular {
		return strings.Join(lines, "\n")
	}
	return joinWrapped(lines, start.Y, end.Y, s)
}

// SelectWord selects the run of non-space characters touching (x,y)
// and installs it as the active selection.
func (s *Screen) SelectWord(x, y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row := s.rowAtViewportLocked(y)
	if row == nil {
		return
	}
	if x < 0 {
		x = 0
	}
	if x >= len(row.Cells) {
		x = len(row.Cells) - 1
	}
	if isWordBreak(row.Cells[x].Char) {
		s.sel = &Selection{Start: Point{x, y}, End: Point{x, y}}
		return
	}
	lo, hi := x, x
	for lo > 0 && !isWordBreak(row.Cells[lo-1].Char) {
		lo--
	}
	for hi < len(row.Cells)-1 && !isWordBreak(row.Cells[hi+1].Char) {
		hi++
	}
	s.sel = &Selection{Start: Point{lo, y}, End: Point{hi, y}}
}

func isWordBreak(c rune) bool {
	return c == ' ' || c == 0 || c == '\t'
}

// SelectLine selects the full logical line containing y, following
// Wrapped continuations in both directions.
func (s *Screen) SelectLine(y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	startY, endY := y, y
	for startY > 0 {
		prev := s.rowAtViewportLocked(startY - 1)
		if prev == nil || !prev.Wrapped {
			break
		}
		startY--
	}
	for {
		cur := s.rowAtViewportLocked(endY)
		if cur == nil || !cur.Wrapped {
			break
		}
		endY++
	}
	s.sel = &Selection{Start: Point{0, startY}, End: Point{s.cols - 1, endY}}
}

// SelectOutput selects the command-output block the row at y belongs
// to: from the row after the nearest preceding prompt/command marker
// to the row before the next one.
func (s *Screen) SelectOutput(y int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	startY := y
	for startY > 0 {
		row := s.rowAtViewportLocked(startY - 1)
		if row == nil || row.Semantic != SemanticNone {
			break
		}
		startY--
	}
	endY := y
	for {
		row := s.rowAtViewportLocked(endY + 1)
		if row == nil || row.Semantic != SemanticNone {
			break
		}
		endY++
	}
	s.sel = &Selection{Start: Point{0, startY}, End: Point{s.cols - 1, endY}}
}

// SelectAll selects the entire active region plus scrollback.
func (s *Screen) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	top := -len(s.scrollback)
	s.sel = &Selection{Start: Point{0, top}, End: Point{s.cols - 1, s.rows - 1}}
}

func cellRangeText(row *Row, lo, hi int) string {
	var b strings.Builder
	for x := lo; x <= hi; x++ {
		c := row.Cells[x]
		if c.IsWideSpacer() {
			continue
		}
		if c.Char == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Char)
	}
	return b.String()
}

// joinWrapped concatenates selected lines, inserting a newline only
// between rows that were not soft-wrapped into each other.
func joinWrapped(lines []string, startY, endY int, s *Screen) string {
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(line)
		y := startY + i
		if y >= endY {
			continue
		}
		row := s.rowAtViewportLocked(y)
		if row == nil || !row.Wrapped {
			b.WriteByte('\n')
		}
	}
	return b.String()
}
