// Package search implements scrollback text search over a
// screen.Screen: PageListSearch scans every row the page list holds
// (scrollback plus the active region) for a query string, and Panel
// layers UI-facing paging state on top, modeled after the teacher's
// searchpanel.Panel but over terminal history instead of web results.
package search

import (
	"strings"

	"github.com/javanhut/raventerm/internal/screen"
)

// Match is one hit: RowIndex is 0-based from the oldest scrollback
// row (so it survives new output arriving, unlike a viewport-relative
// y), Col is the starting column within the row, and Len is the match
// length in runes.
type Match struct {
	RowIndex int
	Col      int
	Len      int
	RowID    uint64
	Text     string
}

// PageListSearch scans every row of scr (oldest scrollback row first,
// then the active region) for query, returning matches in row order.
// An empty query yields no matches rather than matching everywhere.
func PageListSearch(scr *screen.Screen, query string, caseSensitive bool) []Match {
	if query == "" {
		return nil
	}
	needle := query
	if !caseSensitive {
		needle = strings.ToLower(needle)
	}

	var matches []Match
	rowIndex := 0

	scan := func(row *screen.Row) {
		if row == nil {
			rowIndex++
			return
		}
		text := rowText(row)
		hay := text
		if !caseSensitive {
			hay = strings.ToLower(hay)
		}
		for _, col := range findAll(hay, needle) {
			matches = append(matches, Match{
				RowIndex: rowIndex,
				Col:      col,
				Len:      len([]rune(needle)),
				RowID:    row.ID,
				Text:     text,
			})
		}
		rowIndex++
	}

	for i := 0; i < scr.ScrollbackLen(); i++ {
		scan(scr.ScrollbackRow(i))
	}
	_, rows := scr.Size()
	for y := 0; y < rows; y++ {
		scan(scr.Row(y))
	}

	return matches
}

// findAll returns the rune-offset of every (possibly overlapping)
// occurrence of needle in hay.
func findAll(hay, needle string) []int {
	if needle == "" {
		return nil
	}
	hayRunes := []rune(hay)
	needleRunes := []rune(needle)
	var cols []int
	for i := 0; i+len(needleRunes) <= len(hayRunes); i++ {
		if string(hayRunes[i:i+len(needleRunes)]) == needle {
			cols = append(cols, i)
		}
	}
	return cols
}

func rowText(row *screen.Row) string {
	var b strings.Builder
	b.Grow(len(row.Cells))
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

// Mode selects what the panel displays: the match list, or a preview
// centered on the current match (mirroring searchpanel's results/
// preview split, but previewing scrollback context instead of a
// fetched page).
type Mode int

const (
	ModeResults Mode = iota
	ModePreview
)

// Panel holds the search UI's state: query text, the current result
// set, and paging/selection cursors. It owns no rendering; a renderer
// reads its exported fields the way render.go reads searchpanel.Panel.
type Panel struct {
	Open          bool
	Query         string
	CaseSensitive bool
	Results       []Match
	Selected      int
	ResultsScroll int
	Mode          Mode
}

// New returns a closed, empty Panel.
func New() *Panel { return &Panel{Mode: ModeResults} }

// Toggle opens or closes the panel.
func (p *Panel) Toggle() { p.Open = !p.Open }

// SetQuery updates the query text and re-runs the search against scr.
func (p *Panel) SetQuery(scr *screen.Screen, query string) {
	p.Query = query
	p.Results = PageListSearch(scr, query, p.CaseSensitive)
	p.Selected = 0
	p.ResultsScroll = 0
}

// SelectNext/SelectPrev move the selection cursor, wrapping.
func (p *Panel) SelectNext() {
	if len(p.Results) == 0 {
		return
	}
	p.Selected = (p.Selected + 1) % len(p.Results)
}

func (p *Panel) SelectPrev() {
	if len(p.Results) == 0 {
		return
	}
	p.Selected = (p.Selected - 1 + len(p.Results)) % len(p.Results)
}

// Current returns the selected match, or ok=false if there are none.
func (p *Panel) Current() (Match, bool) {
	if p.Selected < 0 || p.Selected >= len(p.Results) {
		return Match{}, false
	}
	return p.Results[p.Selected], true
}
