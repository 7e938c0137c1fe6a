package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/raventerm/internal/screen"
)

func feed(t *screen.Terminal, s string) {
	for _, r := range s {
		switch r {
		case '\n':
			t.Active().Index()
			t.Active().CarriageReturn()
		default:
			t.Active().Print(r)
		}
	}
}

func TestPageListSearchFindsMatchInActiveRegion(t *testing.T) {
	term := screen.NewTerminal(20, 5, 1)
	feed(term, "hello world\nfoo bar")

	matches := PageListSearch(term.Active(), "world", true)
	require.Len(t, matches, 1)
	assert.Equal(t, 6, matches[0].Col)
}

func TestPageListSearchIsCaseInsensitiveByDefault(t *testing.T) {
	term := screen.NewTerminal(20, 5, 1)
	feed(term, "Hello World")

	matches := PageListSearch(term.Active(), "hello", false)
	require.Len(t, matches, 1)
	assert.Equal(t, 0, matches[0].Col)
}

func TestPageListSearchScansScrollback(t *testing.T) {
	term := screen.NewTerminal(10, 3, 1)
	feed(term, "needle-here")
	for i := 0; i < 20; i++ {
		feed(term, "line\n")
	}

	matches := PageListSearch(term.Active(), "needle", true)
	require.NotEmpty(t, matches)
	assert.Less(t, matches[0].RowIndex, term.Active().ScrollbackLen())
}

func TestEmptyQueryMatchesNothing(t *testing.T) {
	term := screen.NewTerminal(10, 3, 1)
	feed(term, "anything")
	assert.Empty(t, PageListSearch(term.Active(), "", true))
}

func TestPanelSelectionWraps(t *testing.T) {
	term := screen.NewTerminal(20, 5, 1)
	feed(term, "aa aa aa")

	p := New()
	p.SetQuery(term.Active(), "aa")
	require.Len(t, p.Results, 3)

	assert.Equal(t, 0, p.Selected)
	p.SelectPrev()
	assert.Equal(t, 2, p.Selected)
	p.SelectNext()
	assert.Equal(t, 0, p.Selected)
}

func TestPanelCurrentWithNoResults(t *testing.T) {
	p := New()
	_, ok := p.Current()
	assert.False(t, ok)
}
