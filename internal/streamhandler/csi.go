package streamhandler

import (
	"fmt"

	"github.com/javanhut/raventerm/internal/parser"
	"github.com/javanhut/raventerm/internal/screen"
)

// param returns the i'th CSI parameter, or def if absent or zero
// (xterm treats an omitted or zero repeat count as "1" for most
// commands).
func param(params []int, i, def int) int {
	if i >= len(params) || params[i] == 0 {
		return def
	}
	return params[i]
}

// rawParam returns the i'th parameter without the zero-means-default
// substitution, for commands where 0 is a meaningful value (SM/RM
// mode numbers, SGR color indices).
func rawParam(params []int, i, def int) int {
	if i >= len(params) {
		return def
	}
	return params[i]
}

func (h *Handler) csiDispatch(p *parser.Parser, final byte) {
	params := p.Params()
	private := p.Private()
	scr := h.Term.Active()

	if private == '?' {
		h.csiPrivateDispatch(params, final)
		return
	}
	if private == '>' {
		h.csiGreaterDispatch(params, final)
		return
	}

	switch final {
	case '@':
		scr.InsertBlanks(param(params, 0, 1))
	case 'A':
		scr.CursorUp(param(params, 0, 1))
	case 'B', 'e':
		scr.CursorDown(param(params, 0, 1))
	case 'C', 'a':
		scr.CursorRight(param(params, 0, 1))
	case 'D':
		scr.CursorLeft(param(params, 0, 1))
	case 'E':
		for i := 0; i < param(params, 0, 1); i++ {
			scr.NextLine()
		}
	case 'F':
		for i := 0; i < param(params, 0, 1); i++ {
			scr.CarriageReturn()
			scr.CursorUp(1)
		}
	case 'G', '`':
		row, _ := scr.ReportCursorPos()
		scr.SetCursorPos(row, param(params, 0, 1))
	case 'H', 'f':
		scr.SetCursorPos(param(params, 0, 1), param(params, 1, 1))
	case 'I':
		for i := 0; i < param(params, 0, 1); i++ {
			scr.Tab()
		}
	case 'J':
		scr.EraseDisplay(screen.EraseMode(param(params, 0, 0)), false)
	case 'K':
		scr.EraseLine(screen.EraseMode(param(params, 0, 0)), false)
	case 'L':
		scr.InsertLines(param(params, 0, 1))
	case 'M':
		scr.DeleteLines(param(params, 0, 1))
	case 'P':
		scr.DeleteChars(param(params, 0, 1))
	case 'S':
		scr.ScrollUp(param(params, 0, 1))
	case 'T':
		scr.ScrollDown(param(params, 0, 1))
	case 'X':
		scr.EraseChars(param(params, 0, 1))
	case 'Z':
		for i := 0; i < param(params, 0, 1); i++ {
			scr.BackTab()
		}
	case 'b':
		// REP: repeat the last printed character. Not tracked at the
		// Screen level; treated as a no-op rather than mis-repeating.
	case 'd':
		_, col := scr.ReportCursorPos()
		scr.SetCursorPos(param(params, 0, 1), col)
	case 'g':
		switch param(params, 0, 0) {
		case 0:
			scr.TabClear(false)
		case 3:
			scr.TabClear(true)
		}
	case 'h':
		h.setAnsiMode(params, true)
	case 'l':
		h.setAnsiMode(params, false)
	case 'm':
		h.sgrDispatch(params)
	case 'n':
		h.dsrDispatch(params)
	case 'q':
		h.decscusrDispatch(p, params)
	case 'r':
		scr.SetTopBottomMargin(param(params, 0, 1), param(params, 1, 0))
	case 's':
		if h.Term.HasMode(screen.ModeEnableLeftRightMargin) {
			scr.SetLeftRightMargin(param(params, 0, 1), param(params, 1, 0))
		} else {
			scr.SaveCursor()
		}
	case 'u':
		scr.RestoreCursor()
	case 't':
		h.windowOpDispatch(params)
	case 'c':
		h.writeReply([]byte("\x1b[?62;22c"))
	}
}

func (h *Handler) csiGreaterDispatch(params []int, final byte) {
	switch final {
	case 'c':
		h.writeReply([]byte("\x1b[>1;10;0c"))
	}
}

// csiPrivateDispatch handles CSI ? Pm <final> for DEC private modes:
// h/l set and reset them, s/r save and restore them.
func (h *Handler) csiPrivateDispatch(params []int, final byte) {
	switch final {
	case 'h':
		for _, m := range params {
			h.setDecMode(m, true)
		}
	case 'l':
		for _, m := range params {
			h.setDecMode(m, false)
		}
	case 's':
		for _, m := range params {
			if mode, ok := decModeFor(m); ok {
				h.Term.SaveMode(mode)
			}
		}
	case 'r':
		for _, m := range params {
			if mode, ok := decModeFor(m); ok {
				h.Term.RestoreMode(mode)
			}
		}
	}
}

func (h *Handler) setAnsiMode(params []int, on bool) {
	for _, m := range params {
		switch m {
		case 4:
			// IRM insert mode: not separately tracked; Print always
			// overwrites, matching the common terminal behavior.
		case 20:
			h.Term.SetMode(screen.ModeLinefeed, on)
		}
	}
}

// decModeFor maps a DEC private mode number to the internal Mode bit.
func decModeFor(m int) (screen.Mode, bool) {
	switch m {
	case 1:
		return screen.ModeCursorKeysApplication, true
	case 3:
		return screen.ModeColumn132, true
	case 5:
		return screen.ModeReverseVideo, true
	case 6:
		return screen.ModeOrigin, true
	case 7:
		return screen.ModeAutoWrap, true
	case 9:
		return screen.ModeMouseX10, true
	case 12:
		return screen.ModeCursorBlinking, true
	case 25:
		return screen.ModeCursorVisible, true
	case 45:
		return screen.ModeReverseColors, true
	case 47:
		return screen.ModeAltScreen47, true
	case 66:
		return screen.ModeKeypadApplication, true
	case 69:
		return screen.ModeEnableLeftRightMargin, true
	case 1000:
		return screen.ModeMouseNormal, true
	case 1002:
		return screen.ModeMouseButton, true
	case 1003:
		return screen.ModeMouseAny, true
	case 1004:
		return screen.ModeFocusEvent, true
	case 1005:
		return screen.ModeMouseFormatUTF8, true
	case 1006:
		return screen.ModeMouseFormatSGR, true
	case 1007:
		return screen.ModeMouseAlternateScroll, true
	case 1015:
		return screen.ModeMouseFormatURXVT, true
	case 1016:
		return screen.ModeMouseFormatSGRPixels, true
	case 1047:
		return screen.ModeAltScreen1047, true
	case 1048:
		return screen.ModeAltScreen1048, true
	case 1049:
		return screen.ModeAltScreen1049, true
	case 2004:
		return screen.ModeBracketedPaste, true
	case 2026:
		return screen.ModeSynchronizedOutput, true
	case 7727:
		return screen.ModeAltEscPrefix, true
	}
	return 0, false
}

func (h *Handler) setDecMode(m int, on bool) {
	if mode, ok := decModeFor(m); ok {
		h.Term.SetMode(mode, on)
	}
	switch m {
	case 9:
		h.Term.SetMouseEvent(pick(on, screen.MouseEventX10, screen.MouseEventNone))
	case 1000:
		h.Term.SetMouseEvent(pick(on, screen.MouseEventNormal, screen.MouseEventNone))
	case 1002:
		h.Term.SetMouseEvent(pick(on, screen.MouseEventButton, screen.MouseEventNone))
	case 1003:
		h.Term.SetMouseEvent(pick(on, screen.MouseEventAny, screen.MouseEventNone))
	case 1005:
		if on {
			h.Term.SetMouseFormat(screen.MouseFormatUTF8)
		}
	case 1006:
		if on {
			h.Term.SetMouseFormat(screen.MouseFormatSGR)
		} else if h.Term.MouseFormat() == screen.MouseFormatSGR {
			h.Term.SetMouseFormat(screen.MouseFormatX10)
		}
	case 1015:
		if on {
			h.Term.SetMouseFormat(screen.MouseFormatURXVT)
		}
	case 1016:
		if on {
			h.Term.SetMouseFormat(screen.MouseFormatSGRPixels)
		} else if h.Term.MouseFormat() == screen.MouseFormatSGRPixels {
			h.Term.SetMouseFormat(screen.MouseFormatX10)
		}
	case 1048:
		if on {
			h.Term.Active().SaveCursor()
		} else {
			h.Term.Active().RestoreCursor()
		}
	}
}

func pick(cond bool, t, f screen.MouseEvent) screen.MouseEvent {
	if cond {
		return t
	}
	return f
}

// dsrDispatch answers CSI n device status reports.
func (h *Handler) dsrDispatch(params []int) {
	switch param(params, 0, 0) {
	case 5:
		h.writeReply([]byte("\x1b[0n"))
	case 6:
		row, col := h.Term.Active().ReportCursorPos()
		h.writeReply([]byte(fmt.Sprintf("\x1b[%d;%dR", row, col)))
	}
}

// decscusrDispatch handles CSI Ps SP q (DECSCUSR). CSI > q carries the
// '>' marker, so csiDispatch routes it to csiGreaterDispatch and it
// never reaches here. Odd Ps values request blinking,
// even values steady; both the shape and that bit are always honoured
// (spec.md §4.2), overriding mode 12 and any configured default from
// the moment DECSCUSR is first seen.
func (h *Handler) decscusrDispatch(p *parser.Parser, params []int) {
	inter := p.Intermediate()
	if len(inter) != 1 || inter[0] != ' ' {
		return
	}
	ps := param(params, 0, 1)
	if ps == 0 {
		ps = 1 // Ps=0 is defined as equivalent to Ps=1 (blinking block)
	}
	style := screen.CursorStyle{Blink: ps%2 == 1}
	switch ps {
	case 1, 2:
		style.Shape = screen.CursorBlock
	case 3, 4:
		style.Shape = screen.CursorUnderline
	case 5, 6:
		style.Shape = screen.CursorBar
	default:
		return
	}
	h.Term.SetCursorStyle(style)
}

// windowOpDispatch handles a slice of CSI t xterm window operations:
// 18 and 19 reply with the grid size in cells, and 14 replies with the
// pixel size last recorded by Terminal.SetPixelSize.
func (h *Handler) windowOpDispatch(params []int) {
	cols, rows := h.Term.Active().Size()
	switch param(params, 0, 0) {
	case 14:
		pw, ph := h.Term.PixelSize()
		h.writeReply([]byte(fmt.Sprintf("\x1b[4;%d;%dt", ph, pw)))
	case 18:
		h.writeReply([]byte(fmt.Sprintf("\x1b[8;%d;%dt", rows, cols)))
	case 19:
		h.writeReply([]byte(fmt.Sprintf("\x1b[9;%d;%dt", rows, cols)))
	}
}
