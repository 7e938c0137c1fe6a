package streamhandler

import (
	"fmt"

	"github.com/javanhut/raventerm/internal/screen"
)

// MouseButton identifies the physical button (or wheel direction) of a
// reported mouse event.
type MouseButton uint8

const (
	MouseButtonLeft MouseButton = iota
	MouseButtonMiddle
	MouseButtonRight
	MouseButtonNone
	MouseButtonWheelUp
	MouseButtonWheelDown
)

// MouseAction distinguishes press, release and drag/move.
type MouseAction uint8

const (
	MousePress MouseAction = iota
	MouseRelease
	MouseMove
)

// MouseInput is a single UI-layer mouse event ready for encoding.
type MouseInput struct {
	Button           MouseButton
	Action           MouseAction
	Col, Row         int // 0-based cell coordinates
	PixelX, PixelY   int
	Shift, Alt, Ctrl bool
}

// EncodeMouseReport renders input per the terminal's currently
// configured mouse event class and report format, or reports ok=false
// if mouse reporting is currently disabled or the event class doesn't
// apply (e.g. a move with no button reported outside "any-event"
// mode).
func (h *Handler) EncodeMouseReport(in MouseInput) (out []byte, ok bool) {
	ev := h.Term.MouseEvent()
	if ev == screen.MouseEventNone {
		return nil, false
	}
	if in.Action == MouseMove && ev != screen.MouseEventAny {
		return nil, false
	}
	if in.Action == MouseMove && in.Button == MouseButtonNone && ev == screen.MouseEventAny {
		// motion-only event with no button held is still reported in
		// any-event mode, using the "no button" code.
	}

	code := mouseCode(in)
	format := h.Term.MouseFormat()
	switch format {
	case screen.MouseFormatSGR, screen.MouseFormatSGRPixels:
		x, y := in.Col+1, in.Row+1
		if format == screen.MouseFormatSGRPixels {
			x, y = in.PixelX, in.PixelY
		}
		final := byte('M')
		if in.Action == MouseRelease {
			final = 'm'
		}
		return []byte(fmt.Sprintf("\x1b[<%d;%d;%d%c", code, x, y, final)), true
	case screen.MouseFormatURXVT:
		return []byte(fmt.Sprintf("\x1b[%d;%d;%dM", code+32, in.Col+1, in.Row+1)), true
	case screen.MouseFormatUTF8:
		return encodeUTF8Mouse(code, in.Col+1, in.Row+1), true
	default: // X10
		return encodeX10Mouse(code, in.Col+1, in.Row+1), true
	}
}

func mouseCode(in MouseInput) int {
	var code int
	switch in.Button {
	case MouseButtonLeft:
		code = 0
	case MouseButtonMiddle:
		code = 1
	case MouseButtonRight:
		code = 2
	case MouseButtonNone:
		code = 3
	case MouseButtonWheelUp:
		code = 64
	case MouseButtonWheelDown:
		code = 65
	}
	if in.Action == MouseRelease && in.Button != MouseButtonWheelUp && in.Button != MouseButtonWheelDown {
		code = 3
	}
	if in.Action == MouseMove {
		code |= 32
	}
	if in.Shift {
		code |= 4
	}
	if in.Alt {
		code |= 8
	}
	if in.Ctrl {
		code |= 16
	}
	return code
}

// encodeX10Mouse clamps coordinates to the legacy single-byte range
// (positions beyond 223 saturate rather than overflow the byte).
func encodeX10Mouse(code, col, row int) []byte {
	clamp := func(v int) byte {
		v += 32
		if v > 255 {
			v = 255
		}
		return byte(v)
	}
	return []byte{0x1b, '[', 'M', byte(code + 32), clamp(col), clamp(row)}
}

func encodeUTF8Mouse(code, col, row int) []byte {
	out := []byte{0x1b, '[', 'M', byte(code + 32)}
	out = appendUTF8Coord(out, col)
	out = appendUTF8Coord(out, row)
	return out
}

func appendUTF8Coord(buf []byte, v int) []byte {
	v += 32
	if v < 128 {
		return append(buf, byte(v))
	}
	return append(buf, byte(0xC0|(v>>6)), byte(0x80|(v&0x3F)))
}
