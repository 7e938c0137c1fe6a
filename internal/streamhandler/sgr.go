package streamhandler

import "github.com/javanhut/raventerm/internal/screen"

// sgrDispatch applies CSI Pm m (Select Graphic Rendition). Colon
// sub-parameters (38:2:...) are not distinguished from semicolons by
// the parser, so 256-color/truecolor sequences are read positionally,
// matching the widely deployed xterm behavior.
func (h *Handler) sgrDispatch(params []int) {
	scr := h.Term.Active()
	if len(params) == 0 {
		scr.SetAttribute(nil, nil, 0, true)
		return
	}
	for i := 0; i < len(params); i++ {
		p := params[i]
		switch {
		case p == 0:
			scr.SetAttribute(nil, nil, 0, true)
		case p == 1:
			scr.SetAttribute(nil, nil, screen.StyleBold, false)
		case p == 2:
			scr.SetAttribute(nil, nil, screen.StyleFaint, false)
		case p == 3:
			scr.SetAttribute(nil, nil, screen.StyleItalic, false)
		case p == 4:
			scr.SetAttribute(nil, nil, screen.StyleUnderline, false)
		case p == 5 || p == 6:
			scr.SetAttribute(nil, nil, screen.StyleBlink, false)
		case p == 7:
			scr.SetAttribute(nil, nil, screen.StyleInverse, false)
		case p == 8:
			scr.SetAttribute(nil, nil, screen.StyleInvisible, false)
		case p == 9:
			scr.SetAttribute(nil, nil, screen.StyleStrikethrough, false)
		case p == 21:
			scr.SetAttribute(nil, nil, screen.StyleDoubleUnderline, false)
		case p == 22:
			scr.ClearAttributeBits(screen.StyleBold | screen.StyleFaint)
		case p == 23:
			scr.ClearAttributeBits(screen.StyleItalic)
		case p == 24:
			scr.ClearAttributeBits(screen.StyleUnderline | screen.StyleDoubleUnderline)
		case p == 25:
			scr.ClearAttributeBits(screen.StyleBlink)
		case p == 27:
			scr.ClearAttributeBits(screen.StyleInverse)
		case p == 28:
			scr.ClearAttributeBits(screen.StyleInvisible)
		case p == 29:
			scr.ClearAttributeBits(screen.StyleStrikethrough)
		case p >= 30 && p <= 37:
			c := screen.Indexed(uint8(p - 30))
			scr.SetAttribute(&c, nil, 0, false)
		case p == 38:
			c, n := h.parseExtendedColor(params, i)
			if n > 0 {
				scr.SetAttribute(&c, nil, 0, false)
				i += n
			}
		case p == 39:
			c := screen.DefaultFg()
			scr.SetAttribute(&c, nil, 0, false)
		case p >= 40 && p <= 47:
			c := screen.Indexed(uint8(p - 40))
			scr.SetAttribute(nil, &c, 0, false)
		case p == 48:
			c, n := h.parseExtendedColor(params, i)
			if n > 0 {
				scr.SetAttribute(nil, &c, 0, false)
				i += n
			}
		case p == 49:
			c := screen.DefaultBg()
			scr.SetAttribute(nil, &c, 0, false)
		case p == 53:
			scr.SetAttribute(nil, nil, screen.StyleOverline, false)
		case p == 55:
			scr.ClearAttributeBits(screen.StyleOverline)
		case p >= 90 && p <= 97:
			c := screen.Indexed(uint8(p - 90 + 8))
			scr.SetAttribute(&c, nil, 0, false)
		case p >= 100 && p <= 107:
			c := screen.Indexed(uint8(p - 100 + 8))
			scr.SetAttribute(nil, &c, 0, false)
		}
	}
}

// parseExtendedColor decodes a 38/48-family extended color starting
// at params[i+1] (the mode selector: 5 = indexed, 2 = RGB). It returns
// the decoded color and how many extra params it consumed.
func (h *Handler) parseExtendedColor(params []int, i int) (screen.Color, int) {
	if i+1 >= len(params) {
		return screen.Color{}, 0
	}
	switch params[i+1] {
	case 5:
		if i+2 >= len(params) {
			return screen.Color{}, 0
		}
		return screen.Indexed(uint8(params[i+2])), 2
	case 2:
		if i+4 >= len(params) {
			return screen.Color{}, 0
		}
		r := uint8(params[i+2])
		g := uint8(params[i+3])
		b := uint8(params[i+4])
		return screen.RGB(r, g, b), 4
	}
	return screen.Color{}, 0
}
