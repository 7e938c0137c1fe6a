package streamhandler

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/javanhut/raventerm/internal/screen"
)

// Notification is a parsed OSC 99 desktop notification.
type Notification struct {
	ID      string
	Title   string
	Body    string
	Warning bool
}

// oscDispatch routes a complete OSC payload (without the leading ESC ]
// or trailing terminator) by its numeric or textual command code.
func (h *Handler) oscDispatch(payload []byte) {
	s := string(payload)
	code, rest, ok := strings.Cut(s, ";")
	if !ok {
		code, rest = s, ""
	}
	switch code {
	case "0", "2":
		h.Term.SetTitle(rest, false)
		if h.UI != nil {
			h.UI.TitleChanged(rest)
		}
	case "4":
		h.oscPalette(rest)
	case "7":
		h.oscPwd(rest)
	case "8":
		h.oscHyperlink(rest)
	case "10":
		h.oscFgColor(rest)
	case "11":
		h.oscBgColor(rest)
	case "12":
		h.oscCursorColor(rest)
	case "22":
		if h.UI != nil {
			h.UI.MouseShapeChanged(rest)
		}
	case "52":
		h.oscClipboard(rest)
	case "99":
		h.oscNotification(rest)
	case "133":
		h.oscSemanticPrompt(rest)
	}
}

// oscPalette handles OSC 4 ; index ; spec (and the ? query form),
// supporting a run of index;spec pairs separated by ';'.
func (h *Handler) oscPalette(rest string) {
	parts := strings.Split(rest, ";")
	scr := h.Term.Active()
	for i := 0; i+1 < len(parts); i += 2 {
		idx, err := strconv.Atoi(parts[i])
		if err != nil || idx < 0 || idx > 255 {
			continue
		}
		spec := parts[i+1]
		if spec == "?" {
			rgb := scr.PaletteEntry(uint8(idx))
			h.writeReply([]byte(fmt.Sprintf("\x1b]4;%d;%s\x07", idx, colorSpec(rgb, h.Config.ColorReportFmt))))
			continue
		}
		if rgb, ok := parseColorSpec(spec); ok {
			scr.SetPaletteEntry(uint8(idx), rgb)
		}
	}
}

func (h *Handler) oscPwd(rest string) {
	p := rest
	if strings.HasPrefix(p, "file://") {
		p = stripFileURI(p)
	}
	h.Term.Active().SetPwd(p)
	before := h.Term.Title()
	h.Term.SetTitle(p, true)
	if h.UI != nil && h.Term.Title() != before {
		h.UI.TitleChanged(p)
	}
}

func stripFileURI(uri string) string {
	rest := strings.TrimPrefix(uri, "file://")
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[idx:]
	}
	return rest
}

// oscHyperlink handles OSC 8 ; params ; uri — an empty uri closes the
// currently open link. params is a ':'-separated list of key=value
// pairs; only "id" is meaningful to the core. The resolved link id is
// latched onto the active screen's cursor state so every cell Print
// writes until the link closes carries it.
func (h *Handler) oscHyperlink(rest string) {
	params, uri, _ := strings.Cut(rest, ";")
	scr := h.Term.Active()
	if uri == "" {
		scr.SetLinkID(0)
		return
	}
	var explicitID string
	for _, kv := range strings.Split(params, ":") {
		k, v, ok := strings.Cut(kv, "=")
		if ok && k == "id" {
			explicitID = v
		}
	}
	scr.SetLinkID(h.Term.HyperlinkID(explicitID, uri))
}

func (h *Handler) oscFgColor(rest string) { h.oscDynamicColor(rest, dynFg) }
func (h *Handler) oscBgColor(rest string) { h.oscDynamicColor(rest, dynBg) }
func (h *Handler) oscCursorColor(rest string) { h.oscDynamicColor(rest, dynCursor) }

type dynColorKind int

const (
	dynFg dynColorKind = iota
	dynBg
	dynCursor
)

func (h *Handler) oscDynamicColor(rest string, kind dynColorKind) {
	scr := h.Term.Active()
	if rest == "?" {
		var rgb [3]uint8
		switch kind {
		case dynFg:
			fg, _, _ := scr.Pen()
			rgb = scr.PaletteColor(fg, [3]uint8{229, 229, 229})
		case dynBg:
			_, bg, _ := scr.Pen()
			rgb = scr.PaletteColor(bg, [3]uint8{0, 0, 0})
		case dynCursor:
			rgb = [3]uint8{229, 229, 229}
		}
		oscNum := map[dynColorKind]int{dynFg: 10, dynBg: 11, dynCursor: 12}[kind]
		h.writeReply([]byte(fmt.Sprintf("\x1b]%d;%s\x07", oscNum, colorSpec(rgb, h.Config.ColorReportFmt))))
		return
	}
	if rest == "" {
		return
	}
	rgb, ok := parseColorSpec(rest)
	if !ok {
		return
	}
	c := screen.RGB(rgb[0], rgb[1], rgb[2])
	switch kind {
	case dynFg:
		scr.SetAttribute(&c, nil, 0, false)
	case dynBg:
		scr.SetAttribute(nil, &c, 0, false)
	}
}

// oscClipboard handles OSC 52 ; target ; base64-data (or "?" to read).
func (h *Handler) oscClipboard(rest string) {
	targetSpec, data, ok := strings.Cut(rest, ";")
	if !ok {
		return
	}
	var target byte = 'c'
	if len(targetSpec) > 0 {
		target = targetSpec[0]
	}
	if data == "?" {
		if h.Config.ClipboardRead == ClipboardDeny || h.UI == nil {
			return
		}
		h.UI.ClipboardRead(target)
		return
	}
	if h.Config.ClipboardWrite == ClipboardDeny || h.UI == nil {
		return
	}
	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return
	}
	h.UI.ClipboardWrite(target, raw)
}

// pendingNotification accumulates a kitty desktop notification across
// the OSC 99 chunks a client may split it into; it is finalized and
// delivered once a chunk carries d=1 (or omits d, meaning single-chunk).
type pendingNotification struct {
	ID      string
	Title   string
	Body    strings.Builder
	Base64  bool
	Warning bool
}

// oscNotification handles OSC 99, the kitty desktop notification
// protocol: key=value metadata separated by ':' in the first argument,
// payload in the second, accumulated across chunks sharing an id until
// d=1, and base64-decoded when e=1 is present.
func (h *Handler) oscNotification(rest string) {
	metaPart, body, _ := strings.Cut(rest, ";")

	done := true
	id := ""
	var warning *bool
	var base64Payload *bool
	var title string
	titleSet := false

	for _, kv := range strings.Split(metaPart, ":") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "i":
			id = v
		case "d":
			done = v == "1"
		case "e":
			b := v == "1"
			base64Payload = &b
		case "n":
			w := v == "warn" || v == "warning"
			warning = &w
			if !w {
				title = v
				titleSet = true
			}
		}
	}

	p, ok := h.notifications[id]
	if !ok {
		p = &pendingNotification{ID: id}
		h.notifications[id] = p
	}
	if titleSet {
		p.Title = title
	}
	if warning != nil {
		p.Warning = *warning
	}
	if base64Payload != nil {
		p.Base64 = *base64Payload
	}
	p.Body.WriteString(body)

	if !done {
		return
	}
	delete(h.notifications, id)

	bodyText := p.Body.String()
	if p.Base64 {
		raw, err := base64.StdEncoding.DecodeString(bodyText)
		if err != nil {
			h.log.Warn().Err(err).Str("id", id).Msg("malformed base64 desktop notification payload")
			return
		}
		bodyText = string(raw)
	}

	if h.UI != nil {
		h.UI.DesktopNotification(Notification{ID: p.ID, Title: p.Title, Body: bodyText, Warning: p.Warning})
	}
}

// oscSemanticPrompt handles OSC 133 ; A|B|C|D shell-integration marks.
func (h *Handler) oscSemanticPrompt(rest string) {
	kind, _, _ := strings.Cut(rest, ";")
	scr := h.Term.Active()
	switch kind {
	case "A":
		scr.SetSemanticPrompt(screen.SemanticPrompt1)
	case "B":
		scr.SetSemanticPrompt(screen.SemanticInput)
	case "C":
		scr.SetSemanticPrompt(screen.SemanticCommand)
	case "D":
		scr.SetSemanticPrompt(screen.SemanticNone)
	}
}

func colorSpec(rgb [3]uint8, fmtKind ColorReportFormat) string {
	r, g, b := rgb[0], rgb[1], rgb[2]
	if fmtKind == ColorReport16Bit {
		return fmt.Sprintf("rgb:%02x%02x/%02x%02x/%02x%02x", r, r, g, g, b, b)
	}
	return fmt.Sprintf("rgb:%02x/%02x/%02x", r, g, b)
}

func parseColorSpec(spec string) ([3]uint8, bool) {
	spec = strings.TrimPrefix(spec, "rgb:")
	parts := strings.Split(spec, "/")
	if len(parts) != 3 {
		return [3]uint8{}, false
	}
	var vals [3]uint8
	for i, p := range parts {
		if len(p) > 2 {
			p = p[:2]
		}
		n, err := strconv.ParseUint(p, 16, 16)
		if err != nil {
			return [3]uint8{}, false
		}
		vals[i] = uint8(n)
	}
	return vals, true
}
