package streamhandler

import (
	"encoding/hex"
	"strings"

	"github.com/javanhut/raventerm/internal/parser"
)

// termcapEntries answers XTGETTCAP queries for the handful of
// capabilities xterm-compatible clients actually probe for.
var termcapEntries = map[string]string{
	"TN":    "xterm-256color",
	"Co":    "256",
	"RGB":   "8/8/8",
	"colors": "256",
}

func (h *Handler) dcsHook(p *parser.Parser, final byte) {
	inter := p.Intermediate()
	if final == 'q' || (len(inter) == 1 && inter[0] == '+' && final == 'q') {
		h.dcsKind = dcsXTGetTcap
		h.dcsBuf = h.dcsBuf[:0]
		return
	}
	h.dcsKind = dcsUnknown
}

func (h *Handler) dcsPut(b byte) {
	h.dcsBuf = append(h.dcsBuf, b)
}

func (h *Handler) dcsUnhook() {
	defer func() { h.dcsKind = dcsUnknown }()
	if h.dcsKind != dcsXTGetTcap {
		return
	}
	names := strings.Split(string(h.dcsBuf), ";")
	var reply strings.Builder
	reply.WriteString("\x1bP1+r")
	for i, n := range names {
		raw, err := hex.DecodeString(n)
		if err != nil {
			continue
		}
		val, ok := termcapEntries[string(raw)]
		if !ok {
			continue
		}
		if i > 0 {
			reply.WriteByte(';')
		}
		reply.WriteString(n)
		reply.WriteByte('=')
		reply.WriteString(hex.EncodeToString([]byte(val)))
	}
	reply.WriteString("\x1b\\")
	h.writeReply([]byte(reply.String()))
}

type dcsKind uint8

const (
	dcsUnknown dcsKind = iota
	dcsXTGetTcap
)
