package streamhandler

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	"github.com/javanhut/raventerm/internal/screen"
)

// apcDispatch parses a complete kitty graphics APC payload ("G" plus
// control keys, a semicolon, then the base64 payload) and applies it.
// Other APC prefixes are ignored.
func (h *Handler) apcDispatch(payload []byte) {
	if len(payload) == 0 || payload[0] != 'G' {
		return
	}
	keyPart, data, _ := strings.Cut(string(payload[1:]), ";")
	cmd := parseGraphicsCommand(keyPart)
	cmd.Payload = []byte(data)

	scr := h.Term.Active()
	switch cmd.Action {
	case screen.GraphicsQuery:
		h.writeReply([]byte(fmt.Sprintf("\x1b_Gi=%d;OK\x1b\\", cmd.ImageID)))
	case screen.GraphicsTransmit:
		h.receiveTransmission(scr, cmd)
	case screen.GraphicsTransmitDisplay:
		img := h.receiveTransmission(scr, cmd)
		if img != nil {
			x, y := scr.Cursor()
			scr.AddPlacement(img.ID, cmd.PlacedID, x, y)
		}
	case screen.GraphicsDisplay:
		x, y := scr.Cursor()
		scr.AddPlacement(cmd.ImageID, cmd.PlacedID, x, y)
	case screen.GraphicsDelete:
		scr.DeleteImage(cmd.ImageID)
	}
}

func (h *Handler) receiveTransmission(scr *screen.Screen, cmd screen.GraphicsCommand) *screen.Image {
	raw, err := base64.StdEncoding.DecodeString(string(cmd.Payload))
	if err != nil {
		raw = nil
	}
	cmd.Payload = raw
	if cmd.More {
		scr.BeginLoadingImage(cmd)
		return nil
	}
	return scr.FinishLoadingImage(cmd)
}

// parseGraphicsCommand decodes the comma-separated key=value control
// string of a kitty graphics APC command.
func parseGraphicsCommand(keys string) screen.GraphicsCommand {
	var cmd screen.GraphicsCommand
	for _, kv := range strings.Split(keys, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "a":
			switch v {
			case "q":
				cmd.Action = screen.GraphicsQuery
			case "t":
				cmd.Action = screen.GraphicsTransmit
			case "p":
				cmd.Action = screen.GraphicsDisplay
			case "T":
				cmd.Action = screen.GraphicsTransmitDisplay
			case "d":
				cmd.Action = screen.GraphicsDelete
			}
		case "i":
			cmd.ImageID = parseUint(v)
		case "p":
			cmd.PlacedID = parseUint(v)
		case "f":
			cmd.Format, _ = strconv.Atoi(v)
		case "s":
			cmd.Width, _ = strconv.Atoi(v)
		case "v":
			cmd.Height, _ = strconv.Atoi(v)
		case "m":
			cmd.More = v == "1"
		}
	}
	return cmd
}

func parseUint(v string) uint64 {
	n, _ := strconv.ParseUint(v, 10, 64)
	return n
}
