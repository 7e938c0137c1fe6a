package ioloop

// Message is one entry in the coordinator's mailbox. The coordinator
// acts on the write types, Resize, Inspector, ResetCursorBlink,
// SetTitle and Close; any other type is logged at debug level and
// dropped.
type Message interface{ isMessage() }

type baseMessage struct{}

func (baseMessage) isMessage() {}

// WriteSmall carries a short reply (cursor reports, DA/DSR answers);
// it is copied and written as its own job.
type WriteSmall struct {
	baseMessage
	Data []byte
}

// WriteStable carries a reply the caller guarantees will not be
// mutated after sending (already-owned, final byte slice).
type WriteStable struct {
	baseMessage
	Data []byte
}

// WriteAlloc carries a reply the coordinator must copy before use,
// because the caller may reuse its backing array.
type WriteAlloc struct {
	baseMessage
	Data []byte
}

// Resize requests a grid/pty size change.
type Resize struct {
	baseMessage
	Cols, Rows         uint16
	PixelWidth, Height int
}

// ChangeConfig republishes an updated, immutable configuration value.
type ChangeConfig struct {
	baseMessage
	Config interface{}
}

// Inspector requests a point-in-time debug dump be produced.
type Inspector struct {
	baseMessage
	Reply chan string
}

// ResetCursorBlink restarts the cursor blink phase, typically on
// keypress.
type ResetCursorBlink struct{ baseMessage }

// ForegroundColor / BackgroundColor / CursorColor push a theme color
// change down to the running session (e.g. from a live config
// reload), independent of any OSC response cycle.
type ForegroundColor struct {
	baseMessage
	R, G, B uint8
}

type BackgroundColor struct {
	baseMessage
	R, G, B uint8
}

type CursorColor struct {
	baseMessage
	R, G, B uint8
}

// SetTitle forces the window title, bypassing the OSC "only if unset"
// rule (used by an explicit user rename action).
type SetTitle struct {
	baseMessage
	Title string
}

// SetMouseShape updates the pointer shape shown over the grid.
type SetMouseShape struct {
	baseMessage
	Shape string
}

// ClipboardRead/ClipboardWrite answer or fulfil an OSC 52 request once
// the UI thread has obtained or stored the system clipboard contents.
type ClipboardRead struct {
	baseMessage
	Target byte
	Data   []byte
}

type ClipboardWrite struct {
	baseMessage
	Target byte
	Data   []byte
}

// DesktopNotification surfaces an OSC 99 notification to the UI.
type DesktopNotification struct {
	baseMessage
	ID, Title, Body string
	Warning         bool
}

// ChildExited reports that the pty's child process has terminated.
type ChildExited struct {
	baseMessage
	Err error
}

// Close requests an orderly shutdown of the coordinator.
type Close struct{ baseMessage }
