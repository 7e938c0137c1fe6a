package screen

import (
	"sync"

	"github.com/google/uuid"

	"github.com/javanhut/raventerm/internal/booid"
)

// ActiveScreen selects which of the two Screens a Terminal is
// currently presenting.
type ActiveScreen uint8

const (
	ScreenPrimary ActiveScreen = iota
	ScreenAlternate
)

// Terminal owns the primary and alternate Screen, the mode bitset, and
// the handful of settings that apply across both (mouse reporting,
// cursor style and blink preference, hyperlink ids, title, pixel size).
// Exactly one Screen is active at a time; switching preserves the
// inactive Screen's full state untouched.
type Terminal struct {
	mu sync.RWMutex

	Primary   *Screen
	Alternate *Screen
	active    ActiveScreen

	modes ModeSet

	mouseEvent     MouseEvent
	mouseFormat    MouseFormat
	cursorStyle    CursorStyle
	cursorStyleSet bool // true once DECSCUSR has explicitly set a style this session

	hasBlinkPref bool // true once the host config supplies a default cursor-blink preference
	blinkPref    bool

	pixelWidth, pixelHeight int

	nextLinkID  uint32
	linkIDByKey map[string]uint32
	linkURIs    map[uint32]hyperlink

	titleSet bool
	title    string
}

// NewTerminal constructs a Terminal with fresh primary/alternate
// Screens sharing one Booid generator, so row ids stay globally
// unique across both buffers.
func NewTerminal(cols, rows int, machineID uint16) *Terminal {
	gen := booid.NewGenerator(machineID)
	return &Terminal{
		Primary:     New(cols, rows, gen, true),
		Alternate:   New(cols, rows, gen, false),
		modes:       newModeSet(),
		cursorStyle: CursorStyle{Shape: CursorBlock, Blink: true},
		linkIDByKey: make(map[string]uint32),
		linkURIs:    make(map[uint32]hyperlink),
	}
}

// Active returns the currently active Screen.
func (t *Terminal) Active() *Screen {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.active == ScreenAlternate {
		return t.Alternate
	}
	return t.Primary
}

// ActiveKind reports which screen is active.
func (t *Terminal) ActiveKind() ActiveScreen {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

// EnterAlternate switches to the alternate screen, saving the primary
// screen's cursor first (DECSET 1049 semantics); it is a no-op if
// already on the alternate screen.
func (t *Terminal) EnterAlternate(clear bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == ScreenAlternate {
		return
	}
	t.Primary.SaveCursor()
	t.active = ScreenAlternate
	if clear {
		t.Alternate.EraseDisplay(EraseComplete, false)
	}
}

// ExitAlternate switches back to the primary screen and restores its
// saved cursor; a no-op if already on the primary screen.
func (t *Terminal) ExitAlternate() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == ScreenPrimary {
		return
	}
	t.active = ScreenPrimary
	t.Primary.RestoreCursor()
}

// SetMode sets or clears a mode bit, applying side effects for origin
// mode (cursor reset), left/right margin mode (margins reset when
// disabled) and the alternate-screen modes (screen switch). DECCOLM
// (mode 3) only records the bit; it does not resize the grid.
func (t *Terminal) SetMode(mode Mode, on bool) {
	t.mu.Lock()
	switch mode {
	case ModeOrigin:
		t.modes.Set(mode, on)
		t.mu.Unlock()
		t.Active().SetOriginMode(on)
		return
	case ModeEnableLeftRightMargin:
		t.modes.Set(mode, on)
		if !on {
			t.mu.Unlock()
			t.Active().DisableLeftRightMargin()
			return
		}
	case ModeAltScreen47, ModeAltScreen1047:
		t.modes.Set(mode, on)
		t.mu.Unlock()
		if on {
			t.EnterAlternate(true)
		} else {
			t.ExitAlternate()
		}
		return
	case ModeAltScreen1049:
		t.modes.Set(mode, on)
		t.mu.Unlock()
		if on {
			t.EnterAlternate(true)
		} else {
			t.ExitAlternate()
		}
		return
	}
	t.modes.Set(mode, on)
	t.mu.Unlock()
}

// HasMode reports whether a mode bit is set.
func (t *Terminal) HasMode(mode Mode) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modes.Has(mode)
}

// SaveMode / RestoreMode implement DEC private mode save/restore (CSI
// ? Pm s / CSI ? Pm r). Each mode has an independent save slot.
func (t *Terminal) SaveMode(mode Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modes.Save(mode)
}

func (t *Terminal) RestoreMode(mode Mode) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modes.Restore(mode)
}

// SetMouseEvent / SetMouseFormat implement the two orthogonal mouse
// reporting fields.
func (t *Terminal) SetMouseEvent(e MouseEvent) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mouseEvent = e
}

func (t *Terminal) SetMouseFormat(f MouseFormat) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.mouseFormat = f
}

func (t *Terminal) MouseEvent() MouseEvent {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mouseEvent
}

func (t *Terminal) MouseFormat() MouseFormat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mouseFormat
}

// SetCursorStyle implements DECSCUSR (CSI Ps SP q), always honoured:
// once a program issues it, both its shape and its blink/steady bit
// win over mode 12 and any configured default.
func (t *Terminal) SetCursorStyle(style CursorStyle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cursorStyle = style
	t.cursorStyleSet = true
}

func (t *Terminal) CursorStyle() CursorStyle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cursorStyle
}

// SetDefaultBlinkPref records the host's configured default
// cursor-blink preference (DerivedConfig.CursorBlinkPref). Per §4.2, this
// suppresses mode 12's effect, but only until DECSCUSR is issued —
// DECSCUSR is always honoured once seen.
func (t *Terminal) SetDefaultBlinkPref(blink bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.hasBlinkPref = true
	t.blinkPref = blink
}

// CursorBlinkEffective reports whether the cursor should actually
// blink, applying DECSCUSR's own blink bit once it has been issued,
// falling back to the configured default preference, and finally to
// mode 12 when neither has ever been set.
func (t *Terminal) CursorBlinkEffective() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.cursorStyleSet {
		return t.cursorStyle.Blink
	}
	if t.hasBlinkPref {
		return t.blinkPref
	}
	return t.modes.Has(ModeCursorBlinking)
}

// SetPixelSize records the surface size in pixels, used for SGR-pixel
// mouse coordinate reporting and kitty graphics placement geometry.
func (t *Terminal) SetPixelSize(w, h int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pixelWidth, t.pixelHeight = w, h
}

func (t *Terminal) PixelSize() (w, h int) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pixelWidth, t.pixelHeight
}

// HyperlinkID returns the numeric link id to stamp onto cells for an
// OSC 8 open carrying the given explicit id= parameter (empty if
// omitted) and uri. A repeated explicit id paired with the same uri
// reuses the id already allocated for it, so cells belonging to the
// same named link group together; an omitted id always allocates a
// fresh one, matching real terminals' treatment of anonymous links as
// independent per occurrence. A UUID is generated alongside each fresh
// allocation for callers that need a stable opaque key for the link
// rather than the small monotonic integer stored in Cell.LinkID,
// following the pack's use of google/uuid for such identifiers.
func (t *Terminal) HyperlinkID(explicitID, uri string) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if explicitID != "" {
		key := explicitID + "\x00" + uri
		if id, ok := t.linkIDByKey[key]; ok {
			return id
		}
		t.nextLinkID++
		id := t.nextLinkID
		t.linkIDByKey[key] = id
		t.linkURIs[id] = hyperlink{URI: uri, Key: uuid.NewString()}
		return id
	}
	t.nextLinkID++
	id := t.nextLinkID
	t.linkURIs[id] = hyperlink{URI: uri, Key: uuid.NewString()}
	return id
}

// hyperlink is what a numeric Cell.LinkID resolves to: the uri it was
// opened with, plus a stable opaque key for callers (e.g. a future
// clipboard/open-link UI action) that need a handle independent of the
// small integer's lifetime.
type hyperlink struct {
	URI string
	Key string
}

// HyperlinkURI returns the uri a link id was opened with, if any.
func (t *Terminal) HyperlinkURI(id uint32) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	link, ok := t.linkURIs[id]
	return link.URI, ok
}

// Resize propagates a column/row change to both screens.
func (t *Terminal) Resize(cols, rows int) {
	t.Primary.Resize(cols, rows)
	t.Alternate.Resize(cols, rows)
}

// SetTitle sets the window title the first time, or on request
// afterward; OSC 7 only sets it if nothing has set it yet.
func (t *Terminal) SetTitle(title string, onlyIfUnset bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if onlyIfUnset && t.titleSet {
		return
	}
	t.title = title
	t.titleSet = true
}

func (t *Terminal) Title() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.title
}

// FullReset resets modes and both screens (RIS).
func (t *Terminal) FullReset() {
	t.mu.Lock()
	t.modes = newModeSet()
	t.active = ScreenPrimary
	t.mouseEvent = MouseEventNone
	t.mouseFormat = MouseFormatX10
	t.cursorStyle = CursorStyle{Shape: CursorBlock, Blink: true}
	t.cursorStyleSet = false
	t.mu.Unlock()
	t.Primary.FullReset()
	t.Alternate.FullReset()
}
