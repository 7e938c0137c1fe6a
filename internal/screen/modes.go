package screen

// Mode is a single bit in the terminal's DEC-private/ANSI mode bitset.
type Mode uint64

const (
	ModeAutoWrap Mode = 1 << iota
	ModeOrigin
	ModeCursorKeysApplication
	ModeKeypadApplication
	ModeReverseVideo
	ModeCursorBlinking
	ModeAltScreen47
	ModeAltScreen1047
	ModeAltScreen1048
	ModeAltScreen1049
	ModeBracketedPaste
	ModeFocusEvent
	ModeMouseX10
	ModeMouseNormal
	ModeMouseButton
	ModeMouseAny
	ModeMouseFormatUTF8
	ModeMouseFormatSGR
	ModeMouseFormatURXVT
	ModeMouseFormatSGRPixels
	ModeMouseAlternateScroll
	ModeSynchronizedOutput
	ModeModifyOtherKeys
	ModeAutorepeat
	ModeDisableKeyboard
	ModeLinefeed
	ModeColumn132
	ModeEnableMode3
	ModeReverseColors
	ModeAltEscPrefix
	ModeEnableLeftRightMargin
	ModeCursorVisible
)

// ModeSet is a bitset of Mode values plus independent save slots, as
// required by DEC private-mode save/restore (CSI ? Pm s / CSI ? Pm r).
type ModeSet struct {
	bits  Mode
	saved Mode
}

func newModeSet() ModeSet {
	return ModeSet{bits: ModeAutoWrap | ModeCursorVisible | ModeAutorepeat}
}

func (m *ModeSet) Set(mode Mode, on bool) {
	if on {
		m.bits |= mode
	} else {
		m.bits &^= mode
	}
}

func (m *ModeSet) Has(mode Mode) bool { return m.bits&mode != 0 }

func (m *ModeSet) Save(mode Mode) {
	if m.Has(mode) {
		m.saved |= mode
	} else {
		m.saved &^= mode
	}
}

func (m *ModeSet) Restore(mode Mode) {
	m.Set(mode, m.saved&mode != 0)
}

// MouseEvent identifies which class of mouse events is reported.
type MouseEvent uint8

const (
	MouseEventNone MouseEvent = iota
	MouseEventX10
	MouseEventNormal
	MouseEventButton
	MouseEventAny
)

// MouseFormat identifies the encoding used for mouse reports.
type MouseFormat uint8

const (
	MouseFormatX10 MouseFormat = iota
	MouseFormatUTF8
	MouseFormatSGR
	MouseFormatURXVT
	MouseFormatSGRPixels
)

// CursorShape is the drawn shape half of DECSCUSR (CSI Ps SP q),
// independent of the blink/steady bit Ps also carries.
type CursorShape uint8

const (
	CursorBlock CursorShape = iota
	CursorUnderline
	CursorBar
)

// CursorStyle mirrors DECSCUSR (CSI Ps SP q) in full: both the drawn
// shape and whether that Ps value requested blinking (odd) or steady
// (even). DECSCUSR is always honoured once issued (spec.md §4.2); the
// host's configured default blink preference only governs mode 12
// before DECSCUSR has ever been seen.
type CursorStyle struct {
	Shape CursorShape
	Blink bool
}

// KittyKeyboardFlags is one entry of the kitty keyboard protocol's
// progressive-enhancement flag stack.
type KittyKeyboardFlags uint8

const (
	KittyDisambiguateEscape KittyKeyboardFlags = 1 << iota
	KittyReportEventTypes
	KittyReportAlternateKeys
	KittyReportAllKeysAsEscape
	KittyReportAssociatedText
)
