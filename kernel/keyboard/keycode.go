package keyboard

import "fmt"

// KeyCode names keys that do not produce a character.
type KeyCode uint16

const (
	KeyNone KeyCode = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyPageUp
	KeyPageDown
	KeyInsert
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
	KeyLeftShift
	KeyRightShift
	KeyLeftCtrl
	KeyRightCtrl
	KeyLeftAlt
	KeyRightAlt
	KeyLeftWin
	KeyRightWin
	KeyMenu
	KeyCapsLock
	KeyNumLock
	KeyScrollLock
	KeyPrintScreen
	KeyPause
)

var keyNames = [...]string{
	KeyNone:        "None",
	KeyUp:          "ArrowUp",
	KeyDown:        "ArrowDown",
	KeyLeft:        "ArrowLeft",
	KeyRight:       "ArrowRight",
	KeyHome:        "Home",
	KeyEnd:         "End",
	KeyPageUp:      "PageUp",
	KeyPageDown:    "PageDown",
	KeyInsert:      "Insert",
	KeyF1:          "F1",
	KeyF2:          "F2",
	KeyF3:          "F3",
	KeyF4:          "F4",
	KeyF5:          "F5",
	KeyF6:          "F6",
	KeyF7:          "F7",
	KeyF8:          "F8",
	KeyF9:          "F9",
	KeyF10:         "F10",
	KeyF11:         "F11",
	KeyF12:         "F12",
	KeyLeftShift:   "LShift",
	KeyRightShift:  "RShift",
	KeyLeftCtrl:    "LControl",
	KeyRightCtrl:   "RControl",
	KeyLeftAlt:     "LAlt",
	KeyRightAlt:    "RAltGr",
	KeyLeftWin:     "LWin",
	KeyRightWin:    "RWin",
	KeyMenu:        "Apps",
	KeyCapsLock:    "CapsLock",
	KeyNumLock:     "NumpadLock",
	KeyScrollLock:  "ScrollLock",
	KeyPrintScreen: "PrintScreen",
	KeyPause:       "PauseBreak",
}

func (k KeyCode) String() string {
	if int(k) < len(keyNames) {
		return keyNames[k]
	}
	return fmt.Sprintf("KeyCode(%d)", uint16(k))
}

// DecodedKey is either a character or a raw key, never both.
type DecodedKey struct {
	Rune rune
	Code KeyCode
}

// IsRune reports whether the key produced a character.
func (k DecodedKey) IsRune() bool { return k.Code == KeyNone }

func (k DecodedKey) String() string {
	if k.IsRune() {
		return fmt.Sprintf("CHAR=%q", k.Rune)
	}
	return "KEY=" + k.Code.String()
}
