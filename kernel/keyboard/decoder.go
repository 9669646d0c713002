package keyboard

// Scan code set 1 prefixes and flags.
const (
	prefixExtended uint8 = 0xE0
	prefixPause    uint8 = 0xE1
	releaseBit     uint8 = 0x80

	// E0 2A / E0 AA wrap Print Screen as a fake shift.
	fakeShift uint8 = 0x2A
)

type keyDef struct {
	plain   rune
	shifted rune
	code    KeyCode
	letter  bool

	// Keypad keys produce plain only with num lock on, code otherwise.
	keypad bool
}

var (
	set1         [0x80]keyDef
	set1Extended [0x80]keyDef
)

func init() {
	rows := []struct {
		start   uint8
		plain   string
		shifted string
	}{
		{0x02, "1234567890-=", "!@#$%^&*()_+"},
		{0x10, "qwertyuiop[]", "QWERTYUIOP{}"},
		{0x1E, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
		{0x2B, "\\zxcvbnm,./", "|ZXCVBNM<>?"},
	}
	for _, row := range rows {
		plain, shifted := []rune(row.plain), []rune(row.shifted)
		for i := range plain {
			set1[int(row.start)+i] = keyDef{
				plain:   plain[i],
				shifted: shifted[i],
				letter:  plain[i] >= 'a' && plain[i] <= 'z',
			}
		}
	}

	char := func(r rune) keyDef { return keyDef{plain: r, shifted: r} }
	raw := func(k KeyCode) keyDef { return keyDef{code: k} }
	pad := func(r rune, k KeyCode) keyDef { return keyDef{plain: r, shifted: r, code: k, keypad: true} }

	// Control characters are passed through unmapped.
	set1[0x01] = char(0x1B)
	set1[0x0E] = char(0x08)
	set1[0x0F] = char('\t')
	set1[0x1C] = char('\n')
	set1[0x39] = char(' ')
	set1[0x37] = char('*')
	set1[0x4A] = char('-')
	set1[0x4E] = char('+')

	set1[0x1D] = raw(KeyLeftCtrl)
	set1[0x2A] = raw(KeyLeftShift)
	set1[0x36] = raw(KeyRightShift)
	set1[0x38] = raw(KeyLeftAlt)
	set1[0x3A] = raw(KeyCapsLock)
	set1[0x45] = raw(KeyNumLock)
	set1[0x46] = raw(KeyScrollLock)
	for i := 0; i < 10; i++ {
		set1[0x3B+i] = raw(KeyF1 + KeyCode(i))
	}
	set1[0x57] = raw(KeyF11)
	set1[0x58] = raw(KeyF12)

	set1[0x47] = pad('7', KeyHome)
	set1[0x48] = pad('8', KeyUp)
	set1[0x49] = pad('9', KeyPageUp)
	set1[0x4B] = pad('4', KeyLeft)
	set1[0x4C] = char('5')
	set1[0x4D] = pad('6', KeyRight)
	set1[0x4F] = pad('1', KeyEnd)
	set1[0x50] = pad('2', KeyDown)
	set1[0x51] = pad('3', KeyPageDown)
	set1[0x52] = pad('0', KeyInsert)
	set1[0x53] = pad('.', KeyNone)

	set1Extended[0x1C] = char('\n')
	set1Extended[0x35] = char('/')
	set1Extended[0x1D] = raw(KeyRightCtrl)
	set1Extended[0x38] = raw(KeyRightAlt)
	set1Extended[0x37] = raw(KeyPrintScreen)
	set1Extended[0x47] = raw(KeyHome)
	set1Extended[0x48] = raw(KeyUp)
	set1Extended[0x49] = raw(KeyPageUp)
	set1Extended[0x4B] = raw(KeyLeft)
	set1Extended[0x4D] = raw(KeyRight)
	set1Extended[0x4F] = raw(KeyEnd)
	set1Extended[0x50] = raw(KeyDown)
	set1Extended[0x51] = raw(KeyPageDown)
	set1Extended[0x52] = raw(KeyInsert)
	set1Extended[0x53] = char(0x7F)
	set1Extended[0x5B] = raw(KeyLeftWin)
	set1Extended[0x5C] = raw(KeyRightWin)
	set1Extended[0x5D] = raw(KeyMenu)
}

// Decoder turns scan code set 1 bytes into keys using a US 104-key layout.
// Control is not applied to characters: Ctrl+C decodes as 'c'.
type Decoder struct {
	extended bool
	skip     int

	lshift, rshift bool
	lctrl, rctrl   bool
	lalt, ralt     bool
	capsLock       bool
	numLock        bool
}

// NewDecoder returns a decoder with num lock on.
func NewDecoder() *Decoder {
	return &Decoder{numLock: true}
}

// Shift reports whether either shift key is held.
func (d *Decoder) Shift() bool { return d.lshift || d.rshift }

// Ctrl reports whether either control key is held.
func (d *Decoder) Ctrl() bool { return d.lctrl || d.rctrl }

// Alt reports whether either alt key is held.
func (d *Decoder) Alt() bool { return d.lalt || d.ralt }

// AddByte feeds one scan code byte. It reports a key when the byte
// completes a key press that produces one.
func (d *Decoder) AddByte(b uint8) (DecodedKey, bool) {
	if d.skip > 0 {
		d.skip--
		return DecodedKey{}, false
	}
	switch b {
	case prefixExtended:
		d.extended = true
		return DecodedKey{}, false
	case prefixPause:
		// Pause sends E1 1D 45 E1 9D C5 and has no release.
		d.skip = 5
		return DecodedKey{Code: KeyPause}, true
	}

	extended := d.extended
	d.extended = false
	release := b&releaseBit != 0
	code := b &^ releaseBit

	if extended && code == fakeShift {
		return DecodedKey{}, false
	}

	def := set1[code]
	if extended {
		def = set1Extended[code]
	}
	if d.trackModifier(def.code, release) {
		if release {
			return DecodedKey{}, false
		}
		return DecodedKey{Code: def.code}, true
	}
	if release {
		return DecodedKey{}, false
	}
	return d.resolve(def)
}

// trackModifier updates modifier state and reports whether code is a
// modifier or lock key.
func (d *Decoder) trackModifier(code KeyCode, release bool) bool {
	down := !release
	switch code {
	case KeyLeftShift:
		d.lshift = down
	case KeyRightShift:
		d.rshift = down
	case KeyLeftCtrl:
		d.lctrl = down
	case KeyRightCtrl:
		d.rctrl = down
	case KeyLeftAlt:
		d.lalt = down
	case KeyRightAlt:
		d.ralt = down
	case KeyCapsLock:
		if down {
			d.capsLock = !d.capsLock
		}
	case KeyNumLock:
		if down {
			d.numLock = !d.numLock
		}
	default:
		return false
	}
	return true
}

func (d *Decoder) resolve(def keyDef) (DecodedKey, bool) {
	switch {
	case def.keypad:
		if d.numLock {
			return DecodedKey{Rune: def.plain}, true
		}
		if def.code == KeyNone {
			return DecodedKey{Rune: 0x7F}, true
		}
		return DecodedKey{Code: def.code}, true
	case def.code != KeyNone:
		return DecodedKey{Code: def.code}, true
	case def.plain == 0:
		return DecodedKey{}, false
	}

	upper := d.Shift()
	if def.letter && d.capsLock {
		upper = !upper
	}
	if upper {
		return DecodedKey{Rune: def.shifted}, true
	}
	return DecodedKey{Rune: def.plain}, true
}
