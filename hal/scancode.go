package hal

// Scan code set 1 encoding for the host keyboard feeds.

const (
	ScancodeExtended   uint8 = 0xE0
	ScancodeReleaseBit uint8 = 0x80

	scLeftShift uint8 = 0x2A
)

type runeCode struct {
	code  uint8
	shift bool
}

var usRuneCodes = map[rune]runeCode{}

func init() {
	rows := []struct {
		start uint8
		plain string
		upper string
	}{
		{0x02, "1234567890-=", "!@#$%^&*()_+"},
		{0x10, "qwertyuiop[]", "QWERTYUIOP{}"},
		{0x1E, "asdfghjkl;'`", "ASDFGHJKL:\"~"},
		{0x2B, "\\zxcvbnm,./", "|ZXCVBNM<>?"},
	}
	for _, row := range rows {
		plain := []rune(row.plain)
		shifted := []rune(row.upper)
		for i := range plain {
			usRuneCodes[plain[i]] = runeCode{code: row.start + uint8(i)}
			usRuneCodes[shifted[i]] = runeCode{code: row.start + uint8(i), shift: true}
		}
	}
	usRuneCodes[' '] = runeCode{code: 0x39}
	usRuneCodes['\n'] = runeCode{code: 0x1C}
	usRuneCodes['\b'] = runeCode{code: 0x0E}
	usRuneCodes['\t'] = runeCode{code: 0x0F}
	usRuneCodes[0x1B] = runeCode{code: 0x01}
}

// AppendScancodes appends the make/break sequence that types r on a US
// keyboard. Runes with no key are skipped.
func AppendScancodes(dst []uint8, r rune) []uint8 {
	rc, ok := usRuneCodes[r]
	if !ok {
		return dst
	}
	if rc.shift {
		dst = append(dst, scLeftShift)
	}
	dst = append(dst, rc.code, rc.code|ScancodeReleaseBit)
	if rc.shift {
		dst = append(dst, scLeftShift|ScancodeReleaseBit)
	}
	return dst
}

// ScancodesForText encodes s as keystrokes.
func ScancodesForText(s string) []uint8 {
	var out []uint8
	for _, r := range s {
		out = AppendScancodes(out, r)
	}
	return out
}
