package main

import (
	"testing"

	"nucleus/kernel/keyboard"
)

func TestParseHex(t *testing.T) {
	got, err := parseHex([]string{"1e,0x9E", "E0 48"})
	if err != nil {
		t.Fatalf("parseHex() err = %v", err)
	}
	want := []uint8{0x1E, 0x9E, 0xE0, 0x48}
	if formatHex(got) != formatHex(want) {
		t.Fatalf("parseHex() = %s, want %s", formatHex(got), formatHex(want))
	}
	if _, err := parseHex([]string{"1ff"}); err == nil {
		t.Fatalf("parseHex(1ff) err = nil")
	}
}

func keysText(keys []keyboard.DecodedKey) string {
	var out []rune
	for _, k := range keys {
		if k.IsRune() {
			out = append(out, k.Rune)
		}
	}
	return string(out)
}

func TestDecodeRoundTrip(t *testing.T) {
	res := decode(encode("Hello, world\n"), 4, false)
	if got := keysText(res.keys); got != "Hello, world\n" {
		t.Fatalf("decoded %q", got)
	}
	if res.dropped != 0 {
		t.Fatalf("dropped = %d, want 0", res.dropped)
	}
}

func TestDecodeBurstOverflows(t *testing.T) {
	codes := encode("abc")
	res := decode(codes, 2, true)
	if res.dropped != uint64(len(codes)-2) {
		t.Fatalf("dropped = %d, want %d", res.dropped, len(codes)-2)
	}
	if got := keysText(res.keys); got != "a" {
		t.Fatalf("decoded %q, want %q", got, "a")
	}
}

func TestDecodeExtendedKey(t *testing.T) {
	res := decode([]uint8{0xE0, 0x48, 0xE0, 0xC8}, 8, false)
	if len(res.keys) != 1 || res.keys[0].Code != keyboard.KeyUp {
		t.Fatalf("keys = %v, want [KEY=ArrowUp]", res.keys)
	}
}
