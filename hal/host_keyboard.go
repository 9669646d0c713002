//go:build !baremetal && cgo

package hal

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// hostKeyboard turns window key transitions into set 1 make/break codes at
// the emulated keyboard controller.
type hostKeyboard struct {
	m       *HostMachine
	pressed []ebiten.Key
	release []ebiten.Key
	codes   []uint8
}

func newHostKeyboard(m *HostMachine) *hostKeyboard {
	return &hostKeyboard{m: m}
}

type set1Key struct {
	code     uint8
	extended bool
}

var ebitenSet1 = map[ebiten.Key]set1Key{
	ebiten.KeyEscape:       {code: 0x01},
	ebiten.KeyDigit1:       {code: 0x02},
	ebiten.KeyDigit2:       {code: 0x03},
	ebiten.KeyDigit3:       {code: 0x04},
	ebiten.KeyDigit4:       {code: 0x05},
	ebiten.KeyDigit5:       {code: 0x06},
	ebiten.KeyDigit6:       {code: 0x07},
	ebiten.KeyDigit7:       {code: 0x08},
	ebiten.KeyDigit8:       {code: 0x09},
	ebiten.KeyDigit9:       {code: 0x0A},
	ebiten.KeyDigit0:       {code: 0x0B},
	ebiten.KeyMinus:        {code: 0x0C},
	ebiten.KeyEqual:        {code: 0x0D},
	ebiten.KeyBackspace:    {code: 0x0E},
	ebiten.KeyTab:          {code: 0x0F},
	ebiten.KeyQ:            {code: 0x10},
	ebiten.KeyW:            {code: 0x11},
	ebiten.KeyE:            {code: 0x12},
	ebiten.KeyR:            {code: 0x13},
	ebiten.KeyT:            {code: 0x14},
	ebiten.KeyY:            {code: 0x15},
	ebiten.KeyU:            {code: 0x16},
	ebiten.KeyI:            {code: 0x17},
	ebiten.KeyO:            {code: 0x18},
	ebiten.KeyP:            {code: 0x19},
	ebiten.KeyBracketLeft:  {code: 0x1A},
	ebiten.KeyBracketRight: {code: 0x1B},
	ebiten.KeyEnter:        {code: 0x1C},
	ebiten.KeyControlLeft:  {code: 0x1D},
	ebiten.KeyA:            {code: 0x1E},
	ebiten.KeyS:            {code: 0x1F},
	ebiten.KeyD:            {code: 0x20},
	ebiten.KeyF:            {code: 0x21},
	ebiten.KeyG:            {code: 0x22},
	ebiten.KeyH:            {code: 0x23},
	ebiten.KeyJ:            {code: 0x24},
	ebiten.KeyK:            {code: 0x25},
	ebiten.KeyL:            {code: 0x26},
	ebiten.KeySemicolon:    {code: 0x27},
	ebiten.KeyQuote:        {code: 0x28},
	ebiten.KeyBackquote:    {code: 0x29},
	ebiten.KeyShiftLeft:    {code: 0x2A},
	ebiten.KeyBackslash:    {code: 0x2B},
	ebiten.KeyZ:            {code: 0x2C},
	ebiten.KeyX:            {code: 0x2D},
	ebiten.KeyC:            {code: 0x2E},
	ebiten.KeyV:            {code: 0x2F},
	ebiten.KeyB:            {code: 0x30},
	ebiten.KeyN:            {code: 0x31},
	ebiten.KeyM:            {code: 0x32},
	ebiten.KeyComma:        {code: 0x33},
	ebiten.KeyPeriod:       {code: 0x34},
	ebiten.KeySlash:        {code: 0x35},
	ebiten.KeyShiftRight:   {code: 0x36},
	ebiten.KeyAltLeft:      {code: 0x38},
	ebiten.KeySpace:        {code: 0x39},
	ebiten.KeyCapsLock:     {code: 0x3A},
	ebiten.KeyF1:           {code: 0x3B},
	ebiten.KeyF2:           {code: 0x3C},
	ebiten.KeyF3:           {code: 0x3D},
	ebiten.KeyF4:           {code: 0x3E},
	ebiten.KeyF5:           {code: 0x3F},
	ebiten.KeyF6:           {code: 0x40},
	ebiten.KeyF7:           {code: 0x41},
	ebiten.KeyF8:           {code: 0x42},
	ebiten.KeyF9:           {code: 0x43},
	ebiten.KeyF10:          {code: 0x44},
	ebiten.KeyF11:          {code: 0x57},
	ebiten.KeyF12:          {code: 0x58},
	ebiten.KeyControlRight: {code: 0x1D, extended: true},
	ebiten.KeyAltRight:     {code: 0x38, extended: true},
	ebiten.KeyHome:         {code: 0x47, extended: true},
	ebiten.KeyArrowUp:      {code: 0x48, extended: true},
	ebiten.KeyPageUp:       {code: 0x49, extended: true},
	ebiten.KeyArrowLeft:    {code: 0x4B, extended: true},
	ebiten.KeyArrowRight:   {code: 0x4D, extended: true},
	ebiten.KeyEnd:          {code: 0x4F, extended: true},
	ebiten.KeyArrowDown:    {code: 0x50, extended: true},
	ebiten.KeyPageDown:     {code: 0x51, extended: true},
	ebiten.KeyInsert:       {code: 0x52, extended: true},
	ebiten.KeyDelete:       {code: 0x53, extended: true},
}

func (k *hostKeyboard) poll() {
	k.pressed = inpututil.AppendJustPressedKeys(k.pressed[:0])
	k.release = inpututil.AppendJustReleasedKeys(k.release[:0])
	k.codes = k.codes[:0]

	for _, key := range k.pressed {
		k.codes = appendSet1(k.codes, key, false)
	}
	for _, key := range k.release {
		k.codes = appendSet1(k.codes, key, true)
	}
	if len(k.codes) > 0 {
		k.m.PressScancodes(k.codes...)
	}
}

func appendSet1(dst []uint8, key ebiten.Key, release bool) []uint8 {
	sk, ok := ebitenSet1[key]
	if !ok {
		return dst
	}
	if sk.extended {
		dst = append(dst, ScancodeExtended)
	}
	code := sk.code
	if release {
		code |= ScancodeReleaseBit
	}
	return append(dst, code)
}
