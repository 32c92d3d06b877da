package input

import (
	"sort"

	evdev "github.com/holoplot/go-evdev"
)

// keySymbols maps the scan codes we listen for to the symbols the key mapper
// understands. Everything else on the keyboard is ignored.
var keySymbols = map[uint16]string{
	uint16(evdev.KEY_A): "a",
	uint16(evdev.KEY_B): "b",
	uint16(evdev.KEY_C): "c",
	uint16(evdev.KEY_D): "d",
	uint16(evdev.KEY_E): "e",
	uint16(evdev.KEY_F): "f",
	uint16(evdev.KEY_G): "g",
	uint16(evdev.KEY_H): "h",
	uint16(evdev.KEY_I): "i",
	uint16(evdev.KEY_J): "j",
	uint16(evdev.KEY_K): "k",
	uint16(evdev.KEY_L): "l",
	uint16(evdev.KEY_M): "m",
}

// Symbol returns the symbol bound to a key code, if any.
func Symbol(code uint16) (string, bool) {
	s, ok := keySymbols[code]
	return s, ok
}

// Codes returns the bound key codes in ascending order.
func Codes() []uint16 {
	codes := make([]uint16, 0, len(keySymbols))
	for c := range keySymbols {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
