// Package input decodes the raw byte stream of a Linux event device
// (/dev/input/eventN) into input_event records.
package input

import (
	"encoding/binary"
	"fmt"

	evdev "github.com/holoplot/go-evdev"
)

// RecordSize is the width of struct input_event on 64-bit Linux: a 16-byte
// timeval followed by type, code and value.
const RecordSize = 24

const (
	typeOffset  = 16
	codeOffset  = 18
	valueOffset = 20
)

// Values carried by EV_KEY records.
const (
	ValueReleased int32 = 0
	ValuePressed  int32 = 1
	ValueRepeat   int32 = 2
)

// Record is the consumed part of one input_event. The timestamp is skipped.
type Record struct {
	Type  uint16
	Code  uint16
	Value int32
}

// Decode reads a record from the first RecordSize bytes of b. It panics if b
// is shorter than RecordSize.
func Decode(b []byte) Record {
	_ = b[RecordSize-1]
	return Record{
		Type:  binary.LittleEndian.Uint16(b[typeOffset:]),
		Code:  binary.LittleEndian.Uint16(b[codeOffset:]),
		Value: int32(binary.LittleEndian.Uint32(b[valueOffset:])),
	}
}

// IsKeyPress reports whether r is an EV_KEY record for a key going down.
// Releases and autorepeat are not presses.
func (r Record) IsKeyPress() bool {
	return r.Type == uint16(evdev.EV_KEY) && r.Value == ValuePressed
}

func (r Record) String() string {
	t := evdev.EvType(r.Type)
	return fmt.Sprintf("%s %s value=%d", evdev.TypeName(t), evdev.CodeName(t, evdev.EvCode(r.Code)), r.Value)
}
