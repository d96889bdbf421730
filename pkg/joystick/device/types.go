// Package device reads Linux joystick devices (/dev/input/jsN).
package device

import (
	"encoding/binary"
	"errors"
	"io"
)

// ErrUnsupported is returned by Open where joystick devices are not
// available.
var ErrUnsupported = errors.New("joystick not supported on this platform")

// Event defines the base event interface.
type Event interface {
	// IsInit indicates this is the init state.
	IsInit() bool
	// Index returns either Axis or Button index.
	Index() int
}

// AxisEvent represents the change on an axis.
type AxisEvent interface {
	Event
	Value() int
}

// ButtonEvent represents the change on a button.
type ButtonEvent interface {
	Event
	Pressed() bool
}

// Device represents an opened joystick.
type Device interface {
	io.Closer
	// Index returns the index of the device on the system.
	Index() int
	// Name returns the name of the device.
	Name() string
	// AxisCount returns the number of Axis on the device.
	AxisCount() int
	// ButtonCount returns the number of buttons on the device.
	ButtonCount() int
	// ReadEvent reads one event from the device.
	ReadEvent() (Event, error)
}

// AxisMax is the magnitude of a fully deflected axis.
const AxisMax = 32767

// EventSize is the size of a js_event record.
const EventSize = 8

const (
	evINIT uint8 = 0x80
	evBTN  uint8 = 0x01
	evAXIS uint8 = 0x02
)

type event struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

func (e *event) IsInit() bool {
	return e.Type&evINIT != 0
}

func (e *event) Index() int {
	return int(e.Number)
}

type axisEvent struct {
	event
}

func (e *axisEvent) Value() int {
	return int(e.event.Value)
}

type buttonEvent struct {
	event
}

func (e *buttonEvent) Pressed() bool {
	return e.Value != 0
}

// Decode decodes a js_event record. Records of unknown types decode to a
// plain Event.
func Decode(buf []byte) (Event, error) {
	if len(buf) < EventSize {
		return nil, io.ErrUnexpectedEOF
	}
	ev := event{
		Time:   binary.LittleEndian.Uint32(buf),
		Value:  int16(binary.LittleEndian.Uint16(buf[4:])),
		Type:   buf[6],
		Number: buf[7],
	}
	switch ev.Type &^ evINIT {
	case evBTN:
		return &buttonEvent{event: ev}, nil
	case evAXIS:
		return &axisEvent{event: ev}, nil
	}
	return &ev, nil
}

// Encode encodes an axis or button record, used by simulated devices.
func Encode(typ uint8, number uint8, value int16, init bool) []byte {
	buf := make([]byte, EventSize)
	binary.LittleEndian.PutUint16(buf[4:], uint16(value))
	if init {
		typ |= evINIT
	}
	buf[6], buf[7] = typ, number
	return buf
}

// Event types for Encode.
const (
	TypeButton = evBTN
	TypeAxis   = evAXIS
)
