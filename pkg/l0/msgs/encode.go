package msgs

import (
	"strconv"
	"strings"
)

func encode(tag string, fields ...string) string {
	var sb strings.Builder
	sb.WriteByte('$')
	sb.WriteString(tag)
	for _, f := range fields {
		sb.WriteByte(',')
		sb.WriteString(f)
	}
	sb.WriteByte('*')
	return sb.String()
}

func bit(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// Line implements Message.
func (m *SetReference) Line() string {
	return encode(TagReference, strconv.Itoa(int(m.Speed)), strconv.Itoa(int(m.Yaw)))
}

// Line implements Message.
func (m *Start) Line() string { return encode(TagStart, "") }

// Line implements Message.
func (m *Stop) Line() string { return encode(TagStop, "") }

// Line implements Message.
func (m *SetRate) Line() string { return encode(TagRate, strconv.Itoa(m.Hz)) }

// Line implements Message.
func (m *Unknown) Line() string { return m.Text }

// Line implements Message.
func (m *Ack) Line() string { return encode(TagAck, bit(m.Accepted)) }

// Line implements Message.
func (m *OK) Line() string { return encode(TagOK) }

// Line implements Message.
func (m *Error) Line() string { return encode(TagError, m.Reason) }

// Line implements Message.
func (m *Distance) Line() string { return encode(TagDistance, strconv.Itoa(m.Centimeters)) }

// Line implements Message.
func (m *Battery) Line() string {
	return encode(TagBattery, strconv.FormatFloat(m.Volts, 'f', 2, 64))
}

// Line implements Message.
func (m *Accel) Line() string {
	return encode(TagAccel, strconv.Itoa(m.X), strconv.Itoa(m.Y), strconv.Itoa(m.Z))
}

// Line implements Message.
func (m *Emergency) Line() string { return encode(TagEmergency, bit(m.Active)) }
