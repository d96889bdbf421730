package msgs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseError reports a recognized line whose fields are invalid.
type ParseError struct {
	Tag    string
	Line   string
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed %s line %q: %s", e.Tag, e.Line, e.Reason)
}

// IsParseError checks whether err is a ParseError for tag.
func IsParseError(err error, tag string) bool {
	perr, ok := errors.Cause(err).(*ParseError)
	return ok && perr.Tag == tag
}

func malformed(tag, line, reason string) error {
	return &ParseError{Tag: tag, Line: line, Reason: reason}
}

// split breaks "$TAG,f1,f2*" into TAG and fields.
func split(line string) (tag string, fields []string, ok bool) {
	if !strings.HasPrefix(line, "$") {
		return
	}
	star := strings.IndexByte(line, '*')
	if star < 0 {
		return
	}
	parts := strings.Split(line[1:star], ",")
	return parts[0], parts[1:], true
}

func parseReference(s string) (int8, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if v < ReferenceMin || v > ReferenceMax {
		return 0, errors.Errorf("%d out of range [%d, %d]", v, ReferenceMin, ReferenceMax)
	}
	return int8(v), nil
}

// ParseCommand decodes a host line. Unrecognized lines are returned as
// *Unknown without error. A recognized command with invalid fields
// returns a *ParseError.
func ParseCommand(line string) (Command, error) {
	tag, fields, ok := split(line)
	if !ok {
		return &Unknown{Text: line}, nil
	}
	switch tag {
	case TagReference:
		if len(fields) != 2 {
			return nil, malformed(tag, line, "expect speed and yaw")
		}
		speed, err := parseReference(fields[0])
		if err != nil {
			return nil, malformed(tag, line, "speed: "+err.Error())
		}
		yaw, err := parseReference(fields[1])
		if err != nil {
			return nil, malformed(tag, line, "yaw: "+err.Error())
		}
		return &SetReference{Speed: speed, Yaw: yaw}, nil
	case TagStart:
		return &Start{}, nil
	case TagStop:
		return &Stop{}, nil
	case TagRate:
		if len(fields) != 1 || fields[0] == "" {
			return nil, malformed(tag, line, "expect rate")
		}
		hz, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, malformed(tag, line, err.Error())
		}
		if !IsValidRate(hz) {
			return nil, malformed(tag, line, fmt.Sprintf("unsupported rate %d", hz))
		}
		return &SetRate{Hz: hz}, nil
	}
	return &Unknown{Text: line}, nil
}

func parseBit(tag, line string, fields []string) (bool, error) {
	if len(fields) != 1 || (fields[0] != "0" && fields[0] != "1") {
		return false, malformed(tag, line, "expect 0 or 1")
	}
	return fields[0] == "1", nil
}

func parseInts(tag, line string, fields []string, n int) ([]int, error) {
	if len(fields) != n {
		return nil, malformed(tag, line, fmt.Sprintf("expect %d fields", n))
	}
	vals := make([]int, n)
	for i, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, malformed(tag, line, err.Error())
		}
		vals[i] = v
	}
	return vals, nil
}

// ParseMessage decodes a robot line: telemetry or a reply.
func ParseMessage(line string) (Message, error) {
	tag, fields, ok := split(line)
	if !ok {
		return nil, errors.Errorf("not a protocol line: %q", line)
	}
	switch tag {
	case TagAck:
		accepted, err := parseBit(tag, line, fields)
		if err != nil {
			return nil, err
		}
		return &Ack{Accepted: accepted}, nil
	case TagOK:
		return &OK{}, nil
	case TagError:
		return &Error{Reason: strings.Join(fields, ",")}, nil
	case TagEmergency:
		active, err := parseBit(tag, line, fields)
		if err != nil {
			return nil, err
		}
		return &Emergency{Active: active}, nil
	case TagDistance:
		vals, err := parseInts(tag, line, fields, 1)
		if err != nil {
			return nil, err
		}
		return &Distance{Centimeters: vals[0]}, nil
	case TagAccel:
		vals, err := parseInts(tag, line, fields, 3)
		if err != nil {
			return nil, err
		}
		return &Accel{X: vals[0], Y: vals[1], Z: vals[2]}, nil
	case TagBattery:
		if len(fields) != 1 {
			return nil, malformed(tag, line, "expect voltage")
		}
		v, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, malformed(tag, line, err.Error())
		}
		return &Battery{Volts: v}, nil
	}
	return nil, errors.Errorf("unknown message %q", line)
}

// IsReply tells replies apart from telemetry.
func IsReply(msg Message) bool {
	switch msg.(type) {
	case *Ack, *OK, *Error:
		return true
	}
	return false
}
