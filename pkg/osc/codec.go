package osc

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Codec errors.
var (
	// ErrBadAddress indicates a missing or malformed address pattern.
	ErrBadAddress = errors.New("bad address pattern")

	// ErrShortPacket indicates a truncated packet.
	ErrShortPacket = errors.New("short packet")

	// ErrBadTypeTag indicates a missing or malformed type tag string.
	ErrBadTypeTag = errors.New("bad type tag string")

	// ErrUnsupportedType indicates an argument type the codec does not handle.
	ErrUnsupportedType = errors.New("unsupported argument type")
)

// Encode serializes a message to OSC packet bytes. Encoding is
// deterministic: the same message always produces the same bytes.
func Encode(msg *Message) ([]byte, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writePaddedString(&buf, msg.Address)

	// Type tag string: ',' followed by one tag per argument.
	tags := make([]byte, 0, len(msg.Arguments)+1)
	tags = append(tags, ',')
	for _, arg := range msg.Arguments {
		tag, err := typeTag(arg)
		if err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	writePaddedString(&buf, string(tags))

	for _, arg := range msg.Arguments {
		if err := writeArgument(&buf, arg); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

// Decode parses OSC packet bytes into a message.
func Decode(data []byte) (*Message, error) {
	address, rest, err := readPaddedString(data)
	if err != nil {
		return nil, fmt.Errorf("reading address: %w", err)
	}

	msg := &Message{Address: address}
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	// A message with no arguments may omit the type tag string
	// entirely; old OSC implementations do this.
	if len(rest) == 0 {
		return msg, nil
	}

	tags, rest, err := readPaddedString(rest)
	if err != nil {
		return nil, fmt.Errorf("reading type tags: %w", err)
	}
	if len(tags) == 0 || tags[0] != ',' {
		return nil, fmt.Errorf("%w: %q", ErrBadTypeTag, tags)
	}

	for _, tag := range tags[1:] {
		var arg any
		arg, rest, err = readArgument(tag, rest)
		if err != nil {
			return nil, err
		}
		msg.Arguments = append(msg.Arguments, arg)
	}

	return msg, nil
}

// typeTag returns the OSC type tag for an argument value.
func typeTag(arg any) (byte, error) {
	switch arg.(type) {
	case int32, int:
		return 'i', nil
	case float32, float64:
		return 'f', nil
	case string:
		return 's', nil
	case []byte:
		return 'b', nil
	default:
		return 0, fmt.Errorf("%w: %T", ErrUnsupportedType, arg)
	}
}

func writeArgument(buf *bytes.Buffer, arg any) error {
	switch v := arg.(type) {
	case int32:
		return binary.Write(buf, binary.BigEndian, v)
	case int:
		return binary.Write(buf, binary.BigEndian, int32(v))
	case float32:
		return binary.Write(buf, binary.BigEndian, v)
	case float64:
		return binary.Write(buf, binary.BigEndian, float32(v))
	case string:
		writePaddedString(buf, v)
		return nil
	case []byte:
		if err := binary.Write(buf, binary.BigEndian, int32(len(v))); err != nil {
			return err
		}
		buf.Write(v)
		writePadding(buf, len(v))
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedType, arg)
	}
}

func readArgument(tag rune, data []byte) (any, []byte, error) {
	switch tag {
	case 'i':
		if len(data) < 4 {
			return nil, nil, fmt.Errorf("%w: int32 argument", ErrShortPacket)
		}
		return int32(binary.BigEndian.Uint32(data)), data[4:], nil
	case 'f':
		if len(data) < 4 {
			return nil, nil, fmt.Errorf("%w: float32 argument", ErrShortPacket)
		}
		bits := binary.BigEndian.Uint32(data)
		return math.Float32frombits(bits), data[4:], nil
	case 's':
		s, rest, err := readPaddedString(data)
		if err != nil {
			return nil, nil, fmt.Errorf("string argument: %w", err)
		}
		return s, rest, nil
	case 'b':
		if len(data) < 4 {
			return nil, nil, fmt.Errorf("%w: blob length", ErrShortPacket)
		}
		n := int(int32(binary.BigEndian.Uint32(data)))
		data = data[4:]
		if n < 0 || len(data) < n {
			return nil, nil, fmt.Errorf("%w: blob of %d bytes", ErrShortPacket, n)
		}
		blob := make([]byte, n)
		copy(blob, data[:n])
		end := n + padLen(n)
		if end > len(data) {
			return nil, nil, fmt.Errorf("%w: blob padding", ErrShortPacket)
		}
		return blob, data[end:], nil
	default:
		return nil, nil, fmt.Errorf("%w: tag %q", ErrUnsupportedType, tag)
	}
}

// writePaddedString writes s with a NUL terminator, padded to a 4-byte
// boundary.
func writePaddedString(buf *bytes.Buffer, s string) {
	buf.WriteString(s)
	buf.WriteByte(0)
	writePadding(buf, len(s)+1)
}

// writePadding pads n written bytes up to the next 4-byte boundary.
func writePadding(buf *bytes.Buffer, n int) {
	for i := 0; i < padLen(n); i++ {
		buf.WriteByte(0)
	}
}

// padLen returns how many padding bytes follow n content bytes.
func padLen(n int) int {
	if r := n % 4; r != 0 {
		return 4 - r
	}
	return 0
}

// readPaddedString reads a NUL-terminated padded string, returning the
// string and the remaining bytes.
func readPaddedString(data []byte) (string, []byte, error) {
	nul := bytes.IndexByte(data, 0)
	if nul < 0 {
		return "", nil, fmt.Errorf("%w: unterminated string", ErrShortPacket)
	}
	s := string(data[:nul])

	// Consume the terminator and padding together.
	total := nul + 1 + padLen(nul+1)
	if total > len(data) {
		return "", nil, fmt.Errorf("%w: string padding", ErrShortPacket)
	}
	return s, data[total:], nil
}
