package osc

import (
	"fmt"
	"strings"
)

// Message represents a decoded OSC message: an address pattern and an
// ordered list of scalar arguments.
//
// Arguments hold the decoded Go values: int32, float32, string or
// []byte. Encoding additionally accepts int and float64 for
// convenience; they are narrowed to int32 and float32 on the wire.
type Message struct {
	Address   string
	Arguments []any
}

// NewMessage creates a message for the given address and arguments.
func NewMessage(address string, args ...any) *Message {
	return &Message{Address: address, Arguments: args}
}

// Validate checks that the message has a well-formed address pattern.
func (m *Message) Validate() error {
	if m.Address == "" {
		return fmt.Errorf("%w: empty address", ErrBadAddress)
	}
	if !strings.HasPrefix(m.Address, "/") {
		return fmt.Errorf("%w: %q does not start with '/'", ErrBadAddress, m.Address)
	}
	return nil
}

// String renders the message in the conventional one-line debug form:
// the address followed by each argument, space-separated.
func (m *Message) String() string {
	var b strings.Builder
	b.WriteString(m.Address)
	for _, arg := range m.Arguments {
		b.WriteByte(' ')
		switch v := arg.(type) {
		case []byte:
			fmt.Fprintf(&b, "blob[%d]", len(v))
		default:
			fmt.Fprintf(&b, "%v", v)
		}
	}
	return b.String()
}
