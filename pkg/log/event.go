package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// EndpointID uniquely identifies the local transport endpoint (UUID).
	EndpointID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// DeviceID is the serialosc device identifier, when known.
	DeviceID string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (exactly one is set).
	Packet      *PacketEvent      `cbor:"10,keyasint,omitempty"` // Transport layer
	Message     *MessageEvent     `cbor:"11,keyasint,omitempty"` // Wire layer (decoded)
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Session state
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the UDP datagram layer (raw bytes).
	LayerTransport Layer = 0
	// LayerWire is the OSC encoding layer (decoded messages).
	LayerWire Layer = 1
	// LayerSession is the device session layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerWire:
		return "WIRE"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryPacket indicates a raw UDP datagram.
	CategoryPacket Category = 0
	// CategoryMessage indicates a decoded OSC message.
	CategoryMessage Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryPacket:
		return "PACKET"
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// PacketEvent captures a raw datagram at the transport layer.
type PacketEvent struct {
	// Size is the datagram size in bytes.
	Size int `cbor:"1,keyasint"`

	// Data is the raw bytes (may be truncated for large datagrams).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// MessageEvent captures a decoded OSC message at the wire layer.
type MessageEvent struct {
	// Address is the OSC address pattern, as seen on the wire
	// (prefix included).
	Address string `cbor:"1,keyasint"`

	// Arguments are the decoded scalar arguments.
	Arguments []any `cbor:"2,keyasint,omitempty"`
}

// StateChangeEvent captures session lifecycle changes.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`

	// Context is additional context (e.g. the offending address).
	Context string `cbor:"3,keyasint,omitempty"`
}
