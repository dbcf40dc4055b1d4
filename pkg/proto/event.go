package proto

import (
	"fmt"

	"github.com/gridosc-protocol/gridosc-go/pkg/osc"
)

// Event addresses, without any device prefix.
const (
	AddrKey        = "/grid/key"
	AddrConnect    = "/sys/connect"
	AddrDisconnect = "/sys/disconnect"
)

// Key transition states.
const (
	KeyUp   = 0
	KeyDown = 1
)

// Event is information flowing from the device: a key transition or a
// connection lifecycle change. Events are stateless value objects that
// encode themselves as OSC messages.
//
// The set of implementations is closed, like Command.
type Event interface {
	// Address returns the event's protocol address, unprefixed.
	Address() string

	// Message renders the event as an OSC message. A non-empty prefix
	// is prepended to the address.
	Message(prefix string) *osc.Message

	isEvent()
}

// KeyEvent is a button press (State 1) or release (State 0) at (X, Y).
type KeyEvent struct {
	X     int
	Y     int
	State int
}

func (e KeyEvent) isEvent() {}

// Address returns "/grid/key".
func (e KeyEvent) Address() string {
	return AddrKey
}

// Message renders the event with arguments x, y, state.
func (e KeyEvent) Message(prefix string) *osc.Message {
	return osc.NewMessage(prefix+AddrKey, int32(e.X), int32(e.Y), int32(e.State))
}

// String renders the event as "<address> <x> <y> <state>".
func (e KeyEvent) String() string {
	return fmt.Sprintf("%s %d %d %d", AddrKey, e.X, e.Y, e.State)
}

// ConnectEvent signals that the device has connected.
type ConnectEvent struct{}

func (ConnectEvent) isEvent() {}

// Address returns "/sys/connect".
func (ConnectEvent) Address() string {
	return AddrConnect
}

// Message renders the event with no arguments.
func (ConnectEvent) Message(prefix string) *osc.Message {
	return osc.NewMessage(prefix + AddrConnect)
}

// DisconnectEvent signals that the device has disconnected.
type DisconnectEvent struct{}

func (DisconnectEvent) isEvent() {}

// Address returns "/sys/disconnect".
func (DisconnectEvent) Address() string {
	return AddrDisconnect
}

// Message renders the event with no arguments.
func (DisconnectEvent) Message(prefix string) *osc.Message {
	return osc.NewMessage(prefix + AddrDisconnect)
}

// eventTable is the dispatch table for the inbound event direction,
// used by clients decoding device-originated messages.
var eventTable = map[string]func(addr string, args []any) (Event, *ParseError){
	AddrKey:        parseKeyEvent,
	AddrConnect:    parseConnectEvent,
	AddrDisconnect: parseDisconnectEvent,
}

// ParseEvent decodes a device-originated message into an event, with
// the same validation and error taxonomy as Parse.
func ParseEvent(address string, args []any) (Event, error) {
	fn, ok := eventTable[address]
	if !ok {
		return nil, parseErrorf(address, ReasonUnknownAddress, "no event at this address")
	}
	ev, perr := fn(address, args)
	if perr != nil {
		return nil, perr
	}
	return ev, nil
}

// ParseEventWithPrefix strips the device prefix before dispatching.
func ParseEventWithPrefix(prefix, address string, args []any) (Event, error) {
	return ParseEvent(StripPrefix(prefix, address), args)
}

func parseKeyEvent(addr string, args []any) (Event, *ParseError) {
	if perr := exactArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return KeyEvent{X: v[0], Y: v[1], State: v[2]}, nil
}

func parseConnectEvent(addr string, args []any) (Event, *ParseError) {
	if perr := exactArgs(addr, args, 0); perr != nil {
		return nil, perr
	}
	return ConnectEvent{}, nil
}

func parseDisconnectEvent(addr string, args []any) (Event, *ParseError) {
	if perr := exactArgs(addr, args, 0); perr != nil {
		return nil, perr
	}
	return DisconnectEvent{}, nil
}
