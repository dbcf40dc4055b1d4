package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridosc-protocol/gridosc-go/pkg/osc"
)

func TestKeyEventMessage(t *testing.T) {
	ev := KeyEvent{X: 2, Y: 5, State: KeyDown}

	msg := ev.Message("")
	assert.Equal(t, "/grid/key", msg.Address)
	assert.Equal(t, []any{int32(2), int32(5), int32(1)}, msg.Arguments)

	msg = ev.Message("/monome")
	assert.Equal(t, "/monome/grid/key", msg.Address)
}

func TestKeyEventString(t *testing.T) {
	ev := KeyEvent{X: 2, Y: 5, State: KeyDown}
	assert.Equal(t, "/grid/key 2 5 1", ev.String())
}

func TestConnectionEventMessages(t *testing.T) {
	msg := ConnectEvent{}.Message("/monome")
	assert.Equal(t, "/monome/sys/connect", msg.Address)
	assert.Empty(t, msg.Arguments)

	msg = DisconnectEvent{}.Message("")
	assert.Equal(t, "/sys/disconnect", msg.Address)
	assert.Empty(t, msg.Arguments)
}

func TestKeyEventWireRoundTrip(t *testing.T) {
	// Encode a key-down at (2, 5) through the codec and decode it back
	// into an event.
	ev := KeyEvent{X: 2, Y: 5, State: KeyDown}

	data, err := osc.Encode(ev.Message("/monome"))
	require.NoError(t, err)

	msg, err := osc.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "/monome/grid/key", msg.Address)

	decoded, err := ParseEventWithPrefix("/monome", msg.Address, msg.Arguments)
	require.NoError(t, err)
	assert.Equal(t, ev, decoded)
}

func TestParseEvent(t *testing.T) {
	ev, err := ParseEvent(AddrKey, ints(0, 7, 0))
	require.NoError(t, err)
	assert.Equal(t, KeyEvent{X: 0, Y: 7, State: KeyUp}, ev)

	ev, err = ParseEvent(AddrConnect, nil)
	require.NoError(t, err)
	assert.Equal(t, ConnectEvent{}, ev)

	ev, err = ParseEvent(AddrDisconnect, nil)
	require.NoError(t, err)
	assert.Equal(t, DisconnectEvent{}, ev)
}

func TestParseEventErrors(t *testing.T) {
	tests := []struct {
		name    string
		address string
		args    []any
		reason  Reason
	}{
		{name: "unknown address", address: "/grid/tilt", args: ints(0), reason: ReasonUnknownAddress},
		{name: "key missing state", address: AddrKey, args: ints(2, 5), reason: ReasonBadArgumentCount},
		{name: "key non-integer", address: AddrKey, args: []any{int32(2), float32(5), int32(1)}, reason: ReasonBadArgumentType},
		{name: "connect with arguments", address: AddrConnect, args: ints(1), reason: ReasonBadArgumentCount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseEvent(tt.address, tt.args)
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.reason, perr.Reason)
		})
	}
}

func TestEventAddressesDistinctFromCommands(t *testing.T) {
	// The inbound and outbound tables must not overlap; an address is
	// either a command or an event, never both.
	for addr := range eventTable {
		_, isCommand := commandTable[addr]
		assert.False(t, isCommand, "address %s in both tables", addr)
	}
}
