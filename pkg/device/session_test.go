package device

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridosc-protocol/gridosc-go/pkg/osc"
	"github.com/gridosc-protocol/gridosc-go/pkg/proto"
)

// fakeDevice is a loopback UDP peer standing in for a grid's OSC
// server. It records everything it receives and can send events back
// to the last peer that spoke to it.
type fakeDevice struct {
	t    *testing.T
	conn *net.UDPConn

	mu       sync.Mutex
	received []*osc.Message
	peer     *net.UDPAddr
}

func newFakeDevice(t *testing.T) *fakeDevice {
	t.Helper()

	addr, err := net.ResolveUDPAddr("udp", "127.0.0.1:0")
	require.NoError(t, err)
	conn, err := net.ListenUDP("udp", addr)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	d := &fakeDevice{t: t, conn: conn}
	go d.run()
	return d
}

func (d *fakeDevice) run() {
	buf := make([]byte, 4096)
	for {
		n, from, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		msg, err := osc.Decode(data)
		if err != nil {
			continue
		}
		d.mu.Lock()
		d.received = append(d.received, msg)
		d.peer = from
		d.mu.Unlock()
	}
}

func (d *fakeDevice) port() int {
	return d.conn.LocalAddr().(*net.UDPAddr).Port
}

func (d *fakeDevice) messages() []*osc.Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*osc.Message, len(d.received))
	copy(out, d.received)
	return out
}

// waitFor blocks until pred matches one received message or the
// timeout elapses.
func (d *fakeDevice) waitFor(pred func(*osc.Message) bool) *osc.Message {
	d.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		for _, msg := range d.messages() {
			if pred(msg) {
				return msg
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	d.t.Fatal("timed out waiting for message")
	return nil
}

// sendToSession transmits a message to the session's local endpoint.
func (d *fakeDevice) sendToSession(to *net.UDPAddr, msg *osc.Message) {
	d.t.Helper()
	data, err := osc.Encode(msg)
	require.NoError(d.t, err)
	_, err = d.conn.WriteToUDP(data, to)
	require.NoError(d.t, err)
}

func newTestSession(t *testing.T, dev *fakeDevice) *Session {
	t.Helper()
	s, err := Dial(Config{
		Host:       "127.0.0.1",
		Port:       dev.port(),
		ListenAddr: "127.0.0.1:0",
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestDialRequiresPort(t *testing.T) {
	_, err := Dial(Config{Host: "127.0.0.1"})
	assert.ErrorIs(t, err, ErrNoPort)
}

func TestDialDefaults(t *testing.T) {
	dev := newFakeDevice(t)
	s := newTestSession(t, dev)

	assert.Equal(t, DefaultPrefix, s.Prefix())
	assert.NotZero(t, s.LocalAddr().Port)
}

func TestSubscribeHandshake(t *testing.T) {
	dev := newFakeDevice(t)
	s := newTestSession(t, dev)

	require.NoError(t, s.Subscribe())

	host := dev.waitFor(func(m *osc.Message) bool { return m.Address == AddrSysHost })
	assert.Equal(t, []any{"127.0.0.1"}, host.Arguments)

	port := dev.waitFor(func(m *osc.Message) bool { return m.Address == AddrSysPort })
	assert.Equal(t, []any{int32(s.LocalAddr().Port)}, port.Arguments)

	prefix := dev.waitFor(func(m *osc.Message) bool { return m.Address == AddrSysPrefix })
	assert.Equal(t, []any{DefaultPrefix}, prefix.Arguments)

	dev.waitFor(func(m *osc.Message) bool { return m.Address == AddrSysInfo })
}

func TestLEDSenders(t *testing.T) {
	tests := []struct {
		name     string
		send     func(s *Session) error
		wantAddr string
		wantArgs []any
	}{
		{
			name:     "set",
			send:     func(s *Session) error { return s.LEDSet(2, 5, 1) },
			wantAddr: "/monome/grid/led/set",
			wantArgs: []any{int32(2), int32(5), int32(1)},
		},
		{
			name:     "all",
			send:     func(s *Session) error { return s.LEDAll(0) },
			wantAddr: "/monome/grid/led/all",
			wantArgs: []any{int32(0)},
		},
		{
			name:     "level set",
			send:     func(s *Session) error { return s.LEDLevelSet(3, 4, 11) },
			wantAddr: "/monome/grid/led/level/set",
			wantArgs: []any{int32(3), int32(4), int32(11)},
		},
		{
			name:     "level all",
			send:     func(s *Session) error { return s.LEDLevelAll(7) },
			wantAddr: "/monome/grid/led/level/all",
			wantArgs: []any{int32(7)},
		},
		{
			name: "level row",
			send: func(s *Session) error {
				return s.LEDLevelRow(0, 2, 1, 2, 3, 4, 5, 6, 7, 8)
			},
			wantAddr: "/monome/grid/led/level/row",
			wantArgs: []any{
				int32(0), int32(2),
				int32(1), int32(2), int32(3), int32(4),
				int32(5), int32(6), int32(7), int32(8),
			},
		},
		{
			name:     "row mask",
			send:     func(s *Session) error { return s.LEDRow(0, 3, 0xA5) },
			wantAddr: "/monome/grid/led/row",
			wantArgs: []any{int32(0), int32(3), int32(0xA5)},
		},
		{
			name:     "intensity",
			send:     func(s *Session) error { return s.LEDIntensity(9) },
			wantAddr: "/monome/grid/led/intensity",
			wantArgs: []any{int32(9)},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			dev := newFakeDevice(t)
			s := newTestSession(t, dev)

			require.NoError(t, tc.send(s))

			msg := dev.waitFor(func(m *osc.Message) bool { return m.Address == tc.wantAddr })
			assert.Equal(t, tc.wantArgs, msg.Arguments)
		})
	}
}

func TestSendRejectsMalformedCommand(t *testing.T) {
	dev := newFakeDevice(t)
	s := newTestSession(t, dev)

	// 7 levels is not a multiple of 8; the session refuses to transmit.
	err := s.LEDLevelRow(0, 2, 1, 2, 3, 4, 5, 6, 7)
	var parseErr *proto.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, proto.ReasonBadShape, parseErr.Reason)

	err = s.LEDLevelMap(0, 0, make([]int, 63)...)
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, proto.ReasonBadShape, parseErr.Reason)
}

func TestKeyEventCallback(t *testing.T) {
	dev := newFakeDevice(t)
	s := newTestSession(t, dev)

	keys := make(chan proto.KeyEvent, 1)
	s.OnKey(func(ev proto.KeyEvent) { keys <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Serve(ctx)
	}()

	dev.sendToSession(s.LocalAddr(), osc.NewMessage("/monome/grid/key", int32(2), int32(5), int32(1)))

	select {
	case ev := <-keys:
		assert.Equal(t, proto.KeyEvent{X: 2, Y: 5, State: proto.KeyDown}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for key event")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("serve loop did not stop")
	}
}

func TestLifecycleCallbacks(t *testing.T) {
	dev := newFakeDevice(t)
	s := newTestSession(t, dev)

	connects := make(chan struct{}, 1)
	disconnects := make(chan struct{}, 1)
	s.OnConnect(func() { connects <- struct{}{} })
	s.OnDisconnect(func() { disconnects <- struct{}{} })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	dev.sendToSession(s.LocalAddr(), osc.NewMessage(proto.AddrConnect))
	select {
	case <-connects:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connect")
	}

	dev.sendToSession(s.LocalAddr(), osc.NewMessage(proto.AddrDisconnect))
	select {
	case <-disconnects:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for disconnect")
	}
}

func TestSysRepliesUpdateInfo(t *testing.T) {
	dev := newFakeDevice(t)
	s := newTestSession(t, dev)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	local := s.LocalAddr()
	dev.sendToSession(local, osc.NewMessage(AddrSysID, "m0000123"))
	dev.sendToSession(local, osc.NewMessage(AddrSysSize, int32(16), int32(8)))
	dev.sendToSession(local, osc.NewMessage(AddrSysPrefix, "/monome"))
	dev.sendToSession(local, osc.NewMessage(AddrSysRotation, int32(90)))

	want := Info{ID: "m0000123", Prefix: "/monome", Rows: 8, Cols: 16, Rotation: 90}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.Info() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	assert.Equal(t, want, s.Info())
}

func TestUnknownInboundIsIgnored(t *testing.T) {
	dev := newFakeDevice(t)
	s := newTestSession(t, dev)

	keys := make(chan proto.KeyEvent, 1)
	s.OnKey(func(ev proto.KeyEvent) { keys <- ev })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Serve(ctx)

	local := s.LocalAddr()
	dev.sendToSession(local, osc.NewMessage("/monome/enc/delta", int32(0), int32(3)))
	dev.sendToSession(local, osc.NewMessage("/monome/grid/key", int32(1), int32(1), int32(0)))

	select {
	case ev := <-keys:
		assert.Equal(t, proto.KeyEvent{X: 1, Y: 1, State: proto.KeyUp}, ev)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for key event")
	}
}
