package discovery

import (
	"context"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridosc-protocol/gridosc-go/pkg/osc"
	"github.com/gridosc-protocol/gridosc-go/pkg/transport"
)

// fakeDaemon emulates the serialosc daemon on a loopback socket: it
// answers /serialosc/list with one /serialosc/device reply per device.
type fakeDaemon struct {
	ep      *transport.Endpoint
	devices []Device
}

func startFakeDaemon(t *testing.T, devices []Device) *fakeDaemon {
	t.Helper()
	ep, err := transport.Listen(transport.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	t.Cleanup(func() { ep.Close() })

	d := &fakeDaemon{ep: ep, devices: devices}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() {
		_ = ep.Serve(ctx, func(from *net.UDPAddr, msg *osc.Message) {
			if msg.Address != addrList || len(msg.Arguments) != 2 {
				return
			}
			host, _ := msg.Arguments[0].(string)
			port, _ := msg.Arguments[1].(int32)
			reply, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
			if err != nil {
				return
			}
			for _, dev := range d.devices {
				_ = ep.Send(reply, osc.NewMessage(addrDevice, dev.ID, dev.Type, int32(dev.Port)))
			}
		})
	}()

	return d
}

func (d *fakeDaemon) addr() string {
	return d.ep.LocalAddr().String()
}

func TestListDevices(t *testing.T) {
	daemon := startFakeDaemon(t, []Device{
		{ID: "m0000123", Type: "monome 128", Port: 14562},
		{ID: "m0000456", Type: "monome 64", Port: 14563},
	})

	lister := NewLister(ListerConfig{
		SerialoscAddr: daemon.addr(),
		Timeout:       500 * time.Millisecond,
	})

	devices, err := lister.List(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)

	byID := map[string]Device{}
	for _, dev := range devices {
		byID[dev.ID] = dev
	}
	assert.Equal(t, "monome 128", byID["m0000123"].Type)
	assert.Equal(t, 14562, byID["m0000123"].Port)
	assert.Equal(t, "127.0.0.1", byID["m0000123"].Host)
	assert.Equal(t, "monome 64", byID["m0000456"].Type)
}

func TestListNoDevices(t *testing.T) {
	daemon := startFakeDaemon(t, nil)

	lister := NewLister(ListerConfig{
		SerialoscAddr: daemon.addr(),
		Timeout:       200 * time.Millisecond,
	})

	devices, err := lister.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, devices)
}

func TestListerDefaults(t *testing.T) {
	l := NewLister(ListerConfig{})
	assert.Equal(t, DefaultSerialoscAddr, l.config.SerialoscAddr)
	assert.Equal(t, DefaultTimeout, l.config.Timeout)
}

func TestNotify(t *testing.T) {
	// A daemon that answers the first /serialosc/notify with one
	// attach notification.
	ep, err := transport.Listen(transport.Config{ListenAddr: "127.0.0.1:0"})
	require.NoError(t, err)
	defer ep.Close()

	daemonCtx, daemonCancel := context.WithCancel(context.Background())
	defer daemonCancel()
	notified := false
	go func() {
		_ = ep.Serve(daemonCtx, func(from *net.UDPAddr, msg *osc.Message) {
			if msg.Address != addrNotify || notified {
				return
			}
			notified = true
			host, _ := msg.Arguments[0].(string)
			port, _ := msg.Arguments[1].(int32)
			reply, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", host, port))
			if err != nil {
				return
			}
			_ = ep.Send(reply, osc.NewMessage(addrAdd, "m0000123"))
		})
	}()

	lister := NewLister(ListerConfig{SerialoscAddr: ep.LocalAddr().String()})

	got := make(chan string, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = lister.Notify(ctx, func(id string, added bool) {
			if added {
				got <- id
			}
		})
	}()

	select {
	case id := <-got:
		assert.Equal(t, "m0000123", id)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for attach notification")
	}
}

func TestDeviceFromMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  *osc.Message
		want Device
		ok   bool
	}{
		{
			name: "valid reply",
			msg:  osc.NewMessage(addrDevice, "m0000123", "monome 128", int32(14562)),
			want: Device{ID: "m0000123", Type: "monome 128", Port: 14562},
			ok:   true,
		},
		{
			name: "wrong address",
			msg:  osc.NewMessage("/serialosc/other", "m0000123", "monome 128", int32(14562)),
		},
		{
			name: "missing port",
			msg:  osc.NewMessage(addrDevice, "m0000123", "monome 128"),
		},
		{
			name: "port wrong type",
			msg:  osc.NewMessage(addrDevice, "m0000123", "monome 128", "14562"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, ok := deviceFromMessage(tt.msg)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, dev)
			}
		})
	}
}

func TestEntryToDeviceConversion(t *testing.T) {
	// Exercised without a network through the conversion helper.
	dev, ok := entryToDevice(nil)
	assert.False(t, ok)
	assert.Zero(t, dev)
}
