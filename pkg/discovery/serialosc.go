package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gridosc-protocol/gridosc-go/pkg/log"
	"github.com/gridosc-protocol/gridosc-go/pkg/osc"
	"github.com/gridosc-protocol/gridosc-go/pkg/transport"
)

// ListerConfig configures serialosc enumeration.
type ListerConfig struct {
	// SerialoscAddr is the daemon address (default: 127.0.0.1:12002).
	SerialoscAddr string

	// Timeout bounds how long List waits for device replies
	// (default: 2s). The daemon sends all replies immediately, so the
	// timeout only matters when it is unreachable.
	Timeout time.Duration

	// Logger receives protocol events. Nil disables logging.
	Logger log.Logger
}

// DefaultListerConfig returns the default enumeration configuration.
func DefaultListerConfig() ListerConfig {
	return ListerConfig{
		SerialoscAddr: DefaultSerialoscAddr,
		Timeout:       DefaultTimeout,
	}
}

// Lister enumerates devices through the serialosc daemon.
type Lister struct {
	config ListerConfig
}

// NewLister creates a Lister with the given configuration. Zero-value
// fields fall back to defaults.
func NewLister(config ListerConfig) *Lister {
	if config.SerialoscAddr == "" {
		config.SerialoscAddr = DefaultSerialoscAddr
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout
	}
	return &Lister{config: config}
}

// List asks the daemon for all attached devices and returns them once
// the reply window closes.
func (l *Lister) List(ctx context.Context) ([]Device, error) {
	daemonAddr, err := net.ResolveUDPAddr("udp", l.config.SerialoscAddr)
	if err != nil {
		return nil, fmt.Errorf("resolving serialosc address: %w", err)
	}

	ep, err := transport.Listen(transport.Config{
		ListenAddr: "127.0.0.1:0",
		Logger:     l.config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("binding reply socket: %w", err)
	}
	defer ep.Close()

	ctx, cancel := context.WithTimeout(ctx, l.config.Timeout)
	defer cancel()

	found := make(chan Device, 16)
	go func() {
		_ = ep.Serve(ctx, func(from *net.UDPAddr, msg *osc.Message) {
			if dev, ok := deviceFromMessage(msg); ok {
				dev.Host = from.IP.String()
				select {
				case found <- dev:
				case <-ctx.Done():
				}
			}
		})
	}()

	// The daemon replies to the host/port named in the request.
	local := ep.LocalAddr()
	req := osc.NewMessage(addrList, local.IP.String(), int32(local.Port))
	if err := ep.Send(daemonAddr, req); err != nil {
		return nil, fmt.Errorf("querying serialosc: %w", err)
	}

	var devices []Device
	for {
		select {
		case dev := <-found:
			devices = append(devices, dev)
		case <-ctx.Done():
			return devices, nil
		}
	}
}

// Notify subscribes to device attach/detach notifications. The
// callback receives the device serial and whether it was added. Notify
// blocks until ctx is cancelled.
//
// serialosc disarms a notification after delivering it, so the
// subscription is re-armed after every event.
func (l *Lister) Notify(ctx context.Context, callback func(id string, added bool)) error {
	daemonAddr, err := net.ResolveUDPAddr("udp", l.config.SerialoscAddr)
	if err != nil {
		return fmt.Errorf("resolving serialosc address: %w", err)
	}

	ep, err := transport.Listen(transport.Config{
		ListenAddr: "127.0.0.1:0",
		Logger:     l.config.Logger,
	})
	if err != nil {
		return fmt.Errorf("binding reply socket: %w", err)
	}
	defer ep.Close()

	local := ep.LocalAddr()
	arm := func() error {
		req := osc.NewMessage(addrNotify, local.IP.String(), int32(local.Port))
		return ep.Send(daemonAddr, req)
	}
	if err := arm(); err != nil {
		return fmt.Errorf("subscribing to serialosc: %w", err)
	}

	return ep.Serve(ctx, func(from *net.UDPAddr, msg *osc.Message) {
		var added bool
		switch msg.Address {
		case addrAdd:
			added = true
		case addrRemove:
			added = false
		default:
			return
		}
		if len(msg.Arguments) < 1 {
			return
		}
		id, ok := msg.Arguments[0].(string)
		if !ok {
			return
		}
		callback(id, added)
		_ = arm()
	})
}

// deviceFromMessage converts a /serialosc/device reply (id, type,
// port) into a Device.
func deviceFromMessage(msg *osc.Message) (Device, bool) {
	if msg.Address != addrDevice || len(msg.Arguments) != 3 {
		return Device{}, false
	}
	id, ok := msg.Arguments[0].(string)
	if !ok {
		return Device{}, false
	}
	typ, ok := msg.Arguments[1].(string)
	if !ok {
		return Device{}, false
	}
	port, ok := msg.Arguments[2].(int32)
	if !ok {
		return Device{}, false
	}
	return Device{
		ID:   strings.TrimSpace(id),
		Type: strings.TrimSpace(typ),
		Port: int(port),
	}, true
}
