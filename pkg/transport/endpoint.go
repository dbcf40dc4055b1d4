package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gridosc-protocol/gridosc-go/pkg/log"
	"github.com/gridosc-protocol/gridosc-go/pkg/osc"
)

// Datagram size limits.
const (
	// DefaultMaxPacketSize is the default receive buffer size. Grid
	// traffic is tiny; the largest defined message (a level map) fits
	// well under 1 KB.
	DefaultMaxPacketSize = 4096

	// MaxLogPacketSize is the maximum datagram size included in log
	// events. Larger packets are truncated in the event, not on the wire.
	MaxLogPacketSize = 1024
)

// Transport errors.
var (
	// ErrClosed indicates the endpoint has been closed.
	ErrClosed = errors.New("endpoint closed")
)

// Handler is invoked for every successfully decoded inbound message.
// It runs on the receive loop goroutine; slow handlers delay receipt
// of subsequent packets.
type Handler func(from *net.UDPAddr, msg *osc.Message)

// Config configures an Endpoint.
type Config struct {
	// ListenAddr is the local UDP address to bind, e.g. "127.0.0.1:0".
	// Empty binds an ephemeral port on all interfaces.
	ListenAddr string

	// MaxPacketSize is the receive buffer size (default: 4 KB).
	MaxPacketSize int

	// Logger receives protocol events. Nil disables logging.
	Logger log.Logger
}

// Endpoint is a bound UDP socket speaking OSC. It is safe for
// concurrent Send from multiple goroutines; Serve must be called at
// most once.
type Endpoint struct {
	conn          *net.UDPConn
	id            string
	maxPacketSize int
	logger        log.Logger

	closeOnce sync.Once
	closeErr  error
}

// Listen binds a UDP endpoint per the config.
func Listen(cfg Config) (*Endpoint, error) {
	addr := cfg.ListenAddr
	if addr == "" {
		addr = ":0"
	}
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving listen address: %w", err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("binding UDP socket: %w", err)
	}

	maxSize := cfg.MaxPacketSize
	if maxSize == 0 {
		maxSize = DefaultMaxPacketSize
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	return &Endpoint{
		conn:          conn,
		id:            uuid.New().String(),
		maxPacketSize: maxSize,
		logger:        logger,
	}, nil
}

// ID returns the endpoint's unique identifier, used to correlate log
// events.
func (e *Endpoint) ID() string {
	return e.id
}

// LocalAddr returns the bound local address.
func (e *Endpoint) LocalAddr() *net.UDPAddr {
	return e.conn.LocalAddr().(*net.UDPAddr)
}

// Send encodes msg and transmits it to the peer as one datagram.
func (e *Endpoint) Send(to *net.UDPAddr, msg *osc.Message) error {
	data, err := osc.Encode(msg)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", msg.Address, err)
	}
	if _, err := e.conn.WriteToUDP(data, to); err != nil {
		return fmt.Errorf("sending to %s: %w", to, err)
	}

	e.logPacket(log.DirectionOut, to, data)
	e.logMessage(log.DirectionOut, to, msg)
	return nil
}

// Serve runs the receive loop until ctx is cancelled or the endpoint
// is closed. Decoded messages are passed to handler; undecodable
// datagrams are logged and dropped.
func (e *Endpoint) Serve(ctx context.Context, handler Handler) error {
	// Closing the socket from a watcher goroutine unblocks the read.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			e.Close()
		case <-watchDone:
		}
	}()

	buf := make([]byte, e.maxPacketSize)
	for {
		n, from, err := e.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return ErrClosed
			}
			return fmt.Errorf("reading datagram: %w", err)
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		e.logPacket(log.DirectionIn, from, data)

		msg, err := osc.Decode(data)
		if err != nil {
			e.logError(fmt.Sprintf("dropping undecodable packet: %v", err), from)
			continue
		}
		e.logMessage(log.DirectionIn, from, msg)

		handler(from, msg)
	}
}

// Close closes the socket. Safe to call multiple times.
func (e *Endpoint) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = e.conn.Close()
	})
	return e.closeErr
}

func (e *Endpoint) logPacket(dir log.Direction, peer *net.UDPAddr, data []byte) {
	size := len(data)
	truncated := false
	if len(data) > MaxLogPacketSize {
		data = data[:MaxLogPacketSize]
		truncated = true
	}
	e.logger.Log(log.Event{
		Timestamp:  time.Now(),
		EndpointID: e.id,
		Direction:  dir,
		Layer:      log.LayerTransport,
		Category:   log.CategoryPacket,
		RemoteAddr: peer.String(),
		Packet: &log.PacketEvent{
			Size:      size,
			Data:      data,
			Truncated: truncated,
		},
	})
}

func (e *Endpoint) logMessage(dir log.Direction, peer *net.UDPAddr, msg *osc.Message) {
	e.logger.Log(log.Event{
		Timestamp:  time.Now(),
		EndpointID: e.id,
		Direction:  dir,
		Layer:      log.LayerWire,
		Category:   log.CategoryMessage,
		RemoteAddr: peer.String(),
		Message: &log.MessageEvent{
			Address:   msg.Address,
			Arguments: msg.Arguments,
		},
	})
}

func (e *Endpoint) logError(message string, peer *net.UDPAddr) {
	e.logger.Log(log.Event{
		Timestamp:  time.Now(),
		EndpointID: e.id,
		Direction:  log.DirectionIn,
		Layer:      log.LayerTransport,
		Category:   log.CategoryError,
		RemoteAddr: peer.String(),
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: message,
		},
	})
}
