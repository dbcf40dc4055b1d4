package device

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/gridosc-protocol/gridosc-go/pkg/log"
	"github.com/gridosc-protocol/gridosc-go/pkg/osc"
	"github.com/gridosc-protocol/gridosc-go/pkg/proto"
	"github.com/gridosc-protocol/gridosc-go/pkg/transport"
)

// System addresses handled during the handshake. These are never
// prefixed.
const (
	AddrSysHost     = "/sys/host"
	AddrSysPort     = "/sys/port"
	AddrSysPrefix   = "/sys/prefix"
	AddrSysRotation = "/sys/rotation"
	AddrSysInfo     = "/sys/info"
	AddrSysID       = "/sys/id"
	AddrSysSize     = "/sys/size"
)

// DefaultPrefix is the conventional OSC prefix for grid applications.
const DefaultPrefix = "/monome"

// Session errors.
var (
	// ErrNoPort indicates the device port was not configured.
	ErrNoPort = errors.New("device port not configured")
)

// Config configures a Session.
type Config struct {
	// Host is the device's OSC server host (default: 127.0.0.1).
	Host string

	// Port is the device's OSC server port. Required; discover it
	// with the discovery package.
	Port int

	// ListenAddr is the local UDP address to bind (default:
	// ephemeral port on all interfaces).
	ListenAddr string

	// Prefix is the OSC prefix for grid traffic (default: /monome).
	Prefix string

	// DeviceID is the device serial, used only for log correlation.
	DeviceID string

	// Logger receives protocol events. Nil disables logging.
	Logger log.Logger
}

// Info holds what the device has reported about itself via /sys
// replies. Zero fields simply have not been reported yet.
type Info struct {
	ID       string
	Prefix   string
	Rows     int
	Cols     int
	Rotation int
}

// Session is a client connection to one grid device.
type Session struct {
	config     Config
	endpoint   *transport.Endpoint
	deviceAddr *net.UDPAddr
	logger     log.Logger

	mu           sync.Mutex
	info         Info
	onKey        func(proto.KeyEvent)
	onConnect    func()
	onDisconnect func()
}

// Dial binds a local endpoint and prepares a session against the
// configured device. No traffic is exchanged until Subscribe or a
// sender is called; run Serve to receive.
func Dial(cfg Config) (*Session, error) {
	if cfg.Port == 0 {
		return nil, ErrNoPort
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	deviceAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("resolving device address: %w", err)
	}

	ep, err := transport.Listen(transport.Config{
		ListenAddr: cfg.ListenAddr,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	return &Session{
		config:     cfg,
		endpoint:   ep,
		deviceAddr: deviceAddr,
		logger:     logger,
	}, nil
}

// Prefix returns the session's OSC prefix.
func (s *Session) Prefix() string {
	return s.config.Prefix
}

// LocalAddr returns the bound local address the device replies to.
func (s *Session) LocalAddr() *net.UDPAddr {
	return s.endpoint.LocalAddr()
}

// Info returns the device information reported so far.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// OnKey registers the key transition callback. Callbacks run on the
// receive loop goroutine.
func (s *Session) OnKey(fn func(proto.KeyEvent)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onKey = fn
}

// OnConnect registers the device connect callback.
func (s *Session) OnConnect(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onConnect = fn
}

// OnDisconnect registers the device disconnect callback.
func (s *Session) OnDisconnect(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onDisconnect = fn
}

// Subscribe points the device at this session's endpoint and requests
// its current system information: /sys/host + /sys/port aim the
// device's replies here, /sys/prefix sets the traffic prefix, and
// /sys/info triggers the report.
func (s *Session) Subscribe() error {
	local := s.endpoint.LocalAddr()
	steps := []*osc.Message{
		osc.NewMessage(AddrSysHost, local.IP.String()),
		osc.NewMessage(AddrSysPort, int32(local.Port)),
		osc.NewMessage(AddrSysPrefix, s.config.Prefix),
		osc.NewMessage(AddrSysInfo, local.IP.String(), int32(local.Port)),
	}
	for _, msg := range steps {
		if err := s.endpoint.Send(s.deviceAddr, msg); err != nil {
			return fmt.Errorf("handshake %s: %w", msg.Address, err)
		}
	}
	return nil
}

// Serve runs the receive loop until ctx is cancelled. It must be
// called at most once.
func (s *Session) Serve(ctx context.Context) error {
	return s.endpoint.Serve(ctx, s.handle)
}

// Close releases the local endpoint.
func (s *Session) Close() error {
	return s.endpoint.Close()
}

// handle routes one inbound message: /sys replies update Info,
// anything else goes through the event table.
func (s *Session) handle(from *net.UDPAddr, msg *osc.Message) {
	if s.handleSys(msg) {
		return
	}

	ev, err := proto.ParseEventWithPrefix(s.config.Prefix, msg.Address, msg.Arguments)
	if err != nil {
		s.logParseError(err, msg)
		return
	}

	s.mu.Lock()
	onKey, onConnect, onDisconnect := s.onKey, s.onConnect, s.onDisconnect
	s.mu.Unlock()

	switch ev := ev.(type) {
	case proto.KeyEvent:
		if onKey != nil {
			onKey(ev)
		}
	case proto.ConnectEvent:
		s.logState("connected")
		if onConnect != nil {
			onConnect()
		}
	case proto.DisconnectEvent:
		s.logState("disconnected")
		if onDisconnect != nil {
			onDisconnect()
		}
	}
}

// handleSys consumes /sys replies. Returns false for non-sys traffic.
func (s *Session) handleSys(msg *osc.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch msg.Address {
	case AddrSysID:
		if v, ok := stringArg(msg.Arguments, 0); ok {
			s.info.ID = v
		}
	case AddrSysPrefix:
		if v, ok := stringArg(msg.Arguments, 0); ok {
			s.info.Prefix = v
		}
	case AddrSysSize:
		// Reported as width (columns) then height (rows).
		if w, ok := intArg(msg.Arguments, 0); ok {
			s.info.Cols = w
		}
		if h, ok := intArg(msg.Arguments, 1); ok {
			s.info.Rows = h
		}
	case AddrSysRotation:
		if v, ok := intArg(msg.Arguments, 0); ok {
			s.info.Rotation = v
		}
	case AddrSysHost, AddrSysPort:
		// Acknowledgements; nothing to record.
	default:
		return false
	}
	return true
}

// LEDSet switches the LED at (x, y) on or off.
func (s *Session) LEDSet(x, y, state int) error {
	return s.send(proto.AddrLEDSet, x, y, state)
}

// LEDAll switches every LED on or off.
func (s *Session) LEDAll(state int) error {
	return s.send(proto.AddrLEDAll, state)
}

// LEDLevelSet writes one LED's brightness level.
func (s *Session) LEDLevelSet(x, y, level int) error {
	return s.send(proto.AddrLEDLevelSet, x, y, level)
}

// LEDLevelAll writes every LED's brightness level.
func (s *Session) LEDLevelAll(level int) error {
	return s.send(proto.AddrLEDLevelAll, level)
}

// LEDLevelRow writes a run of levels along a row. len(levels) must be
// a multiple of 8.
func (s *Session) LEDLevelRow(xOffset, y int, levels ...int) error {
	return s.send(proto.AddrLEDLevelRow, append([]int{xOffset, y}, levels...)...)
}

// LEDLevelCol writes a run of levels down a column. len(levels) must
// be a multiple of 8.
func (s *Session) LEDLevelCol(x, yOffset int, levels ...int) error {
	return s.send(proto.AddrLEDLevelCol, append([]int{x, yOffset}, levels...)...)
}

// LEDLevelMap writes an 8x8 block of levels. len(levels) must be
// exactly 64.
func (s *Session) LEDLevelMap(xOffset, yOffset int, levels ...int) error {
	return s.send(proto.AddrLEDLevelMap, append([]int{xOffset, yOffset}, levels...)...)
}

// LEDRow writes binary row states, one bitmask per octet.
func (s *Session) LEDRow(xOffset, y int, masks ...int) error {
	return s.send(proto.AddrLEDRow, append([]int{xOffset, y}, masks...)...)
}

// LEDCol writes binary column states, one bitmask per octet.
func (s *Session) LEDCol(x, yOffset int, masks ...int) error {
	return s.send(proto.AddrLEDCol, append([]int{x, yOffset}, masks...)...)
}

// LEDMap writes an 8x8 block of binary states as 8 row bitmasks.
func (s *Session) LEDMap(xOffset, yOffset int, masks ...int) error {
	return s.send(proto.AddrLEDMap, append([]int{xOffset, yOffset}, masks...)...)
}

// LEDIntensity sets the device's global output intensity.
func (s *Session) LEDIntensity(level int) error {
	return s.send(proto.AddrLEDIntensity, level)
}

// send validates the command against the dispatch table and transmits
// it with the session prefix. Validating locally means a malformed
// call fails here with the same diagnostics the device side would
// produce, instead of being silently dropped remotely.
func (s *Session) send(addr string, values ...int) error {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = int32(v)
	}
	if _, err := proto.Parse(addr, args); err != nil {
		return err
	}
	return s.endpoint.Send(s.deviceAddr, osc.NewMessage(s.config.Prefix+addr, args...))
}

func (s *Session) logParseError(err error, msg *osc.Message) {
	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		EndpointID: s.endpoint.ID(),
		Direction:  log.DirectionIn,
		Layer:      log.LayerSession,
		Category:   log.CategoryError,
		DeviceID:   s.config.DeviceID,
		Error: &log.ErrorEventData{
			Layer:   log.LayerSession,
			Message: err.Error(),
			Context: msg.Address,
		},
	})
}

func (s *Session) logState(state string) {
	s.logger.Log(log.Event{
		Timestamp:  time.Now(),
		EndpointID: s.endpoint.ID(),
		Direction:  log.DirectionIn,
		Layer:      log.LayerSession,
		Category:   log.CategoryState,
		DeviceID:   s.config.DeviceID,
		StateChange: &log.StateChangeEvent{
			NewState: state,
		},
	})
}

// stringArg extracts args[i] as a string.
func stringArg(args []any, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	v, ok := args[i].(string)
	return v, ok
}

// intArg extracts args[i] as an int from any decoded integer width.
func intArg(args []any, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
