// Command grid-emulator is a software monome grid.
//
// It speaks the device side of the protocol: it binds a UDP port,
// answers /sys queries, applies LED commands to an in-memory matrix,
// and can synthesize key presses. Point any grid application at it to
// test without hardware.
//
// Usage:
//
//	grid-emulator [flags]
//
// Flags:
//
//	-port int      Listen port (default 14562)
//	-rows int      Grid rows (default 8)
//	-cols int      Grid columns (default 16)
//	-id string     Device ID (default "m0000000")
//	-prefix string Initial OSC prefix (default "/monome")
//	-render        Print the LED matrix after every command
//	-simulate      Emit synthetic key presses
//	-mdns          Advertise the device over mDNS
//	-log string    Write a binary protocol log to this file
//
// Examples:
//
//	# A 128-sized virtual grid with live rendering
//	grid-emulator -render
//
//	# A 64 in simulation mode
//	grid-emulator -rows 8 -cols 8 -simulate
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"math/rand"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gridosc-protocol/gridosc-go/pkg/device"
	"github.com/gridosc-protocol/gridosc-go/pkg/discovery"
	"github.com/gridosc-protocol/gridosc-go/pkg/grid"
	"github.com/gridosc-protocol/gridosc-go/pkg/log"
	"github.com/gridosc-protocol/gridosc-go/pkg/osc"
	"github.com/gridosc-protocol/gridosc-go/pkg/proto"
	"github.com/gridosc-protocol/gridosc-go/pkg/transport"
)

// Config holds the emulator configuration.
type Config struct {
	Port     int
	Rows     int
	Cols     int
	DeviceID string
	Prefix   string
	Render   bool
	Simulate bool
	MDNS     bool
	LogFile  string
}

var config Config

func init() {
	flag.IntVar(&config.Port, "port", 14562, "Listen port")
	flag.IntVar(&config.Rows, "rows", grid.DefaultRows, "Grid rows")
	flag.IntVar(&config.Cols, "cols", grid.DefaultCols, "Grid columns")
	flag.StringVar(&config.DeviceID, "id", "m0000000", "Device ID")
	flag.StringVar(&config.Prefix, "prefix", device.DefaultPrefix, "Initial OSC prefix")
	flag.BoolVar(&config.Render, "render", false, "Print the LED matrix after every command")
	flag.BoolVar(&config.Simulate, "simulate", false, "Emit synthetic key presses")
	flag.BoolVar(&config.MDNS, "mdns", false, "Advertise the device over mDNS")
	flag.StringVar(&config.LogFile, "log", "", "Write a binary protocol log to this file")
}

func main() {
	flag.Parse()

	stdlog.SetFlags(stdlog.Ltime | stdlog.Lmicroseconds)

	g, err := grid.NewSize(config.Rows, config.Cols)
	if err != nil {
		stdlog.Fatalf("Invalid grid size: %v", err)
	}

	logger, closeLog, err := buildLogger(config.LogFile)
	if err != nil {
		stdlog.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	ep, err := transport.Listen(transport.Config{
		ListenAddr: fmt.Sprintf(":%d", config.Port),
		Logger:     logger,
	})
	if err != nil {
		stdlog.Fatalf("Failed to bind: %v", err)
	}
	defer ep.Close()

	em := &emulator{
		grid:     g,
		endpoint: ep,
		id:       config.DeviceID,
		prefix:   config.Prefix,
		render:   config.Render,
	}

	stdlog.Printf("Grid emulator %s (%dx%d) listening on %s",
		config.DeviceID, config.Cols, config.Rows, ep.LocalAddr())

	if config.MDNS {
		adv := discovery.NewAdvertiser(discovery.AdvertiserConfig{})
		dev := discovery.Device{
			ID:   config.DeviceID,
			Type: fmt.Sprintf("emulator %d", config.Rows*config.Cols),
			Port: ep.LocalAddr().Port,
		}
		if err := adv.Advertise(dev); err != nil {
			stdlog.Printf("Warning: mDNS advertising failed: %v", err)
		} else {
			defer adv.Stop()
			stdlog.Printf("Advertising %s over mDNS", config.DeviceID)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if config.Simulate {
		go em.runSimulation(ctx)
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigCh
		stdlog.Printf("Received signal: %v", sig)
		cancel()
	}()

	if err := ep.Serve(ctx, em.handle); err != nil {
		stdlog.Fatalf("Serve failed: %v", err)
	}
	stdlog.Println("Goodbye!")
}

// buildLogger returns the endpoint logger and a cleanup function.
func buildLogger(path string) (log.Logger, func(), error) {
	if path == "" {
		return log.NoopLogger{}, func() {}, nil
	}
	fl, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, err
	}
	return fl, func() { fl.Close() }, nil
}

// emulator is the device-side protocol state: one LED matrix and the
// client it reports to.
type emulator struct {
	endpoint *transport.Endpoint
	id       string

	mu       sync.Mutex
	grid     *grid.Grid
	prefix   string
	rotation int
	client   *net.UDPAddr
	render   bool
}

// handle routes one inbound message.
func (e *emulator) handle(from *net.UDPAddr, msg *osc.Message) {
	if e.handleSys(from, msg) {
		return
	}

	e.mu.Lock()
	cmd, err := proto.ParseWithPrefix(e.prefix, msg.Address, msg.Arguments)
	if err != nil {
		e.mu.Unlock()
		stdlog.Printf("Rejected %s: %v", msg.Address, err)
		return
	}
	if err := cmd.Apply(e.grid); err != nil {
		e.mu.Unlock()
		stdlog.Printf("Apply %s: %v", msg.Address, err)
		return
	}
	var rendered string
	if e.render {
		rendered = e.grid.String()
	}
	e.mu.Unlock()

	if rendered != "" {
		fmt.Print(rendered)
	}
}

// handleSys consumes /sys messages. Returns false for anything else.
func (e *emulator) handleSys(from *net.UDPAddr, msg *osc.Message) bool {
	switch msg.Address {
	case device.AddrSysHost:
		if host, ok := stringArg(msg.Arguments, 0); ok {
			e.setClientHost(host)
		}

	case device.AddrSysPort:
		if port, ok := intArg(msg.Arguments, 0); ok {
			e.setClientPort(from, port)
		}

	case device.AddrSysPrefix:
		if prefix, ok := stringArg(msg.Arguments, 0); ok {
			e.mu.Lock()
			e.prefix = prefix
			e.mu.Unlock()
			stdlog.Printf("Prefix set to %s", prefix)
		}

	case device.AddrSysRotation:
		if r, ok := intArg(msg.Arguments, 0); ok {
			e.mu.Lock()
			e.rotation = r
			e.mu.Unlock()
		}

	case device.AddrSysInfo:
		e.sendSysReport(e.reportTarget(from, msg.Arguments))

	default:
		return false
	}
	return true
}

// reportTarget resolves where a /sys report should go: the optional
// host and port arguments, else the sender.
func (e *emulator) reportTarget(from *net.UDPAddr, args []any) *net.UDPAddr {
	host, hok := stringArg(args, 0)
	port, pok := intArg(args, 1)
	if !hok || !pok {
		// A bare port also selects the sender's host.
		if p, ok := intArg(args, 0); ok {
			return &net.UDPAddr{IP: from.IP, Port: p}
		}
		return from
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return from
	}
	return &net.UDPAddr{IP: ip, Port: port}
}

// setClientHost updates the client address the emulator reports to.
func (e *emulator) setClientHost(host string) {
	ip := net.ParseIP(host)
	if ip == nil {
		return
	}
	e.mu.Lock()
	if e.client == nil {
		e.client = &net.UDPAddr{IP: ip}
	} else {
		e.client = &net.UDPAddr{IP: ip, Port: e.client.Port}
	}
	e.mu.Unlock()
}

// setClientPort completes the client address and announces the
// attachment.
func (e *emulator) setClientPort(from *net.UDPAddr, port int) {
	e.mu.Lock()
	ip := from.IP
	if e.client != nil && e.client.IP != nil {
		ip = e.client.IP
	}
	e.client = &net.UDPAddr{IP: ip, Port: port}
	client := e.client
	e.mu.Unlock()

	stdlog.Printf("Client attached: %s", client)
	ev := proto.ConnectEvent{}
	_ = e.endpoint.Send(client, ev.Message(""))
}

// sendSysReport sends the full device report.
func (e *emulator) sendSysReport(to *net.UDPAddr) {
	e.mu.Lock()
	prefix := e.prefix
	rotation := e.rotation
	rows, cols := e.grid.Rows(), e.grid.Cols()
	e.mu.Unlock()

	local := e.endpoint.LocalAddr()
	report := []*osc.Message{
		osc.NewMessage(device.AddrSysID, e.id),
		osc.NewMessage(device.AddrSysSize, int32(cols), int32(rows)),
		osc.NewMessage(device.AddrSysHost, local.IP.String()),
		osc.NewMessage(device.AddrSysPort, int32(local.Port)),
		osc.NewMessage(device.AddrSysPrefix, prefix),
		osc.NewMessage(device.AddrSysRotation, int32(rotation)),
	}
	for _, msg := range report {
		if err := e.endpoint.Send(to, msg); err != nil {
			stdlog.Printf("Report %s: %v", msg.Address, err)
			return
		}
	}
}

// runSimulation emits random key presses to the attached client.
func (e *emulator) runSimulation(ctx context.Context) {
	stdlog.Println("Simulation mode enabled")

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.mu.Lock()
			client := e.client
			prefix := e.prefix
			rows, cols := e.grid.Rows(), e.grid.Cols()
			e.mu.Unlock()

			if client == nil || client.Port == 0 {
				continue
			}

			ev := proto.KeyEvent{
				X: rand.Intn(cols),
				Y: rand.Intn(rows),
			}
			// Press, then release shortly after.
			ev.State = proto.KeyDown
			_ = e.endpoint.Send(client, ev.Message(prefix))
			time.Sleep(100 * time.Millisecond)
			ev.State = proto.KeyUp
			_ = e.endpoint.Send(client, ev.Message(prefix))
		}
	}
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
