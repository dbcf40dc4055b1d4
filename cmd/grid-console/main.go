// Command grid-console is an interactive OSC client for monome grid
// devices.
//
// It discovers devices through the serialosc daemon (or mDNS), opens a
// session to one of them, and provides a command prompt for driving
// LEDs and watching key presses.
//
// Usage:
//
//	grid-console [flags]
//
// Flags:
//
//	-host string       Device host (skips discovery when set with -port)
//	-port int          Device OSC port
//	-prefix string     OSC prefix (default "/monome")
//	-serialosc string  serialosc daemon address (default "127.0.0.1:12002")
//	-mdns              Discover via mDNS instead of serialosc
//	-config string     YAML configuration file path
//	-log string        Write a binary protocol log to this file
//	-list              List discovered devices and exit
//
// Examples:
//
//	# Connect to the first discovered device
//	grid-console
//
//	# Connect directly, bypassing discovery
//	grid-console -host 127.0.0.1 -port 14562
//
//	# Enumerate without connecting
//	grid-console -list
package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/yaml.v3"

	"github.com/gridosc-protocol/gridosc-go/pkg/device"
	"github.com/gridosc-protocol/gridosc-go/pkg/discovery"
	"github.com/gridosc-protocol/gridosc-go/pkg/log"

	"github.com/gridosc-protocol/gridosc-go/cmd/grid-console/interactive"
)

// Config holds the console configuration, merged from the YAML file
// and command-line flags. Flags win.
type Config struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	Prefix        string `yaml:"prefix"`
	SerialoscAddr string `yaml:"serialosc_addr"`
	LogFile       string `yaml:"log_file"`
	UseMDNS       bool   `yaml:"mdns"`
}

var (
	config     Config
	configFile string
	listOnly   bool
)

func init() {
	flag.StringVar(&config.Host, "host", "", "Device host (skips discovery when set with -port)")
	flag.IntVar(&config.Port, "port", 0, "Device OSC port")
	flag.StringVar(&config.Prefix, "prefix", device.DefaultPrefix, "OSC prefix for grid traffic")
	flag.StringVar(&config.SerialoscAddr, "serialosc", discovery.DefaultSerialoscAddr, "serialosc daemon address")
	flag.BoolVar(&config.UseMDNS, "mdns", false, "Discover via mDNS instead of serialosc")
	flag.StringVar(&configFile, "config", "", "YAML configuration file path")
	flag.StringVar(&config.LogFile, "log", "", "Write a binary protocol log to this file")
	flag.BoolVar(&listOnly, "list", false, "List discovered devices and exit")
}

func main() {
	flag.Parse()

	if configFile != "" {
		if err := loadConfigFile(configFile, &config); err != nil {
			stdlog.Fatalf("Failed to load config: %v", err)
		}
		// Flags override the file.
		flag.Parse()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if listOnly {
		if err := listDevices(ctx); err != nil {
			stdlog.Fatalf("Discovery failed: %v", err)
		}
		return
	}

	logger, closeLog, err := buildLogger(config.LogFile)
	if err != nil {
		stdlog.Fatalf("Failed to open log file: %v", err)
	}
	defer closeLog()

	target, err := resolveTarget(ctx)
	if err != nil {
		stdlog.Fatalf("No device: %v", err)
	}

	session, err := device.Dial(device.Config{
		Host:     target.Host,
		Port:     target.Port,
		Prefix:   config.Prefix,
		DeviceID: target.ID,
		Logger:   logger,
	})
	if err != nil {
		stdlog.Fatalf("Failed to open session: %v", err)
	}
	defer session.Close()

	console, err := interactive.New(session, target)
	if err != nil {
		stdlog.Fatalf("Failed to start console: %v", err)
	}

	go func() {
		if err := session.Serve(ctx); err != nil {
			fmt.Fprintf(console.Stderr(), "Session ended: %v\n", err)
			cancel()
		}
	}()

	if err := session.Subscribe(); err != nil {
		stdlog.Fatalf("Handshake failed: %v", err)
	}

	// Ctrl-C outside the prompt also shuts down cleanly.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	console.Run(ctx, cancel)
}

// loadConfigFile reads a YAML config file into cfg.
func loadConfigFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// buildLogger returns the session logger and a cleanup function. An
// empty path disables logging.
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

// resolveTarget picks the device to connect to: the -host/-port flags
// when both are set, otherwise the first discovered device.
func resolveTarget(ctx context.Context) (discovery.Device, error) {
	if config.Host != "" && config.Port != 0 {
		return discovery.Device{
			Type: "grid",
			Host: config.Host,
			Port: config.Port,
		}, nil
	}

	devices, err := discoverDevices(ctx)
	if err != nil {
		return discovery.Device{}, err
	}
	if len(devices) == 0 {
		return discovery.Device{}, fmt.Errorf("no devices found (is serialosc running?)")
	}

	d := devices[0]
	if d.Host == "" {
		d.Host = "127.0.0.1"
	}
	if config.Port != 0 {
		d.Port = config.Port
	}
	fmt.Printf("Connecting to %s (%s) at %s:%d\n", d.ID, d.Type, d.Host, d.Port)
	return d, nil
}

// discoverDevices enumerates devices via serialosc or mDNS.
func discoverDevices(ctx context.Context) ([]discovery.Device, error) {
	if config.UseMDNS {
		browser := discovery.NewBrowser(discovery.DefaultBrowserConfig())
		ch, err := browser.Browse(ctx)
		if err != nil {
			return nil, err
		}
		var devices []discovery.Device
		for d := range ch {
			devices = append(devices, d)
		}
		return devices, nil
	}

	lister := discovery.NewLister(discovery.ListerConfig{
		SerialoscAddr: config.SerialoscAddr,
	})
	return lister.List(ctx)
}

// listDevices prints all discovered devices.
func listDevices(ctx context.Context) error {
	devices, err := discoverDevices(ctx)
	if err != nil {
		return err
	}
	if len(devices) == 0 {
		fmt.Println("No devices found")
		return nil
	}

	fmt.Printf("Found %d device(s):\n", len(devices))
	for i, d := range devices {
		host := d.Host
		if host == "" {
			host = "127.0.0.1"
		}
		fmt.Printf("  %d. %s (%s) at %s:%d\n", i+1, d.ID, d.Type, host, d.Port)
	}
	return nil
}
