package discovery

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures mDNS browsing.
type BrowserConfig struct {
	// BrowseTimeout bounds a single browse operation (default: 2s).
	BrowseTimeout time.Duration

	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		BrowseTimeout: DefaultTimeout,
	}
}

// Browser discovers grid devices via the _monome-osc._udp mDNS
// services that serialosc registers.
type Browser struct {
	config BrowserConfig
}

// NewBrowser creates a Browser with the given configuration.
func NewBrowser(config BrowserConfig) *Browser {
	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = DefaultTimeout
	}
	return &Browser{config: config}
}

// Browse emits discovered devices on the returned channel until ctx
// is cancelled or the browse timeout elapses. The channel is closed
// when browsing completes. Duplicate announcements from multiple
// interfaces are collapsed by instance name.
func (b *Browser) Browse(ctx context.Context) (<-chan Device, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.BrowseTimeout)

	out := make(chan Device)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		defer cancel()

		seen := make(map[string]bool)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				dev, ok := entryToDevice(entry)
				if !ok || seen[dev.ID] {
					continue
				}
				seen[dev.ID] = true
				select {
				case out <- dev:
				case <-ctx.Done():
					return
				}

			case <-removed:
				// Departures are uninteresting for one-shot browsing.

			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, b.browseOptions()...)
	}()

	return out, nil
}

// browseOptions builds zeroconf client options from the config.
func (b *Browser) browseOptions() []zeroconf.ClientOption {
	if b.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(b.config.Interface)
	if err != nil {
		return nil
	}
	return []zeroconf.ClientOption{zeroconf.SelectIfaces([]net.Interface{*iface})}
}

// entryToDevice converts an mDNS service entry to a Device. The
// instance name is the device serial; the type string is not carried
// in the announcement.
func entryToDevice(entry *zeroconf.ServiceEntry) (Device, bool) {
	if entry == nil || entry.Instance == "" {
		return Device{}, false
	}
	dev := Device{
		ID:   entry.Instance,
		Port: entry.Port,
	}
	for _, txt := range entry.Text {
		if v, ok := strings.CutPrefix(txt, "type="); ok {
			dev.Type = v
		}
	}
	switch {
	case len(entry.AddrIPv4) > 0:
		dev.Host = entry.AddrIPv4[0].String()
	case len(entry.AddrIPv6) > 0:
		dev.Host = entry.AddrIPv6[0].String()
	}
	return dev, true
}

// AdvertiserConfig configures mDNS advertising.
type AdvertiserConfig struct {
	// Interface specifies which network interface to advertise on.
	// Empty string means all interfaces.
	Interface string

	// TTL is the record time-to-live (0 uses the zeroconf default).
	TTL time.Duration
}

// Advertiser announces a grid device over mDNS the way serialosc
// does, so Browser-based clients can find it.
type Advertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewAdvertiser creates an Advertiser with the given configuration.
func NewAdvertiser(config AdvertiserConfig) *Advertiser {
	return &Advertiser{config: config}
}

// Advertise registers the device. The instance name is the device ID.
// A second call replaces the previous announcement.
func (a *Advertiser) Advertise(dev Device) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		dev.ID,
		ServiceType,
		Domain,
		dev.Port,
		[]string{"type=" + dev.Type},
		a.interfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	return nil
}

// Stop withdraws the announcement. Safe to call without a prior
// Advertise.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
}

// interfaces returns the interfaces to advertise on, nil meaning all.
func (a *Advertiser) interfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}
	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
