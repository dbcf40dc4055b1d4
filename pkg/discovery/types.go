package discovery

import "time"

// serialosc daemon defaults.
const (
	// SerialoscPort is the UDP port the serialosc daemon listens on.
	SerialoscPort = 12002

	// DefaultSerialoscAddr is the daemon address on the local machine.
	DefaultSerialoscAddr = "127.0.0.1:12002"
)

// mDNS service parameters registered by serialosc.
const (
	// ServiceType is the mDNS service type for grid devices.
	ServiceType = "_monome-osc._udp"

	// Domain is the mDNS domain.
	Domain = "local."
)

// DefaultTimeout bounds enumeration and browse operations.
const DefaultTimeout = 2 * time.Second

// serialosc daemon addresses.
const (
	addrList   = "/serialosc/list"
	addrNotify = "/serialosc/notify"
	addrDevice = "/serialosc/device"
	addrAdd    = "/serialosc/add"
	addrRemove = "/serialosc/remove"
)

// Device describes a discovered grid device.
type Device struct {
	// ID is the device serial number, e.g. "m0000123".
	ID string

	// Type is the device type string, e.g. "monome 128".
	Type string

	// Host is the address the device's OSC server is reachable on.
	Host string

	// Port is the UDP port the device's OSC server listens on.
	Port int
}
