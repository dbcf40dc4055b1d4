// Package discovery finds grid devices on the local machine and network.
//
// Two mechanisms are provided:
//
//   - Lister enumerates devices through the serialosc daemon's OSC
//     interface: send /serialosc/list, collect /serialosc/device
//     replies. This is the canonical mechanism and works wherever
//     serialosc runs (default port 12002 on localhost).
//
//   - Browser watches mDNS for _monome-osc._udp services, which
//     serialosc registers for every attached device. Useful for
//     discovering devices across the network without speaking to the
//     daemon directly.
//
// Both yield Device records carrying the serial-number ID, the device
// type string and the UDP port the device listens on.
package discovery
