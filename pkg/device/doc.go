// Package device implements the client side of a grid session.
//
// A Session binds a local UDP endpoint, points the device's OSC server
// at it with the /sys handshake, and then exchanges traffic: LED
// commands out, key and lifecycle events in. Inbound messages are
// validated through the proto dispatch tables; malformed ones are
// logged and dropped.
//
// The grid state itself lives on the hardware; a Session does not
// mirror it. Applications that want a local model can apply the same
// commands they send to a grid.Grid of their own.
package device
