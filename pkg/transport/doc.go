// Package transport provides the UDP datagram endpoint for OSC traffic.
//
// serialosc speaks OSC over UDP: every datagram is exactly one OSC
// packet, so there is no framing layer. An Endpoint binds a local UDP
// port, sends encoded messages to arbitrary peers, and runs a receive
// loop that decodes datagrams and hands them to a handler.
//
// Malformed datagrams never stop the receive loop; they are logged and
// dropped, since a single bad packet from a misbehaving peer must not
// take down the session.
package transport
