// Package proto defines the serialosc grid command set.
//
// The package covers both directions of the protocol:
//   - Inbound: LED mutation commands. Parse validates an OSC address
//     and argument list against the dispatch table and produces a
//     Command, which applies itself to a grid.Grid.
//   - Outbound: device events (key transitions, connection lifecycle)
//     that encode themselves as OSC messages.
//
// Both variant sets are closed: every Command and Event type lives in
// this package, so consumers can type-switch exhaustively.
//
// # Address Scheme
//
// Addresses follow the serialosc scheme: /grid/led/set and friends take
// a binary state, the /grid/led/level/ variants take 0..15 brightness
// levels. Earlier monomeserial firmware overloaded /grid/led/set with
// levels; that scheme is not supported.
//
// # Validation
//
// All argument validation happens in Parse, before a Command is
// constructed. Apply only enforces grid bounds; a command whose offsets
// run off the grid fails mid-write and leaves the cells written so far
// in place.
package proto
