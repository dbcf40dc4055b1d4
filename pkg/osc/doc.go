// Package osc implements the OSC 1.0 packet encoding used by serialosc.
//
// An OSC message is a slash-delimited address pattern followed by a type
// tag string and a list of binary-encoded arguments. All strings are
// NUL-terminated and padded to 4-byte boundaries; numeric arguments are
// big-endian.
//
// # Argument Types
//
// The grid protocol only ever carries int32 arguments, but the codec
// supports the common OSC scalar set:
//   - 'i' int32
//   - 'f' float32
//   - 's' string
//   - 'b' blob ([]byte)
//
// Other type tags fail to decode with ErrUnsupportedType. Bundles
// (#bundle) are not part of the serialosc protocol and are not
// supported.
package osc
