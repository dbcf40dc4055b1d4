// Package log provides structured protocol logging for grid sessions.
//
// It defines the Logger interface and Event types for capturing
// protocol-level events at each layer: raw UDP packets (transport),
// decoded OSC messages (wire), and session state changes. It is
// separate from operational logging (slog) - protocol capture gives a
// complete machine-readable trace of everything a session sent and
// received, for debugging misbehaving devices or applications.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	cfg.Logger = log.NewSlogAdapter(slog.Default())
//
//	// For capture: write a binary event stream
//	cfg.Logger, _ = log.NewFileLogger("session.glog")
//
//	// Both at once
//	cfg.Logger = log.NewMultiLogger(...)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys,
// written by FileLogger and read back with Reader.
package log
