package log

// Logger is the interface applications implement to receive protocol
// log events. Pass nil or NoopLogger to disable logging.
type Logger interface {
	// Log records a protocol event. Implementations must be
	// thread-safe and should process or queue the event quickly;
	// blocking stalls the transport receive loop.
	Log(event Event)
}

// NoopLogger discards all events. Usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// Compile-time interface satisfaction check.
var _ Logger = NoopLogger{}
