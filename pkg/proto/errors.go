package proto

import "fmt"

// Reason classifies why a message failed to parse.
type Reason uint8

const (
	// ReasonUnknownAddress indicates no dispatch entry matched.
	ReasonUnknownAddress Reason = 0

	// ReasonBadArgumentCount indicates a wrong number of arguments
	// for a fixed-arity command.
	ReasonBadArgumentCount Reason = 1

	// ReasonBadArgumentType indicates a non-integer where an integer
	// was required.
	ReasonBadArgumentType Reason = 2

	// ReasonBadShape indicates a variable-length argument list of the
	// wrong size (not a multiple of 8, or not exactly 64).
	ReasonBadShape Reason = 3
)

// String returns the reason name.
func (r Reason) String() string {
	switch r {
	case ReasonUnknownAddress:
		return "UNKNOWN_ADDRESS"
	case ReasonBadArgumentCount:
		return "BAD_ARGUMENT_COUNT"
	case ReasonBadArgumentType:
		return "BAD_ARGUMENT_TYPE"
	case ReasonBadShape:
		return "BAD_SHAPE"
	default:
		return "UNKNOWN"
	}
}

// ParseError describes why a message could not be turned into a
// command or event. It is returned before any grid mutation happens,
// so a failed parse never leaves partial state behind.
type ParseError struct {
	// Address is the (prefix-stripped) address that was dispatched.
	Address string

	// Reason classifies the failure.
	Reason Reason

	// Detail is a human-readable diagnostic, sufficient to
	// reconstruct the offending input in a log line.
	Detail string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %q: %s: %s", e.Address, e.Reason, e.Detail)
}

func parseErrorf(addr string, reason Reason, format string, args ...any) *ParseError {
	return &ParseError{
		Address: addr,
		Reason:  reason,
		Detail:  fmt.Sprintf(format, args...),
	}
}
