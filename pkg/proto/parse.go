package proto

import (
	"sort"
	"strings"
)

// Command addresses, without any device prefix.
const (
	AddrLEDSet       = "/grid/led/set"
	AddrLEDAll       = "/grid/led/all"
	AddrLEDRow       = "/grid/led/row"
	AddrLEDCol       = "/grid/led/col"
	AddrLEDMap       = "/grid/led/map"
	AddrLEDIntensity = "/grid/led/intensity"
	AddrLEDLevelSet  = "/grid/led/level/set"
	AddrLEDLevelAll  = "/grid/led/level/all"
	AddrLEDLevelRow  = "/grid/led/level/row"
	AddrLEDLevelCol  = "/grid/led/level/col"
	AddrLEDLevelMap  = "/grid/led/level/map"
)

// parseFunc validates an argument list and constructs a command.
type parseFunc func(addr string, args []any) (Command, *ParseError)

// commandTable is the dispatch table from address to parse routine.
// Keeping the table as data lets tests check it against the documented
// address list.
var commandTable = map[string]parseFunc{
	AddrLEDSet:       parseStateSet,
	AddrLEDAll:       parseStateSetAll,
	AddrLEDRow:       parseRowMask,
	AddrLEDCol:       parseColMask,
	AddrLEDMap:       parseMapMask,
	AddrLEDIntensity: parseIntensity,
	AddrLEDLevelSet:  parseLevelSet,
	AddrLEDLevelAll:  parseLevelSetAll,
	AddrLEDLevelRow:  parseLevelRow,
	AddrLEDLevelCol:  parseLevelCol,
	AddrLEDLevelMap:  parseLevelMap,
}

// Addresses returns the sorted list of command addresses the
// dispatcher recognizes.
func Addresses() []string {
	addrs := make([]string, 0, len(commandTable))
	for addr := range commandTable {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}

// Parse dispatches on the address and validates the argument list,
// returning the corresponding command. Failures are always a
// *ParseError; the grid is never touched.
func Parse(address string, args []any) (Command, error) {
	fn, ok := commandTable[address]
	if !ok {
		return nil, parseErrorf(address, ReasonUnknownAddress, "no command at this address")
	}
	cmd, perr := fn(address, args)
	if perr != nil {
		return nil, perr
	}
	return cmd, nil
}

// ParseWithPrefix strips the device prefix from the address before
// dispatching. A non-matching prefix is not an error: dispatch
// proceeds on the unmodified address, which then fails as unknown
// unless it happens to be a bare command address.
func ParseWithPrefix(prefix, address string, args []any) (Command, error) {
	return Parse(StripPrefix(prefix, address), args)
}

// StripPrefix removes prefix from the front of address when present.
func StripPrefix(prefix, address string) string {
	if prefix != "" && strings.HasPrefix(address, prefix) {
		return strings.TrimPrefix(address, prefix)
	}
	return address
}

func parseStateSet(addr string, args []any) (Command, *ParseError) {
	if perr := exactArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return StateSet{X: v[0], Y: v[1], State: v[2]}, nil
}

func parseStateSetAll(addr string, args []any) (Command, *ParseError) {
	if perr := exactArgs(addr, args, 1); perr != nil {
		return nil, perr
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return StateSetAll{State: v[0]}, nil
}

func parseLevelSet(addr string, args []any) (Command, *ParseError) {
	if perr := exactArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return LevelSet{X: v[0], Y: v[1], Level: v[2]}, nil
}

func parseLevelSetAll(addr string, args []any) (Command, *ParseError) {
	if perr := exactArgs(addr, args, 1); perr != nil {
		return nil, perr
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return LevelSetAll{Level: v[0]}, nil
}

func parseLevelRow(addr string, args []any) (Command, *ParseError) {
	if perr := minArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	if n := len(args) - 2; n%Quad != 0 {
		return nil, parseErrorf(addr, ReasonBadShape,
			"trailing level count %d is not a multiple of %d", n, Quad)
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return LevelRow{XOffset: v[0], Y: v[1], Levels: v[2:]}, nil
}

func parseLevelCol(addr string, args []any) (Command, *ParseError) {
	if perr := minArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	if n := len(args) - 2; n%Quad != 0 {
		return nil, parseErrorf(addr, ReasonBadShape,
			"trailing level count %d is not a multiple of %d", n, Quad)
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return LevelCol{X: v[0], YOffset: v[1], Levels: v[2:]}, nil
}

func parseLevelMap(addr string, args []any) (Command, *ParseError) {
	if perr := minArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	if n := len(args) - 2; n != MapSize {
		return nil, parseErrorf(addr, ReasonBadShape,
			"expected exactly %d levels, got %d", MapSize, n)
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return LevelMap{XOffset: v[0], YOffset: v[1], Levels: v[2:]}, nil
}

func parseRowMask(addr string, args []any) (Command, *ParseError) {
	if perr := minArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return RowMask{XOffset: v[0], Y: v[1], Masks: v[2:]}, nil
}

func parseColMask(addr string, args []any) (Command, *ParseError) {
	if perr := minArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return ColMask{X: v[0], YOffset: v[1], Masks: v[2:]}, nil
}

func parseMapMask(addr string, args []any) (Command, *ParseError) {
	if perr := minArgs(addr, args, 3); perr != nil {
		return nil, perr
	}
	if n := len(args) - 2; n != Quad {
		return nil, parseErrorf(addr, ReasonBadShape,
			"expected exactly %d row masks, got %d", Quad, n)
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return MapMask{XOffset: v[0], YOffset: v[1], Masks: v[2:]}, nil
}

func parseIntensity(addr string, args []any) (Command, *ParseError) {
	if perr := exactArgs(addr, args, 1); perr != nil {
		return nil, perr
	}
	v, perr := intArgs(addr, args, 0)
	if perr != nil {
		return nil, perr
	}
	return Intensity{Level: v[0]}, nil
}

// exactArgs checks the argument count of a fixed-arity command.
func exactArgs(addr string, args []any, n int) *ParseError {
	if len(args) != n {
		return parseErrorf(addr, ReasonBadArgumentCount,
			"expected %d arguments, got %d", n, len(args))
	}
	return nil
}

// minArgs checks the minimum argument count of a variable-length
// command.
func minArgs(addr string, args []any, n int) *ParseError {
	if len(args) < n {
		return parseErrorf(addr, ReasonBadArgumentCount,
			"expected at least %d arguments, got %d", n, len(args))
	}
	return nil
}

// intArg extracts args[i] as an integer. The OSC decoder hands us
// int32; int and int64 are accepted for directly constructed argument
// lists.
func intArg(addr string, args []any, i int) (int, *ParseError) {
	if i >= len(args) {
		return 0, parseErrorf(addr, ReasonBadArgumentType,
			"argument %d: expected int, got null", i)
	}
	switch v := args[i].(type) {
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case int:
		return v, nil
	default:
		return 0, parseErrorf(addr, ReasonBadArgumentType,
			"argument %d: expected int, got %T (%v)", i, v, v)
	}
}

// intArgs extracts args[from:] as integers.
func intArgs(addr string, args []any, from int) ([]int, *ParseError) {
	out := make([]int, 0, len(args)-from)
	for i := from; i < len(args); i++ {
		v, perr := intArg(addr, args, i)
		if perr != nil {
			return nil, perr
		}
		out = append(out, v)
	}
	return out, nil
}
