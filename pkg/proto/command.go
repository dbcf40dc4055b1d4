package proto

import (
	"github.com/gridosc-protocol/gridosc-go/pkg/grid"
)

// Binary LED states. A state of 1 drives the LED at full level, 0
// turns it off.
const (
	StateOff = 0
	StateOn  = 1
)

// Quad is the side length of the 8x8 block addressed by the map
// commands, and the addressing granularity ("octet") of the row and
// column commands.
const Quad = 8

// MapSize is the number of levels carried by a level map command.
const MapSize = Quad * Quad

// Command is an LED mutation produced by Parse (or constructed
// directly) and consumed exactly once by Apply.
//
// The set of implementations is closed; external packages cannot add
// variants.
type Command interface {
	// Apply mutates g according to the command. Bounds errors from the
	// grid propagate unchanged; cells written before the failure stay
	// written.
	Apply(g *grid.Grid) error

	isCommand()
}

// toLevel maps a binary state to a brightness level. Any non-zero
// state counts as on, matching monobright hardware behavior.
func toLevel(state int) int {
	if state != 0 {
		return grid.LevelMax
	}
	return grid.LevelOff
}

// StateSet switches a single LED fully on or off.
type StateSet struct {
	X     int
	Y     int
	State int
}

func (c StateSet) isCommand() {}

// Apply writes level 15 (state on) or 0 at (X, Y).
func (c StateSet) Apply(g *grid.Grid) error {
	return g.Set(c.X, c.Y, toLevel(c.State))
}

// StateSetAll switches every LED fully on or off.
type StateSetAll struct {
	State int
}

func (c StateSetAll) isCommand() {}

// Apply fills the whole grid with level 15 or 0.
func (c StateSetAll) Apply(g *grid.Grid) error {
	g.Fill(toLevel(c.State))
	return nil
}

// LevelSet writes one LED's brightness level directly.
type LevelSet struct {
	X     int
	Y     int
	Level int
}

func (c LevelSet) isCommand() {}

// Apply writes Level at (X, Y) unmodified.
func (c LevelSet) Apply(g *grid.Grid) error {
	return g.Set(c.X, c.Y, c.Level)
}

// LevelSetAll writes one brightness level to every LED.
type LevelSetAll struct {
	Level int
}

func (c LevelSetAll) isCommand() {}

// Apply fills the whole grid with Level unmodified.
func (c LevelSetAll) Apply(g *grid.Grid) error {
	g.Fill(c.Level)
	return nil
}

// LevelRow writes a run of levels along row Y starting at XOffset.
// Levels always has a multiple of Quad entries; XOffset is expected
// (not enforced) to be a multiple of Quad per the protocol's octet
// addressing.
type LevelRow struct {
	XOffset int
	Y       int
	Levels  []int
}

func (c LevelRow) isCommand() {}

// Apply writes Levels[i] at (XOffset+i, Y) for each i.
func (c LevelRow) Apply(g *grid.Grid) error {
	for i, level := range c.Levels {
		if err := g.Set(c.XOffset+i, c.Y, level); err != nil {
			return err
		}
	}
	return nil
}

// LevelCol writes a run of levels down column X starting at YOffset.
// Same octet-addressing convention as LevelRow.
type LevelCol struct {
	X       int
	YOffset int
	Levels  []int
}

func (c LevelCol) isCommand() {}

// Apply writes Levels[i] at (X, YOffset+i) for each i.
func (c LevelCol) Apply(g *grid.Grid) error {
	for i, level := range c.Levels {
		if err := g.Set(c.X, c.YOffset+i, level); err != nil {
			return err
		}
	}
	return nil
}

// LevelMap writes an 8x8 block of levels with its top-left corner at
// (XOffset, YOffset). Levels holds exactly MapSize entries in
// row-major order: Levels[y*Quad+x] drives (XOffset+x, YOffset+y).
type LevelMap struct {
	XOffset int
	YOffset int
	Levels  []int
}

func (c LevelMap) isCommand() {}

// Apply iterates rows outer, columns inner, matching the row-major
// layout of Levels.
func (c LevelMap) Apply(g *grid.Grid) error {
	for y := 0; y < Quad; y++ {
		for x := 0; x < Quad; x++ {
			if err := g.Set(c.XOffset+x, c.YOffset+y, c.Levels[y*Quad+x]); err != nil {
				return err
			}
		}
	}
	return nil
}

// RowMask writes binary states along row Y starting at XOffset, one
// bitmask per octet of LEDs: bit i of Masks[j] drives the LED at
// x = XOffset + j*Quad + i.
type RowMask struct {
	XOffset int
	Y       int
	Masks   []int
}

func (c RowMask) isCommand() {}

// Apply expands each mask into Quad full-or-off writes.
func (c RowMask) Apply(g *grid.Grid) error {
	for j, mask := range c.Masks {
		for i := 0; i < Quad; i++ {
			level := toLevel(mask >> i & 1)
			if err := g.Set(c.XOffset+j*Quad+i, c.Y, level); err != nil {
				return err
			}
		}
	}
	return nil
}

// ColMask writes binary states down column X starting at YOffset, one
// bitmask per octet: bit i of Masks[j] drives y = YOffset + j*Quad + i.
type ColMask struct {
	X       int
	YOffset int
	Masks   []int
}

func (c ColMask) isCommand() {}

// Apply expands each mask into Quad full-or-off writes.
func (c ColMask) Apply(g *grid.Grid) error {
	for j, mask := range c.Masks {
		for i := 0; i < Quad; i++ {
			level := toLevel(mask >> i & 1)
			if err := g.Set(c.X, c.YOffset+j*Quad+i, level); err != nil {
				return err
			}
		}
	}
	return nil
}

// MapMask writes an 8x8 block of binary states at (XOffset, YOffset).
// Masks holds exactly Quad row bitmasks: bit x of Masks[y] drives
// (XOffset+x, YOffset+y).
type MapMask struct {
	XOffset int
	YOffset int
	Masks   []int
}

func (c MapMask) isCommand() {}

// Apply expands the row masks top to bottom.
func (c MapMask) Apply(g *grid.Grid) error {
	for y := 0; y < Quad; y++ {
		for x := 0; x < Quad; x++ {
			level := toLevel(c.Masks[y] >> x & 1)
			if err := g.Set(c.XOffset+x, c.YOffset+y, level); err != nil {
				return err
			}
		}
	}
	return nil
}

// Intensity sets the grid's global output intensity.
type Intensity struct {
	Level int
}

func (c Intensity) isCommand() {}

// Apply stores the intensity on the grid; no cells change.
func (c Intensity) Apply(g *grid.Grid) error {
	g.SetIntensity(c.Level)
	return nil
}
