package grid

import (
	"errors"
	"fmt"
	"strings"
)

// Default grid dimensions (a monome 128: 8 rows by 16 columns).
const (
	DefaultRows = 8
	DefaultCols = 16
)

// Level bounds for varibright hardware. Documented convention only;
// accessors do not clamp or reject values outside this range.
const (
	LevelOff = 0
	LevelMax = 15
)

// Grid errors.
var (
	// ErrOutOfRange indicates an x or y index outside the grid.
	ErrOutOfRange = errors.New("index out of range")

	// ErrInvalidRange indicates an invalid half-open fill range.
	ErrInvalidRange = errors.New("invalid fill range")

	// ErrInvalidSize indicates non-positive construction dimensions.
	ErrInvalidSize = errors.New("invalid grid size")
)

// Grid is a fixed-size matrix of LED brightness levels, addressed as
// (x, y) with x in [0, Cols) and y in [0, Rows). Storage is per column.
type Grid struct {
	rows int
	cols int

	// columns[x][y] is the level of the LED at (x, y).
	columns [][]int

	// intensity is the global output intensity, set by the intensity
	// command. It scales the whole display on hardware and is tracked
	// here as a plain attribute.
	intensity int
}

// New creates a grid with the default 8x16 shape.
func New() *Grid {
	g, _ := NewSize(DefaultRows, DefaultCols)
	return g
}

// NewSize creates a grid with the given shape. Both dimensions must be
// positive.
func NewSize(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, rows, cols)
	}
	columns := make([][]int, cols)
	for x := range columns {
		columns[x] = make([]int, rows)
	}
	return &Grid{
		rows:      rows,
		cols:      cols,
		columns:   columns,
		intensity: LevelMax,
	}, nil
}

// Rows returns the number of rows.
func (g *Grid) Rows() int {
	return g.rows
}

// Cols returns the number of columns.
func (g *Grid) Cols() int {
	return g.cols
}

// Get returns the level at (x, y).
func (g *Grid) Get(x, y int) (int, error) {
	if err := g.check(x, y); err != nil {
		return 0, err
	}
	return g.columns[x][y], nil
}

// Set overwrites the level at (x, y). The level itself is not validated.
func (g *Grid) Set(x, y, level int) error {
	if err := g.check(x, y); err != nil {
		return err
	}
	g.columns[x][y] = level
	return nil
}

// FillRange overwrites rows [start, end) of column x with level.
// The range is valid when 0 <= start <= end <= Rows().
func (g *Grid) FillRange(x, start, end, level int) error {
	if x < 0 || x >= g.cols {
		return fmt.Errorf("%w: column %d (grid is %dx%d)", ErrOutOfRange, x, g.rows, g.cols)
	}
	if start < 0 || start > end || end > g.rows {
		return fmt.Errorf("%w: [%d, %d) over %d rows", ErrInvalidRange, start, end, g.rows)
	}
	col := g.columns[x]
	for y := start; y < end; y++ {
		col[y] = level
	}
	return nil
}

// Fill overwrites every cell with level.
func (g *Grid) Fill(level int) {
	for x := range g.columns {
		col := g.columns[x]
		for y := range col {
			col[y] = level
		}
	}
}

// Intensity returns the global output intensity.
func (g *Grid) Intensity() int {
	return g.intensity
}

// SetIntensity sets the global output intensity. Not validated, like
// cell levels.
func (g *Grid) SetIntensity(level int) {
	g.intensity = level
}

// String renders the grid as a fixed-width diagnostic display: a dashed
// border of width Cols()*3 above and below, one text line per row in
// increasing y order, each cell right-justified to width 3. The layout
// is a stable contract used in snapshot tests.
func (g *Grid) String() string {
	var b strings.Builder
	border := strings.Repeat("-", g.cols*3)

	b.WriteString(border)
	b.WriteByte('\n')
	for y := 0; y < g.rows; y++ {
		for x := 0; x < g.cols; x++ {
			fmt.Fprintf(&b, "%3d", g.columns[x][y])
		}
		b.WriteByte('\n')
	}
	b.WriteString(border)
	b.WriteByte('\n')

	return b.String()
}

func (g *Grid) check(x, y int) error {
	if x < 0 || x >= g.cols || y < 0 || y >= g.rows {
		return fmt.Errorf("%w: (%d, %d) on a %dx%d grid", ErrOutOfRange, x, y, g.rows, g.cols)
	}
	return nil
}
