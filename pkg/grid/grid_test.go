package grid

import (
	"errors"
	"strings"
	"testing"
)

func TestNewSize(t *testing.T) {
	tests := []struct {
		name    string
		rows    int
		cols    int
		wantErr bool
	}{
		{name: "default shape", rows: 8, cols: 16},
		{name: "64 shape", rows: 8, cols: 8},
		{name: "256 shape", rows: 16, cols: 16},
		{name: "single cell", rows: 1, cols: 1},
		{name: "zero rows", rows: 0, cols: 16, wantErr: true},
		{name: "zero cols", rows: 8, cols: 0, wantErr: true},
		{name: "negative", rows: -1, cols: -1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewSize(tt.rows, tt.cols)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("NewSize(%d, %d) succeeded, want error", tt.rows, tt.cols)
				}
				if !errors.Is(err, ErrInvalidSize) {
					t.Errorf("error = %v, want ErrInvalidSize", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewSize failed: %v", err)
			}
			if g.Rows() != tt.rows || g.Cols() != tt.cols {
				t.Errorf("shape = %dx%d, want %dx%d", g.Rows(), g.Cols(), tt.rows, tt.cols)
			}
		})
	}
}

func TestDefaultShape(t *testing.T) {
	g := New()
	if g.Rows() != DefaultRows || g.Cols() != DefaultCols {
		t.Errorf("New() shape = %dx%d, want %dx%d", g.Rows(), g.Cols(), DefaultRows, DefaultCols)
	}
}

func TestSetGetRoundTrip(t *testing.T) {
	g := New()
	for x := 0; x < g.Cols(); x++ {
		for y := 0; y < g.Rows(); y++ {
			want := (x + y) % 16
			if err := g.Set(x, y, want); err != nil {
				t.Fatalf("Set(%d, %d) failed: %v", x, y, err)
			}
			got, err := g.Get(x, y)
			if err != nil {
				t.Fatalf("Get(%d, %d) failed: %v", x, y, err)
			}
			if got != want {
				t.Errorf("Get(%d, %d) = %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestOutOfRangeLevelsPassThrough(t *testing.T) {
	// Levels outside [0, 15] are a documented convention, not enforced.
	g := New()
	for _, level := range []int{-3, 16, 255} {
		if err := g.Set(0, 0, level); err != nil {
			t.Fatalf("Set with level %d failed: %v", level, err)
		}
		got, err := g.Get(0, 0)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != level {
			t.Errorf("Get = %d, want %d unchanged", got, level)
		}
	}
}

func TestBoundsErrors(t *testing.T) {
	g := New() // 8x16

	tests := []struct {
		name string
		x, y int
	}{
		{name: "x negative", x: -1, y: 0},
		{name: "y negative", x: 0, y: -1},
		{name: "x at cols", x: 16, y: 0},
		{name: "y at rows", x: 0, y: 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Get(tt.x, tt.y); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Get error = %v, want ErrOutOfRange", err)
			}
			if err := g.Set(tt.x, tt.y, 5); !errors.Is(err, ErrOutOfRange) {
				t.Errorf("Set error = %v, want ErrOutOfRange", err)
			}
		})
	}
}

func TestFillRange(t *testing.T) {
	g := New()

	if err := g.FillRange(3, 2, 6, 9); err != nil {
		t.Fatalf("FillRange failed: %v", err)
	}
	for y := 0; y < g.Rows(); y++ {
		want := 0
		if y >= 2 && y < 6 {
			want = 9
		}
		got, _ := g.Get(3, y)
		if got != want {
			t.Errorf("Get(3, %d) = %d, want %d", y, got, want)
		}
	}

	// Empty range is valid and a no-op.
	if err := g.FillRange(3, 4, 4, 12); err != nil {
		t.Errorf("empty range failed: %v", err)
	}
	if got, _ := g.Get(3, 4); got != 9 {
		t.Errorf("empty fill mutated cell: got %d", got)
	}
}

func TestFillRangeErrors(t *testing.T) {
	g := New()

	tests := []struct {
		name       string
		x          int
		start, end int
		want       error
	}{
		{name: "column out of range", x: 16, start: 0, end: 8, want: ErrOutOfRange},
		{name: "negative column", x: -1, start: 0, end: 8, want: ErrOutOfRange},
		{name: "negative start", x: 0, start: -1, end: 4, want: ErrInvalidRange},
		{name: "start after end", x: 0, start: 5, end: 2, want: ErrInvalidRange},
		{name: "end past rows", x: 0, start: 0, end: 9, want: ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.FillRange(tt.x, tt.start, tt.end, 1)
			if !errors.Is(err, tt.want) {
				t.Errorf("FillRange error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestFill(t *testing.T) {
	g := New()
	g.Fill(15)
	for x := 0; x < g.Cols(); x++ {
		for y := 0; y < g.Rows(); y++ {
			if got, _ := g.Get(x, y); got != 15 {
				t.Fatalf("Get(%d, %d) = %d after Fill(15)", x, y, got)
			}
		}
	}
	g.Fill(0)
	for x := 0; x < g.Cols(); x++ {
		for y := 0; y < g.Rows(); y++ {
			if got, _ := g.Get(x, y); got != 0 {
				t.Fatalf("Get(%d, %d) = %d after Fill(0)", x, y, got)
			}
		}
	}
}

func TestStringLayout(t *testing.T) {
	g := New() // 8x16

	out := g.String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 10 {
		t.Fatalf("line count = %d, want 10 (border + 8 rows + border)", len(lines))
	}

	border := strings.Repeat("-", 48)
	if lines[0] != border {
		t.Errorf("top border = %q, want %d dashes", lines[0], 48)
	}
	if lines[9] != border {
		t.Errorf("bottom border = %q, want %d dashes", lines[9], 48)
	}

	zeroRow := strings.Repeat("  0", 16)
	for i := 1; i <= 8; i++ {
		if lines[i] != zeroRow {
			t.Errorf("row %d = %q, want %q", i-1, lines[i], zeroRow)
		}
	}
}

func TestStringReflectsMutation(t *testing.T) {
	g, err := NewSize(2, 2)
	if err != nil {
		t.Fatalf("NewSize failed: %v", err)
	}
	if err := g.Set(1, 0, 15); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	want := "------\n  0 15\n  0  0\n------\n"
	if got := g.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestIntensity(t *testing.T) {
	g := New()
	if g.Intensity() != LevelMax {
		t.Errorf("initial intensity = %d, want %d", g.Intensity(), LevelMax)
	}
	g.SetIntensity(7)
	if g.Intensity() != 7 {
		t.Errorf("intensity = %d, want 7", g.Intensity())
	}
}
