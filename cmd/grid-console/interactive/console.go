// Package interactive provides the command-line interface for
// grid-console.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/gridosc-protocol/gridosc-go/pkg/device"
	"github.com/gridosc-protocol/gridosc-go/pkg/discovery"
	"github.com/gridosc-protocol/gridosc-go/pkg/grid"
	"github.com/gridosc-protocol/gridosc-go/pkg/proto"
)

// Console handles interactive mode for grid-console.
type Console struct {
	session *device.Session
	target  discovery.Device
	rl      *readline.Instance

	// Key display control
	showKeys bool
}

// New creates a new interactive console bound to an open session.
func New(session *device.Session, target discovery.Device) (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "grid> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := &Console{
		session:  session,
		target:   target,
		rl:       rl,
		showKeys: true,
	}

	session.OnKey(c.handleKey)
	session.OnConnect(func() { c.printEvent("device connected") })
	session.OnDisconnect(func() { c.printEvent("device disconnected") })

	return c, nil
}

// Stdout returns a writer that coordinates with the readline prompt.
func (c *Console) Stdout() io.Writer {
	return c.rl.Stdout()
}

// Stderr returns a writer that coordinates with the readline prompt.
func (c *Console) Stderr() io.Writer {
	return c.rl.Stderr()
}

// Run starts the interactive command loop.
func (c *Console) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.rl.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}

		parts := strings.Fields(input)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		switch cmd {
		case "help", "?":
			c.printHelp()

		case "info":
			c.cmdInfo()

		case "set", "s":
			c.cmdSend(args, 3, func(v []int) error {
				return c.session.LEDSet(v[0], v[1], v[2])
			}, "set <x> <y> <0|1>")

		case "all":
			c.cmdSend(args, 1, func(v []int) error {
				return c.session.LEDAll(v[0])
			}, "all <0|1>")

		case "level", "l":
			c.cmdSend(args, 3, func(v []int) error {
				return c.session.LEDLevelSet(v[0], v[1], v[2])
			}, "level <x> <y> <0-15>")

		case "levelall", "la":
			c.cmdSend(args, 1, func(v []int) error {
				return c.session.LEDLevelAll(v[0])
			}, "levelall <0-15>")

		case "row":
			c.cmdSend(args, 3, func(v []int) error {
				return c.session.LEDRow(v[0], v[1], v[2:]...)
			}, "row <x-offset> <y> <mask> [mask ...]")

		case "col":
			c.cmdSend(args, 3, func(v []int) error {
				return c.session.LEDCol(v[0], v[1], v[2:]...)
			}, "col <x> <y-offset> <mask> [mask ...]")

		case "map":
			c.cmdSend(args, 10, func(v []int) error {
				return c.session.LEDMap(v[0], v[1], v[2:]...)
			}, "map <x-offset> <y-offset> <mask x8>")

		case "levelrow", "lrow":
			c.cmdSend(args, 10, func(v []int) error {
				return c.session.LEDLevelRow(v[0], v[1], v[2:]...)
			}, "levelrow <x-offset> <y> <level x8...>")

		case "levelcol", "lcol":
			c.cmdSend(args, 10, func(v []int) error {
				return c.session.LEDLevelCol(v[0], v[1], v[2:]...)
			}, "levelcol <x> <y-offset> <level x8...>")

		case "levelmap", "lmap":
			c.cmdSend(args, 66, func(v []int) error {
				return c.session.LEDLevelMap(v[0], v[1], v[2:]...)
			}, "levelmap <x-offset> <y-offset> <level x64>")

		case "intensity":
			c.cmdSend(args, 1, func(v []int) error {
				return c.session.LEDIntensity(v[0])
			}, "intensity <0-15>")

		case "clear":
			if err := c.session.LEDAll(proto.StateOff); err != nil {
				fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
			}

		case "test":
			c.cmdTest()

		case "keys":
			c.cmdKeys(args)

		case "quit", "exit", "q":
			fmt.Fprintln(c.rl.Stdout(), "Exiting...")
			cancel()
			return

		default:
			fmt.Fprintf(c.rl.Stdout(), "Unknown command: %s (type 'help' for commands)\n", cmd)
		}
	}
}

func (c *Console) printHelp() {
	fmt.Fprintln(c.rl.Stdout(), `
Grid Console Commands:
  Binary LEDs:
    set <x> <y> <0|1>          - Set one LED on or off
    all <0|1>                  - Set every LED
    row <xoff> <y> <mask>...   - Set a row from bitmasks (8 LEDs per mask)
    col <x> <yoff> <mask>...   - Set a column from bitmasks
    map <xoff> <yoff> <mask x8> - Set an 8x8 quad from 8 row bitmasks
    clear                      - All LEDs off

  Brightness:
    level <x> <y> <0-15>       - Set one LED's level
    levelall <0-15>            - Set every LED's level
    levelrow <xoff> <y> <l x8> - Set a row of levels (multiples of 8)
    levelcol <x> <yoff> <l x8> - Set a column of levels
    levelmap <xoff> <yoff> <l x64> - Set an 8x8 quad of levels
    intensity <0-15>           - Set global output intensity

  General:
    info                       - Show device information
    keys [on|off]              - Toggle key press display
    test                       - Brightness sweep across the grid
    help                       - Show this help
    quit                       - Exit`)
}

// cmdSend parses integer arguments and invokes the sender. minArgs is
// the minimum argument count; variadic commands accept more.
func (c *Console) cmdSend(args []string, minArgs int, send func([]int) error, usage string) {
	if len(args) < minArgs {
		fmt.Fprintf(c.rl.Stdout(), "Usage: %s\n", usage)
		return
	}

	values := make([]int, len(args))
	for i, a := range args {
		v, err := parseLevel(a)
		if err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Invalid argument %q: %v\n", a, err)
			return
		}
		values[i] = v
	}

	if err := send(values); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
	}
}

// parseLevel parses a decimal or 0x-prefixed hex integer. Hex is
// convenient for bitmasks.
func parseLevel(s string) (int, error) {
	v, err := strconv.ParseInt(s, 0, 32)
	return int(v), err
}

// cmdInfo shows what the device has reported about itself.
func (c *Console) cmdInfo() {
	info := c.session.Info()

	fmt.Fprintln(c.rl.Stdout(), "\nDevice Information")
	fmt.Fprintln(c.rl.Stdout(), "-------------------------------------------")
	fmt.Fprintf(c.rl.Stdout(), "  ID:       %s\n", orUnknown(info.ID, c.target.ID))
	fmt.Fprintf(c.rl.Stdout(), "  Type:     %s\n", orUnknown(c.target.Type, ""))
	fmt.Fprintf(c.rl.Stdout(), "  Address:  %s:%d\n", c.target.Host, c.target.Port)
	fmt.Fprintf(c.rl.Stdout(), "  Prefix:   %s\n", orUnknown(info.Prefix, c.session.Prefix()))
	if info.Rows != 0 || info.Cols != 0 {
		fmt.Fprintf(c.rl.Stdout(), "  Size:     %dx%d\n", info.Cols, info.Rows)
	} else {
		fmt.Fprintln(c.rl.Stdout(), "  Size:     (not reported)")
	}
	fmt.Fprintf(c.rl.Stdout(), "  Rotation: %d\n", info.Rotation)
	fmt.Fprintln(c.rl.Stdout())
}

func orUnknown(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return "(unknown)"
}

// cmdKeys toggles key press display.
func (c *Console) cmdKeys(args []string) {
	if len(args) > 0 {
		c.showKeys = args[0] == "on"
	} else {
		c.showKeys = !c.showKeys
	}
	state := "off"
	if c.showKeys {
		state = "on"
	}
	fmt.Fprintf(c.rl.Stdout(), "Key display %s\n", state)
}

// cmdTest sweeps through every brightness level, then clears.
func (c *Console) cmdTest() {
	fmt.Fprintln(c.rl.Stdout(), "Running brightness sweep...")
	for level := grid.LevelOff; level <= grid.LevelMax; level++ {
		if err := c.session.LEDLevelAll(level); err != nil {
			fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	if err := c.session.LEDAll(proto.StateOff); err != nil {
		fmt.Fprintf(c.rl.Stdout(), "Error: %v\n", err)
		return
	}
	fmt.Fprintln(c.rl.Stdout(), "Done")
}

// handleKey displays a key transition without disturbing the prompt.
func (c *Console) handleKey(ev proto.KeyEvent) {
	if !c.showKeys {
		return
	}
	action := "up"
	if ev.State == proto.KeyDown {
		action = "down"
	}
	fmt.Fprintf(c.rl.Stdout(), "\n[%s] key (%d, %d) %s\n",
		time.Now().Format("15:04:05"), ev.X, ev.Y, action)
	c.rl.Refresh()
}

func (c *Console) printEvent(text string) {
	fmt.Fprintf(c.rl.Stdout(), "\n[%s] %s\n", time.Now().Format("15:04:05"), text)
	c.rl.Refresh()
}
