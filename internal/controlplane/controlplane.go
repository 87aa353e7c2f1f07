// Package controlplane implements the Control Plane (§4.5): routing
// decoded SET_VAR, NEW_COMMAND, and NET_FEEDBACK messages to the right
// sink — Configuration State, the OS input collaborator, or the adaptive
// feedback state.
package controlplane

import (
	"fmt"

	"github.com/pauloswear/deskstream/internal/adaptive"
	"github.com/pauloswear/deskstream/internal/input"
	"github.com/pauloswear/deskstream/internal/logging"
	"github.com/pauloswear/deskstream/internal/protocol"
	"github.com/pauloswear/deskstream/internal/render"
	"github.com/pauloswear/deskstream/internal/state"
)

var log = logging.L("controlplane")

// ExtentProvider reports the controllee's current capture extent, used to
// convert the relative (0..1) coordinates a MoveMouse/ScrollMouse command
// carries back into absolute source-frame pixels (§8 Input coordinate
// round-trip).
type ExtentProvider func() (w, h int)

// Controllee routes configuration and input messages arriving at the
// controllee: SET_VAR into Configuration State, NEW_COMMAND into the OS
// input collaborator (gated by should_update_commands), and NET_FEEDBACK
// into the adaptive state.
type Controllee struct {
	cfg      *state.Config
	adapt    *adaptive.Adaptation
	injector input.Injector
	extent   ExtentProvider

	commands chan protocol.NewCommand
	done     chan struct{}

	// lastX, lastY track the cursor's last absolute position as resolved
	// by MoveMouse. MouseInput (§3) carries no coordinates of its own —
	// touched only from dispatch, which runs on the single serialized
	// input-command goroutine (§5), so no separate lock is needed.
	lastX, lastY int
}

// NewControllee wires a Controllee's sinks. Dispatch of NEW_COMMAND events
// runs on a single background goroutine (§5: OS input injection is
// serialized through a single-consumer queue) started by Run.
func NewControllee(cfg *state.Config, adapt *adaptive.Adaptation, injector input.Injector, extent ExtentProvider) *Controllee {
	return &Controllee{
		cfg:      cfg,
		adapt:    adapt,
		injector: injector,
		extent:   extent,
		commands: make(chan protocol.NewCommand, 64),
		done:     make(chan struct{}),
	}
}

// Run drains the serialized input-command queue until Stop is called.
func (c *Controllee) Run() {
	for {
		select {
		case <-c.done:
			return
		case cmd := <-c.commands:
			c.dispatch(cmd)
		}
	}
}

// Stop ends Run.
func (c *Controllee) Stop() { close(c.done) }

// Handle routes one decoded message (§4.5 Input dispatch, §4.2 mutation).
func (c *Controllee) Handle(msg protocol.Payload) {
	switch m := msg.(type) {
	case protocol.SetVar:
		c.cfg.Set(m.Variable, m.Value)
	case protocol.NewCommand:
		if !c.cfg.ShouldUpdateCommands() {
			log.Debug("dropping NEW_COMMAND: should_update_commands is false", "name", m.Name)
			return
		}
		select {
		case c.commands <- m:
		default:
			log.Warn("input command queue full; dropping event", "name", m.Name)
		}
	case protocol.NetFeedback:
		c.adapt.RecordFeedback(m.Delta, m.FPS)
	default:
		log.Warn("controllee received an unexpected control-plane message")
	}
}

// dispatch applies one NEW_COMMAND to the OS input collaborator. Errors
// are logged and dropped — an unreachable input backend is never grounds
// to tear down the connection (§7).
func (c *Controllee) dispatch(cmd protocol.NewCommand) {
	var err error
	switch cmd.Name {
	case "MoveMouse":
		rx, ry, ok := twoFloats(cmd.Args)
		if !ok {
			err = fmt.Errorf("controlplane: malformed MoveMouse args")
			break
		}
		x, y := c.toAbsolute(rx, ry)
		c.lastX, c.lastY = x, y
		err = c.injector.MoveMouse(x, y)
	case "MouseInput":
		isLeft, isDown, ok := boolPair(cmd.Args)
		if !ok {
			err = fmt.Errorf("controlplane: malformed MouseInput args")
			break
		}
		button := "left"
		if !isLeft {
			button = "right"
		}
		if isDown {
			err = c.injector.MouseDown(c.lastX, c.lastY, button)
		} else {
			err = c.injector.MouseUp(c.lastX, c.lastY, button)
		}
	case "ScrollMouse":
		rx, ry, direction, amount, ok := scrollArgs(cmd.Args)
		if !ok {
			err = fmt.Errorf("controlplane: malformed ScrollMouse args")
			break
		}
		x, y := c.toAbsolute(rx, ry)
		delta := amount
		if direction < 0 {
			delta = -amount
		}
		err = c.injector.Scroll(x, y, delta)
	case "KeyboardInput":
		key, isDown, ok := keyPair(cmd.Args)
		if !ok {
			err = fmt.Errorf("controlplane: malformed KeyboardInput args")
			break
		}
		if isDown {
			err = c.injector.KeyDown(key)
		} else {
			err = c.injector.KeyUp(key)
		}
	default:
		err = fmt.Errorf("controlplane: unknown command %q", cmd.Name)
	}

	if err != nil {
		log.Warn("input dispatch failed", "command", cmd.Name, "error", err)
	}
}

// toAbsolute converts relative (0..1) coordinates into an absolute pixel
// position on the controllee's current capture extent.
func (c *Controllee) toAbsolute(rx, ry float64) (int, int) {
	w, h := c.extent()
	return render.ToSourcePixel(rx, ry, w, h)
}

func twoFloats(args []any) (float64, float64, bool) {
	if len(args) < 2 {
		return 0, 0, false
	}
	x, ok1 := toFloat(args[0])
	y, ok2 := toFloat(args[1])
	return x, y, ok1 && ok2
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

func boolPair(args []any) (bool, bool, bool) {
	if len(args) < 2 {
		return false, false, false
	}
	a, ok1 := args[0].(bool)
	b, ok2 := args[1].(bool)
	return a, b, ok1 && ok2
}

func keyPair(args []any) (string, bool, bool) {
	if len(args) < 2 {
		return "", false, false
	}
	key, ok1 := args[0].(string)
	isDown, ok2 := args[1].(bool)
	return key, isDown, ok1 && ok2
}

func scrollArgs(args []any) (rx, ry float64, direction, amount int, ok bool) {
	if len(args) < 4 {
		return 0, 0, 0, 0, false
	}
	var ok1, ok2, ok3, ok4 bool
	rx, ok1 = toFloat(args[0])
	ry, ok2 = toFloat(args[1])
	direction, ok3 = toInt(args[2])
	amount, ok4 = toInt(args[3])
	return rx, ry, direction, amount, ok1 && ok2 && ok3 && ok4
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}
