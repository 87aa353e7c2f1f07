package controlplane

import "github.com/pauloswear/deskstream/internal/protocol"

// The controller side never executes input locally — it only builds the
// NEW_COMMAND messages the data model names (§3 Input event) for the
// transport to carry to the controllee.

// MoveMouse builds a MoveMouse(rx,ry) command. Coordinates are relative
// (0..1) to the displayed frame.
func MoveMouse(rx, ry float64) protocol.NewCommand {
	return protocol.NewCommand{Name: "MoveMouse", Args: []any{rx, ry}}
}

// MouseInput builds a MouseInput(isLeftButton,isDown) command.
func MouseInput(isLeftButton, isDown bool) protocol.NewCommand {
	return protocol.NewCommand{Name: "MouseInput", Args: []any{isLeftButton, isDown}}
}

// ScrollMouse builds a ScrollMouse(rx,ry,direction,amount) command.
func ScrollMouse(rx, ry float64, direction, amount int) protocol.NewCommand {
	return protocol.NewCommand{Name: "ScrollMouse", Args: []any{rx, ry, direction, amount}}
}

// KeyboardInput builds a KeyboardInput(keycode,isDown) command.
func KeyboardInput(keycode string, isDown bool) protocol.NewCommand {
	return protocol.NewCommand{Name: "KeyboardInput", Args: []any{keycode, isDown}}
}

// Feedback builds the NET_FEEDBACK message the controller emits after
// every received frame update (§4.5 Feedback law).
func Feedback(delta int, fps float64) protocol.NetFeedback {
	return protocol.NetFeedback{Delta: delta, FPS: fps}
}
