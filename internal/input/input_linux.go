//go:build linux

package input

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// xdotoolInjector shells out to xdotool for every event, same as the
// source's Linux input handler.
type xdotoolInjector struct{}

func newPlatformInjector() (Injector, error) {
	return xdotoolInjector{}, nil
}

func (xdotoolInjector) MoveMouse(x, y int) error {
	return exec.Command("xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y)).Run()
}

func (i xdotoolInjector) Click(x, y int, button string) error {
	if err := i.MoveMouse(x, y); err != nil {
		return fmt.Errorf("input: move before click: %w", err)
	}
	return exec.Command("xdotool", "click", xdotoolButton(button)).Run()
}

func (i xdotoolInjector) MouseDown(x, y int, button string) error {
	if err := i.MoveMouse(x, y); err != nil {
		return fmt.Errorf("input: move before mousedown: %w", err)
	}
	return exec.Command("xdotool", "mousedown", xdotoolButton(button)).Run()
}

func (xdotoolInjector) MouseUp(x, y int, button string) error {
	return exec.Command("xdotool", "mouseup", xdotoolButton(button)).Run()
}

func (i xdotoolInjector) Scroll(x, y, delta int) error {
	if err := i.MoveMouse(x, y); err != nil {
		return fmt.Errorf("input: move before scroll: %w", err)
	}

	direction := "4" // up
	if delta < 0 {
		direction = "5" // down
		delta = -delta
	}
	for n := 0; n < delta; n++ {
		if err := exec.Command("xdotool", "click", direction).Run(); err != nil {
			return err
		}
	}
	return nil
}

func (i xdotoolInjector) KeyPress(key string, modifiers []string) error {
	keyStr := translateKey(key)
	if len(modifiers) > 0 {
		mods := make([]string, 0, len(modifiers))
		for _, m := range modifiers {
			switch strings.ToLower(m) {
			case "ctrl", "control":
				mods = append(mods, "ctrl")
			case "alt":
				mods = append(mods, "alt")
			case "shift":
				mods = append(mods, "shift")
			case "meta", "super", "win", "cmd":
				mods = append(mods, "super")
			}
		}
		keyStr = strings.Join(append(mods, keyStr), "+")
	}
	return exec.Command("xdotool", "key", keyStr).Run()
}

func (xdotoolInjector) KeyDown(key string) error {
	return exec.Command("xdotool", "keydown", translateKey(key)).Run()
}

func (xdotoolInjector) KeyUp(key string) error {
	return exec.Command("xdotool", "keyup", translateKey(key)).Run()
}

func (xdotoolInjector) Close() error { return nil }

func xdotoolButton(button string) string {
	switch button {
	case "right":
		return "3"
	case "middle":
		return "2"
	default:
		return "1"
	}
}

func translateKey(key string) string {
	switch strings.ToLower(key) {
	case "enter", "return":
		return "Return"
	case "tab":
		return "Tab"
	case "space":
		return "space"
	case "backspace":
		return "BackSpace"
	case "escape", "esc":
		return "Escape"
	case "delete", "del":
		return "Delete"
	case "home":
		return "Home"
	case "end":
		return "End"
	case "pageup":
		return "Page_Up"
	case "pagedown":
		return "Page_Down"
	case "up":
		return "Up"
	case "down":
		return "Down"
	case "left":
		return "Left"
	case "right":
		return "Right"
	default:
		return key
	}
}
