package controlplane

import (
	"testing"
	"time"

	"github.com/pauloswear/deskstream/internal/adaptive"
	"github.com/pauloswear/deskstream/internal/protocol"
	"github.com/pauloswear/deskstream/internal/state"
)

type fakeInjector struct {
	moved  []pair
	downs  []click
	ups    []click
	closed bool
}

type pair struct{ x, y int }
type click struct {
	x, y   int
	button string
}

func (f *fakeInjector) MoveMouse(x, y int) error {
	f.moved = append(f.moved, pair{x, y})
	return nil
}
func (f *fakeInjector) Click(x, y int, button string) error { return nil }
func (f *fakeInjector) MouseDown(x, y int, button string) error {
	f.downs = append(f.downs, click{x, y, button})
	return nil
}
func (f *fakeInjector) MouseUp(x, y int, button string) error {
	f.ups = append(f.ups, click{x, y, button})
	return nil
}
func (f *fakeInjector) Scroll(x, y, delta int) error             { return nil }
func (f *fakeInjector) KeyPress(key string, mods []string) error { return nil }
func (f *fakeInjector) KeyDown(key string) error                 { return nil }
func (f *fakeInjector) KeyUp(key string) error                   { return nil }
func (f *fakeInjector) Close() error                             { f.closed = true; return nil }

func TestHandleSetVarMutatesConfig(t *testing.T) {
	cfg := state.New()
	c := NewControllee(cfg, adaptive.New(), &fakeInjector{}, func() (int, int) { return 640, 480 })

	c.Handle(protocol.SetVar{Variable: state.KeyFPS, Value: float64(30)})
	if got := cfg.FPS(); got != 30 {
		t.Fatalf("expected fps=30, got %d", got)
	}
}

func TestHandleNetFeedbackRecordsOffset(t *testing.T) {
	adapt := adaptive.New()
	c := NewControllee(state.New(), adapt, &fakeInjector{}, func() (int, int) { return 640, 480 })

	c.Handle(protocol.NetFeedback{Delta: -10, FPS: 20})
	if got := adapt.Offset(); got != -10 {
		t.Fatalf("expected offset=-10, got %d", got)
	}
}

func TestNewCommandDroppedWhenUpdatesDisabled(t *testing.T) {
	cfg := state.New()
	cfg.Set(state.KeyShouldUpdateCommands, false)
	injector := &fakeInjector{}
	c := NewControllee(cfg, adaptive.New(), injector, func() (int, int) { return 640, 480 })

	c.Handle(protocol.NewCommand{Name: "MoveMouse", Args: []any{0.5, 0.5}})

	select {
	case <-c.commands:
		t.Fatal("expected NEW_COMMAND to be dropped, not queued")
	default:
	}
}

func TestMoveMouseConvertsRelativeToAbsolute(t *testing.T) {
	injector := &fakeInjector{}
	c := NewControllee(state.New(), adaptive.New(), injector, func() (int, int) { return 640, 480 })

	go c.Run()
	defer c.Stop()

	c.Handle(protocol.NewCommand{Name: "MoveMouse", Args: []any{0.5, 0.5}})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(injector.moved) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if len(injector.moved) != 1 {
		t.Fatalf("expected one MoveMouse call, got %d", len(injector.moved))
	}
	if injector.moved[0].x != 320 || injector.moved[0].y != 240 {
		t.Fatalf("expected (320,240), got (%d,%d)", injector.moved[0].x, injector.moved[0].y)
	}
}

func TestMouseInputUsesLastMovedPosition(t *testing.T) {
	injector := &fakeInjector{}
	c := NewControllee(state.New(), adaptive.New(), injector, func() (int, int) { return 640, 480 })

	go c.Run()
	defer c.Stop()

	c.Handle(protocol.NewCommand{Name: "MoveMouse", Args: []any{0.5, 0.5}})
	c.Handle(protocol.NewCommand{Name: "MouseInput", Args: []any{true, true}})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if len(injector.downs) > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if len(injector.downs) != 1 {
		t.Fatalf("expected one MouseDown call, got %d", len(injector.downs))
	}
	if injector.downs[0].x != 320 || injector.downs[0].y != 240 {
		t.Fatalf("expected MouseDown at (320,240), got (%d,%d)", injector.downs[0].x, injector.downs[0].y)
	}
	if injector.downs[0].button != "left" {
		t.Fatalf("expected left button, got %q", injector.downs[0].button)
	}
}
