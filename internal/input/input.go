// Package input is the OS input injection collaborator named in §6: turning
// a decoded NEW_COMMAND into an actual mouse move, click, scroll, or key
// event on the host. Platform-specific injectors live in build-tag-gated
// files, mirroring the source's per-OS input handler split.
package input

import "errors"

// ErrNotSupported is returned by an Injector that cannot operate in the
// current build.
var ErrNotSupported = errors.New("input: not supported on this platform")

// Injector is the OS input injection collaborator (§6).
type Injector interface {
	MoveMouse(x, y int) error
	Click(x, y int, button string) error
	MouseDown(x, y int, button string) error
	MouseUp(x, y int, button string) error
	Scroll(x, y, delta int) error
	KeyPress(key string, modifiers []string) error
	KeyDown(key string) error
	KeyUp(key string) error
	Close() error
}

// NewInjector returns the platform-specific Injector. Implementation lives
// in input_*.go files selected by build tags.
func NewInjector() (Injector, error) {
	return newPlatformInjector()
}
