//go:build !linux

package input

type unsupportedInjector struct{}

func newPlatformInjector() (Injector, error) {
	return unsupportedInjector{}, nil
}

func (unsupportedInjector) MoveMouse(x, y int) error                   { return ErrNotSupported }
func (unsupportedInjector) Click(x, y int, button string) error        { return ErrNotSupported }
func (unsupportedInjector) MouseDown(x, y int, button string) error    { return ErrNotSupported }
func (unsupportedInjector) MouseUp(x, y int, button string) error      { return ErrNotSupported }
func (unsupportedInjector) Scroll(x, y, delta int) error               { return ErrNotSupported }
func (unsupportedInjector) KeyPress(key string, mods []string) error   { return ErrNotSupported }
func (unsupportedInjector) KeyDown(key string) error                   { return ErrNotSupported }
func (unsupportedInjector) KeyUp(key string) error                     { return ErrNotSupported }
func (unsupportedInjector) Close() error                               { return nil }
