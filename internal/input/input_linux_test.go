//go:build linux

package input

import "testing"

func TestTranslateKeyKnownNames(t *testing.T) {
	cases := map[string]string{
		"Enter":     "Return",
		"ESC":       "Escape",
		"tab":       "Tab",
		"a":         "a",
		"PageDown":  "Page_Down",
	}
	for in, want := range cases {
		if got := translateKey(in); got != want {
			t.Errorf("translateKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestXdotoolButtonMapping(t *testing.T) {
	cases := map[string]string{
		"left":   "1",
		"right":  "3",
		"middle": "2",
		"":       "1",
	}
	for in, want := range cases {
		if got := xdotoolButton(in); got != want {
			t.Errorf("xdotoolButton(%q) = %q, want %q", in, got, want)
		}
	}
}
