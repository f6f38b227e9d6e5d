package keymap

import (
	"fmt"
	"strings"

	evdev "github.com/holoplot/go-evdev"
)

// Code is an optional key or button identifier for one layer of an entry.
// The zero value is Absent, so KEY_RESERVED (0) can still be a present code.
type Code struct {
	code    evdev.EvCode
	present bool
}

// Absent marks a slot that never produces an event.
var Absent = Code{}

// Key returns a present Code for c.
func Key(c evdev.EvCode) Code {
	return Code{code: c, present: true}
}

// Get returns the code and whether it is present.
func (c Code) Get() (evdev.EvCode, bool) {
	return c.code, c.present
}

// Present reports whether the slot carries a code.
func (c Code) Present() bool {
	return c.present
}

// String returns the evdev name of the code, "-" when absent.
func (c Code) String() string {
	if !c.present {
		return "-"
	}
	return CodeName(c.code)
}

// CodeName returns the evdev name for a key or button code, or its
// decimal value if the name table does not know it.
func CodeName(c evdev.EvCode) string {
	if name, ok := evdev.KEYToString[c]; ok {
		return name
	}
	return fmt.Sprintf("%d", c)
}

// ParseCode resolves an evdev key or button name (KEY_A, BTN_LEFT) into a
// Code. An empty name or "-" yields Absent.
func ParseCode(name string) (Code, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "-" {
		return Absent, nil
	}
	c, ok := evdev.KEYFromString[strings.ToUpper(name)]
	if !ok {
		return Absent, fmt.Errorf("unknown key code %q", name)
	}
	return Key(c), nil
}
