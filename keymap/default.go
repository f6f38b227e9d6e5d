package keymap

import evdev "github.com/holoplot/go-evdev"

// Reference layout bits.
const (
	AuxBit      = 7  // "power": shift + numlock, toggles mouse use on the host
	SelectBit0  = 14 // "xnt": first layer
	SelectBit1  = 15 // "var": second layer
	DefaultSize = 53
)

func pair(label string, l0, l1 evdev.EvCode) Entry {
	return Entry{Label: label, Codes: []Code{Key(l0), Key(l1)}}
}

func blank(label string) Entry {
	return Entry{Label: label, Codes: []Code{Absent, Absent}}
}

// Default returns the reference keypad layout: letters on layer 0,
// function keys, digits and operators on layer 1.
func Default() *Table {
	return &Table{
		Layers: 2,
		Aux: Aux{
			Bit:   AuxBit,
			Codes: []evdev.EvCode{evdev.KEY_LEFTSHIFT, evdev.KEY_NUMLOCK},
		},
		Select: []int{SelectBit0, SelectBit1},
		Entries: []Entry{
			pair("left", evdev.KEY_KP4, evdev.KEY_KP4),
			pair("up", evdev.KEY_KP8, evdev.KEY_KP8),
			pair("down", evdev.KEY_KP2, evdev.KEY_KP2),
			pair("right", evdev.KEY_KP6, evdev.KEY_KP6),
			pair("ok", evdev.BTN_LEFT, evdev.BTN_LEFT),
			pair("back", evdev.BTN_RIGHT, evdev.BTN_RIGHT),
			blank("home"),
			blank("power"),
			blank(""),
			blank(""),
			blank(""),
			blank(""),
			pair("shift", evdev.KEY_LEFTSHIFT, evdev.KEY_LEFTSHIFT),
			pair("alpha", evdev.KEY_CAPSLOCK, evdev.KEY_CAPSLOCK),
			blank("xnt"),
			blank("var"),
			pair("toolbox", evdev.KEY_RIGHTALT, evdev.KEY_RIGHTALT),
			pair("backspace", evdev.KEY_BACKSPACE, evdev.KEY_ESC),
			pair("A", evdev.KEY_A, evdev.KEY_F1),
			pair("B", evdev.KEY_B, evdev.KEY_F2),
			pair("C", evdev.KEY_C, evdev.KEY_F3),
			pair("D", evdev.KEY_D, evdev.KEY_F4),
			pair("E ,", evdev.KEY_E, evdev.KEY_F5),
			pair("F", evdev.KEY_F, evdev.KEY_F6),
			pair("G", evdev.KEY_G, evdev.KEY_F7),
			pair("H", evdev.KEY_H, evdev.KEY_F8),
			pair("I", evdev.KEY_I, evdev.KEY_F9),
			pair("J", evdev.KEY_J, evdev.KEY_F10),
			pair("K", evdev.KEY_K, evdev.KEY_F11),
			pair("L", evdev.KEY_L, evdev.KEY_F12),
			pair("M 7", evdev.KEY_M, evdev.KEY_7),
			pair("N 8", evdev.KEY_N, evdev.KEY_8),
			pair("O 9", evdev.KEY_O, evdev.KEY_9),
			pair("P (", evdev.KEY_P, evdev.KEY_5),
			pair("Q )", evdev.KEY_Q, evdev.KEY_MINUS),
			blank(""),
			pair("R 4", evdev.KEY_R, evdev.KEY_4),
			pair("S 5", evdev.KEY_S, evdev.KEY_5),
			pair("T 6", evdev.KEY_T, evdev.KEY_6),
			pair("U *", evdev.KEY_U, evdev.KEY_KPASTERISK),
			pair("V /", evdev.KEY_V, evdev.KEY_KPSLASH),
			blank(""),
			pair("W 1", evdev.KEY_W, evdev.KEY_1),
			pair("X 2", evdev.KEY_X, evdev.KEY_2),
			pair("Y 3", evdev.KEY_Y, evdev.KEY_3),
			pair("Z +", evdev.KEY_Z, evdev.KEY_KPPLUS),
			pair("space -", evdev.KEY_SPACE, evdev.KEY_KPMINUS),
			blank(""),
			pair("? 0", evdev.KEY_QUESTION, evdev.KEY_0),
			pair("! .", evdev.KEY_COMMA, evdev.KEY_SEMICOLON),
			pair("x10^x", evdev.KEY_LEFTCTRL, evdev.KEY_LEFTCTRL),
			pair("ans", evdev.KEY_LEFTALT, evdev.KEY_LEFTALT),
			pair("exe", evdev.KEY_ENTER, evdev.KEY_EQUAL),
		},
	}
}
