// Package keymap maps scan bit positions of the keypad matrix to per-layer
// key codes.
package keymap

import (
	"errors"
	"fmt"
	"slices"

	evdev "github.com/holoplot/go-evdev"
)

// ScanBits is the width of a scan value. Entries at or beyond this index
// never see a transition.
const ScanBits = 64

// Entry is one physical key of the matrix.
type Entry struct {
	// Label is diagnostic only.
	Label string
	// Codes holds one slot per layer.
	Codes []Code
}

// Aux is a key that drives several codes at once instead of a keymap
// lookup, e.g. Shift together with NumLock.
type Aux struct {
	Bit   int
	Codes []evdev.EvCode
}

// Table is the static keymap. It is read-only once built.
type Table struct {
	Entries []Entry
	Layers  int
	Aux     Aux
	// Select holds the layer-select bit for each layer, in layer order.
	Select []int
}

var (
	ErrNoLayers      = errors.New("keymap needs at least one layer")
	ErrSelectCount   = errors.New("one select bit is required per layer")
	ErrReservedRange = errors.New("reserved bit out of range")
	ErrReservedDup   = errors.New("reserved bit used twice")
	ErrNoAuxCodes    = errors.New("aux key needs at least one code")
)

// Validate checks the table shape. Absent slots and missing entries are not
// errors.
func (t *Table) Validate() error {
	if t.Layers < 1 {
		return ErrNoLayers
	}
	for i, e := range t.Entries {
		if len(e.Codes) != t.Layers {
			return fmt.Errorf("entry %d (%s): has %d codes, want %d", i, e.Label, len(e.Codes), t.Layers)
		}
	}
	if len(t.Select) != t.Layers {
		return fmt.Errorf("%w: got %d, want %d", ErrSelectCount, len(t.Select), t.Layers)
	}
	if len(t.Aux.Codes) == 0 {
		return ErrNoAuxCodes
	}
	seen := map[int]bool{}
	for _, b := range append([]int{t.Aux.Bit}, t.Select...) {
		if b < 0 || b >= ScanBits {
			return fmt.Errorf("%w: %d", ErrReservedRange, b)
		}
		if seen[b] {
			return fmt.Errorf("%w: %d", ErrReservedDup, b)
		}
		seen[b] = true
	}
	return nil
}

// Size returns the number of entries.
func (t *Table) Size() int {
	return len(t.Entries)
}

// Reserved reports whether index is the aux bit or a layer-select bit.
// Reserved bits never go through the ordinary key lookup.
func (t *Table) Reserved(index int) bool {
	return index == t.Aux.Bit || slices.Contains(t.Select, index)
}

// Lookup returns the code for index under layer. It reports false for
// indices outside the table, layers outside [0, Layers), reserved bits and
// absent slots.
func (t *Table) Lookup(index, layer int) (evdev.EvCode, bool) {
	if index < 0 || index >= len(t.Entries) || layer < 0 || layer >= t.Layers {
		return 0, false
	}
	if t.Reserved(index) {
		return 0, false
	}
	codes := t.Entries[index].Codes
	if layer >= len(codes) {
		return 0, false
	}
	return codes[layer].Get()
}

// Label returns the diagnostic label of index, or "" if there is none.
func (t *Table) Label(index int) string {
	if index < 0 || index >= len(t.Entries) {
		return ""
	}
	return t.Entries[index].Label
}

// Codes returns every present code of every layer plus the aux codes,
// sorted and without duplicates.
func (t *Table) Codes() []evdev.EvCode {
	var out []evdev.EvCode
	for i, e := range t.Entries {
		if t.Reserved(i) {
			continue
		}
		for _, c := range e.Codes {
			if code, ok := c.Get(); ok {
				out = append(out, code)
			}
		}
	}
	out = append(out, t.Aux.Codes...)
	slices.Sort(out)
	return slices.Compact(out)
}
