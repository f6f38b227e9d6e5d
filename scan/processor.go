// Package scan turns successive keypad matrix snapshots into key events.
package scan

import (
	"fmt"
	"log/slog"
	"sync"

	evdev "github.com/holoplot/go-evdev"

	"github.com/nwkbd/nwkbd/keymap"
	"github.com/nwkbd/nwkbd/sink"
)

// Value is one snapshot of the matrix: bit i set means key i is down.
type Value uint64

// Bit reports whether bit i is set. Bits outside [0, 64) are never set.
func (v Value) Bit(i int) bool {
	if i < 0 || i >= keymap.ScanBits {
		return false
	}
	return v&(1<<uint(i)) != 0
}

func level(set bool) int32 {
	if set {
		return 1
	}
	return 0
}

// Processor holds the last snapshot and the active layer. One mutex guards
// the whole transition so frames never interleave.
type Processor struct {
	mu       sync.Mutex
	table    *keymap.Table
	sink     sink.Sink
	logger   *slog.Logger
	previous Value
	layer    int
}

// New returns a Processor with no keys down and layer 0 active.
func New(table *keymap.Table, s sink.Sink, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{table: table, sink: s, logger: logger}
}

// Layer returns the active layer.
func (p *Processor) Layer() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.layer
}

// Previous returns the last fully processed snapshot.
func (p *Processor) Previous() Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.previous
}

// Process emits the events for the transition from the previous snapshot to
// v, always ending with exactly one sync. Sink errors are returned as is
// (wrapped) and leave the previous snapshot untouched.
func (p *Processor) Process(v Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	changed := p.previous ^ v
	t := p.table

	if changed.Bit(t.Aux.Bit) {
		val := level(v.Bit(t.Aux.Bit))
		for _, code := range t.Aux.Codes {
			if err := p.sink.Emit(sink.Key, code, val); err != nil {
				return fmt.Errorf("emit aux %s: %w", keymap.CodeName(code), err)
			}
		}
	}

	// First set select bit wins; with none set the layer sticks.
	for layer, bit := range t.Select {
		if !v.Bit(bit) {
			continue
		}
		if layer != p.layer {
			p.logger.Debug("layer switch", "from", p.layer, "to", layer)
		}
		p.layer = layer
		if err := p.sink.EnsureRegistered(); err != nil {
			return fmt.Errorf("refresh device: %w", err)
		}
		break
	}

	n := min(t.Size(), keymap.ScanBits)
	for i := 0; i < n; i++ {
		if !changed.Bit(i) {
			continue
		}
		code, ok := t.Lookup(i, p.layer)
		if !ok {
			continue
		}
		if err := p.sink.Emit(sink.Key, code, level(v.Bit(i))); err != nil {
			return fmt.Errorf("emit key %d (%s): %w", i, t.Label(i), err)
		}
	}

	if err := p.sink.Emit(sink.Sync, evdev.SYN_REPORT, 0); err != nil {
		return fmt.Errorf("emit sync: %w", err)
	}

	if changed != 0 {
		p.logger.Debug("frame", "scan", fmt.Sprintf("%016x", uint64(v)), "changed", fmt.Sprintf("%016x", uint64(changed)), "layer", p.layer)
	}
	p.previous = v
	return nil
}
