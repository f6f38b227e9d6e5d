// Package sink defines where translated input events go: the contract the
// scan processor drives and the small sinks shared by every backend.
package sink

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	evdev "github.com/holoplot/go-evdev"

	"github.com/nwkbd/nwkbd/keymap"
)

// Kind is the class of an emitted event.
type Kind uint8

const (
	Key Kind = iota
	RelativeMotion
	Sync
)

func (k Kind) String() string {
	switch k {
	case Key:
		return "KEY"
	case RelativeMotion:
		return "REL"
	case Sync:
		return "SYN"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Sink receives events in call order. Events may be buffered until a Sync.
type Sink interface {
	// Emit writes one event.
	Emit(kind Kind, code evdev.EvCode, value int32) error
	// EnsureRegistered makes sure the virtual device exists with its full
	// capability set. It is called often and must not emit key events.
	EnsureRegistered() error
	// Shutdown releases the virtual device.
	Shutdown() error
}

// ErrClosed is returned by a Guard after Shutdown.
var ErrClosed = errors.New("sink closed")

// Event is one emitted triple.
type Event struct {
	Kind  Kind
	Code  evdev.EvCode
	Value int32
}

func (e Event) String() string {
	switch e.Kind {
	case Key:
		return fmt.Sprintf("%s %s %d", e.Kind, keymap.CodeName(e.Code), e.Value)
	case Sync:
		return fmt.Sprintf("%s SYN_REPORT %d", e.Kind, e.Value)
	default:
		return fmt.Sprintf("%s %d %d", e.Kind, e.Code, e.Value)
	}
}

// Capabilities is what a virtual device advertises.
type Capabilities struct {
	Keys     []evdev.EvCode
	Relative []evdev.EvCode
}

// CapabilitiesFor returns the advertised set for the given key codes: the
// keys themselves plus the three mouse buttons and the X/Y axes.
func CapabilitiesFor(keys []evdev.EvCode) Capabilities {
	all := append(slices.Clone(keys), evdev.BTN_LEFT, evdev.BTN_MIDDLE, evdev.BTN_RIGHT)
	slices.Sort(all)
	return Capabilities{
		Keys:     slices.Compact(all),
		Relative: []evdev.EvCode{evdev.REL_X, evdev.REL_Y},
	}
}

// Map returns the capabilities in the shape evdev.CreateDevice expects.
func (c Capabilities) Map() map[evdev.EvType][]evdev.EvCode {
	return map[evdev.EvType][]evdev.EvCode{
		evdev.EV_KEY: c.Keys,
		evdev.EV_REL: c.Relative,
	}
}

// Guard serializes access to a Sink and makes Shutdown run exactly once,
// whichever goroutine gets there first.
type Guard struct {
	mu     sync.Mutex
	s      Sink
	closed bool
	once   sync.Once
	err    error
}

func NewGuard(s Sink) *Guard {
	return &Guard{s: s}
}

func (g *Guard) Emit(kind Kind, code evdev.EvCode, value int32) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	return g.s.Emit(kind, code, value)
}

func (g *Guard) EnsureRegistered() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	return g.s.EnsureRegistered()
}

// Shutdown shuts the wrapped sink down on the first call and returns that
// result on every call.
func (g *Guard) Shutdown() error {
	g.once.Do(func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.closed = true
		g.err = g.s.Shutdown()
	})
	return g.err
}
