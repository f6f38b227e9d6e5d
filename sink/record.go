package sink

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	evdev "github.com/holoplot/go-evdev"
)

// Recorder keeps every event in memory.
type Recorder struct {
	mu        sync.Mutex
	events    []Event
	refreshes int
	shutdowns int

	// EmitErr, when set, is returned by Emit instead of recording.
	EmitErr error
	// RefreshErr, when set, is returned by EnsureRegistered.
	RefreshErr error
}

func (r *Recorder) Emit(kind Kind, code evdev.EvCode, value int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.EmitErr != nil {
		return r.EmitErr
	}
	r.events = append(r.events, Event{Kind: kind, Code: code, Value: value})
	return nil
}

func (r *Recorder) EnsureRegistered() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.refreshes++
	return r.RefreshErr
}

func (r *Recorder) Shutdown() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdowns++
	return nil
}

// Events returns the recorded events and clears them.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev := r.events
	r.events = nil
	return ev
}

// Refreshes returns how many times EnsureRegistered was called.
func (r *Recorder) Refreshes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.refreshes
}

// Shutdowns returns how many times Shutdown was called.
func (r *Recorder) Shutdowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdowns
}

// Writer prints one line per event, e.g. "KEY KEY_KP8 1".
type Writer struct {
	W io.Writer
	// Refresh, when true, also prints a REFRESH line per EnsureRegistered.
	Refresh bool
}

func (w *Writer) Emit(kind Kind, code evdev.EvCode, value int32) error {
	_, err := fmt.Fprintln(w.W, Event{Kind: kind, Code: code, Value: value})
	return err
}

func (w *Writer) EnsureRegistered() error {
	if !w.Refresh {
		return nil
	}
	_, err := fmt.Fprintln(w.W, "REFRESH")
	return err
}

func (w *Writer) Shutdown() error {
	return nil
}

// Logging logs events instead of injecting them. Useful to check wiring on
// a machine without /dev/uinput.
type Logging struct {
	Logger *slog.Logger
}

func (l *Logging) Emit(kind Kind, code evdev.EvCode, value int32) error {
	if kind == Sync {
		l.Logger.Debug("sync")
		return nil
	}
	l.Logger.Info("event", "event", Event{Kind: kind, Code: code, Value: value}.String())
	return nil
}

func (l *Logging) EnsureRegistered() error {
	l.Logger.Debug("refresh device")
	return nil
}

func (l *Logging) Shutdown() error {
	l.Logger.Info("device released")
	return nil
}
