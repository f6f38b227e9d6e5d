// Package splitdev injects events through two virtual devices, a keyboard
// and a mouse, created with github.com/bendahl/uinput. Some hosts only pick
// up mouse buttons from a device that looks like a mouse.
//
// The library reports each key on its own, so Sync is a no-op here.
package splitdev

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/bendahl/uinput"
	evdev "github.com/holoplot/go-evdev"

	"github.com/nwkbd/nwkbd/sink"
)

type keyboard interface {
	KeyDown(key int) error
	KeyUp(key int) error
	io.Closer
}

type mouse interface {
	LeftPress() error
	LeftRelease() error
	RightPress() error
	RightRelease() error
	MiddlePress() error
	MiddleRelease() error
	Move(x, y int32) error
	io.Closer
}

type factory struct {
	keyboard func(path string, name []byte) (keyboard, error)
	mouse    func(path string, name []byte) (mouse, error)
}

var libFactory = factory{
	keyboard: func(path string, name []byte) (keyboard, error) { return uinput.CreateKeyboard(path, name) },
	mouse:    func(path string, name []byte) (mouse, error) { return uinput.CreateMouse(path, name) },
}

// Sink routes BTN_LEFT/RIGHT/MIDDLE and relative motion to the mouse and
// every other key to the keyboard.
type Sink struct {
	path   string
	name   string
	logger *slog.Logger
	f      factory
	kbd    keyboard
	mouse  mouse
}

// New creates both devices. The mouse gets name + " Mouse".
func New(path, name string, logger *slog.Logger) (*Sink, error) {
	return newSink(path, name, logger, libFactory)
}

func newSink(path, name string, logger *slog.Logger, f factory) (*Sink, error) {
	s := &Sink{path: path, name: name, logger: logger, f: f}
	if err := s.EnsureRegistered(); err != nil {
		return nil, err
	}
	return s, nil
}

// EnsureRegistered recreates whichever device is missing.
func (s *Sink) EnsureRegistered() error {
	if s.kbd == nil {
		kbd, err := s.f.keyboard(s.path, []byte(s.name))
		if err != nil {
			return fmt.Errorf("create virtual keyboard %q: %w", s.name, err)
		}
		s.kbd = kbd
		s.logger.Debug("virtual keyboard registered", "name", s.name)
	}
	if s.mouse == nil {
		name := s.name + " Mouse"
		m, err := s.f.mouse(s.path, []byte(name))
		if err != nil {
			return fmt.Errorf("create virtual mouse %q: %w", name, err)
		}
		s.mouse = m
		s.logger.Debug("virtual mouse registered", "name", name)
	}
	return nil
}

func (s *Sink) Emit(kind sink.Kind, code evdev.EvCode, value int32) error {
	if s.kbd == nil || s.mouse == nil {
		return errors.New("virtual devices not registered")
	}
	var err error
	switch kind {
	case sink.Sync:
		return nil
	case sink.RelativeMotion:
		err = s.move(code, value)
	case sink.Key:
		err = s.key(code, value != 0)
	default:
		return fmt.Errorf("unknown event kind %s", kind)
	}
	if err != nil {
		return fmt.Errorf("write %s: %w", sink.Event{Kind: kind, Code: code, Value: value}, err)
	}
	return nil
}

func (s *Sink) move(code evdev.EvCode, value int32) error {
	switch code {
	case evdev.REL_X:
		return s.mouse.Move(value, 0)
	case evdev.REL_Y:
		return s.mouse.Move(0, value)
	default:
		return fmt.Errorf("unsupported relative axis %d", code)
	}
}

func (s *Sink) key(code evdev.EvCode, down bool) error {
	switch code {
	case evdev.BTN_LEFT:
		if down {
			return s.mouse.LeftPress()
		}
		return s.mouse.LeftRelease()
	case evdev.BTN_RIGHT:
		if down {
			return s.mouse.RightPress()
		}
		return s.mouse.RightRelease()
	case evdev.BTN_MIDDLE:
		if down {
			return s.mouse.MiddlePress()
		}
		return s.mouse.MiddleRelease()
	}
	if down {
		return s.kbd.KeyDown(int(code))
	}
	return s.kbd.KeyUp(int(code))
}

func (s *Sink) Shutdown() error {
	var errs []error
	if s.kbd != nil {
		errs = append(errs, s.kbd.Close())
		s.kbd = nil
	}
	if s.mouse != nil {
		errs = append(errs, s.mouse.Close())
		s.mouse = nil
	}
	return errors.Join(errs...)
}
