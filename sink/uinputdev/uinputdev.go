// Package uinputdev injects events through one virtual input device created
// on /dev/uinput.
package uinputdev

import (
	"errors"
	"fmt"
	"log/slog"

	evdev "github.com/holoplot/go-evdev"
	"golang.org/x/sys/unix"

	"github.com/nwkbd/nwkbd/sink"
)

const busUSB = 0x03

// Config describes the virtual device.
type Config struct {
	Path    string `help:"uinput control node" default:"/dev/uinput" env:"NWKBD_DEVICE_PATH"`
	Name    string `help:"Virtual device name" default:"NW Keyboard" env:"NWKBD_DEVICE_NAME"`
	Vendor  uint16 `help:"USB vendor id reported by the device" default:"4660" env:"NWKBD_DEVICE_VENDOR"`
	Product uint16 `help:"USB product id reported by the device" default:"22136" env:"NWKBD_DEVICE_PRODUCT"`
	Rearm   bool   `help:"Destroy and recreate the device on every layer select, for hosts that drop its capabilities" env:"NWKBD_DEVICE_REARM"`
}

// ErrNotRegistered is returned when emitting with no live device.
var ErrNotRegistered = errors.New("virtual device not registered")

type device interface {
	WriteOne(ev *evdev.InputEvent) error
	Close() error
}

type createFunc func(name string, id evdev.InputID, caps map[evdev.EvType][]evdev.EvCode) (device, error)

func createEvdev(name string, id evdev.InputID, caps map[evdev.EvType][]evdev.EvCode) (device, error) {
	return evdev.CreateDevice(name, id, caps)
}

// Sink owns the virtual device.
type Sink struct {
	cfg    Config
	caps   sink.Capabilities
	logger *slog.Logger
	create createFunc
	dev    device
}

// Preflight checks that the uinput node is writable so a missing module or
// group membership is reported before anything else starts.
func Preflight(path string) error {
	if err := unix.Access(path, unix.W_OK); err != nil {
		return fmt.Errorf("no write access to %s: %w; ensure 'modprobe uinput' and permissions", path, err)
	}
	return nil
}

// New creates and registers the device.
func New(cfg Config, caps sink.Capabilities, logger *slog.Logger) (*Sink, error) {
	if err := Preflight(cfg.Path); err != nil {
		return nil, err
	}
	return newSink(cfg, caps, logger, createEvdev)
}

func newSink(cfg Config, caps sink.Capabilities, logger *slog.Logger, create createFunc) (*Sink, error) {
	s := &Sink{cfg: cfg, caps: caps, logger: logger, create: create}
	if err := s.register(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) register() error {
	id := evdev.InputID{
		BusType: busUSB,
		Vendor:  s.cfg.Vendor,
		Product: s.cfg.Product,
	}
	dev, err := s.create(s.cfg.Name, id, s.caps.Map())
	if err != nil {
		return fmt.Errorf("create virtual device %q: %w", s.cfg.Name, err)
	}
	s.dev = dev
	s.logger.Debug("virtual device registered", "name", s.cfg.Name, "keys", len(s.caps.Keys))
	return nil
}

func evType(kind sink.Kind) (evdev.EvType, error) {
	switch kind {
	case sink.Key:
		return evdev.EV_KEY, nil
	case sink.RelativeMotion:
		return evdev.EV_REL, nil
	case sink.Sync:
		return evdev.EV_SYN, nil
	default:
		return 0, fmt.Errorf("unknown event kind %s", kind)
	}
}

func (s *Sink) Emit(kind sink.Kind, code evdev.EvCode, value int32) error {
	if s.dev == nil {
		return ErrNotRegistered
	}
	typ, err := evType(kind)
	if err != nil {
		return err
	}
	ev := &evdev.InputEvent{Type: typ, Code: code, Value: value}
	if err := s.dev.WriteOne(ev); err != nil {
		return fmt.Errorf("write %s: %w", sink.Event{Kind: kind, Code: code, Value: value}, err)
	}
	return nil
}

// EnsureRegistered creates the device if it is gone. With Rearm set it
// replaces the live device, releasing the old one first.
func (s *Sink) EnsureRegistered() error {
	if s.dev != nil && !s.cfg.Rearm {
		return nil
	}
	if s.dev != nil {
		if err := s.dev.Close(); err != nil {
			s.logger.Warn("closing virtual device before rearm", "error", err)
		}
		s.dev = nil
	}
	return s.register()
}

func (s *Sink) Shutdown() error {
	if s.dev == nil {
		return nil
	}
	err := s.dev.Close()
	s.dev = nil
	if err != nil {
		return fmt.Errorf("destroy virtual device: %w", err)
	}
	s.logger.Debug("virtual device destroyed", "name", s.cfg.Name)
	return nil
}
