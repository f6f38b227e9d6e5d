package cmd

import (
	"fmt"
	"log/slog"

	"github.com/nwkbd/nwkbd/keymap"
	"github.com/nwkbd/nwkbd/sink"
	"github.com/nwkbd/nwkbd/sink/splitdev"
	"github.com/nwkbd/nwkbd/sink/uinputdev"
)

const (
	backendUinput = "uinput"
	backendSplit  = "split"
	backendLog    = "log"
)

// loadKeymap returns the built-in table when path is empty.
func loadKeymap(path string, logger *slog.Logger) (*keymap.Table, error) {
	if path == "" {
		return keymap.Default(), nil
	}
	t, err := keymap.Load(path)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded keymap", "path", path, "layers", t.Layers, "keys", t.Size())
	return t, nil
}

// openSink creates the output backend for table.
func openSink(backend string, dev uinputdev.Config, table *keymap.Table, logger *slog.Logger) (sink.Sink, error) {
	switch backend {
	case backendUinput, "":
		return uinputdev.New(dev, sink.CapabilitiesFor(table.Codes()), logger)
	case backendSplit:
		if err := uinputdev.Preflight(dev.Path); err != nil {
			return nil, err
		}
		return splitdev.New(dev.Path, dev.Name, logger)
	case backendLog:
		return &sink.Logging{Logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", backend)
	}
}
