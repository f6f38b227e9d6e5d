package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nwkbd/nwkbd/internal/bridge"
	"github.com/nwkbd/nwkbd/internal/log"
	"github.com/nwkbd/nwkbd/scan"
	"github.com/nwkbd/nwkbd/sink"
)

// Replay feeds recorded frames through the translator and prints the
// resulting events instead of injecting them.
type Replay struct {
	File    string `arg:"" optional:"" help:"File with one frame per line; stdin when omitted or -"`
	Keymap  string `help:"Keymap file (json, yaml or toml); built-in table when empty" env:"NWKBD_KEYMAP"`
	Strict  bool   `help:"Stop on the first undecodable line instead of skipping it"`
	Refresh bool   `help:"Also print a REFRESH line whenever a layer select asks for a device refresh"`
}

func (r *Replay) Run(logger *slog.Logger, rawLogger log.RawLogger) error {
	var in io.ReadCloser = io.NopCloser(os.Stdin)
	if r.File != "" && r.File != "-" {
		f, err := os.Open(r.File)
		if err != nil {
			return fmt.Errorf("open replay input: %w", err)
		}
		in = f
	}
	return r.replay(in, os.Stdout, logger, rawLogger)
}

func (r *Replay) replay(in io.ReadCloser, out io.Writer, logger *slog.Logger, rawLogger log.RawLogger) error {
	table, err := loadKeymap(r.Keymap, logger)
	if err != nil {
		_ = in.Close()
		return err
	}
	guard := sink.NewGuard(&sink.Writer{W: out, Refresh: r.Refresh})
	defer func() { _ = guard.Shutdown() }()

	proc := scan.New(table, guard, logger)
	b := bridge.New(in, proc, bridge.Options{Strict: r.Strict, StopAtEOF: true}, logger, rawLogger)
	defer func() { _ = b.Close() }()
	return b.Serve()
}
