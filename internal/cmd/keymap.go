package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"github.com/nwkbd/nwkbd/internal/configpaths"
	"github.com/nwkbd/nwkbd/keymap"
)

// KeymapCommand groups keymap-related subcommands.
type KeymapCommand struct {
	Show   KeymapShow   `cmd:"" help:"Print a keymap as a table"`
	Export KeymapExport `cmd:"" help:"Write a keymap as json, yaml or toml, e.g. to start a custom one"`
}

type KeymapShow struct {
	File string `arg:"" optional:"" help:"Keymap file; built-in table when omitted"`
}

func (k *KeymapShow) Run(logger *slog.Logger) error {
	t, err := loadKeymap(k.File, logger)
	if err != nil {
		return err
	}
	return writeKeymap(os.Stdout, t, term.IsTerminal(int(os.Stdout.Fd())))
}

type KeymapExport struct {
	File   string `arg:"" optional:"" help:"Keymap file to convert; built-in table when omitted"`
	Format string `help:"Output format" enum:"json,yaml,toml" default:"yaml"`
	Output string `short:"o" help:"Destination file; stdout when empty"`
	Force  bool   `help:"Overwrite if the file already exists"`
}

func (k *KeymapExport) Run(logger *slog.Logger) error {
	t, err := loadKeymap(k.File, logger)
	if err != nil {
		return err
	}
	data, err := keymap.Marshal(t, normalizeFormat(k.Format))
	if err != nil {
		return err
	}
	if k.Output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if !k.Force {
		if _, err := os.Stat(k.Output); err == nil {
			return errors.New("destination exists; use --force to overwrite")
		}
	}
	if err := configpaths.EnsureDir(k.Output); err != nil {
		return err
	}
	if err := os.WriteFile(k.Output, data, 0o644); err != nil {
		return err
	}
	logger.Info("Keymap written", "path", k.Output)
	return nil
}

// writeKeymap prints one row per scan bit. aligned pads columns for a
// terminal; otherwise the rows are tab separated for scripts.
func writeKeymap(w io.Writer, t *keymap.Table, aligned bool) error {
	out := w
	var tw *tabwriter.Writer
	if aligned {
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		out = tw
	}

	header := []string{"BIT", "LABEL"}
	for l := 0; l < t.Layers; l++ {
		header = append(header, "LAYER"+strconv.Itoa(l))
	}
	if _, err := fmt.Fprintln(out, strings.Join(header, "\t")); err != nil {
		return err
	}

	for i := 0; i < t.Size(); i++ {
		row := []string{strconv.Itoa(i), t.Label(i)}
		switch {
		case i == t.Aux.Bit:
			names := make([]string, len(t.Aux.Codes))
			for j, c := range t.Aux.Codes {
				names[j] = keymap.CodeName(c)
			}
			row = append(row, "aux: "+strings.Join(names, "+"))
		case selectLayer(t, i) >= 0:
			row = append(row, "select layer "+strconv.Itoa(selectLayer(t, i)))
		default:
			for l := 0; l < t.Layers; l++ {
				if c, ok := t.Lookup(i, l); ok {
					row = append(row, keymap.CodeName(c))
				} else {
					row = append(row, "-")
				}
			}
		}
		if _, err := fmt.Fprintln(out, strings.Join(row, "\t")); err != nil {
			return err
		}
	}

	if tw != nil {
		return tw.Flush()
	}
	return nil
}

func selectLayer(t *keymap.Table, bit int) int {
	for l, b := range t.Select {
		if b == bit {
			return l
		}
	}
	return -1
}
