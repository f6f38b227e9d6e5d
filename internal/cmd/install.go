package cmd

import (
	"log/slog"
	"path/filepath"
)

// Install registers nwkbd serve as a systemd service and starts it.
type Install struct {
	ConfigFile string `name:"config-file" help:"Config file the service passes to serve; must be readable by root"`
}

func (i *Install) Run(logger *slog.Logger) error {
	var args []string
	if i.ConfigFile != "" {
		abs, err := filepath.Abs(i.ConfigFile)
		if err != nil {
			return err
		}
		args = append(args, "--config="+abs)
	}
	return install(logger, args)
}

// Uninstall stops and removes the service.
type Uninstall struct{}

func (u *Uninstall) Run(logger *slog.Logger) error {
	return uninstall(logger)
}
