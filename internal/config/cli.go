// Package config declares the command line of nwkbd. Every flag can also be
// set through the environment or a json, yaml or toml config file.
package config

import (
	"github.com/nwkbd/nwkbd/internal/cmd"
	"github.com/nwkbd/nwkbd/internal/log"
)

type CLI struct {
	Log    log.Config `embed:"" prefix:"log."`
	Config string     `help:"Path to a json, yaml or toml config file" env:"NWKBD_CONFIG"`

	Serve     cmd.Serve         `cmd:"" default:"withargs" help:"Bridge keypad frames from the serial line to a virtual input device"`
	Replay    cmd.Replay        `cmd:"" help:"Translate recorded frames and print the events"`
	Keymap    cmd.KeymapCommand `cmd:"" help:"Inspect or export keymaps"`
	Ports     cmd.Ports         `cmd:"" help:"List serial ports"`
	Setup     cmd.ConfigCommand `cmd:"" name:"config" help:"Configuration helpers"`
	Install   cmd.Install       `cmd:"" help:"Install and start the systemd service"`
	Uninstall cmd.Uninstall     `cmd:"" help:"Stop and remove the systemd service"`
}
