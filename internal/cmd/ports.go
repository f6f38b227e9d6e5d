package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/nwkbd/nwkbd/frame"
)

// Ports lists the serial ports the controller could be attached to.
type Ports struct{}

func (p *Ports) Run() error {
	ports, err := frame.ListPorts()
	if err != nil {
		return err
	}
	return writePorts(os.Stdout, ports)
}

func writePorts(w io.Writer, ports []string) error {
	if len(ports) == 0 {
		_, err := fmt.Fprintln(w, "no serial ports found")
		return err
	}
	for _, p := range ports {
		if _, err := fmt.Fprintln(w, p); err != nil {
			return err
		}
	}
	return nil
}
