package frame

import (
	"fmt"

	"go.bug.st/serial"
)

// SerialConfig selects the controller's serial line. The line is always
// 8N1 without flow control.
type SerialConfig struct {
	Path     string `help:"Serial device the keypad controller reports on" default:"/dev/ttyS0" env:"NWKBD_SERIAL_PATH"`
	BaudRate int    `help:"Serial baud rate" default:"115200" env:"NWKBD_SERIAL_BAUD"`
}

// Mode returns the serial mode for c.
func (c SerialConfig) Mode() *serial.Mode {
	baud := c.BaudRate
	if baud <= 0 {
		baud = 115200
	}
	return &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// OpenSerial opens the port and drops whatever was buffered before we
// started listening.
func OpenSerial(c SerialConfig) (serial.Port, error) {
	port, err := serial.Open(c.Path, c.Mode())
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", c.Path, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		_ = port.Close()
		return nil, fmt.Errorf("flush serial port %s: %w", c.Path, err)
	}
	return port, nil
}

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
