//go:build !baremetal

package transports

import (
	"errors"
	"fmt"
	"time"

	"go.bug.st/serial"
)

// SerialTransport implements the link transports using a hardware serial port.
type SerialTransport struct {
	port     serial.Port
	portName string
	timeout  time.Duration
	dirRTS   bool
}

// SerialConfig holds configuration for opening a serial port.
type SerialConfig struct {
	Port     string
	BaudRate int
	Parity   serial.Parity
	Timeout  time.Duration

	// DirectionRTS enables half-duplex direction control through the RTS
	// line. Leave false for full-duplex links and for RS-485 adapters with
	// automatic direction switching.
	DirectionRTS bool
}

// OpenSerial opens a serial port with the given configuration.
func OpenSerial(cfg SerialConfig) (*SerialTransport, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial port path is required")
	}

	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   cfg.Parity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port: %w", err)
	}

	if err := port.SetReadTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout: %w", err)
	}

	return &SerialTransport{
		port:     port,
		portName: cfg.Port,
		timeout:  cfg.Timeout,
		dirRTS:   cfg.DirectionRTS,
	}, nil
}

func (t *SerialTransport) Read(p []byte) (int, error) {
	return t.port.Read(p)
}

func (t *SerialTransport) Write(p []byte) (int, error) {
	return t.port.Write(p)
}

func (t *SerialTransport) Close() error {
	return t.port.Close()
}

func (t *SerialTransport) SetReadTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return t.port.SetReadTimeout(timeout)
}

// SetTransmitEnabled toggles the half-duplex line direction. With
// DirectionRTS set, RTS is asserted for the duration of a transmission;
// otherwise this is a no-op and the adapter is expected to switch on its own.
func (t *SerialTransport) SetTransmitEnabled(enabled bool) error {
	if !t.dirRTS {
		return nil
	}
	if !enabled {
		// Let the last byte leave the shifter before releasing the line.
		if err := t.port.Drain(); err != nil {
			return err
		}
	}
	if err := t.port.SetRTS(enabled); err != nil {
		return fmt.Errorf("failed to set line direction: %w", err)
	}
	return nil
}

// Flush discards any buffered input data.
func (t *SerialTransport) Flush() error {
	return t.port.ResetInputBuffer()
}

// PortName returns the serial port name.
func (t *SerialTransport) PortName() string {
	return t.portName
}

// ListPorts returns the serial port names available on this system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
