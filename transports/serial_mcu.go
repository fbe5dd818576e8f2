//go:build baremetal

package transports

import (
	"errors"
	"fmt"
	"time"

	"machine"
)

// MCUTransport implements the link transports on a microcontroller UART.
type MCUTransport struct {
	*machine.UART
	dirPin  machine.Pin
	timeout time.Duration
}

type SerialConfig struct {
	Port     string
	BaudRate int
	Timeout  time.Duration

	// DirectionPin drives the transmit-enable input of an RS-485
	// transceiver. Use machine.NoPin for full-duplex links.
	DirectionPin machine.Pin
}

// OpenSerial gets a UART port with the given configuration.
func OpenSerial(cfg SerialConfig) (*MCUTransport, error) {
	if cfg.Port == "" {
		return nil, errors.New("serial port path is required")
	}

	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = time.Second
	}

	t := &MCUTransport{dirPin: cfg.DirectionPin, timeout: cfg.Timeout}

	switch cfg.Port {
	case "0":
		t.UART = machine.UART0
	case "1":
		t.UART = machine.UART1
	default:
		return nil, fmt.Errorf("unknown UART %s", cfg.Port)
	}

	t.UART.SetBaudRate(uint32(cfg.BaudRate))

	if t.dirPin != machine.NoPin {
		t.dirPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		t.dirPin.Low()
	}

	return t, nil
}

func (t *MCUTransport) SetReadTimeout(timeout time.Duration) error {
	t.timeout = timeout
	return nil
}

func (t *MCUTransport) SetTransmitEnabled(enabled bool) error {
	if t.dirPin == machine.NoPin {
		return nil
	}
	if enabled {
		t.dirPin.High()
	} else {
		t.dirPin.Low()
	}
	return nil
}

func (t *MCUTransport) Close() error {
	return nil
}

func (t *MCUTransport) Flush() error {
	for t.UART.Buffered() > 0 {
		t.UART.ReadByte()
	}
	return nil
}
