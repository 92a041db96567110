package serial

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	bugserial "go.bug.st/serial"
)

// StdinPort selects standard input instead of a device.
const StdinPort = "-"

// Config describes how to reach the device.
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// Open connects to the configured transport. Devices are opened 8N1 at the
// configured baud rate with a bounded read timeout.
func Open(_ context.Context, cfg Config) (*LineReader, error) {
	if cfg.Port == StdinPort {
		return NewLineReader(os.Stdin, nil, cfg.ReadTimeout), nil
	}

	mode := &bugserial.Mode{
		BaudRate: cfg.Baud,
		DataBits: 8,
		Parity:   bugserial.NoParity,
		StopBits: bugserial.OneStopBit,
	}
	port, err := bugserial.Open(cfg.Port, mode)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrTransport, cfg.Port, err)
	}
	if cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(cfg.ReadTimeout); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("%w: set read timeout on %s: %w", ErrTransport, cfg.Port, err)
		}
	}
	return NewLineReader(portReader{port}, port, cfg.ReadTimeout), nil
}

// portReader maps a closed port to io.EOF so shutdown reads as a clean end.
type portReader struct {
	port bugserial.Port
}

func (p portReader) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	var pe *bugserial.PortError
	if errors.As(err, &pe) && pe.Code() == bugserial.PortClosed {
		return n, io.EOF
	}
	return n, err
}

// Ports lists serial devices present on the host.
func Ports() ([]string, error) {
	ports, err := bugserial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("%w: list ports: %w", ErrTransport, err)
	}
	return ports, nil
}
