package serialmux

import (
	"io"

	"go.bug.st/serial"
)

// Porter is the minimal interface needed from a serial port. The
// abstraction lets every consumer run against a mock port instead of real
// hardware.
type Porter interface {
	io.ReadWriter
	io.Closer
}

// HostLinkMode is the fixed framing of the host command link. It is not
// negotiated: both ends are built for 115200 8N1.
func HostLinkMode() *serial.Mode {
	return &serial.Mode{
		BaudRate: 115200,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// Open opens the real serial port at path with the fixed host link mode
// and wraps it in a mux.
func Open(path string) (*SerialMux, error) {
	port, err := serial.Open(path, HostLinkMode())
	if err != nil {
		return nil, err
	}
	return New(port), nil
}
