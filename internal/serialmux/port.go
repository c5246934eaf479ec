package serialmux

import "io"

// SerialPorter is the minimal interface needed for a serial port. Tests
// substitute in-memory ports.
type SerialPorter interface {
	io.ReadWriter
	io.Closer
}

// SerialPortFactory opens serial ports. The service takes one so that tests
// can inject a mock device.
type SerialPortFactory interface {
	Open(path string, opts PortOptions) (SerialPorter, error)
}
