package serialmux

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRealSerialMux_MissingDevice(t *testing.T) {
	mux, err := NewRealSerialMux("/dev/nonexistent-serial-port-12345", PortOptions{})
	assert.Error(t, err)
	assert.Nil(t, mux)
}

func TestNewRealSerialMux_BadOptions(t *testing.T) {
	_, err := NewRealSerialMux("/dev/ttyUSB0", PortOptions{DataBits: 12})
	assert.Error(t, err)
}

func TestRealSerialPortFactory_MissingDevice(t *testing.T) {
	_, err := NewRealSerialPortFactory().Open("/dev/nonexistent-serial-port-12345", PortOptions{})
	assert.Error(t, err)
}

func TestMockSerialPortFactory(t *testing.T) {
	port := NewTestableSerialPort()
	f := NewMockSerialPortFactory(port)

	got, err := f.Open("/dev/ttyACM0", PortOptions{})
	require.NoError(t, err)
	assert.Same(t, port, got)

	_, err = f.Open("/dev/ttyACM1", PortOptions{Parity: "?"})
	assert.Error(t, err)

	f.Error = errors.New("busy")
	_, err = f.Open("/dev/ttyACM2", PortOptions{})
	assert.Error(t, err)
	assert.Equal(t, []string{"/dev/ttyACM0", "/dev/ttyACM1", "/dev/ttyACM2"}, f.Opened())
}
