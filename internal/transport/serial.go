package transport

import (
	"io"

	"github.com/tarm/serial"
)

// serialPort is the subset of *serial.Port this package depends on, so
// tests can substitute a fake without opening a real device.
type serialPort interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// openSerial is overridden in tests.
var openSerial = func(name string) (serialPort, error) {
	cfg := &serial.Config{Name: name, Baud: SerialBaud, ReadTimeout: SerialReadTimeout}
	return serial.OpenPort(cfg)
}

// SerialDriver is the USB-serial bridge adapter: a named serial device at
// 115200 baud with a 10ms read timeout, matching the ANT USB1 stick's
// virtual COM port behavior.
type SerialDriver struct {
	guard
	name string
	port serialPort
}

// NewSerialDriver constructs a driver for the named serial device. The
// device is not opened until Open is called.
func NewSerialDriver(name string) *SerialDriver {
	return &SerialDriver{name: name}
}

// SetLogger attaches optional byte-level tracing hooks; pass nil to
// detach. Safe to call at any time, open or closed.
func (d *SerialDriver) SetLogger(l Logger) { d.setLogger(l) }

func (d *SerialDriver) Open() error {
	unlock := d.lock()
	defer unlock()
	if d.open {
		return nil
	}
	p, err := openSerial(d.name)
	if err != nil {
		return driverErr("open", err)
	}
	d.port = p
	d.open = true
	d.logOpen()
	return nil
}

func (d *SerialDriver) Close() error {
	unlock := d.lock()
	defer unlock()
	if !d.open {
		return nil
	}
	d.open = false
	err := d.port.Close()
	d.port = nil
	if err != nil {
		return driverErr("close", err)
	}
	d.logClose()
	return nil
}

func (d *SerialDriver) Read(p []byte) (int, error) {
	unlock := d.lock()
	defer unlock()
	if !d.open {
		return 0, driverErr("read", ErrNotOpen)
	}
	n, err := d.port.Read(p)
	if err == io.EOF && n == 0 {
		// tarm/serial reports a read timeout with no data as io.EOF.
		err = nil
	}
	if err != nil {
		return n, driverErr("read", err)
	}
	d.logRead(p[:n])
	return n, nil
}

func (d *SerialDriver) Write(p []byte) (int, error) {
	unlock := d.lock()
	defer unlock()
	if !d.open {
		return 0, driverErr("write", ErrNotOpen)
	}
	if len(p) == 0 {
		return 0, driverErr("write", errZeroLength)
	}
	n, err := d.port.Write(p)
	if err != nil {
		return n, driverErr("write", err)
	}
	d.logWrite(p[:n])
	return n, nil
}
