package transport

import (
	"context"
	"time"

	"github.com/google/gousb"
)

// USBDriver is the direct-USB adapter: it opens the stick by vendor/
// product ID, detaches any kernel driver holding interface 0, claims
// that interface, and talks to the first OUT and first IN bulk
// endpoints. Grounded on the USB2Driver variant of the original driver:
// PyUSB's findDeviceUSB/detachKernelDriver/claimInterface translate to
// gousb's OpenDeviceWithVIDPID/SetAutoDetach/Config/Interface.
type USBDriver struct {
	guard

	ctx    *gousb.Context
	dev    *gousb.Device
	cfg    *gousb.Config
	intf   *gousb.Interface
	epOut  *gousb.OutEndpoint
	epIn   *gousb.InEndpoint

	readTimeout time.Duration
}

// NewUSBDriver constructs a direct-USB driver for the default ANT stick
// VID/PID. The device is not opened until Open is called.
func NewUSBDriver() *USBDriver {
	return &USBDriver{readTimeout: SerialReadTimeout}
}

// SetLogger attaches optional byte-level tracing hooks; pass nil to
// detach. Safe to call at any time, open or closed.
func (d *USBDriver) SetLogger(l Logger) { d.setLogger(l) }

func (d *USBDriver) Open() error {
	unlock := d.lock()
	defer unlock()
	if d.open {
		return nil
	}

	ctx := gousb.NewContext()
	dev, err := ctx.OpenDeviceWithVIDPID(USBVendorID, USBProductID)
	if err != nil {
		ctx.Close()
		return driverErr("open", err)
	}
	if dev == nil {
		ctx.Close()
		return driverErr("open", errDeviceNotFound)
	}
	if err := dev.SetAutoDetach(true); err != nil {
		dev.Close()
		ctx.Close()
		return driverErr("open", err)
	}

	cfg, err := dev.Config(1)
	if err != nil {
		dev.Close()
		ctx.Close()
		return driverErr("open", err)
	}
	intf, err := cfg.Interface(0, 0)
	if err != nil {
		cfg.Close()
		dev.Close()
		ctx.Close()
		return driverErr("open", err)
	}

	epOut, epIn, err := firstEndpoints(intf)
	if err != nil {
		intf.Close()
		cfg.Close()
		dev.Close()
		ctx.Close()
		return driverErr("open", err)
	}

	d.ctx, d.dev, d.cfg, d.intf, d.epOut, d.epIn = ctx, dev, cfg, intf, epOut, epIn
	d.open = true
	d.logOpen()
	return nil
}

// firstEndpoints locates the first OUT and first IN endpoint numbers
// exposed by intf's descriptor and opens them.
func firstEndpoints(intf *gousb.Interface) (*gousb.OutEndpoint, *gousb.InEndpoint, error) {
	var outAddr, inAddr gousb.EndpointAddress
	var haveOut, haveIn bool
	for _, ep := range intf.Setting.Endpoints {
		if ep.Direction == gousb.EndpointDirectionOut && !haveOut {
			outAddr, haveOut = ep.Address, true
		}
		if ep.Direction == gousb.EndpointDirectionIn && !haveIn {
			inAddr, haveIn = ep.Address, true
		}
	}
	if !haveOut || !haveIn {
		return nil, nil, errNoEndpoints
	}
	epOut, err := intf.OutEndpoint(int(outAddr))
	if err != nil {
		return nil, nil, err
	}
	epIn, err := intf.InEndpoint(int(inAddr))
	if err != nil {
		return nil, nil, err
	}
	return epOut, epIn, nil
}

func (d *USBDriver) Close() error {
	unlock := d.lock()
	defer unlock()
	if !d.open {
		return nil
	}
	d.open = false
	if d.intf != nil {
		d.intf.Close()
	}
	if d.cfg != nil {
		d.cfg.Close()
	}
	if d.dev != nil {
		d.dev.Close()
	}
	if d.ctx != nil {
		d.ctx.Close()
	}
	d.intf, d.cfg, d.dev, d.ctx, d.epOut, d.epIn = nil, nil, nil, nil, nil, nil
	d.logClose()
	return nil
}

func (d *USBDriver) Read(p []byte) (int, error) {
	unlock := d.lock()
	defer unlock()
	if !d.open {
		return 0, driverErr("read", ErrNotOpen)
	}
	ctx, cancel := context.WithTimeout(context.Background(), d.readTimeout)
	defer cancel()
	n, err := d.epIn.ReadContext(ctx, p)
	if err != nil {
		// A timed-out read is not a transport failure; report whatever
		// arrived before the deadline (usually nothing).
		if ctx.Err() != nil {
			d.logRead(p[:n])
			return n, nil
		}
		return n, driverErr("read", err)
	}
	d.logRead(p[:n])
	return n, nil
}

func (d *USBDriver) Write(p []byte) (int, error) {
	unlock := d.lock()
	defer unlock()
	if !d.open {
		return 0, driverErr("write", ErrNotOpen)
	}
	if len(p) == 0 {
		return 0, driverErr("write", errZeroLength)
	}
	n, err := d.epOut.Write(p)
	if err != nil {
		return n, driverErr("write", err)
	}
	d.logWrite(p[:n])
	return n, nil
}
