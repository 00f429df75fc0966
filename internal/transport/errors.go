package transport

import "errors"

// errZeroLength is the cause wrapped into a DriverError when a caller
// attempts to write zero bytes; per the transport adapter contract this
// is a driver error rather than a silent no-op.
var errZeroLength = errors.New("zero-length write")

// errDeviceNotFound and errNoEndpoints are USBDriver-specific open
// failures.
var (
	errDeviceNotFound = errors.New("usb device not found")
	errNoEndpoints    = errors.New("usb interface exposes no in/out bulk endpoint pair")
)
