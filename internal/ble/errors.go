package ble

import "errors"

// Sentinel errors returned by the transport adapter. The first three are
// session-fatal: without a device, a link, or the full characteristic set no
// transfer can start. Callers should use [errors.Is] to match against these
// values.
var (
	// ErrDeviceNotFound is returned when the scan window closes without any
	// advertising device matching the configured name prefix.
	ErrDeviceNotFound = errors.New("sensor device not found")

	// ErrConnectionFailed is returned when every connection attempt to a
	// discovered device has failed.
	ErrConnectionFailed = errors.New("connection to device failed")

	// ErrCharacteristicNotFound is returned when the data service or one of
	// its required characteristics (control, data-transfer, status) is
	// missing after discovery.
	ErrCharacteristicNotFound = errors.New("required characteristic not found")

	// ErrStatusRead is returned when the status characteristic cannot be
	// read or decoded. The resume point cannot be computed without it.
	ErrStatusRead = errors.New("error reading device status")
)
