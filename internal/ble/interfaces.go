package ble

//go:generate mockgen -source=interfaces.go -destination=../mock/transport_mock.go -package=mock

import (
	"context"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// Transport is the wireless transport layer of the sync tool: device
// discovery and connection establishment. The protocol engine never touches
// BLE primitives directly, it only sees this interface and [Connection].
type Transport interface {
	// Scan discovers the first advertising device whose name carries the
	// configured prefix. Returns [ErrDeviceNotFound] when the scan window
	// closes without a match.
	Scan(ctx context.Context) (models.DeviceInfo, error)

	// Connect establishes a connection to a discovered device and performs
	// the typed characteristic lookup once, returning a ready-to-use handle
	// set or [ErrCharacteristicNotFound].
	Connect(ctx context.Context, device models.DeviceInfo) (Connection, error)
}

// Connection is one established link to a sensor node with its three
// characteristic handles resolved.
type Connection interface {
	// ReadStatus reads and decodes the status characteristic.
	ReadStatus(ctx context.Context) (models.StatusSnapshot, error)

	// WriteCommand writes an encoded control command with response.
	WriteCommand(ctx context.Context, cmd []byte) error

	// Subscribe enables notifications on the data-transfer characteristic
	// and returns the channel raw frames are delivered on, in arrival order.
	Subscribe(ctx context.Context) (<-chan []byte, error)

	// Unsubscribe disables notifications. Safe to call more than once.
	Unsubscribe() error

	// Disconnect tears down the link. The frame channel is closed.
	Disconnect() error
}
