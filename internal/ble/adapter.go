package ble

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
	"tinygo.org/x/bluetooth"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/config"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/protocol"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// frameBufferSize bounds the notification queue between the BLE callback and
// the session loop. The firmware batches at most a handful of records per
// frame, so the queue only fills if the consumer has stalled completely.
const frameBufferSize = 256

// adapter implements [Transport] on top of the host's BLE central role.
type adapter struct {
	cfg     config.BLE
	ble     *bluetooth.Adapter
	logger  *logger.Logger
	service bluetooth.UUID
	chars   [3]bluetooth.UUID // data-transfer, control, status
}

// NewAdapter enables the default host BLE adapter and parses the configured
// UUIDs once, so that a malformed configuration fails at startup rather than
// mid-session.
func NewAdapter(cfg config.BLE, log *logger.Logger) (Transport, error) {
	dev := bluetooth.DefaultAdapter
	if err := dev.Enable(); err != nil {
		log.Err(err).Str("func", "NewAdapter").Msg("error enabling BLE adapter")
		return nil, fmt.Errorf("enable ble adapter: %w", err)
	}

	service, err := bluetooth.ParseUUID(cfg.ServiceUUID)
	if err != nil {
		return nil, fmt.Errorf("parse service uuid: %w", err)
	}

	var chars [3]bluetooth.UUID
	for i, raw := range []string{cfg.DataTransferUUID, cfg.ControlUUID, cfg.StatusUUID} {
		if chars[i], err = bluetooth.ParseUUID(raw); err != nil {
			return nil, fmt.Errorf("parse characteristic uuid %q: %w", raw, err)
		}
	}

	return &adapter{
		cfg:     cfg,
		ble:     dev,
		logger:  log,
		service: service,
		chars:   chars,
	}, nil
}

// Scan implements [Transport]. It scans until a device advertising the
// configured name prefix appears or the scan window elapses.
func (a *adapter) Scan(ctx context.Context) (models.DeviceInfo, error) {
	log := logger.FromContext(ctx)
	log.Info().
		Str("func", "adapter.Scan").
		Str("name_prefix", a.cfg.NamePrefix).
		Dur("timeout", a.cfg.ScanTimeout).
		Msg("scanning for sensor device")

	found := make(chan models.DeviceInfo, 1)

	scanCtx, cancel := context.WithTimeout(ctx, a.cfg.ScanTimeout)
	defer cancel()

	go func() {
		err := a.ble.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
			name := result.LocalName()
			if !strings.HasPrefix(name, a.cfg.NamePrefix) {
				return
			}

			select {
			case found <- models.DeviceInfo{
				Address: result.Address.String(),
				Name:    name,
				RSSI:    result.RSSI,
			}:
			default:
			}
		})
		if err != nil {
			log.Err(err).Str("func", "adapter.Scan").Msg("ble scan terminated with error")
		}
	}()
	defer a.ble.StopScan() //nolint:errcheck // best-effort, scan may already be stopped

	select {
	case device := <-found:
		log.Info().
			Str("func", "adapter.Scan").
			Str("device", device.Name).
			Str("address", device.Address).
			Int16("rssi", device.RSSI).
			Msg("found sensor device")
		return device, nil
	case <-scanCtx.Done():
		if ctx.Err() != nil {
			return models.DeviceInfo{}, ctx.Err()
		}
		return models.DeviceInfo{}, ErrDeviceNotFound
	}
}

// Connect implements [Transport]. Connection attempts are retried with a
// constant backoff; after the link is up the full characteristic set is
// resolved exactly once.
func (a *adapter) Connect(ctx context.Context, info models.DeviceInfo) (Connection, error) {
	log := logger.FromContext(ctx)

	mac, err := bluetooth.ParseMAC(info.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: bad address %q: %w", ErrConnectionFailed, info.Address, err)
	}
	addr := bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}}

	params := bluetooth.ConnectionParams{
		ConnectionTimeout: bluetooth.NewDuration(a.cfg.ConnectTimeout),
	}

	var device bluetooth.Device
	backoff := retry.WithMaxRetries(uint64(a.cfg.ConnectAttempts-1), retry.NewConstant(time.Second))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		var connErr error
		device, connErr = a.ble.Connect(addr, params)
		if connErr != nil {
			log.Warn().Err(connErr).
				Str("func", "adapter.Connect").
				Str("address", info.Address).
				Msg("connection attempt failed, retrying")
			return retry.RetryableError(connErr)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	log.Info().
		Str("func", "adapter.Connect").
		Str("address", info.Address).
		Msg("connected to device")

	conn, err := a.resolveCharacteristics(device)
	if err != nil {
		device.Disconnect() //nolint:errcheck // already failing, link is useless
		return nil, err
	}

	return conn, nil
}

// resolveCharacteristics performs the typed capability lookup: the data
// service and all three characteristics must be present, otherwise the
// device is not running the expected firmware and the session is aborted
// before any transfer starts.
func (a *adapter) resolveCharacteristics(device bluetooth.Device) (*connection, error) {
	services, err := device.DiscoverServices([]bluetooth.UUID{a.service})
	if err != nil || len(services) == 0 {
		return nil, fmt.Errorf("%w: data service %s: %w", ErrCharacteristicNotFound, a.service.String(), err)
	}

	chars, err := services[0].DiscoverCharacteristics(a.chars[:])
	if err != nil || len(chars) != len(a.chars) {
		return nil, fmt.Errorf("%w: want %d characteristics, got %d: %w",
			ErrCharacteristicNotFound, len(a.chars), len(chars), err)
	}

	return &connection{
		device:       device,
		dataTransfer: chars[0],
		control:      chars[1],
		status:       chars[2],
	}, nil
}

// connection implements [Connection] for one established BLE link.
type connection struct {
	device       bluetooth.Device
	dataTransfer bluetooth.DeviceCharacteristic
	control      bluetooth.DeviceCharacteristic
	status       bluetooth.DeviceCharacteristic

	mu         sync.Mutex
	frames     chan []byte
	subscribed bool
}

// ReadStatus implements [Connection].
func (c *connection) ReadStatus(_ context.Context) (models.StatusSnapshot, error) {
	buf := make([]byte, 4)
	n, err := c.status.Read(buf)
	if err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("%w: %w", ErrStatusRead, err)
	}

	snapshot, err := protocol.DecodeStatus(buf[:n])
	if err != nil {
		return models.StatusSnapshot{}, fmt.Errorf("%w: %w", ErrStatusRead, err)
	}

	return snapshot, nil
}

// WriteCommand implements [Connection].
func (c *connection) WriteCommand(_ context.Context, cmd []byte) error {
	if _, err := c.control.Write(cmd); err != nil {
		return fmt.Errorf("write control command 0x%02x: %w", cmd[0], err)
	}
	return nil
}

// Subscribe implements [Connection]. Frames are copied out of the BLE
// callback before they are queued, because the stack reuses its buffer.
func (c *connection) Subscribe(ctx context.Context) (<-chan []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.subscribed {
		return c.frames, nil
	}

	log := logger.FromContext(ctx)
	frames := make(chan []byte, frameBufferSize)

	err := c.dataTransfer.EnableNotifications(func(buf []byte) {
		frame := make([]byte, len(buf))
		copy(frame, buf)

		select {
		case frames <- frame:
		default:
			log.Warn().
				Str("func", "connection.Subscribe").
				Int("frame_len", len(frame)).
				Msg("notification queue full, dropping frame")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("enable notifications: %w", err)
	}

	c.frames = frames
	c.subscribed = true

	return frames, nil
}

// Unsubscribe implements [Connection].
func (c *connection) Unsubscribe() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.subscribed {
		return nil
	}
	c.subscribed = false

	return c.dataTransfer.EnableNotifications(nil)
}

// Disconnect implements [Connection].
func (c *connection) Disconnect() error {
	c.mu.Lock()
	if c.frames != nil {
		close(c.frames)
		c.frames = nil
	}
	c.mu.Unlock()

	return c.device.Disconnect()
}
