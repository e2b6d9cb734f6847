package store

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

import (
	"context"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// RecordRepository is the durable, dedup-on-write store for downloaded
// sensor samples. Records are keyed by (device_id, seq): re-inserting an
// already stored sequence number is silently ignored, which is what makes
// overlapping download sessions idempotent.
type RecordRepository interface {
	// SaveRecords inserts the given records for a device and returns how many
	// of them were newly stored. Duplicates and per-record insert failures are
	// skipped without aborting the batch.
	SaveRecords(ctx context.Context, deviceID string, records []models.SensorRecord) (int, error)

	// GetAllRecords returns every stored record of a device in ascending
	// sequence order.
	GetAllRecords(ctx context.Context, deviceID string) ([]models.SensorRecord, error)

	// GetStats returns aggregate record statistics, scoped to one device when
	// deviceID is non-empty.
	GetStats(ctx context.Context, deviceID string) (models.StorageStats, error)

	// ListDevices returns per-device record statistics joined with each
	// device's sync state.
	ListDevices(ctx context.Context) ([]models.DeviceSummary, error)
}

// SyncStateRepository persists the per-device synchronization high-water mark.
type SyncStateRepository interface {
	// GetSyncState returns the sync state of a device. An unknown device
	// yields the lazy default with LastSyncedSeq = models.NoRecordsSynced.
	GetSyncState(ctx context.Context, deviceID string) (models.SyncState, error)

	// UpdateSyncState advances the device's high-water mark. The update is
	// monotonic (LastSyncedSeq never moves backward) and additive
	// (importedCount is added to TotalSynced, never overwrites it).
	UpdateSyncState(ctx context.Context, deviceID string, lastSyncedSeq int64, importedCount int) error
}
