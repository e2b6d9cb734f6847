package syncer

import (
	"context"
	"time"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// SyncService runs complete synchronization sessions against a sensor device.
type SyncService interface {
	// SyncOnce performs one full session: discover, connect, compute the
	// resume point, download, persist, commit and export. Records decoded
	// before a failure are persisted before the error is returned.
	SyncOnce(ctx context.Context) (models.SyncResult, error)
}

// SyncJob is a background worker that re-runs synchronization on a ticker,
// for deployments where the host stays next to the sensor.
type SyncJob interface {
	// Start launches the background goroutine syncing every interval,
	// defaulting to 5 minutes if interval is zero or negative. Any
	// previously running job is stopped first.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the goroutine to exit and blocks until it has terminated.
	Stop()
}
