package syncer

import (
	"context"
	"sync"
	"time"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
)

type syncJob struct {
	syncService SyncService
	logger      *logger.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSyncJob creates a syncJob that calls syncService.SyncOnce on a ticker.
// The job is idle until Start is called.
func NewSyncJob(syncService SyncService, log *logger.Logger) SyncJob {
	return &syncJob{
		syncService: syncService,
		logger:      log,
	}
}

// Start implements [SyncJob]. It stops any previously running job, then
// launches a background goroutine syncing every interval. The goroutine
// exits when ctx is cancelled or Stop is called.
func (j *syncJob) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	j.Stop()

	j.mu.Lock()
	jobCtx, cancel := context.WithCancel(ctx)
	j.cancel = cancel
	j.wg.Add(1)
	j.mu.Unlock()

	go func() {
		defer j.wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-jobCtx.Done():
				return
			case <-t.C:
				result, err := j.syncService.SyncOnce(jobCtx)
				if err != nil {
					j.logger.Warn().Err(err).
						Str("func", "syncJob.Start").
						Msg("periodic sync failed")
					continue
				}
				j.logger.Info().
					Str("func", "syncJob.Start").
					Str("device", result.DeviceID).
					Int("new_records", result.NewRecords).
					Bool("success", result.Success).
					Msg("periodic sync finished")
			}
		}
	}()
}

// Stop implements [SyncJob].
func (j *syncJob) Stop() {
	j.mu.Lock()
	cancel := j.cancel
	j.cancel = nil
	j.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	j.wg.Wait()
}
