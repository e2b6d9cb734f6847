package syncer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// stubSyncService — простой мок SyncService, не требует mockgen.
type stubSyncService struct {
	calls atomic.Int64
	err   error
}

func (s *stubSyncService) SyncOnce(_ context.Context) (models.SyncResult, error) {
	s.calls.Add(1)
	return models.SyncResult{DeviceID: testDevice, Success: s.err == nil}, s.err
}

func TestSyncJob_RunsPeriodically(t *testing.T) {
	stub := &stubSyncService{}
	job := NewSyncJob(stub, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	defer job.Stop()

	require.Eventually(t, func() bool {
		return stub.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSyncJob_StopTerminates(t *testing.T) {
	stub := &stubSyncService{}
	job := NewSyncJob(stub, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)

	require.Eventually(t, func() bool {
		return stub.calls.Load() >= 1
	}, 2*time.Second, 5*time.Millisecond)

	job.Stop()
	after := stub.calls.Load()

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, stub.calls.Load())
}

func TestSyncJob_KeepsRunningAfterError(t *testing.T) {
	stub := &stubSyncService{err: assert.AnError}
	job := NewSyncJob(stub, logger.Nop())

	job.Start(context.Background(), 10*time.Millisecond)
	defer job.Stop()

	// Ошибка одного прохода не останавливает воркер.
	require.Eventually(t, func() bool {
		return stub.calls.Load() >= 3
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSyncJob_StopWithoutStart(t *testing.T) {
	job := NewSyncJob(&stubSyncService{}, logger.Nop())

	// Should not panic or block.
	job.Stop()
}

func TestSyncJob_RestartReplacesPrevious(t *testing.T) {
	stub := &stubSyncService{}
	job := NewSyncJob(stub, logger.Nop())

	ctx := context.Background()
	job.Start(ctx, 10*time.Millisecond)
	job.Start(ctx, 10*time.Millisecond) // implicit Stop of the first goroutine
	defer job.Stop()

	require.Eventually(t, func() bool {
		return stub.calls.Load() >= 2
	}, 2*time.Second, 5*time.Millisecond)
}
