package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// syncStateRepository is the SQL-backed implementation of
// [SyncStateRepository].
type syncStateRepository struct {
	*DB
	logger *logger.Logger
}

// NewSyncStateRepository constructs a [SyncStateRepository] backed by the
// provided database connection and logger.
func NewSyncStateRepository(db *DB, logger *logger.Logger) SyncStateRepository {
	return &syncStateRepository{
		DB:     db,
		logger: logger,
	}
}

// GetSyncState returns the persisted sync state of a device.
//
// A device that has never been synchronized is not an error: it yields the
// lazy default state with LastSyncedSeq = [models.NoRecordsSynced], so the
// next download starts at sequence 0.
func (s *syncStateRepository) GetSyncState(ctx context.Context, deviceID string) (models.SyncState, error) {
	log := logger.FromContext(ctx)

	query, args, err := s.builder.
		Select("last_synced_seq", "last_sync_time", "total_synced").
		From("sync_state").
		Where(sq.Eq{"device_id": deviceID}).
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.GetSyncState").
			Str("device_id", deviceID).
			Msg("failed to build query")
		return models.SyncState{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	state := models.SyncState{DeviceID: deviceID}

	row := s.DB.QueryRowContext(ctx, query, args...)
	scanErr := row.Scan(&state.LastSyncedSeq, &state.LastSyncTimeMs, &state.TotalSynced)
	if scanErr != nil {
		if errors.Is(scanErr, sql.ErrNoRows) {
			// first synchronization of this device
			state.LastSyncedSeq = models.NoRecordsSynced
			return state, nil
		}

		log.Err(scanErr).
			Str("func", "syncStateRepository.GetSyncState").
			Str("device_id", deviceID).
			Msg("failed to scan sync state row")
		return models.SyncState{}, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	return state, nil
}

// UpdateSyncState advances the device's high-water mark via an upsert that is
// monotonic on last_synced_seq and additive on total_synced, so a stale or
// overlapping session result can never lose progress.
func (s *syncStateRepository) UpdateSyncState(ctx context.Context, deviceID string, lastSyncedSeq int64, importedCount int) error {
	log := logger.FromContext(ctx)

	res, err := s.DB.ExecContext(ctx, s.upsertSyncStateQuery(),
		deviceID,
		lastSyncedSeq,
		time.Now().UnixMilli(),
		importedCount,
	)
	if err != nil {
		log.Err(err).
			Str("func", "syncStateRepository.UpdateSyncState").
			Str("device_id", deviceID).
			Int64("last_synced_seq", lastSyncedSeq).
			Msg("failed to upsert sync state")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if affected, affErr := res.RowsAffected(); affErr == nil && affected == 0 {
		log.Error().
			Str("func", "syncStateRepository.UpdateSyncState").
			Str("device_id", deviceID).
			Msg("sync state upsert affected no rows")
		return ErrSyncStateNotUpdated
	}

	return nil
}
