package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// recordRepository is the SQL-backed implementation of [RecordRepository].
// It stores samples in the fixed-point integer encoding of the records table
// (temp_x100, press_pa10, hum_x100, battery_mv) and converts back to floats
// on the way out.
type recordRepository struct {
	*DB
	logger *logger.Logger
}

// NewRecordRepository constructs a [RecordRepository] backed by the provided
// database connection and logger.
func NewRecordRepository(db *DB, logger *logger.Logger) RecordRepository {
	return &recordRepository{
		DB:     db,
		logger: logger,
	}
}

// SaveRecords inserts records one by one and returns how many rows were newly
// stored.
//
// The batch is deliberately not transactional: a failed or duplicate insert
// is logged and skipped so that every other record still commits, and a
// partial download is never lost to a late failure. Context cancellation
// stops the loop and reports what was saved up to that point.
func (r *recordRepository) SaveRecords(ctx context.Context, deviceID string, records []models.SensorRecord) (int, error) {
	log := logger.FromContext(ctx)

	if len(records) == 0 {
		return 0, nil
	}

	query := r.insertRecordQuery()
	importedAt := time.Now().UnixMilli()

	inserted := 0
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}

		res, err := r.DB.ExecContext(ctx, query,
			deviceID,
			record.Seq,
			record.TimestampMs,
			record.RSSI,
			int64(math.Round(record.TempC*100)),
			int64(math.Round(record.PressureKPa*100)), // pascals / 10
			int64(math.Round(record.HumidityPct*100)),
			int64(math.Round(record.BatteryV*1000)),
			importedAt,
		)
		if err != nil {
			if r.errorClassificator.IsUniqueViolation(err) {
				// already stored by an earlier session
				continue
			}
			log.Warn().Err(fmt.Errorf("%w: %w", ErrRecordNotSaved, err)).
				Str("func", "recordRepository.SaveRecords").
				Str("device_id", deviceID).
				Uint32("seq", record.Seq).
				Msg("skipping record that failed to insert")
			continue
		}

		if affected, affErr := res.RowsAffected(); affErr == nil && affected > 0 {
			inserted++
		}
	}

	return inserted, nil
}

// GetAllRecords returns every stored record of a device ordered by sequence
// number.
func (r *recordRepository) GetAllRecords(ctx context.Context, deviceID string) ([]models.SensorRecord, error) {
	log := logger.FromContext(ctx)

	query, args, err := r.builder.
		Select("seq", "sample_ts_ms", "rssi", "temp_x100", "press_pa10", "hum_x100", "battery_mv").
		From("records").
		Where(sq.Eq{"device_id": deviceID}).
		OrderBy("seq ASC").
		ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.GetAllRecords").
			Str("device_id", deviceID).
			Msg("failed to build query")
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.GetAllRecords").
			Str("device_id", deviceID).
			Msg("failed to execute query for getting device records")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	results := make([]models.SensorRecord, 0, 50)

	for rows.Next() {
		var (
			record    models.SensorRecord
			tempX100  int64
			pressPa10 int64
			humX100   int64
			batteryMv int64
		)

		scanErr := rows.Scan(
			&record.Seq,
			&record.TimestampMs,
			&record.RSSI,
			&tempX100,
			&pressPa10,
			&humX100,
			&batteryMv,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "recordRepository.GetAllRecords").
				Str("device_id", deviceID).
				Msg("failed to scan record row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		record.TempC = float64(tempX100) / 100.0
		record.PressureKPa = float64(pressPa10) / 100.0
		record.HumidityPct = float64(humX100) / 100.0
		record.BatteryV = float64(batteryMv) / 1000.0

		results = append(results, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "recordRepository.GetAllRecords").
			Str("device_id", deviceID).
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return results, nil
}

// GetStats returns record count and sample-time bounds, scoped to deviceID
// when it is non-empty.
func (r *recordRepository) GetStats(ctx context.Context, deviceID string) (models.StorageStats, error) {
	log := logger.FromContext(ctx)

	builder := r.builder.
		Select("COUNT(*)", "MIN(sample_ts_ms)", "MAX(sample_ts_ms)").
		From("records")
	if deviceID != "" {
		builder = builder.Where(sq.Eq{"device_id": deviceID})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.GetStats").
			Str("device_id", deviceID).
			Msg("failed to build query")
		return models.StorageStats{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	var (
		stats   models.StorageStats
		minTime sql.NullInt64
		maxTime sql.NullInt64
	)

	row := r.DB.QueryRowContext(ctx, query, args...)
	if scanErr := row.Scan(&stats.TotalRecords, &minTime, &maxTime); scanErr != nil {
		log.Err(scanErr).
			Str("func", "recordRepository.GetStats").
			Str("device_id", deviceID).
			Msg("failed to scan stats row")
		return models.StorageStats{}, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
	}

	stats.From = msToTime(minTime)
	stats.To = msToTime(maxTime)

	return stats, nil
}

// ListDevices returns one summary per known device: stored record statistics
// joined with the device's sync state.
func (r *recordRepository) ListDevices(ctx context.Context) ([]models.DeviceSummary, error) {
	log := logger.FromContext(ctx)

	rows, err := r.DB.QueryContext(ctx, listDevicesQuery)
	if err != nil {
		log.Err(err).
			Str("func", "recordRepository.ListDevices").
			Msg("failed to execute device listing query")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	summaries := make([]models.DeviceSummary, 0, 8)

	for rows.Next() {
		var (
			summary      models.DeviceSummary
			firstSample  sql.NullInt64
			lastSample   sql.NullInt64
			lastSyncTime sql.NullInt64
		)

		scanErr := rows.Scan(
			&summary.DeviceID,
			&summary.RecordsCount,
			&firstSample,
			&lastSample,
			&summary.LastSyncedSeq,
			&lastSyncTime,
			&summary.TotalSynced,
		)
		if scanErr != nil {
			log.Err(scanErr).
				Str("func", "recordRepository.ListDevices").
				Msg("failed to scan device summary row")
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, scanErr)
		}

		summary.FirstSample = msToTime(firstSample)
		summary.LastSample = msToTime(lastSample)
		summary.LastSyncTime = msToTime(lastSyncTime)

		summaries = append(summaries, summary)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		log.Err(rowsErr).
			Str("func", "recordRepository.ListDevices").
			Msg("error occurred during rows iteration")
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, rowsErr)
	}

	return summaries, nil
}

func msToTime(ms sql.NullInt64) *time.Time {
	if !ms.Valid || ms.Int64 == 0 {
		return nil
	}
	t := time.UnixMilli(ms.Int64)
	return &t
}
