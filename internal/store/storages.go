package store

import (
	"context"
	"strings"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/config"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
)

// Storages aggregates every repository of the storage gateway behind one
// constructor, so callers wire a single dependency.
type Storages struct {
	Records   RecordRepository
	SyncState SyncStateRepository

	db *DB
}

// NewStorages connects to the configured backend, applies pending schema
// migrations and constructs the repositories.
//
// The backend is selected by DSN scheme: postgres:// (or postgresql://)
// targets the central archive, anything else is treated as a local SQLite
// file path, which is the default for a laptop next to the sensor.
func NewStorages(ctx context.Context, cfg config.Storage, log *logger.Logger) (*Storages, error) {
	var (
		db  *DB
		err error
	)

	if isPostgresDSN(cfg.DB.DSN) {
		db, err = NewConnectPostgres(ctx, cfg.DB, log)
	} else {
		db, err = NewConnectSQLite(ctx, cfg.DB, log)
	}
	if err != nil {
		return nil, err
	}

	if err = db.Migrate(); err != nil {
		log.Err(err).Str("func", "NewStorages").Msg("error applying migrations")
		db.Close()
		return nil, err
	}

	return &Storages{
		Records:   NewRecordRepository(db, log),
		SyncState: NewSyncStateRepository(db, log),
		db:        db,
	}, nil
}

// Close releases the underlying database connection.
func (s *Storages) Close() error {
	return s.db.Close()
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
