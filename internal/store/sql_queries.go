package store

// Record insert statements. Both rely on the UNIQUE (device_id, seq)
// constraint for dedup-on-write: a re-downloaded record is silently dropped
// by the database instead of failing the batch.
const (
	insertRecordSQLite = `INSERT OR IGNORE INTO records
		(device_id, seq, sample_ts_ms, rssi, temp_x100, press_pa10, hum_x100, battery_mv, imported_at_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`

	insertRecordPostgres = `INSERT INTO records
		(device_id, seq, sample_ts_ms, rssi, temp_x100, press_pa10, hum_x100, battery_mv, imported_at_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (device_id, seq) DO NOTHING;`
)

// Sync-state upserts. Monotonic on last_synced_seq (a stale session result
// never moves the high-water mark backward) and additive on total_synced.
const (
	upsertSyncStateSQLite = `INSERT INTO sync_state (device_id, last_synced_seq, last_sync_time, total_synced)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (device_id) DO UPDATE SET
			last_synced_seq = MAX(sync_state.last_synced_seq, excluded.last_synced_seq),
			last_sync_time  = excluded.last_sync_time,
			total_synced    = sync_state.total_synced + excluded.total_synced;`

	upsertSyncStatePostgres = `INSERT INTO sync_state (device_id, last_synced_seq, last_sync_time, total_synced)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (device_id) DO UPDATE SET
			last_synced_seq = GREATEST(sync_state.last_synced_seq, excluded.last_synced_seq),
			last_sync_time  = excluded.last_sync_time,
			total_synced    = sync_state.total_synced + excluded.total_synced;`
)

// listDevicesQuery joins stored record statistics with sync state per device.
// It takes no parameters, so the same text works on both backends.
const listDevicesQuery = `SELECT
		r.device_id,
		COUNT(r.id) AS records_count,
		MIN(r.sample_ts_ms) AS first_sample,
		MAX(r.sample_ts_ms) AS last_sample,
		COALESCE(s.last_synced_seq, -1),
		s.last_sync_time,
		COALESCE(s.total_synced, 0)
	FROM records r
	LEFT JOIN sync_state s ON r.device_id = s.device_id
	GROUP BY r.device_id, s.last_synced_seq, s.last_sync_time, s.total_synced
	ORDER BY r.device_id;`

func (db *DB) insertRecordQuery() string {
	if db.dialect == "pgx" {
		return insertRecordPostgres
	}
	return insertRecordSQLite
}

func (db *DB) upsertSyncStateQuery() string {
	if db.dialect == "pgx" {
		return upsertSyncStatePostgres
	}
	return upsertSyncStateSQLite
}
