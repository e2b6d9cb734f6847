package models

// NoRecordsSynced is the LastSyncedSeq value of a device that has never been
// synchronized. The next download then starts at sequence 0.
const NoRecordsSynced int64 = -1

// SyncState is the persisted per-device synchronization high-water mark.
// It is created lazily: querying an unknown device returns the zero state
// with LastSyncedSeq set to [NoRecordsSynced].
type SyncState struct {
	DeviceID       string `json:"device_id"`
	LastSyncedSeq  int64  `json:"last_synced_seq"`
	LastSyncTimeMs int64  `json:"last_sync_time"`
	TotalSynced    uint64 `json:"total_synced"`
}
