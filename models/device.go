package models

import "time"

// DeviceInfo describes a sensor node found during BLE discovery.
type DeviceInfo struct {
	Address string
	Name    string
	RSSI    int16
}

// DeviceSummary is one row of the device listing: stored record statistics
// joined with the device's sync state.
type DeviceSummary struct {
	DeviceID      string     `json:"device_id"`
	RecordsCount  int64      `json:"records_count"`
	FirstSample   *time.Time `json:"first_sample,omitempty"`
	LastSample    *time.Time `json:"last_sample,omitempty"`
	LastSyncedSeq int64      `json:"last_synced_seq"`
	LastSyncTime  *time.Time `json:"last_sync_time,omitempty"`
	TotalSynced   uint64     `json:"total_synced"`
}

// StorageStats holds aggregate statistics over stored records, optionally
// scoped to one device.
type StorageStats struct {
	TotalRecords int64      `json:"total_records"`
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
}
