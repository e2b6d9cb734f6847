package models

// TransferStats aggregates what happened during a single download session.
// The counters are owned exclusively by one transfer session and handed to
// the caller when the session reaches a terminal state.
type TransferStats struct {
	HeaderReceived  bool   `json:"header_received"`
	EndReceived     bool   `json:"end_received"`
	IntervalSec     uint16 `json:"interval_sec"`
	DataPackets     uint32 `json:"data_packets"`
	DeclaredRecords uint32 `json:"total_records"`
	RecordsReceived uint32 `json:"records_received"`
}

// SyncResult is the user-visible outcome of one synchronization run.
type SyncResult struct {
	DeviceID    string        `json:"device_id"`
	Success     bool          `json:"success"`
	NewRecords  int           `json:"new_records"`
	DeviceTotal uint16        `json:"device_total"`
	Stats       TransferStats `json:"transfer_stats"`
}
