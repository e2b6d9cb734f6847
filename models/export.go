package models

import "time"

// ExportMetadata describes one export document: when the download happened,
// which session produced it and what the transfer looked like on the wire.
type ExportMetadata struct {
	SessionID    string        `json:"session_id"`
	DeviceID     string        `json:"device_id"`
	DownloadTime time.Time     `json:"download_time"`
	TotalRecords int           `json:"total_records"`
	Stats        TransferStats `json:"transfer_stats"`
}

// ExportDocument is the JSON file written after a successful download.
// It is a boundary artifact for downstream tooling, not part of the
// transfer protocol itself.
type ExportDocument struct {
	Metadata ExportMetadata `json:"metadata"`
	Records  []SensorRecord `json:"records"`
}
