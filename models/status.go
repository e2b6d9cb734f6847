package models

// StatusSnapshot holds the counters read from the device status
// characteristic. It is never persisted; Total is only used to compute how
// many records remain to download.
type StatusSnapshot struct {
	// Total is the number of records currently held in device storage.
	Total uint16 `json:"total"`

	// LastSent is the index of the last record the device transmitted.
	LastSent uint16 `json:"last_sent"`
}
