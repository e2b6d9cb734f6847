package models

// SensorRecord is one decoded BME280 sample downloaded from a device.
//
// Seq is assigned on the host as start_seq + running index and is unique per
// device; together with the device address it forms the deduplication key in
// the records table. TimestampMs is synthetic: the device transmits no
// per-record timestamps, so the host reconstructs one by extrapolating
// backwards from the receipt time (see protocol.RecordDecoder).
type SensorRecord struct {
	Seq         uint32  `json:"seq"`
	TimestampMs int64   `json:"timestamp_ms"`
	RSSI        int16   `json:"rssi"`
	TempC       float64 `json:"temp_c"`
	PressureKPa float64 `json:"press_kpa"`
	HumidityPct float64 `json:"humidity_pct"`
	BatteryV    float64 `json:"battery_v"`
}
