package protocol

import (
	"time"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// DefaultSampleInterval is the sampling period assumed when the device did
// not report one in its HEADER packet.
const DefaultSampleInterval = 30 * time.Second

// RecordDecoder turns raw samples from DATA packets into [models.SensorRecord]
// values, assigning per-session sequence numbers and synthetic timestamps.
//
// Sequence numbers are startSeq plus a running index that increments once per
// decoded sample, independent of frame boundaries. The device transmits no
// per-record timestamps, so the decoder reconstructs them by extrapolating
// backwards from the frame receipt time at the sampling interval: the last
// sample of a frame is stamped "now", the one before it one interval earlier,
// and so on within that frame. This is an approximation, not a guarantee.
//
// A RecordDecoder is scoped to one transfer session and is not safe for
// concurrent use.
type RecordDecoder struct {
	startSeq uint32
	next     uint32
	interval time.Duration
	rssi     int16

	now func() time.Time
}

// NewRecordDecoder constructs a decoder whose first decoded sample receives
// sequence number startSeq. rssi is the link signal strength observed during
// discovery; it is attached to every decoded record.
func NewRecordDecoder(startSeq uint32, rssi int16) *RecordDecoder {
	return &RecordDecoder{
		startSeq: startSeq,
		interval: DefaultSampleInterval,
		rssi:     rssi,
		now:      time.Now,
	}
}

// SetIntervalSec switches timestamp reconstruction to the sampling interval
// reported by the device's HEADER packet. A zero interval is ignored and the
// decoder keeps [DefaultSampleInterval].
func (d *RecordDecoder) SetIntervalSec(intervalSec uint16) {
	if intervalSec == 0 {
		return
	}
	d.interval = time.Duration(intervalSec) * time.Second
}

// NextSeq returns the sequence number the next decoded sample will receive.
func (d *RecordDecoder) NextSeq() uint32 {
	return d.startSeq + d.next
}

// Decoded returns how many samples have been decoded so far in this session.
func (d *RecordDecoder) Decoded() uint32 {
	return d.next
}

// HighestSeq returns the highest sequence number assigned so far and false
// when no sample has been decoded yet.
func (d *RecordDecoder) HighestSeq() (uint32, bool) {
	if d.next == 0 {
		return 0, false
	}
	return d.startSeq + d.next - 1, true
}

// DecodeData converts every sample of one DATA packet into sensor records in
// arrival order.
//
// Timestamp positions are computed against the packet's declared record
// count, so a truncated frame keeps the same time base the device encoded
// the batch with.
func (d *RecordDecoder) DecodeData(packet DataPacket) []models.SensorRecord {
	if len(packet.Samples) == 0 {
		return nil
	}

	receiptMs := d.now().UnixMilli()
	intervalMs := d.interval.Milliseconds()
	count := int64(packet.DeclaredCount)

	records := make([]models.SensorRecord, 0, len(packet.Samples))
	for i, sample := range packet.Samples {
		records = append(records, models.SensorRecord{
			Seq:         d.startSeq + d.next,
			TimestampMs: receiptMs - (count-1-int64(i))*intervalMs,
			RSSI:        d.rssi,
			TempC:       sample.TempC(),
			PressureKPa: sample.PressureKPa(),
			HumidityPct: sample.HumidityPct(),
			BatteryV:    sample.BatteryV(),
		})
		d.next++
	}

	return records
}
