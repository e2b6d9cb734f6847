package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// PacketType is the first byte of every notification frame.
type PacketType byte

// Notification packet types sent by the device on the data-transfer
// characteristic.
const (
	PacketTypeHeader PacketType = 0
	PacketTypeData   PacketType = 1
	PacketTypeEnd    PacketType = 2
)

// rawSampleSize is the wire size of one sensor sample inside a DATA frame.
const rawSampleSize = 6

// dataRecordsOffset is the byte offset of the first sample in a DATA frame:
// type byte, two reserved bytes, record count, one reserved byte.
const dataRecordsOffset = 5

// Packet is one decoded notification frame. Exactly one of the three
// concrete packet types implements it.
type Packet interface {
	Type() PacketType
}

// HeaderPacket announces an upcoming transfer and carries the sampling
// interval the device claims to record at.
type HeaderPacket struct {
	IntervalSec uint16
}

// Type implements Packet.
func (HeaderPacket) Type() PacketType { return PacketTypeHeader }

// DataPacket carries a batch of raw sensor samples. DeclaredCount is the
// record count byte from the wire; Samples holds the records that actually
// fit in the frame, which may be fewer if the frame was truncated in flight.
type DataPacket struct {
	DeclaredCount uint8
	Samples       []RawSample
}

// Type implements Packet.
func (DataPacket) Type() PacketType { return PacketTypeData }

// EndPacket terminates a transfer and reports how many records the device
// believes it sent.
type EndPacket struct {
	TotalSent uint16
}

// Type implements Packet.
func (EndPacket) Type() PacketType { return PacketTypeEnd }

// RawSample is one 6-byte sensor sample exactly as transmitted:
// big-endian signed temperature in tenths of °C, big-endian pressure in kPa,
// humidity in whole percent, battery voltage in tenths of a volt.
type RawSample struct {
	TempRaw     int16
	PressureRaw uint16
	HumidityRaw uint8
	BatteryRaw  uint8
}

// TempC returns the sample temperature in degrees Celsius.
func (s RawSample) TempC() float64 { return float64(s.TempRaw) / 10.0 }

// PressureKPa returns the sample pressure in kilopascals.
func (s RawSample) PressureKPa() float64 { return float64(s.PressureRaw) }

// HumidityPct returns the sample relative humidity in percent.
func (s RawSample) HumidityPct() float64 { return float64(s.HumidityRaw) }

// BatteryV returns the sample battery voltage in volts.
func (s RawSample) BatteryV() float64 { return float64(s.BatteryRaw) / 10.0 }

// DecodeStatus parses the status characteristic payload: two big-endian
// uint16 counters. Returns [ErrShortBuffer] when fewer than 4 bytes are
// supplied.
func DecodeStatus(data []byte) (models.StatusSnapshot, error) {
	if len(data) < 4 {
		return models.StatusSnapshot{}, fmt.Errorf("%w: status needs 4 bytes, got %d", ErrShortBuffer, len(data))
	}

	return models.StatusSnapshot{
		Total:    binary.BigEndian.Uint16(data[0:2]),
		LastSent: binary.BigEndian.Uint16(data[2:4]),
	}, nil
}

// DecodeFrame parses one notification frame into a typed packet.
//
// A zero-length frame is not an error: it decodes to a nil Packet and should
// be ignored by the caller. A frame with an unrecognized type byte returns
// [ErrUnknownPacketType]; a frame too short for its declared type returns
// [ErrShortBuffer]. Both are per-frame conditions, never session-fatal.
func DecodeFrame(frame []byte) (Packet, error) {
	if len(frame) == 0 {
		return nil, nil
	}

	switch PacketType(frame[0]) {
	case PacketTypeHeader:
		return decodeHeader(frame)
	case PacketTypeData:
		return decodeData(frame)
	case PacketTypeEnd:
		return decodeEnd(frame)
	default:
		return nil, fmt.Errorf("%w: 0x%02x", ErrUnknownPacketType, frame[0])
	}
}

func decodeHeader(frame []byte) (HeaderPacket, error) {
	if len(frame) < 3 {
		return HeaderPacket{}, fmt.Errorf("%w: header needs 3 bytes, got %d", ErrShortBuffer, len(frame))
	}

	return HeaderPacket{IntervalSec: binary.BigEndian.Uint16(frame[1:3])}, nil
}

func decodeData(frame []byte) (DataPacket, error) {
	if len(frame) < dataRecordsOffset {
		return DataPacket{}, fmt.Errorf("%w: data frame needs %d bytes, got %d", ErrShortBuffer, dataRecordsOffset, len(frame))
	}

	count := frame[3]
	packet := DataPacket{
		DeclaredCount: count,
		Samples:       make([]RawSample, 0, count),
	}

	// A truncated trailing record stops decoding for this frame only.
	offset := dataRecordsOffset
	for i := 0; i < int(count); i++ {
		if offset+rawSampleSize > len(frame) {
			break
		}

		packet.Samples = append(packet.Samples, RawSample{
			TempRaw:     int16(binary.BigEndian.Uint16(frame[offset : offset+2])),
			PressureRaw: binary.BigEndian.Uint16(frame[offset+2 : offset+4]),
			HumidityRaw: frame[offset+4],
			BatteryRaw:  frame[offset+5],
		})
		offset += rawSampleSize
	}

	return packet, nil
}

func decodeEnd(frame []byte) (EndPacket, error) {
	if len(frame) < 2 {
		return EndPacket{}, fmt.Errorf("%w: end frame needs 2 bytes, got %d", ErrShortBuffer, len(frame))
	}

	// Firmware sends a 3-byte END. A 2-byte frame still terminates the
	// transfer, it just carries no usable counter.
	if len(frame) < 3 {
		return EndPacket{}, nil
	}

	return EndPacket{TotalSent: binary.BigEndian.Uint16(frame[1:3])}, nil
}
