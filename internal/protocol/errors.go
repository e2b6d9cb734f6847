package protocol

import "errors"

// Sentinel errors returned by the codec. Callers should use [errors.Is] to
// match against these values. Both are per-frame conditions: a frame that
// fails to decode is dropped, the session itself carries on.
var (
	// ErrShortBuffer is returned when a status reply or notification frame is
	// too small to contain the fields its packet type declares.
	ErrShortBuffer = errors.New("buffer too short for packet")

	// ErrUnknownPacketType is returned when the first byte of a notification
	// frame is not one of the known packet types (HEADER, DATA, END).
	ErrUnknownPacketType = errors.New("unknown packet type")
)
