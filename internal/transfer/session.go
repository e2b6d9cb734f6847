// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Borisenko

// Package transfer implements the download session state machine: it consumes
// raw notification frames from a subscribed data-transfer characteristic and
// turns them into decoded sensor records plus session statistics.
//
// A session is deliberately transport-free. It reads frames from a channel
// and never touches the BLE link, which keeps the timing logic testable with
// nothing but a channel and a clock.
package transfer

import (
	"context"
	"time"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/config"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/protocol"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// Outcome is the terminal state of a download session.
type Outcome int

const (
	// OutcomeCompleted means the device terminated the transfer with an END
	// frame.
	OutcomeCompleted Outcome = iota

	// OutcomeIdle means the notification stream went quiet after at least
	// one record arrived. The firmware does not always deliver its END
	// frame, so a quiet stream with data counts as a successful session.
	OutcomeIdle

	// OutcomeTimedOut means the session hit the hard duration ceiling
	// before completing. Whatever records arrived are still returned.
	OutcomeTimedOut
)

// String returns a human-readable outcome label for logs.
func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeIdle:
		return "idle"
	case OutcomeTimedOut:
		return "timed out"
	default:
		return "unknown"
	}
}

// Result is everything a finished session hands back to the caller: the
// decoded records in arrival order, the session counters, and how the
// session ended.
type Result struct {
	Outcome Outcome
	Records []models.SensorRecord
	Stats   models.TransferStats
}

// Success reports whether the session ended well enough to advance the sync
// high-water mark. Idle completion only occurs with at least one record, so
// every outcome except the hard timeout is a success.
func (r Result) Success() bool {
	return r.Outcome != OutcomeTimedOut
}

// Session runs one download over an already-subscribed frame stream.
// It is single-use: construct, Run once, read the Result.
type Session struct {
	cfg     config.Transfer
	decoder *protocol.RecordDecoder

	stats   models.TransferStats
	records []models.SensorRecord

	now func() time.Time
}

// NewSession constructs a session around the given record decoder. The
// decoder carries the start sequence of the resume point, so the first
// decoded sample continues exactly where the previous sync left off.
func NewSession(cfg config.Transfer, decoder *protocol.RecordDecoder) *Session {
	return &Session{
		cfg:     cfg,
		decoder: decoder,
		now:     time.Now,
	}
}

// Run consumes frames until the session reaches a terminal state.
//
// Three clocks govern the loop: the idle window restarts on every frame and,
// once a record has arrived, ends the session successfully after
// cfg.IdleTimeout of silence; the hard deadline caps the whole session at
// cfg.HardTimeout regardless of progress; both are checked every
// cfg.PollInterval. Malformed frames are logged and skipped, never fatal.
//
// The returned error is non-nil only when ctx was cancelled or the frame
// channel was closed under the session; the partial Result is valid either
// way, so callers can persist what did arrive.
func (s *Session) Run(ctx context.Context, frames <-chan []byte) (Result, error) {
	log := logger.FromContext(ctx)

	started := s.now()
	deadline := started.Add(s.cfg.HardTimeout)
	lastFrame := started

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return s.result(OutcomeTimedOut), ctx.Err()

		case frame, ok := <-frames:
			if !ok {
				log.Warn().
					Str("func", "Session.Run").
					Uint32("records", s.stats.RecordsReceived).
					Msg("frame stream closed mid-session")
				return s.result(OutcomeTimedOut), ErrStreamClosed
			}

			lastFrame = s.now()
			if s.handleFrame(ctx, frame) {
				return s.result(OutcomeCompleted), nil
			}

		case <-ticker.C:
			now := s.now()

			if now.After(deadline) {
				log.Warn().
					Str("func", "Session.Run").
					Dur("elapsed", now.Sub(started)).
					Uint32("records", s.stats.RecordsReceived).
					Msg("session hit hard timeout")
				return s.result(OutcomeTimedOut), nil
			}

			if s.stats.RecordsReceived > 0 && now.Sub(lastFrame) >= s.cfg.IdleTimeout {
				log.Info().
					Str("func", "Session.Run").
					Uint32("records", s.stats.RecordsReceived).
					Msg("stream idle, transfer considered complete")
				return s.result(OutcomeIdle), nil
			}
		}
	}
}

// handleFrame decodes and applies one notification frame. It returns true
// when the frame terminates the session.
func (s *Session) handleFrame(ctx context.Context, frame []byte) bool {
	log := logger.FromContext(ctx)

	packet, err := protocol.DecodeFrame(frame)
	if err != nil {
		log.Warn().Err(err).
			Str("func", "Session.handleFrame").
			Int("frame_len", len(frame)).
			Msg("skipping malformed frame")
		return false
	}
	if packet == nil {
		return false
	}

	switch p := packet.(type) {
	case protocol.HeaderPacket:
		s.stats.HeaderReceived = true
		s.stats.IntervalSec = p.IntervalSec
		s.decoder.SetIntervalSec(p.IntervalSec)
		log.Debug().
			Str("func", "Session.handleFrame").
			Uint16("interval_sec", p.IntervalSec).
			Msg("received transfer header")

	case protocol.DataPacket:
		decoded := s.decoder.DecodeData(p)
		s.records = append(s.records, decoded...)
		s.stats.DataPackets++
		s.stats.RecordsReceived += uint32(len(decoded))
		if len(decoded) < int(p.DeclaredCount) {
			log.Warn().
				Str("func", "Session.handleFrame").
				Uint8("declared", p.DeclaredCount).
				Int("decoded", len(decoded)).
				Msg("data frame truncated")
		}

	case protocol.EndPacket:
		s.stats.EndReceived = true
		s.stats.DeclaredRecords = uint32(p.TotalSent)
		if uint32(p.TotalSent) != s.stats.RecordsReceived {
			log.Warn().
				Str("func", "Session.handleFrame").
				Uint16("declared", p.TotalSent).
				Uint32("received", s.stats.RecordsReceived).
				Msg("device record count differs from received count")
		}
		return true
	}

	return false
}

func (s *Session) result(outcome Outcome) Result {
	return Result{
		Outcome: outcome,
		Records: s.records,
		Stats:   s.stats,
	}
}
