// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Borisenko

package syncer

import (
	"context"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/store"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// ResumePlan is the computed starting point of one download session.
type ResumePlan struct {
	// StartIndex is the sequence number of the first record to request.
	StartIndex uint32

	// ToDownload is how many records the device holds beyond StartIndex.
	// Zero or negative means the device has nothing new.
	ToDownload int
}

// NothingToSync reports whether the session can be skipped entirely.
func (p ResumePlan) NothingToSync() bool {
	return p.ToDownload <= 0
}

// PlanResume computes the resume point from the persisted sync state and the
// device's reported total. It is a pure function: start_index is the
// sequence right after the high-water mark (or 0 for a never-synced device)
// and to_download is whatever the device holds beyond it.
func PlanResume(state models.SyncState, status models.StatusSnapshot) ResumePlan {
	last := state.LastSyncedSeq
	if last < models.NoRecordsSynced {
		last = models.NoRecordsSynced
	}

	start := last + 1

	return ResumePlan{
		StartIndex: uint32(start),
		ToDownload: int(status.Total) - int(start),
	}
}

// Tracker owns the per-device sync high-water mark: it computes where a
// session should resume and commits the new mark when the session is done.
// Nothing else in the engine mutates sync state.
type Tracker struct {
	states store.SyncStateRepository
	logger *logger.Logger
}

// NewTracker constructs a Tracker over the given sync-state repository.
func NewTracker(states store.SyncStateRepository, log *logger.Logger) *Tracker {
	return &Tracker{
		states: states,
		logger: log,
	}
}

// Plan loads the device's sync state and computes the resume point against
// the given status snapshot.
func (t *Tracker) Plan(ctx context.Context, deviceID string, status models.StatusSnapshot) (ResumePlan, error) {
	log := logger.FromContext(ctx)

	state, err := t.states.GetSyncState(ctx, deviceID)
	if err != nil {
		log.Err(err).Str("func", "Tracker.Plan").Msg("error loading sync state")
		return ResumePlan{}, err
	}

	plan := PlanResume(state, status)
	log.Info().
		Str("func", "Tracker.Plan").
		Int64("last_synced_seq", state.LastSyncedSeq).
		Uint16("device_total", status.Total).
		Uint32("start_index", plan.StartIndex).
		Int("to_download", plan.ToDownload).
		Msg("computed resume point")

	return plan, nil
}

// Commit advances the device's high-water mark to the highest sequence of
// the given session records and adds saved to the cumulative total. Called
// exactly once per session; with no records it is a no-op, even when the
// device did send an END frame.
//
// Monotonicity lives in the repository upsert, so committing a stale session
// result never moves the mark backward.
func (t *Tracker) Commit(ctx context.Context, deviceID string, records []models.SensorRecord, saved int) error {
	log := logger.FromContext(ctx)

	if len(records) == 0 {
		log.Info().
			Str("func", "Tracker.Commit").
			Str("device", deviceID).
			Msg("nothing to save, sync state unchanged")
		return nil
	}

	// Sequence numbers are strictly increasing within a session, so the
	// last record carries the highest one.
	highest := records[len(records)-1].Seq

	if err := t.states.UpdateSyncState(ctx, deviceID, int64(highest), saved); err != nil {
		log.Err(err).Str("func", "Tracker.Commit").Msg("error committing sync state")
		return err
	}

	log.Info().
		Str("func", "Tracker.Commit").
		Str("device", deviceID).
		Uint32("last_synced_seq", highest).
		Int("saved", saved).
		Msg("sync state committed")

	return nil
}
