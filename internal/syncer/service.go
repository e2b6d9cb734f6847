// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Borisenko

// Package syncer orchestrates complete synchronization sessions: it glues
// the transport adapter, the transfer state machine, the storage gateway and
// the export writer into the one-shot flow of the sync tool.
package syncer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/ble"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/config"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/export"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/protocol"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/store"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/transfer"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

type service struct {
	cfg       *config.SyncerConfig
	transport ble.Transport
	records   store.RecordRepository
	tracker   *Tracker
	exporter  *export.Writer
	logger    *logger.Logger

	now func() time.Time
}

// NewSyncService constructs the synchronization service.
func NewSyncService(
	cfg *config.SyncerConfig,
	transport ble.Transport,
	records store.RecordRepository,
	states store.SyncStateRepository,
	log *logger.Logger,
) SyncService {
	return &service{
		cfg:       cfg,
		transport: transport,
		records:   records,
		tracker:   NewTracker(states, log),
		exporter:  export.NewWriter(cfg.Export.Dir),
		logger:    log,
		now:       time.Now,
	}
}

// SyncOnce implements [SyncService].
//
// The session is single-device and strictly sequential: scan, connect, read
// status, compute the resume point (skipping entirely when the device holds
// nothing new), subscribe, start the transfer, run the session loop, then
// persist, commit and export. Records decoded before any failure, including
// cancellation, are persisted before the error propagates.
func (s *service) SyncOnce(ctx context.Context) (models.SyncResult, error) {
	sessionID := uuid.NewString()
	log := &logger.Logger{Logger: s.logger.With().Str("session_id", sessionID).Logger()}
	ctx = log.WithContext(ctx)

	device, err := s.transport.Scan(ctx)
	if err != nil {
		return models.SyncResult{}, err
	}

	result := models.SyncResult{DeviceID: device.Address}

	conn, err := s.transport.Connect(ctx, device)
	if err != nil {
		return result, err
	}
	defer func() {
		if discErr := conn.Disconnect(); discErr != nil {
			log.Warn().Err(discErr).Str("func", "service.SyncOnce").Msg("error disconnecting")
		}
	}()

	status, err := conn.ReadStatus(ctx)
	if err != nil {
		return result, err
	}
	result.DeviceTotal = status.Total

	plan, err := s.tracker.Plan(ctx, device.Address, status)
	if err != nil {
		return result, err
	}

	if plan.NothingToSync() {
		log.Info().
			Str("func", "service.SyncOnce").
			Str("device", device.Address).
			Msg("device already synchronized, nothing to download")
		result.Success = true
		return result, nil
	}

	frames, err := conn.Subscribe(ctx)
	if err != nil {
		return result, err
	}
	defer func() {
		if unsubErr := conn.Unsubscribe(); unsubErr != nil {
			log.Warn().Err(unsubErr).Str("func", "service.SyncOnce").Msg("error disabling notifications")
		}
	}()

	// Let the peripheral arm its subscription before START, otherwise the
	// first frames of the transfer can be lost.
	select {
	case <-ctx.Done():
		return result, ctx.Err()
	case <-time.After(s.cfg.BLE.SubscribeSettle):
	}

	if err = conn.WriteCommand(ctx, protocol.EncodeStartTransfer(uint16(plan.StartIndex))); err != nil {
		return result, err
	}

	decoder := protocol.NewRecordDecoder(plan.StartIndex, device.RSSI)
	session := transfer.NewSession(s.cfg.Transfer, decoder)

	sessionResult, runErr := session.Run(ctx, frames)
	result.Stats = sessionResult.Stats

	if sessionResult.Outcome == transfer.OutcomeTimedOut && runErr == nil {
		// The device may still be streaming into the void.
		if stopErr := conn.WriteCommand(ctx, protocol.EncodeStopTransfer()); stopErr != nil {
			log.Warn().Err(stopErr).Str("func", "service.SyncOnce").Msg("error sending stop command")
		}
	}

	// Already-decoded records survive cancellation: persistence runs even
	// when the session was interrupted.
	persistCtx := ctx
	if ctx.Err() != nil {
		persistCtx = log.WithContext(context.WithoutCancel(ctx))
	}

	saved := 0
	if len(sessionResult.Records) > 0 {
		if saved, err = s.records.SaveRecords(persistCtx, device.Address, sessionResult.Records); err != nil {
			return result, err
		}
		result.NewRecords = saved
	}

	if err = s.tracker.Commit(persistCtx, device.Address, sessionResult.Records, saved); err != nil {
		return result, err
	}

	if runErr != nil {
		return result, runErr
	}

	result.Success = sessionResult.Success()

	if finalStatus, statusErr := conn.ReadStatus(ctx); statusErr == nil {
		result.DeviceTotal = finalStatus.Total
		log.Debug().
			Str("func", "service.SyncOnce").
			Uint16("total", finalStatus.Total).
			Uint16("last_sent", finalStatus.LastSent).
			Msg("final device status")
	}

	if result.Success && len(sessionResult.Records) > 0 {
		s.alignDeviceCounter(ctx, conn, sessionResult.Records)
		s.export(ctx, sessionID, device.Address, sessionResult)
	}

	log.Info().
		Str("func", "service.SyncOnce").
		Str("device", device.Address).
		Str("outcome", sessionResult.Outcome.String()).
		Int("new_records", result.NewRecords).
		Uint32("received", sessionResult.Stats.RecordsReceived).
		Bool("success", result.Success).
		Msg("sync session finished")

	return result, nil
}

// alignDeviceCounter pushes the committed high-water mark back to the
// device's last-sent counter. Best-effort: the counter is advisory and the
// next resume point is computed from host state anyway.
func (s *service) alignDeviceCounter(ctx context.Context, conn ble.Connection, records []models.SensorRecord) {
	highest := records[len(records)-1].Seq

	if err := conn.WriteCommand(ctx, protocol.EncodeSetLastSent(uint16(highest))); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "service.alignDeviceCounter").
			Msg("error updating device last-sent counter")
	}
}

// export writes the post-download JSON document. Failures are logged, never
// escalated: the records are already durable in the store.
func (s *service) export(ctx context.Context, sessionID, deviceID string, sessionResult transfer.Result) {
	doc := models.ExportDocument{
		Metadata: models.ExportMetadata{
			SessionID:    sessionID,
			DeviceID:     deviceID,
			DownloadTime: s.now(),
			TotalRecords: len(sessionResult.Records),
			Stats:        sessionResult.Stats,
		},
		Records: sessionResult.Records,
	}

	if _, err := s.exporter.Write(ctx, doc); err != nil {
		logger.FromContext(ctx).Warn().Err(err).
			Str("func", "service.export").
			Msg("error writing export document")
	}
}
