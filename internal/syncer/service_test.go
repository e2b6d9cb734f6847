// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Borisenko

package syncer

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/config"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/mock"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/protocol"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

func testSyncConfig() *config.SyncerConfig {
	return &config.SyncerConfig{
		BLE: config.BLE{
			SubscribeSettle: time.Millisecond,
		},
		Transfer: config.Transfer{
			IdleTimeout:  60 * time.Millisecond,
			HardTimeout:  500 * time.Millisecond,
			PollInterval: 5 * time.Millisecond,
		},
		// Export disabled: the writer is covered by its own package tests.
	}
}

// newTestSyncService — хелпер для создания service с моками.
func newTestSyncService(
	t *testing.T,
	ctrl *gomock.Controller,
) (
	*service,
	*mock.MockTransport,
	*mock.MockConnection,
	*mock.MockRecordRepository,
	*mock.MockSyncStateRepository,
) {
	t.Helper()

	transport := mock.NewMockTransport(ctrl)
	conn := mock.NewMockConnection(ctrl)
	records := mock.NewMockRecordRepository(ctrl)
	states := mock.NewMockSyncStateRepository(ctrl)

	svc := NewSyncService(testSyncConfig(), transport, records, states, logger.Nop()).(*service)

	return svc, transport, conn, records, states
}

func testDeviceInfo() models.DeviceInfo {
	return models.DeviceInfo{Address: testDevice, Name: "BME-sensor", RSSI: -60}
}

func headerFrame(intervalSec uint16) []byte {
	frame := []byte{byte(protocol.PacketTypeHeader), 0, 0}
	binary.BigEndian.PutUint16(frame[1:], intervalSec)
	return frame
}

func endFrame(totalSent uint16) []byte {
	frame := []byte{byte(protocol.PacketTypeEnd), 0, 0}
	binary.BigEndian.PutUint16(frame[1:], totalSent)
	return frame
}

func dataFrame(n uint8) []byte {
	frame := []byte{byte(protocol.PacketTypeData), 0, 0, n, 0}
	for i := uint8(0); i < n; i++ {
		frame = append(frame, 0x00, 0xE1, 0x00, 0x65, 45, 33)
	}
	return frame
}

func framesChan(frames ...[]byte) <-chan []byte {
	ch := make(chan []byte, len(frames))
	for _, f := range frames {
		ch <- f
	}
	return ch
}

func TestService_SyncOnce_FullDownload(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, conn, records, states := newTestSyncService(t, ctrl)
	ctx := context.Background()

	transport.EXPECT().Scan(gomock.Any()).Return(testDeviceInfo(), nil)
	transport.EXPECT().Connect(gomock.Any(), testDeviceInfo()).Return(conn, nil)

	// Initial and final status reads.
	conn.EXPECT().ReadStatus(gomock.Any()).
		Return(models.StatusSnapshot{Total: 5, LastSent: 0}, nil).
		Times(2)

	states.EXPECT().GetSyncState(gomock.Any(), testDevice).
		Return(models.SyncState{DeviceID: testDevice, LastSyncedSeq: models.NoRecordsSynced}, nil)

	conn.EXPECT().Subscribe(gomock.Any()).
		Return(framesChan(headerFrame(60), dataFrame(3), dataFrame(2), endFrame(5)), nil)

	gomock.InOrder(
		conn.EXPECT().WriteCommand(gomock.Any(), protocol.EncodeStartTransfer(0)).Return(nil),
		conn.EXPECT().WriteCommand(gomock.Any(), protocol.EncodeSetLastSent(4)).Return(nil),
	)

	records.EXPECT().SaveRecords(gomock.Any(), testDevice, gomock.Len(5)).Return(5, nil)
	states.EXPECT().UpdateSyncState(gomock.Any(), testDevice, int64(4), 5).Return(nil)

	conn.EXPECT().Unsubscribe().Return(nil)
	conn.EXPECT().Disconnect().Return(nil)

	result, err := svc.SyncOnce(ctx)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, testDevice, result.DeviceID)
	assert.Equal(t, 5, result.NewRecords)
	assert.Equal(t, uint16(5), result.DeviceTotal)
	assert.True(t, result.Stats.EndReceived)
	assert.Equal(t, uint32(5), result.Stats.RecordsReceived)
}

func TestService_SyncOnce_AlreadySynchronized(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, conn, _, states := newTestSyncService(t, ctrl)

	transport.EXPECT().Scan(gomock.Any()).Return(testDeviceInfo(), nil)
	transport.EXPECT().Connect(gomock.Any(), testDeviceInfo()).Return(conn, nil)
	conn.EXPECT().ReadStatus(gomock.Any()).Return(models.StatusSnapshot{Total: 3, LastSent: 2}, nil)

	// Устройство уже полностью синхронизировано: сессия завершается без
	// подписки и без единой записи в хранилище.
	states.EXPECT().GetSyncState(gomock.Any(), testDevice).
		Return(models.SyncState{DeviceID: testDevice, LastSyncedSeq: 2}, nil)

	conn.EXPECT().Disconnect().Return(nil)

	result, err := svc.SyncOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Zero(t, result.NewRecords)
	assert.Equal(t, uint16(3), result.DeviceTotal)
}

func TestService_SyncOnce_HardTimeoutKeepsPartialData(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, conn, records, states := newTestSyncService(t, ctrl)
	svc.cfg.Transfer.IdleTimeout = 10 * time.Second // idle rule must not fire
	svc.cfg.Transfer.HardTimeout = 80 * time.Millisecond

	transport.EXPECT().Scan(gomock.Any()).Return(testDeviceInfo(), nil)
	transport.EXPECT().Connect(gomock.Any(), testDeviceInfo()).Return(conn, nil)
	conn.EXPECT().ReadStatus(gomock.Any()).
		Return(models.StatusSnapshot{Total: 10, LastSent: 0}, nil).
		Times(2)

	states.EXPECT().GetSyncState(gomock.Any(), testDevice).
		Return(models.SyncState{DeviceID: testDevice, LastSyncedSeq: models.NoRecordsSynced}, nil)

	// Two records arrive, then the device goes silent until the hard ceiling.
	conn.EXPECT().Subscribe(gomock.Any()).Return(framesChan(dataFrame(2)), nil)

	gomock.InOrder(
		conn.EXPECT().WriteCommand(gomock.Any(), protocol.EncodeStartTransfer(0)).Return(nil),
		conn.EXPECT().WriteCommand(gomock.Any(), protocol.EncodeStopTransfer()).Return(nil),
	)

	// Partial data is persisted and committed despite the failed session.
	records.EXPECT().SaveRecords(gomock.Any(), testDevice, gomock.Len(2)).Return(2, nil)
	states.EXPECT().UpdateSyncState(gomock.Any(), testDevice, int64(1), 2).Return(nil)

	conn.EXPECT().Unsubscribe().Return(nil)
	conn.EXPECT().Disconnect().Return(nil)

	result, err := svc.SyncOnce(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Success)
	assert.Equal(t, 2, result.NewRecords)
	assert.Equal(t, uint32(2), result.Stats.RecordsReceived)
}

func TestService_SyncOnce_DuplicatesNotCountedTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, conn, records, states := newTestSyncService(t, ctrl)

	transport.EXPECT().Scan(gomock.Any()).Return(testDeviceInfo(), nil)
	transport.EXPECT().Connect(gomock.Any(), testDeviceInfo()).Return(conn, nil)
	conn.EXPECT().ReadStatus(gomock.Any()).
		Return(models.StatusSnapshot{Total: 5, LastSent: 0}, nil).
		Times(2)

	// A previous session persisted records 0-2 but never committed, so this
	// session re-downloads from 3... the device resends from 0 anyway; the
	// store reports only the genuinely new rows.
	states.EXPECT().GetSyncState(gomock.Any(), testDevice).
		Return(models.SyncState{DeviceID: testDevice, LastSyncedSeq: 2}, nil)

	conn.EXPECT().Subscribe(gomock.Any()).
		Return(framesChan(headerFrame(30), dataFrame(2), endFrame(2)), nil)

	gomock.InOrder(
		conn.EXPECT().WriteCommand(gomock.Any(), protocol.EncodeStartTransfer(3)).Return(nil),
		conn.EXPECT().WriteCommand(gomock.Any(), protocol.EncodeSetLastSent(4)).Return(nil),
	)

	records.EXPECT().SaveRecords(gomock.Any(), testDevice, gomock.Len(2)).Return(1, nil)
	states.EXPECT().UpdateSyncState(gomock.Any(), testDevice, int64(4), 1).Return(nil)

	conn.EXPECT().Unsubscribe().Return(nil)
	conn.EXPECT().Disconnect().Return(nil)

	result, err := svc.SyncOnce(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.NewRecords)
}

func TestService_SyncOnce_ScanFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, _, _, _ := newTestSyncService(t, ctrl)

	transport.EXPECT().Scan(gomock.Any()).
		Return(models.DeviceInfo{}, context.DeadlineExceeded)

	_, err := svc.SyncOnce(context.Background())
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestService_SyncOnce_StatusReadFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, transport, conn, _, _ := newTestSyncService(t, ctrl)

	transport.EXPECT().Scan(gomock.Any()).Return(testDeviceInfo(), nil)
	transport.EXPECT().Connect(gomock.Any(), testDeviceInfo()).Return(conn, nil)

	wantErr := assert.AnError
	conn.EXPECT().ReadStatus(gomock.Any()).Return(models.StatusSnapshot{}, wantErr)
	conn.EXPECT().Disconnect().Return(nil)

	// Без статуса нельзя вычислить точку возобновления — сессия прерывается.
	_, err := svc.SyncOnce(context.Background())
	require.ErrorIs(t, err, wantErr)
}
