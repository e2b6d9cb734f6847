package transfer

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/config"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/protocol"
)

func testTransferConfig() config.Transfer {
	return config.Transfer{
		IdleTimeout:  60 * time.Millisecond,
		HardTimeout:  500 * time.Millisecond,
		PollInterval: 5 * time.Millisecond,
	}
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return logger.Nop().WithContext(ctx)
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

// dataFrame builds a DATA frame carrying n copies of a fixed sample:
// 22.5 °C, 101 kPa, 45 %, 3.3 V.
func dataFrame(n uint8) []byte {
	frame := []byte{byte(protocol.PacketTypeData), 0, 0, n, 0}
	for i := uint8(0); i < n; i++ {
		frame = append(frame, 0x00, 0xE1, 0x00, 0x65, 45, 33)
	}
	return frame
}

func TestSessionCompletesOnEnd(t *testing.T) {
	frames := make(chan []byte, 8)
	frames <- headerFrame(60)
	frames <- dataFrame(3)
	frames <- dataFrame(2)
	frames <- endFrame(5)

	session := NewSession(testTransferConfig(), protocol.NewRecordDecoder(10, -55))

	result, err := session.Run(testContext(t), frames)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.True(t, result.Success())
	require.Len(t, result.Records, 5)

	// Running sequence numbers continue across frame boundaries.
	for i, record := range result.Records {
		assert.Equal(t, uint32(10+i), record.Seq)
		assert.Equal(t, int16(-55), record.RSSI)
	}

	assert.True(t, result.Stats.HeaderReceived)
	assert.True(t, result.Stats.EndReceived)
	assert.Equal(t, uint16(60), result.Stats.IntervalSec)
	assert.Equal(t, uint32(2), result.Stats.DataPackets)
	assert.Equal(t, uint32(5), result.Stats.DeclaredRecords)
	assert.Equal(t, uint32(5), result.Stats.RecordsReceived)
}

func TestSessionIdleCompletion(t *testing.T) {
	frames := make(chan []byte, 8)
	frames <- headerFrame(30)
	frames <- dataFrame(3)
	// No END frame arrives; the stream just goes quiet.

	session := NewSession(testTransferConfig(), protocol.NewRecordDecoder(0, -60))

	started := time.Now()
	result, err := session.Run(testContext(t), frames)
	require.NoError(t, err)

	assert.Equal(t, OutcomeIdle, result.Outcome)
	assert.True(t, result.Success())
	assert.Len(t, result.Records, 3)
	assert.False(t, result.Stats.EndReceived)
	assert.Equal(t, uint32(3), result.Stats.RecordsReceived)

	// The session must have waited out the idle window but stayed well
	// under the hard ceiling.
	elapsed := time.Since(started)
	assert.GreaterOrEqual(t, elapsed, testTransferConfig().IdleTimeout)
	assert.Less(t, elapsed, testTransferConfig().HardTimeout)
}

func TestSessionHardTimeoutWithoutRecords(t *testing.T) {
	cfg := testTransferConfig()
	cfg.HardTimeout = 80 * time.Millisecond

	frames := make(chan []byte, 1)
	frames <- headerFrame(30) // a header alone never satisfies the idle rule

	session := NewSession(cfg, protocol.NewRecordDecoder(0, 0))

	result, err := session.Run(testContext(t), frames)
	require.NoError(t, err)

	assert.Equal(t, OutcomeTimedOut, result.Outcome)
	assert.False(t, result.Success())
	assert.Empty(t, result.Records)
	assert.True(t, result.Stats.HeaderReceived)
}

func TestSessionHardTimeoutKeepsPartialRecords(t *testing.T) {
	cfg := testTransferConfig()
	cfg.IdleTimeout = 10 * time.Second // idle rule can never fire
	cfg.HardTimeout = 80 * time.Millisecond

	frames := make(chan []byte, 2)
	frames <- dataFrame(2)

	session := NewSession(cfg, protocol.NewRecordDecoder(7, 0))

	result, err := session.Run(testContext(t), frames)
	require.NoError(t, err)

	assert.Equal(t, OutcomeTimedOut, result.Outcome)
	assert.False(t, result.Success())
	assert.Len(t, result.Records, 2)
	assert.Equal(t, uint32(7), result.Records[0].Seq)
}

func TestSessionContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(logger.Nop().WithContext(context.Background()))
	cancel()

	session := NewSession(testTransferConfig(), protocol.NewRecordDecoder(0, 0))

	result, err := session.Run(ctx, make(chan []byte))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, result.Records)
}

func TestSessionStreamClosed(t *testing.T) {
	frames := make(chan []byte, 2)
	frames <- dataFrame(1)
	close(frames)

	session := NewSession(testTransferConfig(), protocol.NewRecordDecoder(0, 0))

	result, err := session.Run(testContext(t), frames)
	require.ErrorIs(t, err, ErrStreamClosed)

	// Records decoded before the link dropped are still handed back.
	assert.Len(t, result.Records, 1)
}

func TestSessionSkipsMalformedFrames(t *testing.T) {
	frames := make(chan []byte, 8)
	frames <- []byte{0x7F, 0x01} // unknown packet type
	frames <- []byte{}           // empty frame
	frames <- dataFrame(1)
	frames <- endFrame(1)

	session := NewSession(testTransferConfig(), protocol.NewRecordDecoder(0, 0))

	result, err := session.Run(testContext(t), frames)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCompleted, result.Outcome)
	assert.Len(t, result.Records, 1)
}
