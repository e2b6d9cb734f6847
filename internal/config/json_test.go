package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")

	// Durations in JSON may be strings like "30s" thanks to the Duration wrapper.
	jsonBody := `{
		"ble": {
			"service_uuid": "svc-uuid",
			"data_transfer_uuid": "data-uuid",
			"control_uuid": "ctrl-uuid",
			"status_uuid": "status-uuid",
			"name_prefix": "BME-",
			"scan_timeout": "10s",
			"connect_timeout": "15s",
			"connect_attempts": 3,
			"subscribe_settle": "500ms"
		},
		"storage": {
			"db": { "dsn": "sensor_data.db" }
		},
		"transfer": {
			"idle_timeout": "3s",
			"hard_timeout": "20s",
			"poll_interval": "100ms"
		},
		"export": { "dir": "/tmp" },
		"workers": { "sync_interval": "5m" }
	}`

	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "svc-uuid", cfg.BLE.ServiceUUID)
	assert.Equal(t, "data-uuid", cfg.BLE.DataTransferUUID)
	assert.Equal(t, "ctrl-uuid", cfg.BLE.ControlUUID)
	assert.Equal(t, "status-uuid", cfg.BLE.StatusUUID)
	assert.Equal(t, "BME-", cfg.BLE.NamePrefix)
	assert.Equal(t, 10*time.Second, cfg.BLE.ScanTimeout)
	assert.Equal(t, 15*time.Second, cfg.BLE.ConnectTimeout)
	assert.Equal(t, 3, cfg.BLE.ConnectAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.BLE.SubscribeSettle)

	assert.Equal(t, "sensor_data.db", cfg.Storage.DB.DSN)

	assert.Equal(t, 3*time.Second, cfg.Transfer.IdleTimeout)
	assert.Equal(t, 20*time.Second, cfg.Transfer.HardTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.Transfer.PollInterval)

	assert.Equal(t, "/tmp", cfg.Export.Dir)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
	assert.Empty(t, cfg.JSONFilePath)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	_, err := parseJSON(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading a json file")
}

func TestParseJSON_MalformedJSON(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"transfer": {`), 0o600))

	_, err := parseJSON(p)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error decoding json configs")
}

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want time.Duration
		err  bool
	}{
		{name: "string duration", in: `"1h"`, want: time.Hour},
		{name: "numeric nanoseconds", in: `30000000000`, want: 30 * time.Second},
		{name: "invalid string", in: `"soon"`, err: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := d.UnmarshalJSON([]byte(tt.in))

			if tt.err {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}
