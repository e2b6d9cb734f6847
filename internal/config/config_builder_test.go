package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_DefaultsOnly verifies that the built-in defaults alone produce a
// valid configuration pointing at the stock firmware UUIDs and the local
// SQLite file.
func TestBuild_DefaultsOnly(t *testing.T) {
	cfg, err := newConfigBuilder().withDefaults().build()
	require.NoError(t, err)

	assert.Equal(t, DefaultServiceUUID, cfg.BLE.ServiceUUID)
	assert.Equal(t, "BME-", cfg.BLE.NamePrefix)
	assert.Equal(t, "sensor_data.db", cfg.Storage.DB.DSN)
	assert.Equal(t, 3*time.Second, cfg.Transfer.IdleTimeout)
	assert.Equal(t, 20*time.Second, cfg.Transfer.HardTimeout)
	assert.Zero(t, cfg.Workers.SyncInterval)
}

// TestBuild_EmptyBuilderFailsValidation verifies that a config with no
// sources at all is rejected.
func TestBuild_EmptyBuilderFailsValidation(t *testing.T) {
	_, err := newConfigBuilder().build()
	require.ErrorIs(t, err, ErrInvalidStorageConfigs)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = errors.New("boom")

	cfg, err := b.build()
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "boom")
}

// TestBuild_EarlierSourceWins verifies merge priority: a field set by an
// earlier source is not overridden by a later one.
func TestBuild_EarlierSourceWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&SyncerConfig{Storage: Storage{DB: DB{DSN: "from-env.db"}}},
		&SyncerConfig{Storage: Storage{DB: DB{DSN: "from-json.db"}}},
	)
	b.withDefaults()

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Storage.DB.DSN)

	// everything not set by the explicit sources comes from defaults
	assert.Equal(t, DefaultControlUUID, cfg.BLE.ControlUUID)
}

// ── withEnv / withJSON ────────────────────────────────────────────────────────

func TestWithEnv_AppendsConfig(t *testing.T) {
	setEnvVars(t, map[string]string{"STORAGE_DB_DATABASE_URI": "env.db"})

	b := newConfigBuilder().withEnv()
	require.NoError(t, b.err)
	require.Len(t, b.configs, 1)
	assert.Equal(t, "env.db", b.configs[0].Storage.DB.DSN)
}

func TestWithJSON_NoPathIsNoOp(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &SyncerConfig{})

	b.withJSON()
	require.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

func TestWithJSON_MissingFileSetsError(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &SyncerConfig{JSONFilePath: "/no/such/file.json"})

	b.withJSON()
	assert.Error(t, b.err)
}

// ── validation ────────────────────────────────────────────────────────────────

func TestValidate(t *testing.T) {
	valid := func() *SyncerConfig {
		cfg := defaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(cfg *SyncerConfig)
		wantErr error
	}{
		{name: "defaults are valid", mutate: func(*SyncerConfig) {}},
		{
			name:    "empty DSN",
			mutate:  func(cfg *SyncerConfig) { cfg.Storage.DB.DSN = "" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "in-memory DSN rejected",
			mutate:  func(cfg *SyncerConfig) { cfg.Storage.DB.DSN = ":memory:" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "missing characteristic UUID",
			mutate:  func(cfg *SyncerConfig) { cfg.BLE.StatusUUID = "" },
			wantErr: ErrInvalidBLEConfigs,
		},
		{
			name:    "zero connect attempts",
			mutate:  func(cfg *SyncerConfig) { cfg.BLE.ConnectAttempts = 0 },
			wantErr: ErrInvalidBLEConfigs,
		},
		{
			name:    "zero poll interval",
			mutate:  func(cfg *SyncerConfig) { cfg.Transfer.PollInterval = 0 },
			wantErr: ErrInvalidTransferConfigs,
		},
		{
			name: "idle window not below hard timeout",
			mutate: func(cfg *SyncerConfig) {
				cfg.Transfer.IdleTimeout = cfg.Transfer.HardTimeout
			},
			wantErr: ErrInvalidTransferConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
