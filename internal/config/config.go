// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Borisenko

package config

import (
	"time"
)

// SyncerConfig is the top-level configuration container for the sensor sync
// tool. It aggregates all sub-configurations and is populated by merging
// values from environment variables, command-line flags, an optional JSON
// file, and built-in defaults.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type SyncerConfig struct {
	// BLE holds the wireless transport settings: service and characteristic
	// UUIDs, device name prefix, and discovery/connection timeouts.
	BLE BLE `envPrefix:"BLE_"`

	// Storage holds the relational database connection settings.
	Storage Storage `envPrefix:"STORAGE_"`

	// Transfer holds the timing knobs of the download state machine.
	Transfer Transfer `envPrefix:"TRANSFER_"`

	// Export holds settings for the post-download JSON export.
	Export Export `envPrefix:"EXPORT_"`

	// Workers holds configuration for the periodic re-sync worker.
	Workers Workers `envPrefix:"WORKERS_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged below the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// BLE groups the settings of the wireless transport layer.
type BLE struct {
	// ServiceUUID identifies the BME280 data service advertised by the
	// sensor firmware.
	// Env: BLE_SERVICE_UUID
	ServiceUUID string `env:"SERVICE_UUID"`

	// DataTransferUUID is the notify characteristic delivering transfer
	// frames (HEADER, DATA, END).
	// Env: BLE_DATA_TRANSFER_UUID
	DataTransferUUID string `env:"DATA_TRANSFER_UUID"`

	// ControlUUID is the write characteristic accepting control commands
	// (START, STOP, GET_STATUS, SET_LAST_SENT).
	// Env: BLE_CONTROL_UUID
	ControlUUID string `env:"CONTROL_UUID"`

	// StatusUUID is the read characteristic exposing the device's record
	// counters.
	// Env: BLE_STATUS_UUID
	StatusUUID string `env:"STATUS_UUID"`

	// NamePrefix filters discovery results by advertised device name
	// (e.g. "BME-").
	// Env: BLE_NAME_PREFIX
	NamePrefix string `env:"NAME_PREFIX"`

	// ScanTimeout bounds device discovery.
	// Env: BLE_SCAN_TIMEOUT
	ScanTimeout time.Duration `env:"SCAN_TIMEOUT"`

	// ConnectTimeout bounds one connection attempt.
	// Env: BLE_CONNECT_TIMEOUT
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT"`

	// ConnectAttempts is how many times connection is retried before the
	// session is abandoned.
	// Env: BLE_CONNECT_ATTEMPTS
	ConnectAttempts int `env:"CONNECT_ATTEMPTS"`

	// SubscribeSettle is the pause between enabling notifications and
	// sending START, giving the peripheral time to arm its subscription.
	// Env: BLE_SUBSCRIBE_SETTLE
	SubscribeSettle time.Duration `env:"SUBSCRIBE_SETTLE"`
}

// Storage groups the configuration for the storage gateway.
type Storage struct {
	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the records database.
type DB struct {
	// DSN selects the storage backend: a postgres:// URI targets the
	// central archive, any other value is used as a local SQLite file path.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Transfer holds the timing parameters of the download state machine.
type Transfer struct {
	// IdleTimeout is the completion heuristic: with at least one record
	// received, this much silence on the notification stream ends the
	// session successfully even without an END frame.
	// Env: TRANSFER_IDLE_TIMEOUT
	IdleTimeout time.Duration `env:"IDLE_TIMEOUT"`

	// HardTimeout is the absolute ceiling on session duration regardless
	// of progress.
	// Env: TRANSFER_HARD_TIMEOUT
	HardTimeout time.Duration `env:"HARD_TIMEOUT"`

	// PollInterval is the granularity of the session's timeout checks.
	// Env: TRANSFER_POLL_INTERVAL
	PollInterval time.Duration `env:"POLL_INTERVAL"`
}

// Export holds settings for the JSON export written after a download.
type Export struct {
	// Dir is the directory export documents are written to. An empty value
	// disables the export.
	// Env: EXPORT_DIR
	Dir string `env:"DIR"`
}

// Workers holds configuration for the periodic re-sync worker.
type Workers struct {
	// SyncInterval is the period of the daemon-mode re-sync loop.
	// Zero means one-shot operation.
	// Env: WORKERS_SYNC_INTERVAL
	SyncInterval time.Duration `env:"SYNC_INTERVAL"`
}

// Firmware constants shared by every deployment; used as defaults so that a
// bare invocation talks to an unmodified sensor node.
const (
	DefaultServiceUUID      = "12345678-1234-1234-1234-123456789abc"
	DefaultDataTransferUUID = "12345678-1234-1234-1234-123456789abd"
	DefaultControlUUID      = "12345678-1234-1234-1234-123456789abe"
	DefaultStatusUUID       = "12345678-1234-1234-1234-123456789abf"
)

func defaults() *SyncerConfig {
	return &SyncerConfig{
		BLE: BLE{
			ServiceUUID:      DefaultServiceUUID,
			DataTransferUUID: DefaultDataTransferUUID,
			ControlUUID:      DefaultControlUUID,
			StatusUUID:       DefaultStatusUUID,
			NamePrefix:       "BME-",
			ScanTimeout:      10 * time.Second,
			ConnectTimeout:   15 * time.Second,
			ConnectAttempts:  3,
			SubscribeSettle:  500 * time.Millisecond,
		},
		Storage: Storage{
			DB: DB{DSN: "sensor_data.db"},
		},
		Transfer: Transfer{
			IdleTimeout:  3 * time.Second,
			HardTimeout:  20 * time.Second,
			PollInterval: 100 * time.Millisecond,
		},
		Export: Export{
			Dir: "/tmp",
		},
	}
}

// GetSyncerConfig loads, merges, and validates the tool configuration from
// all available sources in the following priority order (first source wins
// for non-zero fields):
//  1. Environment variables
//  2. Command-line flags
//  3. JSON file (path resolved from sources 1 and 2)
//  4. Built-in defaults
//
// Returns a fully populated *SyncerConfig or an error if any source fails to
// load or the final config fails validation.
func GetSyncerConfig() (*SyncerConfig, error) {
	return newConfigBuilder().
		withEnv().
		withFlags().
		withJSON().
		withDefaults().
		build()
}
