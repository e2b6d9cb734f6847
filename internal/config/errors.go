package config

import "errors"

// Validation errors returned by [SyncerConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN or unsupported in-memory DSN).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")
	// ErrInvalidBLEConfigs indicates invalid transport settings
	// (for example, a missing characteristic UUID or zero timeout).
	ErrInvalidBLEConfigs = errors.New("invalid ble configuration")
	// ErrInvalidTransferConfigs indicates invalid transfer timing settings
	// (for example, an idle window at least as long as the hard timeout).
	ErrInvalidTransferConfigs = errors.New("invalid transfer configuration")
)
