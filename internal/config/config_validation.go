// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Borisenko

package config

import "strings"

// validate checks that the final merged [SyncerConfig] satisfies all
// invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a sentinel error otherwise.
func (cfg *SyncerConfig) validate() error {
	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.BLE.ServiceUUID == "" || cfg.BLE.DataTransferUUID == "" ||
		cfg.BLE.ControlUUID == "" || cfg.BLE.StatusUUID == "" {
		return ErrInvalidBLEConfigs
	}

	if cfg.BLE.ScanTimeout <= 0 || cfg.BLE.ConnectTimeout <= 0 || cfg.BLE.ConnectAttempts <= 0 {
		return ErrInvalidBLEConfigs
	}

	if cfg.Transfer.IdleTimeout <= 0 || cfg.Transfer.HardTimeout <= 0 || cfg.Transfer.PollInterval <= 0 {
		return ErrInvalidTransferConfigs
	}

	if cfg.Transfer.IdleTimeout >= cfg.Transfer.HardTimeout {
		return ErrInvalidTransferConfigs
	}

	return nil
}
