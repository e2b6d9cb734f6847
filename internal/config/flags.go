package config

import (
	"flag"
	"time"
)

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-d database DSN (postgres:// URI or SQLite file path)
//	-c/-config json file path with configs
//	-name-prefix advertised device name prefix to look for
//	-scan-timeout device discovery timeout (e.g. "10s")
//	-connect-timeout single connection attempt timeout (e.g. "15s")
//	-idle-timeout transfer idle window (e.g. "3s")
//	-hard-timeout transfer hard ceiling (e.g. "20s")
//	-export-dir directory for JSON export documents
//	-sync-interval period of daemon-mode re-sync (0 = one-shot)
func ParseFlags() *SyncerConfig {
	var databaseDSN string
	var jsonConfigPath string
	var namePrefix string
	var scanTimeout time.Duration
	var connectTimeout time.Duration
	var idleTimeout time.Duration
	var hardTimeout time.Duration
	var exportDir string
	var syncInterval time.Duration

	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path")
	flag.StringVar(&namePrefix, "name-prefix", "", "Device name prefix")
	flag.DurationVar(&scanTimeout, "scan-timeout", 0, "Device discovery timeout")
	flag.DurationVar(&connectTimeout, "connect-timeout", 0, "Connection attempt timeout")
	flag.DurationVar(&idleTimeout, "idle-timeout", 0, "Transfer idle window")
	flag.DurationVar(&hardTimeout, "hard-timeout", 0, "Transfer hard timeout")
	flag.StringVar(&exportDir, "export-dir", "", "JSON export directory")
	flag.DurationVar(&syncInterval, "sync-interval", 0, "Daemon re-sync interval (0 = one-shot)")

	flag.Parse()

	return &SyncerConfig{
		BLE: BLE{
			NamePrefix:     namePrefix,
			ScanTimeout:    scanTimeout,
			ConnectTimeout: connectTimeout,
		},
		Storage: Storage{
			DB: DB{DSN: databaseDSN},
		},
		Transfer: Transfer{
			IdleTimeout: idleTimeout,
			HardTimeout: hardTimeout,
		},
		Export: Export{
			Dir: exportDir,
		},
		Workers: Workers{
			SyncInterval: syncInterval,
		},
		JSONFilePath: jsonConfigPath,
	}
}
