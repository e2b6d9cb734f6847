package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// StructuredJSONConfig mirrors [SyncerConfig] with JSON tags and
// string-friendly durations so that operators can keep a readable config
// file next to the database.
type StructuredJSONConfig struct {
	BLE struct {
		ServiceUUID      string   `json:"service_uuid"`
		DataTransferUUID string   `json:"data_transfer_uuid"`
		ControlUUID      string   `json:"control_uuid"`
		StatusUUID       string   `json:"status_uuid"`
		NamePrefix       string   `json:"name_prefix"`
		ScanTimeout      Duration `json:"scan_timeout"`
		ConnectTimeout   Duration `json:"connect_timeout"`
		ConnectAttempts  int      `json:"connect_attempts"`
		SubscribeSettle  Duration `json:"subscribe_settle"`
	} `json:"ble,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`
	} `json:"storage,omitempty"`

	Transfer struct {
		IdleTimeout  Duration `json:"idle_timeout"`
		HardTimeout  Duration `json:"hard_timeout"`
		PollInterval Duration `json:"poll_interval"`
	} `json:"transfer,omitempty"`

	Export struct {
		Dir string `json:"dir"`
	} `json:"export,omitempty"`

	Workers struct {
		SyncInterval Duration `json:"sync_interval"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*SyncerConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &SyncerConfig{
		BLE: BLE{
			ServiceUUID:      jsonCfg.BLE.ServiceUUID,
			DataTransferUUID: jsonCfg.BLE.DataTransferUUID,
			ControlUUID:      jsonCfg.BLE.ControlUUID,
			StatusUUID:       jsonCfg.BLE.StatusUUID,
			NamePrefix:       jsonCfg.BLE.NamePrefix,
			ScanTimeout:      time.Duration(jsonCfg.BLE.ScanTimeout),
			ConnectTimeout:   time.Duration(jsonCfg.BLE.ConnectTimeout),
			ConnectAttempts:  jsonCfg.BLE.ConnectAttempts,
			SubscribeSettle:  time.Duration(jsonCfg.BLE.SubscribeSettle),
		},
		Storage: Storage{
			DB: DB{DSN: jsonCfg.Storage.DB.DSN},
		},
		Transfer: Transfer{
			IdleTimeout:  time.Duration(jsonCfg.Transfer.IdleTimeout),
			HardTimeout:  time.Duration(jsonCfg.Transfer.HardTimeout),
			PollInterval: time.Duration(jsonCfg.Transfer.PollInterval),
		},
		Export: Export{
			Dir: jsonCfg.Export.Dir,
		},
		Workers: Workers{
			SyncInterval: time.Duration(jsonCfg.Workers.SyncInterval),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
