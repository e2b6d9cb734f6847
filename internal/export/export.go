// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Dmitry Borisenko

// Package export writes the JSON document produced after a successful
// download. The document is a boundary artifact for downstream tooling and
// plays no part in the transfer protocol itself.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/models"
)

// filenameTimeLayout formats the timestamp embedded in export file names.
const filenameTimeLayout = "20060102_150405"

// Writer serializes export documents into a target directory.
type Writer struct {
	dir string
	now func() time.Time
}

// NewWriter constructs a writer targeting dir. An empty dir disables the
// export: Write becomes a no-op returning an empty path.
func NewWriter(dir string) *Writer {
	return &Writer{
		dir: dir,
		now: time.Now,
	}
}

// Write marshals the document to sensor_data_<timestamp>.json inside the
// writer's directory, creating the directory if needed, and returns the full
// path of the written file.
func (w *Writer) Write(ctx context.Context, doc models.ExportDocument) (string, error) {
	if w.dir == "" {
		return "", nil
	}

	log := logger.FromContext(ctx)

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	name := fmt.Sprintf("sensor_data_%s.json", w.now().Format(filenameTimeLayout))
	path := filepath.Join(w.dir, name)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export document: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write export document: %w", err)
	}

	log.Info().
		Str("func", "Writer.Write").
		Str("path", path).
		Int("records", len(doc.Records)).
		Msg("export document written")

	return path, nil
}
