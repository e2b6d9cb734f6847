package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/ble"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/config"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/logger"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/store"
	"github.com/DmitryBorisenko33/ncs-ble-bme280-nrf54-standalone/internal/syncer"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("ble-syncer")
	cfg, err := config.GetSyncerConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	// SIGINT/SIGTERM cancels the session; decoded records are still
	// persisted on the way out.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	storages, err := store.NewStorages(ctx, cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating storages")
	}
	defer storages.Close()

	transport, err := ble.NewAdapter(cfg.BLE, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error initializing ble transport")
	}

	syncService := syncer.NewSyncService(cfg, transport, storages.Records, storages.SyncState, log)

	result, err := syncService.SyncOnce(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("sync failed")
	}

	log.Info().
		Str("device", result.DeviceID).
		Int("new_records", result.NewRecords).
		Uint16("device_total", result.DeviceTotal).
		Bool("success", result.Success).
		Msg("sync finished")

	// Daemon mode: keep re-syncing until interrupted.
	if cfg.Workers.SyncInterval > 0 {
		job := syncer.NewSyncJob(syncService, log)
		job.Start(ctx, cfg.Workers.SyncInterval)

		<-ctx.Done()
		job.Stop()
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
