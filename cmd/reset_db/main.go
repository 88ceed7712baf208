package main

import (
	"context"

	"driverbot/config"
	"driverbot/pkg/logger"
	"driverbot/storage/postgres"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)
	pg, err := postgres.New(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	defer pg.Close()

	// vehicle_types is seed data and stays.
	_, err = pg.GetPool().Exec(context.Background(), "TRUNCATE TABLE drivers, driver_documents, completed_rides RESTART IDENTITY CASCADE")
	if err != nil {
		log.Error("Failed to truncate tables", logger.Error(err))
		return
	}
	log.Info("Successfully truncated drivers, driver_documents and completed_rides.")
}
