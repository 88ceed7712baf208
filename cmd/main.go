package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"driverbot/config"
	"driverbot/pkg/backend"
	"driverbot/pkg/bot"
	"driverbot/pkg/logger"
	"driverbot/pkg/metrics"
	"driverbot/pkg/socket"
	"driverbot/service"
	"driverbot/storage"
	"driverbot/storage/memory"
	"driverbot/storage/postgres"
	"driverbot/storage/redis"
)

func main() {
	// 1. Load Config
	cfg := config.Load()

	// 2. Initialize Logger
	log := logger.New(cfg.ServiceName, cfg.LoggerLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Storage (Postgres mirror, Redis sessions)
	pgStore, err := postgres.New(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to connect to postgres", logger.Error(err))
		os.Exit(1)
	}
	defer pgStore.Close()

	healthChecks := []bot.HealthCheck{{Name: "postgres", Check: pgStore.GetPool().Ping}}

	var sessions storage.ISessionStorage
	rdb, err := redis.New(ctx, cfg)
	switch {
	case err != nil:
		log.Error("Failed to connect to redis", logger.Error(err))
		os.Exit(1)
	case rdb == nil:
		log.Warning("REDIS_HOST not set, sessions are kept in memory")
		sessions = memory.NewSessionRepo()
	default:
		defer rdb.Close()
		sessions = redis.NewSessionRepo(rdb, cfg.SessionTTL, log)
		healthChecks = append(healthChecks, bot.HealthCheck{Name: "redis", Check: rdb.Health})
	}

	// 4. Metrics and remote collaborators
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	api := backend.New(cfg.APIDomainURL, cfg.HTTPTimeout, log, m)

	sockets, err := socket.NewDialer(cfg.SocketURL, log)
	if err != nil {
		log.Error("Invalid socket url", logger.Error(err))
		os.Exit(1)
	}
	dialer := service.SocketDialFunc(func(ctx context.Context) (service.RideSocket, error) {
		conn, err := sockets.Dial(ctx)
		if err != nil {
			return nil, err
		}
		return conn, nil
	})

	// 5. Services and bot
	svc := service.New(pgStore, api, dialer, cfg, log, m)
	defer svc.Ride().Close()

	driverBot, err := bot.New(&cfg, svc, sessions, log)
	if err != nil {
		log.Error("Failed to initialize driver bot", logger.Error(err))
		os.Exit(1)
	}

	// 6. Run bot and HTTP server in parallel goroutines
	go driverBot.Start()

	router := bot.NewRouter(driverBot, reg, log, healthChecks...)
	go func() {
		if err := bot.RunServer(ctx, fmt.Sprintf(":%d", cfg.AppPort), router, log); err != nil {
			log.Error("HTTP server stopped", logger.Error(err))
			stop()
		}
	}()

	log.Info("🚀 Driver bot is running.")

	// 7. Graceful Shutdown
	<-ctx.Done()
	log.Info("Stopping bot and shutting down...")
	driverBot.Stop()
}
