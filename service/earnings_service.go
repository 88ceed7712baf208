package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/storage"
)

type EarningsService interface {
	Summary(ctx context.Context, driverID int64) (*models.Earnings, error)
	History(ctx context.Context, driverID int64, limit int) ([]*models.CompletedRide, error)
}

type earningsService struct {
	stg storage.IRideStorage
	api API
	log logger.ILogger
	now func() time.Time
}

func NewEarningsService(stg storage.IRideStorage, api API, log logger.ILogger) EarningsService {
	return &earningsService{stg: stg, api: api, log: log, now: time.Now}
}

// Summary combines the backend's order counts with today's local cash log.
func (s *earningsService) Summary(ctx context.Context, driverID int64) (*models.Earnings, error) {
	var out models.Earnings

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.api.CompletedOrders(gctx, driverID)
		out.CompletedOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.api.MissedOrders(gctx, driverID)
		out.MissedOrders = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	today, err := s.stg.GetByDate(ctx, driverID, s.now())
	if err != nil {
		s.log.Error("error while loading today's rides", logger.Int64("driver_id", driverID), logger.Error(err))
		return &out, nil
	}
	for _, r := range today {
		out.TodayCash += r.Amount
	}
	out.TodayRides = len(today)
	return &out, nil
}

func (s *earningsService) History(ctx context.Context, driverID int64, limit int) ([]*models.CompletedRide, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.stg.GetDriverRides(ctx, driverID, limit)
}
