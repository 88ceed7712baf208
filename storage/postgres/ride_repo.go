package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/storage"
)

type rideRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewRideRepo(db *pgxpool.Pool, log logger.ILogger) storage.IRideStorage {
	return &rideRepo{db: db, log: log}
}

// RecordCompleted is a no-op for a booking that is already logged.
func (r *rideRepo) RecordCompleted(ctx context.Context, ride *models.CompletedRide) error {
	query := `
		INSERT INTO completed_rides (booking_id, driver_id, amount, method, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id) DO NOTHING
		RETURNING id
	`
	if ride.CompletedAt.IsZero() {
		ride.CompletedAt = time.Now()
	}
	rows, err := r.db.Query(ctx, query, ride.BookingID, ride.DriverID, ride.Amount, ride.Method, ride.CompletedAt)
	if err != nil {
		r.log.Error("failed to record completed ride", logger.String("booking_id", ride.BookingID), logger.Error(err))
		return err
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&ride.ID); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (r *rideRepo) GetByDate(ctx context.Context, driverID int64, date time.Time) ([]*models.CompletedRide, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	query := `
		SELECT id, booking_id, driver_id, amount, method, completed_at
		FROM completed_rides
		WHERE driver_id = $1 AND completed_at >= $2 AND completed_at < $3
		ORDER BY completed_at DESC
	`
	return r.scanRides(ctx, query, driverID, start, start.AddDate(0, 0, 1))
}

func (r *rideRepo) GetDriverRides(ctx context.Context, driverID int64, limit int) ([]*models.CompletedRide, error) {
	query := `
		SELECT id, booking_id, driver_id, amount, method, completed_at
		FROM completed_rides
		WHERE driver_id = $1
		ORDER BY completed_at DESC
		LIMIT $2
	`
	return r.scanRides(ctx, query, driverID, limit)
}

func (r *rideRepo) scanRides(ctx context.Context, query string, args ...any) ([]*models.CompletedRide, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("failed to query completed rides", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var rides []*models.CompletedRide
	for rows.Next() {
		var c models.CompletedRide
		if err := rows.Scan(&c.ID, &c.BookingID, &c.DriverID, &c.Amount, &c.Method, &c.CompletedAt); err != nil {
			return nil, err
		}
		rides = append(rides, &c)
	}
	return rides, rows.Err()
}
