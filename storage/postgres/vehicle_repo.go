package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/storage"
)

type vehicleRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewVehicleRepo(db *pgxpool.Pool, log logger.ILogger) storage.IVehicleStorage {
	return &vehicleRepo{db: db, log: log}
}

func (r *vehicleRepo) GetTypes(ctx context.Context) ([]*models.VehicleType, error) {
	query := "SELECT id, name FROM vehicle_types ORDER BY id"
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.log.Error("failed to get vehicle types", logger.Error(err))
		return nil, err
	}
	defer rows.Close()

	var types []*models.VehicleType
	for rows.Next() {
		var v models.VehicleType
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, err
		}
		types = append(types, &v)
	}
	return types, nil
}
