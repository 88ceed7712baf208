package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/storage"
)

type driverRepo struct {
	db  *pgxpool.Pool
	log logger.ILogger
}

func NewDriverRepo(db *pgxpool.Pool, log logger.ILogger) storage.IDriverStorage {
	return &driverRepo{db: db, log: log}
}

const driverColumns = `id, telegram_id, driver_id, name, phone, vehicle_type, vehicle_number, token, token_expires_at, document_status, created_at, updated_at`

func scanDriver(row pgx.Row) (*models.Driver, error) {
	var d models.Driver
	err := row.Scan(
		&d.ID, &d.TelegramID, &d.DriverID, &d.Name, &d.Phone, &d.VehicleType, &d.VehicleNumber,
		&d.Token, &d.TokenExpiresAt, &d.DocumentStatus, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *driverRepo) GetOrCreate(ctx context.Context, teleID int64, name string) (*models.Driver, error) {
	query := `
		INSERT INTO drivers (telegram_id, name)
		VALUES ($1, $2)
		ON CONFLICT (telegram_id) DO UPDATE
		SET updated_at = NOW()
		RETURNING ` + driverColumns
	d, err := scanDriver(r.db.QueryRow(ctx, query, teleID, name))
	if err != nil {
		r.log.Error("failed to get or create driver", logger.Int64("telegram_id", teleID), logger.Error(err))
		return nil, err
	}
	return d, nil
}

func (r *driverRepo) Get(ctx context.Context, teleID int64) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE telegram_id = $1`
	d, err := scanDriver(r.db.QueryRow(ctx, query, teleID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("failed to get driver", logger.Int64("telegram_id", teleID), logger.Error(err))
		return nil, err
	}
	return d, nil
}

func (r *driverRepo) GetByDriverID(ctx context.Context, driverID int64) (*models.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE driver_id = $1`
	d, err := scanDriver(r.db.QueryRow(ctx, query, driverID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.log.Error("failed to get driver by backend id", logger.Int64("driver_id", driverID), logger.Error(err))
		return nil, err
	}
	return d, nil
}

func (r *driverRepo) UpdatePhone(ctx context.Context, teleID int64, phone string) error {
	_, err := r.db.Exec(ctx, "UPDATE drivers SET phone=$1, updated_at=NOW() WHERE telegram_id=$2", phone, teleID)
	return err
}

func (r *driverRepo) SetToken(ctx context.Context, teleID int64, token string, expiresAt *time.Time) error {
	_, err := r.db.Exec(ctx, "UPDATE drivers SET token=$1, token_expires_at=$2, updated_at=NOW() WHERE telegram_id=$3", token, expiresAt, teleID)
	return err
}

func (r *driverRepo) ClearToken(ctx context.Context, teleID int64) error {
	_, err := r.db.Exec(ctx, "UPDATE drivers SET token=NULL, token_expires_at=NULL, updated_at=NOW() WHERE telegram_id=$1", teleID)
	return err
}

// Link binds the chat to a backend driver id. Another chat holding the same
// id loses it first, so the unique constraint never trips on re-login from a new account.
func (r *driverRepo) Link(ctx context.Context, teleID, driverID int64, name string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "UPDATE drivers SET driver_id=NULL WHERE driver_id=$1 AND telegram_id<>$2", driverID, teleID); err != nil {
		r.log.Error("failed to release driver id", logger.Int64("driver_id", driverID), logger.Error(err))
		return err
	}
	query := `UPDATE drivers SET driver_id=$1, name=COALESCE(NULLIF($2, ''), name), updated_at=NOW() WHERE telegram_id=$3`
	if _, err := tx.Exec(ctx, query, driverID, name, teleID); err != nil {
		r.log.Error("failed to link driver", logger.Int64("driver_id", driverID), logger.Error(err))
		return err
	}
	return tx.Commit(ctx)
}

func (r *driverRepo) SaveProfile(ctx context.Context, teleID int64, p models.DriverProfile) error {
	query := `
		UPDATE drivers
		SET name = $1, vehicle_type = $2, vehicle_number = $3, updated_at = NOW()
		WHERE telegram_id = $4
	`
	_, err := r.db.Exec(ctx, query, p.FullName(), p.VehicleType, p.VehicleNumber, teleID)
	if err != nil {
		r.log.Error("failed to save driver profile", logger.Int64("telegram_id", teleID), logger.Error(err))
		return err
	}
	return nil
}

func (r *driverRepo) MarkDocumentStatus(ctx context.Context, driverID int64, status string) (bool, error) {
	tag, err := r.db.Exec(ctx,
		"UPDATE drivers SET document_status=$1, updated_at=NOW() WHERE driver_id=$2 AND document_status<>$1",
		status, driverID)
	if err != nil {
		r.log.Error("failed to mark document status", logger.Int64("driver_id", driverID), logger.Error(err))
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (r *driverRepo) GetDocumentStatus(ctx context.Context, driverID int64) (string, error) {
	var status string
	err := r.db.QueryRow(ctx, "SELECT document_status FROM drivers WHERE driver_id=$1", driverID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.DocumentStatusPending, nil
	}
	return status, err
}
