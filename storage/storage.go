package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"driverbot/pkg/models"
)

var ErrSessionNotFound = errors.New("session not found")

type IStorage interface {
	Driver() IDriverStorage
	Document() IDocumentStorage
	Vehicle() IVehicleStorage
	Ride() IRideStorage
	Close()
	GetPool() *pgxpool.Pool
}

type IDriverStorage interface {
	GetOrCreate(ctx context.Context, teleID int64, name string) (*models.Driver, error)
	Get(ctx context.Context, teleID int64) (*models.Driver, error)
	GetByDriverID(ctx context.Context, driverID int64) (*models.Driver, error)
	UpdatePhone(ctx context.Context, teleID int64, phone string) error
	SetToken(ctx context.Context, teleID int64, token string, expiresAt *time.Time) error
	ClearToken(ctx context.Context, teleID int64) error
	Link(ctx context.Context, teleID, driverID int64, name string) error
	SaveProfile(ctx context.Context, teleID int64, profile models.DriverProfile) error
	// MarkDocumentStatus moves the driver to status and reports whether the row
	// changed; a second call with the same status reports false.
	MarkDocumentStatus(ctx context.Context, driverID int64, status string) (bool, error)
	GetDocumentStatus(ctx context.Context, driverID int64) (string, error)
}

type IDocumentStorage interface {
	GetByDriver(ctx context.Context, driverID int64) ([]*models.DocumentRecord, error)
	SyncUploaded(ctx context.Context, driverID int64, categories []string) error
	MarkUploaded(ctx context.Context, driverID int64, category, docNumber string) error
}

type IVehicleStorage interface {
	GetTypes(ctx context.Context) ([]*models.VehicleType, error)
}

type IRideStorage interface {
	RecordCompleted(ctx context.Context, ride *models.CompletedRide) error
	GetByDate(ctx context.Context, driverID int64, date time.Time) ([]*models.CompletedRide, error)
	GetDriverRides(ctx context.Context, driverID int64, limit int) ([]*models.CompletedRide, error)
}

type ISessionStorage interface {
	Get(ctx context.Context, teleID int64) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, teleID int64) error
}
