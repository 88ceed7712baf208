package service

import (
	"context"
	"errors"

	"driverbot/config"
	"driverbot/pkg/backend"
	"driverbot/pkg/logger"
	"driverbot/pkg/metrics"
	"driverbot/pkg/models"
	"driverbot/pkg/ridestage"
	"driverbot/storage"
)

var (
	ErrNotRegistered  = errors.New("driver is not registered")
	ErrInvalidPhone   = errors.New("invalid phone number")
	ErrInvalidOTP     = errors.New("otp must be 4 digits")
	ErrMissingImages  = errors.New("front and back images are required")
	ErrUnknownDocType = errors.New("unknown document type")
	ErrNoActiveRide   = errors.New("no active ride")
	ErrRideInProgress = errors.New("another ride is in progress")
	ErrOTPMismatch    = ridestage.ErrOTPMismatch
)

// API is everything the services need from the remote backend.
type API interface {
	SendLoginOTP(ctx context.Context, phone string) error
	VerifyLoginOTP(ctx context.Context, phone, otp string) (*models.LoginResult, error)
	RegisterDriver(ctx context.Context, p models.DriverProfile) (*models.Registration, error)

	GetDriverDocuments(ctx context.Context, driverID int64) (*backend.DocumentSet, error)
	UpdateDocumentStatus(ctx context.Context, driverID int64, status, idempotencyKey string) (*models.StatusMessage, error)
	UploadDocument(ctx context.Context, up models.DocumentUpload) (map[string]any, error)

	AssignDriver(ctx context.Context, bookingID string, driverID int64) (map[string]any, error)
	UpdatePayment(ctx context.Context, bookingID, status, method string) (map[string]any, error)

	CompletedOrders(ctx context.Context, driverID int64) (int, error)
	MissedOrders(ctx context.Context, driverID int64) (int, error)
}

// RideSocket is one open event connection for the OTP stage.
type RideSocket interface {
	Emit(event string, payload any) error
	Close() error
}

type SocketDialer interface {
	Dial(ctx context.Context) (RideSocket, error)
}

// SocketDialFunc adapts a plain function to SocketDialer.
type SocketDialFunc func(ctx context.Context) (RideSocket, error)

func (f SocketDialFunc) Dial(ctx context.Context) (RideSocket, error) { return f(ctx) }

type IServiceManager interface {
	Driver() DriverService
	Document() DocumentService
	Ride() RideService
	Earnings() EarningsService
}

type service struct {
	driverService   DriverService
	documentService DocumentService
	rideService     RideService
	earningsService EarningsService
}

func New(stg storage.IStorage, api API, dialer SocketDialer, cfg config.Config, log logger.ILogger, m *metrics.Metrics) IServiceManager {
	return &service{
		driverService:   NewDriverService(stg.Driver(), stg.Vehicle(), api, log),
		documentService: NewDocumentService(stg.Driver(), stg.Document(), api, log, m),
		rideService:     NewRideService(stg.Ride(), api, dialer, cfg.CountdownSeconds, log, m),
		earningsService: NewEarningsService(stg.Ride(), api, log),
	}
}

func (s *service) Driver() DriverService {
	return s.driverService
}

func (s *service) Document() DocumentService {
	return s.documentService
}

func (s *service) Ride() RideService {
	return s.rideService
}

func (s *service) Earnings() EarningsService {
	return s.earningsService
}
