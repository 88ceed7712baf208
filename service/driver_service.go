package service

import (
	"context"
	"time"

	"driverbot/pkg/backend"
	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/pkg/validation"
	"driverbot/storage"
)

type DriverService interface {
	Start(ctx context.Context, teleID int64, name string) (*models.Driver, error)
	Get(ctx context.Context, teleID int64) (*models.Driver, error)
	ByDriverID(ctx context.Context, driverID int64) (*models.Driver, error)
	RequestLoginOTP(ctx context.Context, teleID int64, phone string) (string, error)
	VerifyLoginOTP(ctx context.Context, teleID int64, phone, otp string) (*models.LoginResult, error)
	Register(ctx context.Context, teleID int64, profile models.DriverProfile) (*models.Registration, error)
	Logout(ctx context.Context, teleID int64) error
	VehicleTypes(ctx context.Context) ([]string, error)
}

type driverService struct {
	stg      storage.IDriverStorage
	vehicles storage.IVehicleStorage
	api      API
	log      logger.ILogger
	now      func() time.Time
}

func NewDriverService(stg storage.IDriverStorage, vehicles storage.IVehicleStorage, api API, log logger.ILogger) DriverService {
	return &driverService{stg: stg, vehicles: vehicles, api: api, log: log, now: time.Now}
}

// LoggedIn reports whether the driver holds a token that has not expired.
func LoggedIn(d *models.Driver, now time.Time) bool {
	if d == nil || d.Token == nil || *d.Token == "" {
		return false
	}
	return d.TokenExpiresAt == nil || now.Before(*d.TokenExpiresAt)
}

// AuthContext attaches the driver's token, if any, to ctx for backend calls.
func AuthContext(ctx context.Context, d *models.Driver) context.Context {
	if d == nil || d.Token == nil {
		return ctx
	}
	return backend.WithToken(ctx, *d.Token)
}

func (s *driverService) Start(ctx context.Context, teleID int64, name string) (*models.Driver, error) {
	return s.stg.GetOrCreate(ctx, teleID, name)
}

func (s *driverService) Get(ctx context.Context, teleID int64) (*models.Driver, error) {
	return s.stg.Get(ctx, teleID)
}

// ByDriverID finds the chat a backend driver id is linked to.
func (s *driverService) ByDriverID(ctx context.Context, driverID int64) (*models.Driver, error) {
	d, err := s.stg.GetByDriverID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrNotRegistered
	}
	return d, nil
}

// RequestLoginOTP normalizes the phone, remembers it and asks the backend to send a code.
func (s *driverService) RequestLoginOTP(ctx context.Context, teleID int64, phone string) (string, error) {
	if !validation.Phone(phone) {
		return "", ErrInvalidPhone
	}
	phone = validation.NormalizePhone(phone)

	if err := s.stg.UpdatePhone(ctx, teleID, phone); err != nil {
		return "", err
	}
	if err := s.api.SendLoginOTP(ctx, phone); err != nil {
		return "", err
	}
	s.log.Info("login otp requested", logger.Int64("telegram_id", teleID))
	return phone, nil
}

func (s *driverService) VerifyLoginOTP(ctx context.Context, teleID int64, phone, otp string) (*models.LoginResult, error) {
	if !validation.OTP(otp) {
		return nil, ErrInvalidOTP
	}

	res, err := s.api.VerifyLoginOTP(ctx, phone, otp)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if exp, err := backend.TokenExpiry(res.Token); err == nil {
		expiresAt = &exp
	} else {
		s.log.Debug("login token carries no readable expiry", logger.Error(err))
	}
	if err := s.stg.SetToken(ctx, teleID, res.Token, expiresAt); err != nil {
		return nil, err
	}

	if res.Registered && res.DriverID > 0 {
		if err := s.stg.Link(ctx, teleID, res.DriverID, res.DriverName); err != nil {
			return nil, err
		}
	}
	s.log.Info("driver logged in", logger.Int64("telegram_id", teleID), logger.Bool("registered", res.Registered))
	return res, nil
}

// Register validates the whole form before any network call.
func (s *driverService) Register(ctx context.Context, teleID int64, profile models.DriverProfile) (*models.Registration, error) {
	if err := validation.Profile(profile, s.now()).Err(); err != nil {
		return nil, err
	}

	driver, err := s.stg.Get(ctx, teleID)
	if err != nil {
		return nil, err
	}
	if driver != nil && driver.Phone != nil && profile.Phone == "" {
		profile.Phone = *driver.Phone
	}

	reg, err := s.api.RegisterDriver(AuthContext(ctx, driver), profile)
	if err != nil {
		return nil, err
	}

	if err := s.stg.SaveProfile(ctx, teleID, profile); err != nil {
		return nil, err
	}
	name := reg.DriverName
	if name == "" {
		name = profile.FullName()
	}
	if err := s.stg.Link(ctx, teleID, reg.DriverID, name); err != nil {
		return nil, err
	}

	s.log.Info("driver registered", logger.Int64("telegram_id", teleID), logger.Int64("driver_id", reg.DriverID))
	return reg, nil
}

func (s *driverService) Logout(ctx context.Context, teleID int64) error {
	return s.stg.ClearToken(ctx, teleID)
}

// VehicleTypes lists the seeded vehicle types, falling back to the built-in
// set when the table is empty or unreachable.
func (s *driverService) VehicleTypes(ctx context.Context) ([]string, error) {
	types, err := s.vehicles.GetTypes(ctx)
	if err != nil {
		s.log.Warning("vehicle types unavailable, using defaults", logger.Error(err))
		return validation.VehicleTypes, nil
	}
	if len(types) == 0 {
		return validation.VehicleTypes, nil
	}
	names := make([]string, 0, len(types))
	for _, t := range types {
		names = append(names, t.Name)
	}
	return names, nil
}
