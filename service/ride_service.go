package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"driverbot/pkg/logger"
	"driverbot/pkg/metrics"
	"driverbot/pkg/models"
	"driverbot/pkg/ridestage"
	"driverbot/pkg/socket"
	"driverbot/storage"
)

type RideService interface {
	// Accept takes an offered ride and starts the waiting-for-customer stage.
	Accept(ctx context.Context, driverID int64, ride models.RideRequest) (*ridestage.Sequencer, error)
	Active(driverID int64) (*ridestage.Sequencer, bool)
	StartTrip(ctx context.Context, driverID int64) error
	// VerifyOTP confirms the customer's code, assigns the driver to the
	// booking and announces the ride start.
	VerifyOTP(ctx context.Context, driverID int64, entered string) error
	CollectCash(ctx context.Context, driverID int64) (*models.CompletedRide, error)
	// Close drops every active ride and closes their sockets.
	Close()
}

type activeRide struct {
	mu   sync.Mutex
	seq  *ridestage.Sequencer
	sock RideSocket
}

type rideService struct {
	stg              storage.IRideStorage
	api              API
	dialer           SocketDialer
	countdownSeconds int
	log              logger.ILogger
	metrics          *metrics.Metrics
	now              func() time.Time

	mu    sync.Mutex
	rides map[int64]*activeRide
}

func NewRideService(stg storage.IRideStorage, api API, dialer SocketDialer, countdownSeconds int, log logger.ILogger, m *metrics.Metrics) RideService {
	return &rideService{
		stg:              stg,
		api:              api,
		dialer:           dialer,
		countdownSeconds: countdownSeconds,
		log:              log,
		metrics:          m,
		now:              time.Now,
		rides:            make(map[int64]*activeRide),
	}
}

func (s *rideService) Accept(_ context.Context, driverID int64, ride models.RideRequest) (*ridestage.Sequencer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.rides[driverID]; ok {
		cur.mu.Lock()
		busy := cur.seq.Stage() != ridestage.Complete
		cur.mu.Unlock()
		if busy {
			return nil, ErrRideInProgress
		}
	}

	seq := ridestage.New(ride, s.countdownSeconds)
	s.rides[driverID] = &activeRide{seq: seq}
	s.metrics.SetActiveRides(len(s.rides))
	s.log.Info("ride accepted", logger.Int64("driver_id", driverID), logger.String("booking_id", ride.BookingID))
	return seq, nil
}

func (s *rideService) Active(driverID int64) (*ridestage.Sequencer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[driverID]
	if !ok {
		return nil, false
	}
	return r.seq, true
}

func (s *rideService) get(driverID int64) (*activeRide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rides[driverID]
	if !ok {
		return nil, ErrNoActiveRide
	}
	return r, nil
}

// StartTrip opens the event socket used while the OTP screen is up. A socket
// failure does not block the ride.
func (s *rideService) StartTrip(ctx context.Context, driverID int64) error {
	r, err := s.get(driverID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.seq.StartTrip(); err != nil {
		return err
	}

	if s.dialer == nil {
		return nil
	}
	sock, err := s.dialer.Dial(ctx)
	if err != nil {
		s.log.Warning("ride socket unavailable", logger.Int64("driver_id", driverID), logger.Error(err))
		return nil
	}
	r.sock = sock
	return nil
}

func (s *rideService) VerifyOTP(ctx context.Context, driverID int64, entered string) error {
	r, err := s.get(driverID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.seq.MatchOTP(entered)
	if errors.Is(err, ridestage.ErrOTPMismatch) {
		s.metrics.ObserveOTP(false)
		return err
	}
	if err != nil {
		return err
	}
	s.metrics.ObserveOTP(true)

	ride := r.seq.Ride()
	if _, err := s.api.AssignDriver(ctx, ride.BookingID, driverID); err != nil {
		return fmt.Errorf("assign driver: %w", err)
	}
	if err := r.seq.OTPConfirmed(); err != nil {
		return err
	}

	if r.sock != nil {
		if err := r.sock.Emit(socket.EventRideStarted, socket.RideStarted{
			DriverID:  driverID,
			BookingID: ride.BookingID,
		}); err != nil {
			s.log.Warning("ride_started not delivered", logger.String("booking_id", ride.BookingID), logger.Error(err))
		}
		s.closeSocket(r)
	}
	s.log.Info("ride otp verified", logger.Int64("driver_id", driverID), logger.String("booking_id", ride.BookingID))
	return nil
}

// CollectCash marks the booking paid in cash, finishes the ride and writes
// the local cash log.
func (s *rideService) CollectCash(ctx context.Context, driverID int64) (*models.CompletedRide, error) {
	r, err := s.get(driverID)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if st := r.seq.Stage(); st != ridestage.PaymentCollection {
		return nil, fmt.Errorf("%w: payment collected during %s", ridestage.ErrStageTransition, st)
	}

	ride := r.seq.Ride()
	if _, err := s.api.UpdatePayment(ctx, ride.BookingID, models.PaymentStatusCompleted, models.PaymentMethodCash); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	if err := r.seq.PaymentCollected(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.rides, driverID)
	s.metrics.SetActiveRides(len(s.rides))
	s.mu.Unlock()
	s.metrics.IncRidesCompleted()

	done := &models.CompletedRide{
		BookingID:   ride.BookingID,
		DriverID:    driverID,
		Amount:      ride.TotalPrice,
		Method:      models.PaymentMethodCash,
		CompletedAt: s.now(),
	}
	if err := s.stg.RecordCompleted(ctx, done); err != nil {
		s.log.Error("error while recording completed ride", logger.String("booking_id", ride.BookingID), logger.Error(err))
	}
	s.log.Info("ride completed", logger.Int64("driver_id", driverID), logger.String("booking_id", ride.BookingID))
	return done, nil
}

func (s *rideService) closeSocket(r *activeRide) {
	if r.sock == nil {
		return
	}
	if err := r.sock.Close(); err != nil {
		s.log.Debug("ride socket close", logger.Error(err))
	}
	r.sock = nil
}

func (s *rideService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.rides {
		r.mu.Lock()
		s.closeSocket(r)
		r.mu.Unlock()
		delete(s.rides, id)
	}
	s.metrics.SetActiveRides(0)
}
