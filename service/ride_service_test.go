package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"driverbot/pkg/logger"
	"driverbot/pkg/metrics"
	"driverbot/pkg/models"
	"driverbot/pkg/ridestage"
	"driverbot/pkg/socket"
)

type RideServiceSuite struct {
	suite.Suite
	api     *fakeAPI
	rides   *fakeRides
	sock    *fakeSocket
	dials   int
	metrics *metrics.Metrics
	svc     RideService
	ctx     context.Context
}

func TestRideServiceSuite(t *testing.T) {
	suite.Run(t, new(RideServiceSuite))
}

func (s *RideServiceSuite) SetupTest() {
	s.api = &fakeAPI{}
	s.rides = &fakeRides{}
	s.sock = &fakeSocket{}
	s.dials = 0
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.ctx = context.Background()

	dialer := SocketDialFunc(func(context.Context) (RideSocket, error) {
		s.dials++
		return s.sock, nil
	})
	svc := NewRideService(s.rides, s.api, dialer, 300, logger.NewNop(), s.metrics).(*rideService)
	svc.now = func() time.Time { return time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC) }
	s.svc = svc
}

func (s *RideServiceSuite) ride() models.RideRequest {
	return models.RideRequest{BookingID: "bk-1", DriverID: 7, TotalPrice: 250, OTP: "4821"}
}

func (s *RideServiceSuite) toOTPStage() {
	_, err := s.svc.Accept(s.ctx, 7, s.ride())
	s.Require().NoError(err)
	s.Require().NoError(s.svc.StartTrip(s.ctx, 7))
}

func (s *RideServiceSuite) TestAcceptStartsWaiting() {
	seq, err := s.svc.Accept(s.ctx, 7, s.ride())
	s.Require().NoError(err)
	s.Equal(ridestage.WaitingForCustomer, seq.Stage())
	s.Equal(300, seq.Countdown().Remaining())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ActiveRides))
}

func (s *RideServiceSuite) TestSecondRideRejectedWhileBusy() {
	_, err := s.svc.Accept(s.ctx, 7, s.ride())
	s.Require().NoError(err)
	_, err = s.svc.Accept(s.ctx, 7, s.ride())
	s.ErrorIs(err, ErrRideInProgress)
}

func (s *RideServiceSuite) TestStartTripOpensSocket() {
	s.toOTPStage()
	seq, ok := s.svc.Active(7)
	s.Require().True(ok)
	s.Equal(ridestage.OtpVerification, seq.Stage())
	s.Equal(1, s.dials)
}

func (s *RideServiceSuite) TestStartTripWithoutSocketStillAdvances() {
	svc := NewRideService(s.rides, s.api, SocketDialFunc(func(context.Context) (RideSocket, error) {
		return nil, errors.New("refused")
	}), 300, logger.NewNop(), nil)
	_, err := svc.Accept(s.ctx, 7, s.ride())
	s.Require().NoError(err)
	s.Require().NoError(svc.StartTrip(s.ctx, 7))
	seq, _ := svc.Active(7)
	s.Equal(ridestage.OtpVerification, seq.Stage())
}

func (s *RideServiceSuite) TestWrongOTPKeepsStage() {
	s.toOTPStage()

	for _, code := range []string{"482", "9999"} {
		s.ErrorIs(s.svc.VerifyOTP(s.ctx, 7, code), ErrOTPMismatch)
	}
	seq, _ := s.svc.Active(7)
	s.Equal(ridestage.OtpVerification, seq.Stage())
	s.Empty(s.api.assigned)
	s.Empty(s.sock.events)
	s.Equal(2.0, testutil.ToFloat64(s.metrics.OTPVerifications.WithLabelValues("mismatch")))
}

func (s *RideServiceSuite) TestCorrectOTPAssignsAndEmits() {
	s.toOTPStage()

	s.Require().NoError(s.svc.VerifyOTP(s.ctx, 7, "4821"))
	seq, _ := s.svc.Active(7)
	s.Equal(ridestage.PaymentCollection, seq.Stage())
	s.Equal([]string{"bk-1"}, s.api.assigned)
	s.Equal([]string{socket.EventRideStarted}, s.sock.events)
	s.True(s.sock.closed)
}

func (s *RideServiceSuite) TestAssignFailureKeepsStage() {
	s.toOTPStage()
	s.api.assignErr = errors.New("409")

	s.Error(s.svc.VerifyOTP(s.ctx, 7, "4821"))
	seq, _ := s.svc.Active(7)
	s.Equal(ridestage.OtpVerification, seq.Stage())
	s.Empty(s.sock.events)
}

func (s *RideServiceSuite) TestCashBeforeOTPRejected() {
	_, err := s.svc.Accept(s.ctx, 7, s.ride())
	s.Require().NoError(err)

	_, err = s.svc.CollectCash(s.ctx, 7)
	s.ErrorIs(err, ridestage.ErrStageTransition)
	s.Empty(s.api.payments)
}

func (s *RideServiceSuite) TestCollectCashCompletesRide() {
	s.toOTPStage()
	s.Require().NoError(s.svc.VerifyOTP(s.ctx, 7, "4821"))

	done, err := s.svc.CollectCash(s.ctx, 7)
	s.Require().NoError(err)
	s.Equal("bk-1", done.BookingID)
	s.Equal(250.0, done.Amount)
	s.Equal([]string{"bk-1:completed:cash"}, s.api.payments)
	s.Len(s.rides.rides, 1)

	_, ok := s.svc.Active(7)
	s.False(ok)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.RidesCompleted))
	s.Equal(0.0, testutil.ToFloat64(s.metrics.ActiveRides))

	_, err = s.svc.Accept(s.ctx, 7, s.ride())
	s.NoError(err, "a new ride can start after completion")
}

func (s *RideServiceSuite) TestNoActiveRide() {
	s.ErrorIs(s.svc.StartTrip(s.ctx, 9), ErrNoActiveRide)
	s.ErrorIs(s.svc.VerifyOTP(s.ctx, 9, "4821"), ErrNoActiveRide)
	_, err := s.svc.CollectCash(s.ctx, 9)
	s.ErrorIs(err, ErrNoActiveRide)
}

func (s *RideServiceSuite) TestCloseDropsRides() {
	s.toOTPStage()
	s.svc.Close()
	s.True(s.sock.closed)
	_, ok := s.svc.Active(7)
	s.False(ok)
}

func TestRideServiceWithoutDialer(t *testing.T) {
	svc := NewRideService(&fakeRides{}, &fakeAPI{}, nil, 60, logger.NewNop(), nil)
	_, err := svc.Accept(context.Background(), 1, models.RideRequest{BookingID: "b", OTP: "1111"})
	require.NoError(t, err)
	require.NoError(t, svc.StartTrip(context.Background(), 1))
	assert.NoError(t, svc.VerifyOTP(context.Background(), 1, "1111"))
}
