// Package ridestage is the forward-only sequence a driver walks through for one
// booking: wait for the customer, verify their OTP, collect payment.
package ridestage

import (
	"errors"
	"fmt"

	"driverbot/pkg/models"
)

type Stage int

const (
	WaitingForCustomer Stage = iota
	OtpVerification
	PaymentCollection
	Complete
)

func (s Stage) String() string {
	switch s {
	case WaitingForCustomer:
		return "waiting_for_customer"
	case OtpVerification:
		return "otp_verification"
	case PaymentCollection:
		return "payment_collection"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Screen is the driver screen that renders the stage.
func (s Stage) Screen() models.Screen {
	switch s {
	case WaitingForCustomer:
		return models.ScreenRideStart
	case OtpVerification:
		return models.ScreenVerifyRideOTP
	case PaymentCollection:
		return models.ScreenPayment
	}
	return models.ScreenHome
}

var (
	ErrStageTransition = errors.New("ride stage transition not allowed")
	ErrOTPMismatch     = errors.New("otp does not match")
)

// Sequencer holds one ride and its current stage. It is not safe for
// concurrent use; callers serialise access per driver.
type Sequencer struct {
	ride      models.RideRequest
	stage     Stage
	countdown *Countdown
}

func New(ride models.RideRequest, countdownSeconds int) *Sequencer {
	return &Sequencer{
		ride:      ride,
		stage:     WaitingForCustomer,
		countdown: NewCountdown(countdownSeconds),
	}
}

func (s *Sequencer) Ride() models.RideRequest { return s.ride }
func (s *Sequencer) Stage() Stage             { return s.stage }
func (s *Sequencer) Countdown() *Countdown    { return s.countdown }

// StartTrip moves from waiting to OTP verification. The countdown has no say.
func (s *Sequencer) StartTrip() error {
	return s.advance(WaitingForCustomer, OtpVerification)
}

// MatchOTP compares the entered code with the ride's code by exact string equality.
// It does not change stage.
func (s *Sequencer) MatchOTP(entered string) error {
	if s.stage != OtpVerification {
		return fmt.Errorf("%w: otp entered during %s", ErrStageTransition, s.stage)
	}
	if entered != s.ride.OTP {
		return ErrOTPMismatch
	}
	return nil
}

// OTPConfirmed is called once the backend accepted the driver for the booking.
func (s *Sequencer) OTPConfirmed() error {
	return s.advance(OtpVerification, PaymentCollection)
}

// PaymentCollected finishes the ride.
func (s *Sequencer) PaymentCollected() error {
	return s.advance(PaymentCollection, Complete)
}

func (s *Sequencer) advance(from, to Stage) error {
	if s.stage != from {
		return fmt.Errorf("%w: %s -> %s while in %s", ErrStageTransition, from, to, s.stage)
	}
	s.stage = to
	return nil
}
