package models

import "time"

type Address struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RideRequest is created by the backend when a ride is offered and passed
// through the ride stages untouched.
type RideRequest struct {
	BookingID      string  `json:"bookingId"`
	UserID         int64   `json:"userId"`
	DriverID       int64   `json:"driverId"`
	PickupAddress  Address `json:"pickupAddress"`
	DropoffAddress Address `json:"dropoffAddress"`
	TotalPrice     float64 `json:"totalPrice"`
	VehicleName    string  `json:"vehicleName"`
	SenderName     string  `json:"sender_name"`
	SenderPhone    string  `json:"sender_phone"`
	ReceiverName   string  `json:"receiver_name"`
	ReceiverPhone  string  `json:"receiver_phone"`
	OTP            string  `json:"otp"`
}

const (
	PaymentStatusCompleted = "completed"
	PaymentMethodCash      = "cash"
)

// CompletedRide is the local cash log written once payment collection succeeds.
type CompletedRide struct {
	ID          int64     `json:"id"`
	BookingID   string    `json:"booking_id"`
	DriverID    int64     `json:"driver_id"`
	Amount      float64   `json:"amount"`
	Method      string    `json:"method"`
	CompletedAt time.Time `json:"completed_at"`
}

type Earnings struct {
	CompletedOrders int     `json:"completed_orders"`
	MissedOrders    int     `json:"missed_orders"`
	TodayCash       float64 `json:"today_cash"`
	TodayRides      int     `json:"today_rides"`
}
