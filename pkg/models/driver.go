package models

import "time"

// Driver is the local mirror of a backend driver account, keyed by the chat it talks through.
type Driver struct {
	ID             int64      `json:"id"`
	TelegramID     int64      `json:"telegram_id"`
	DriverID       *int64     `json:"driver_id"` // backend id, nil until registered
	Name           string     `json:"name"`
	Phone          *string    `json:"phone"`
	VehicleType    string     `json:"vehicle_type"`
	VehicleNumber  string     `json:"vehicle_number"`
	Token          *string    `json:"-"`
	TokenExpiresAt *time.Time `json:"-"`
	DocumentStatus string     `json:"document_status"` // pending, under_verification
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// Registered reports whether the backend has issued a driver id.
func (d *Driver) Registered() bool {
	return d != nil && d.DriverID != nil && *d.DriverID > 0
}

const (
	DocumentStatusPending           = "pending"
	DocumentStatusUnderVerification = "under_verification"
)

// DriverProfile is the registration form. It is immutable once submitted.
// Password is never serialized with the session draft.
type DriverProfile struct {
	FirstName     string    `json:"first_name"`
	LastName      string    `json:"last_name"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	Gender        string    `json:"gender,omitempty"`
	DOB           time.Time `json:"dob"`
	Password      string    `json:"-"`
	VehicleType   string    `json:"vehicle_type"`
	VehicleNumber string    `json:"vehicle_number,omitempty"`
}

func (p DriverProfile) FullName() string {
	return p.FirstName + " " + p.LastName
}

// VehicleType is one row of the seeded vehicle_types table.
type VehicleType struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// LoginResult is what the backend returns once a login OTP is accepted.
type LoginResult struct {
	Token      string `json:"token"`
	DriverID   int64  `json:"driver_id"`
	DriverName string `json:"driver_name"`
	Registered bool   `json:"registered"`
}

// Registration is the backend answer to a new driver submission.
type Registration struct {
	DriverID   int64  `json:"driver_id"`
	DriverName string `json:"driver_name"`
}
