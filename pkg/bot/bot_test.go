package bot

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"driverbot/pkg/backend"
	"driverbot/pkg/checklist"
	"driverbot/pkg/models"
	"driverbot/pkg/validation"
	"driverbot/service"
)

func TestParseDOB(t *testing.T) {
	want := time.Date(1990, 1, 2, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"1990-01-02", "02-01-1990", "02/01/1990", " 02.01.1990 "} {
		got, ok := parseDOB(in)
		assert.True(t, ok, in)
		assert.True(t, want.Equal(got), in)
	}
	_, ok := parseDOB("yesterday")
	assert.False(t, ok)
}

func TestFirstInvalidState(t *testing.T) {
	assert.Equal(t, StateRegEmail, firstInvalidState(validation.Errors{"vehicle_number": "x", "email": "y"}))
	assert.Equal(t, StateRegVehicleNumber, firstInvalidState(validation.Errors{"vehicle_number": "x"}))
	assert.Equal(t, StateRegVehicleType, firstInvalidState(validation.Errors{"password": "x", "vehicle_type": "y"}))
	assert.Equal(t, StateRegPassword, firstInvalidState(validation.Errors{"password": "x"}))
	assert.Equal(t, StateRegFirstName, firstInvalidState(validation.Errors{}))
}

func TestErrorText(t *testing.T) {
	assert.Equal(t, msg("ride_otp_invalid"), errorText(service.ErrOTPMismatch))
	assert.Equal(t, msg("ride_busy"), errorText(fmt.Errorf("accept: %w", service.ErrRideInProgress)))
	apiText := errorText(fmt.Errorf("assign driver: %w", &backend.APIError{Operation: "assign_driver", Status: 502, Message: "<html>bad gateway</html>"}))
	assert.Equal(t, msg("server_error"), apiText)
	assert.NotContains(t, apiText, "html")
	assert.Equal(t, msg("generic_error"), errorText(errors.New("boom")))
	assert.Contains(t, errorText(validation.Errors{"email": "Email is invalid"}), "• Email is invalid")
}

func TestChecklistMarkup(t *testing.T) {
	state := checklist.State{checklist.DrivingLicense: true}
	menu := checklistMarkup(state)

	rows := menu.InlineKeyboard
	assert.Len(t, rows, len(checklist.Categories)+1)
	assert.Equal(t, "✅ Driving License", rows[0][0].Text)
	assert.Equal(t, "📄 Registration certificate", rows[1][0].Text)
	assert.Equal(t, "➡️ Continue", rows[len(rows)-1][0].Text)
}

func TestRideTexts(t *testing.T) {
	r := models.RideRequest{
		SenderName:     "Asha",
		PickupAddress:  models.Address{Name: "Hitech City"},
		DropoffAddress: models.Address{Name: "Gachibowli"},
		TotalPrice:     250,
		VehicleName:    "Bike",
	}
	assert.Contains(t, rideStartText(r, 300), "5:00")
	assert.Contains(t, rideStartText(r, 9), "0:09")
	assert.Contains(t, offerText(r), "₹250.00")
	assert.Contains(t, offerText(r), "Gachibowli")
}

func TestReadDocNumber(t *testing.T) {
	number, _, ok := readDocNumber("Insurance", " INS1234567890 ")
	assert.True(t, ok)
	assert.Equal(t, "INS1234567890", number)

	_, hint, ok := readDocNumber("Insurance", "ins1234567890")
	assert.False(t, ok)
	assert.Contains(t, hint, "Insurance")

	_, _, ok = readDocNumber("Pancard", "abcde1234f")
	assert.False(t, ok)
}

func TestHistoryText(t *testing.T) {
	assert.Empty(t, historyText(nil))

	at := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	text := historyText([]*models.CompletedRide{{Amount: 120, Method: "cash", CompletedAt: at}})
	assert.Contains(t, text, "Recent rides")
	assert.Contains(t, text, "17 Oct 09:30  ₹120.00  cash")
}
