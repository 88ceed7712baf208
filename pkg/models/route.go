package models

// Screen names one destination of the driver flow.
type Screen string

const (
	ScreenLogin          Screen = "login"
	ScreenVerifyLoginOTP Screen = "verify_login_otp"
	ScreenRegistration   Screen = "registration"
	ScreenHome           Screen = "home"
	ScreenChecklist      Screen = "checklist"
	ScreenDrivingLicense Screen = "driving_license"
	ScreenRCDocument     Screen = "rc_document"
	ScreenAadharDocument Screen = "aadhar_document"
	ScreenPancard        Screen = "pancard"
	ScreenInsurance      Screen = "insurance"
	ScreenReview         Screen = "review"
	ScreenRideOffer      Screen = "ride_offer"
	ScreenRideStart      Screen = "ride_start"
	ScreenVerifyRideOTP  Screen = "verify_ride_otp"
	ScreenPayment        Screen = "payment"
	ScreenEarnings       Screen = "earnings"
)

// Route is a screen plus the payload that screen needs.
type Route struct {
	Screen   Screen
	DriverID int64
	Ride     *RideRequest
}
