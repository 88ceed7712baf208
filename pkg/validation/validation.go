package validation

import (
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"driverbot/pkg/models"
)

var (
	vehicleNumberRegex   = regexp.MustCompile(`^TS\d{2}[A-Z]{1,2}\d{4}$`)
	insuranceNumberRegex = regexp.MustCompile(`^[A-Z0-9]{10,17}$`)
	drivingLicenseRegex  = regexp.MustCompile(`^[A-Z]{2}\d{2}\s?\d{11}$`)
	aadharRegex          = regexp.MustCompile(`^\d{12}$`)
	panRegex             = regexp.MustCompile(`^[A-Z]{5}\d{4}[A-Z]$`)
	emailRegex           = regexp.MustCompile(`\S+@\S+\.\S+`)
	phoneRegex           = regexp.MustCompile(`^(\+91)?[6-9]\d{9}$`)
	otpRegex             = regexp.MustCompile(`^\d{4}$`)
)

// VehicleTypes lists the vehicle classes a driver can register with.
var VehicleTypes = []string{"Bike", "3-wheeler", "4-wheeler", "Truck"}

const MinPasswordLength = 6

// Errors maps a form field to its message.
type Errors map[string]string

func (e Errors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return strings.Join(parts, "; ")
}

// Err returns nil when no field failed.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

// VehicleNumber accepts Telangana plates such as TS09AB1234.
func VehicleNumber(number string) bool {
	return vehicleNumberRegex.MatchString(number)
}

// InsuranceNumber accepts 10-17 uppercase alphanumerics with at least one letter.
func InsuranceNumber(number string) bool {
	if !insuranceNumberRegex.MatchString(number) {
		return false
	}
	return strings.IndexFunc(number, unicode.IsUpper) >= 0
}

func DrivingLicenseNumber(number string) bool {
	return drivingLicenseRegex.MatchString(number)
}

// AadharNumber tolerates the 4-4-4 grouping printed on the card.
func AadharNumber(number string) bool {
	return aadharRegex.MatchString(strings.ReplaceAll(number, " ", ""))
}

func PanNumber(number string) bool {
	return panRegex.MatchString(number)
}

func Email(email string) bool {
	return emailRegex.MatchString(email)
}

// Phone accepts a 10-digit Indian mobile number with an optional +91 prefix.
func Phone(phone string) bool {
	return phoneRegex.MatchString(NormalizePhone(phone))
}

// NormalizePhone strips separators so "+91 98480 22338" and "9848022338" compare equal.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) || r == '+' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if len(out) == 12 && strings.HasPrefix(out, "91") {
		out = "+" + out
	}
	return out
}

// OTP checks shape only; matching is the caller's job.
func OTP(code string) bool {
	return otpRegex.MatchString(code)
}

func VehicleType(vehicleType string) bool {
	for _, v := range VehicleTypes {
		if v == vehicleType {
			return true
		}
	}
	return false
}

// DocumentNumber validates a document number against the rule for its category.
// Unknown categories never validate.
func DocumentNumber(docType, number string) (ok bool, hint string) {
	switch docType {
	case "Driving License":
		return DrivingLicenseNumber(number), "Please enter a valid Driving License number (e.g., TS0920190001234)."
	case "Registration certificate":
		return VehicleNumber(number), "Please enter a valid RC number (e.g., TS09AB1234)."
	case "Aadhar card":
		return AadharNumber(number), "Please enter a valid 12-digit Aadhar number."
	case "Pancard":
		return PanNumber(number), "Please enter a valid PAN number (e.g., ABCDE1234F)."
	case "Insurance":
		return InsuranceNumber(number), "Please enter a valid Insurance number (e.g., INS1234567890)."
	}
	return false, "Unknown document type."
}

// Profile runs every registration check and reports all failing fields at once.
func Profile(p models.DriverProfile, now time.Time) Errors {
	errs := Errors{}
	if strings.TrimSpace(p.FirstName) == "" {
		errs["first_name"] = "First name is required"
	}
	if strings.TrimSpace(p.LastName) == "" {
		errs["last_name"] = "Last name is required"
	}
	if p.Email == "" || !Email(p.Email) {
		errs["email"] = "Email is invalid"
	}
	if p.Gender != "M" && p.Gender != "F" {
		errs["gender"] = "Gender is required"
	}
	if p.DOB.IsZero() {
		errs["dob"] = "Date of birth is required"
	} else if p.DOB.After(now) {
		errs["dob"] = "Date of birth cannot be in the future"
	}
	if len(p.Password) < MinPasswordLength {
		errs["password"] = "Password must be at least 6 characters"
	}
	if !VehicleType(p.VehicleType) {
		errs["vehicle_type"] = "Vehicle type is required"
	}
	if p.VehicleNumber == "" {
		errs["vehicle_number"] = "Vehicle number is required"
	} else if !VehicleNumber(p.VehicleNumber) {
		errs["vehicle_number"] = "Please enter a valid Telangana vehicle number (e.g., TS09AB1234)"
	}
	return errs
}
