// Package checklist tracks which of the five required driver documents have
// been uploaded and decides where the driver goes next.
package checklist

import (
	"strings"

	"driverbot/pkg/models"
)

type Category int

const (
	DrivingLicense Category = iota
	RegistrationCertificate
	AadharCard
	PanCard
	Insurance
)

// Categories is the fixed priority order used when picking the next missing document.
var Categories = []Category{DrivingLicense, RegistrationCertificate, AadharCard, PanCard, Insurance}

var names = map[Category]string{
	DrivingLicense:          "Driving License",
	RegistrationCertificate: "Registration certificate",
	AadharCard:              "Aadhar card",
	PanCard:                 "Pancard",
	Insurance:               "Insurance",
}

var screens = map[Category]models.Screen{
	DrivingLicense:          models.ScreenDrivingLicense,
	RegistrationCertificate: models.ScreenRCDocument,
	AadharCard:              models.ScreenAadharDocument,
	PanCard:                 models.ScreenPancard,
	Insurance:               models.ScreenInsurance,
}

// String returns the backend's doc_type spelling.
func (c Category) String() string {
	if n, ok := names[c]; ok {
		return n
	}
	return "unknown"
}

// Screen is the upload screen that owns the category.
func (c Category) Screen() models.Screen {
	return screens[c]
}

// Parse maps a backend doc_type to a category, ignoring case and padding.
func Parse(name string) (Category, bool) {
	name = strings.TrimSpace(name)
	for _, c := range Categories {
		if strings.EqualFold(names[c], name) {
			return c, true
		}
	}
	return 0, false
}

// ForScreen finds the category an upload screen belongs to.
func ForScreen(s models.Screen) (Category, bool) {
	for _, c := range Categories {
		if screens[c] == s {
			return c, true
		}
	}
	return 0, false
}

// State is the uploaded flag of every category.
type State map[Category]bool

// FromUploaded builds a state from backend doc_type names. Names that are not
// one of the five categories come back in ignored.
func FromUploaded(uploaded []string) (state State, ignored []string) {
	state = State{}
	for _, c := range Categories {
		state[c] = false
	}
	for _, name := range uploaded {
		c, ok := Parse(name)
		if !ok {
			ignored = append(ignored, name)
			continue
		}
		state[c] = true
	}
	return state, ignored
}

// FromRecords builds a state from the locally mirrored records.
func FromRecords(records []*models.DocumentRecord) State {
	uploaded := make([]string, 0, len(records))
	for _, r := range records {
		if r.Uploaded {
			uploaded = append(uploaded, r.Category)
		}
	}
	state, _ := FromUploaded(uploaded)
	return state
}

// Missing lists the categories not yet uploaded, in priority order.
func (s State) Missing() []Category {
	var missing []Category
	for _, c := range Categories {
		if !s[c] {
			missing = append(missing, c)
		}
	}
	return missing
}

func (s State) Complete() bool {
	return len(s.Missing()) == 0
}

// Decision is the outcome of evaluating a checklist.
type Decision struct {
	// Next is the screen to open: the first missing category's upload screen,
	// or the review screen once nothing is missing.
	Next models.Screen
	// Missing is set when Next is an upload screen.
	Missing *Category
	// SubmitForVerification asks the caller to move the driver to under_verification
	// before opening the review screen.
	SubmitForVerification bool
}

// Evaluate picks exactly one destination for the given state.
func Evaluate(s State) Decision {
	missing := s.Missing()
	if len(missing) > 0 {
		first := missing[0]
		return Decision{Next: first.Screen(), Missing: &first}
	}
	return Decision{Next: models.ScreenReview, SubmitForVerification: true}
}
