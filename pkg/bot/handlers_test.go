package bot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"driverbot/config"
	"driverbot/pkg/backend"
	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/pkg/validation"
	"driverbot/service"
	"driverbot/storage/memory"
)

// chatContext records what a handler sends and answers.
type chatContext struct {
	tele.Context

	sender   *tele.User
	text     string
	callback *tele.Callback

	sent    []string
	answers int
	deleted bool
}

func (c *chatContext) Sender() *tele.User       { return c.sender }
func (c *chatContext) Text() string             { return c.text }
func (c *chatContext) Callback() *tele.Callback { return c.callback }

func (c *chatContext) Delete() error {
	c.deleted = true
	return nil
}

func (c *chatContext) Send(what interface{}, _ ...interface{}) error {
	if s, ok := what.(string); ok {
		c.sent = append(c.sent, s)
	}
	return nil
}

func (c *chatContext) Respond(...*tele.CallbackResponse) error {
	c.answers++
	if c.answers > 1 {
		return errors.New("query is already answered")
	}
	return nil
}

type stubDrivers struct {
	service.DriverService

	registerErr error
	profiles    []models.DriverProfile
}

func (s *stubDrivers) Register(_ context.Context, _ int64, p models.DriverProfile) (*models.Registration, error) {
	s.profiles = append(s.profiles, p)
	if s.registerErr != nil {
		return nil, s.registerErr
	}
	return &models.Registration{DriverID: 27}, nil
}

type stubServices struct {
	service.IServiceManager
	drivers *stubDrivers
}

func (s stubServices) Driver() service.DriverService { return s.drivers }

func newTestBot(drivers *stubDrivers) (*Bot, *memory.SessionRepo) {
	sessions := memory.NewSessionRepo()
	return &Bot{
		Log:      logger.NewNop(),
		Cfg:      &config.Config{HTTPTimeout: time.Second},
		Services: stubServices{drivers: drivers},
		Sessions: sessions,
	}, sessions
}

func confirmedProfile() *models.DriverProfile {
	return &models.DriverProfile{
		FirstName:     "Ravi",
		LastName:      "Kumar",
		Email:         "ravi@example.com",
		Phone:         "9876543210",
		Gender:        "M",
		DOB:           time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC),
		VehicleType:   "Sedan",
		VehicleNumber: "TS09AB1234",
	}
}

func TestRegConfirmAsksPasswordAndAnswersOnce(t *testing.T) {
	drivers := &stubDrivers{}
	b, sessions := newTestBot(drivers)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, &models.Session{TelegramID: 5, State: StateRegConfirm, Profile: confirmedProfile()}))

	c := &chatContext{sender: &tele.User{ID: 5}, callback: &tele.Callback{Data: "yes"}}
	require.NoError(t, b.handleRegConfirm(c))

	assert.Equal(t, 1, c.answers)
	assert.Equal(t, []string{msg("reg_password")}, c.sent)
	assert.Empty(t, drivers.profiles)

	s, err := sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StateRegPassword, s.State)
}

func TestRegisterFailureIsShownAndPasswordNotKept(t *testing.T) {
	drivers := &stubDrivers{registerErr: &backend.APIError{Operation: "register_driver", Status: 500, Message: "<pre>stack</pre>"}}
	b, sessions := newTestBot(drivers)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, &models.Session{TelegramID: 5, State: StateRegPassword, Profile: confirmedProfile()}))

	c := &chatContext{sender: &tele.User{ID: 5}, text: "secret123"}
	require.NoError(t, b.handleText(c))

	assert.True(t, c.deleted)
	assert.Zero(t, c.answers)
	require.Len(t, drivers.profiles, 1)
	assert.Equal(t, "secret123", drivers.profiles[0].Password)
	assert.Equal(t, []string{msg("server_error"), msg("reg_password")}, c.sent)

	s, err := sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StateRegPassword, s.State)
	require.NotNil(t, s.Profile)
	assert.Empty(t, s.Profile.Password)
}

func TestRegisterValidationErrorReturnsToField(t *testing.T) {
	drivers := &stubDrivers{registerErr: validation.Errors{"vehicle_number": "Vehicle number is invalid"}}
	b, sessions := newTestBot(drivers)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, &models.Session{TelegramID: 5, State: StateRegPassword, Profile: confirmedProfile()}))

	c := &chatContext{sender: &tele.User{ID: 5}, text: "secret123"}
	require.NoError(t, b.handleText(c))

	require.Len(t, c.sent, 2)
	assert.Contains(t, c.sent[0], "Vehicle number is invalid")
	assert.Equal(t, msg("reg_vehicle_number"), c.sent[1])

	s, err := sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StateRegVehicleNumber, s.State)
}

func TestShortPasswordIsNotSubmitted(t *testing.T) {
	drivers := &stubDrivers{}
	b, sessions := newTestBot(drivers)
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, &models.Session{TelegramID: 5, State: StateRegPassword, Profile: confirmedProfile()}))

	c := &chatContext{sender: &tele.User{ID: 5}, text: "123"}
	require.NoError(t, b.handleText(c))

	assert.Empty(t, drivers.profiles)
	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "at least 6")
}

func TestCorrectionReturnsToSummary(t *testing.T) {
	b, sessions := newTestBot(&stubDrivers{})
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, &models.Session{TelegramID: 5, State: StateRegEmail, Profile: confirmedProfile()}))

	c := &chatContext{sender: &tele.User{ID: 5}, text: "kumar@example.com"}
	require.NoError(t, b.handleText(c))

	s, err := sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StateRegConfirm, s.State)
	assert.Equal(t, "kumar@example.com", s.Profile.Email)
}

func TestDocNumberRefusesLowercaseInsurance(t *testing.T) {
	b, sessions := newTestBot(&stubDrivers{})
	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, &models.Session{
		TelegramID: 5,
		State:      StateDocNumber,
		Upload:     &models.UploadDraft{DocType: "Insurance"},
	}))

	c := &chatContext{sender: &tele.User{ID: 5}, text: "ins1234567890"}
	require.NoError(t, b.handleText(c))

	require.Len(t, c.sent, 1)
	assert.Contains(t, c.sent[0], "❌")

	s, err := sessions.Get(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, StateDocNumber, s.State)
	assert.Empty(t, s.Upload.DocNumber)
}
