package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v3"

	"driverbot/config"
	"driverbot/pkg/backend"
	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/pkg/validation"
	"driverbot/service"
	"driverbot/storage"
)

type Bot struct {
	Bot      *tele.Bot
	Log      logger.ILogger
	Cfg      *config.Config
	Services service.IServiceManager
	Sessions storage.ISessionStorage

	mu         sync.Mutex
	countdowns map[int64]context.CancelFunc
}

const (
	StateIdle = "idle"

	StateAwaitingPhone = "awaiting_phone"
	StateLoginOTP      = "awaiting_login_otp"

	StateRegFirstName     = "reg_first_name"
	StateRegLastName      = "reg_last_name"
	StateRegEmail         = "reg_email"
	StateRegGender        = "reg_gender"
	StateRegDOB           = "reg_dob"
	StateRegPassword      = "reg_password"
	StateRegVehicleType   = "reg_vehicle_type"
	StateRegVehicleNumber = "reg_vehicle_number"
	StateRegConfirm       = "reg_confirm"

	StateDocNumber = "doc_number"
	StateDocFront  = "doc_front"
	StateDocBack   = "doc_back"

	StateRideOTP = "ride_otp"
)

// Callback uniques. Payloads travel in the button data.
const (
	cbGender        = "gender"
	cbVehicle       = "vehicle"
	cbRegConfirm    = "reg_confirm"
	cbDocCategory   = "doc"
	cbDocContinue   = "doc_continue"
	cbRideAccept    = "ride_accept"
	cbRideDecline   = "ride_decline"
	cbCallSender    = "call_sender"
	cbStartTrip     = "start_trip"
	cbCashCollected = "cash_collected"
)

const (
	btnDocuments = "📄 Documents"
	btnEarnings  = "💰 Earnings"
	btnLogout    = "🚪 Logout"
)

func New(cfg *config.Config, svc service.IServiceManager, sessions storage.ISessionStorage, log logger.ILogger) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.DriverBotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			log.Error("telegram handler failed", logger.Error(err))
		},
	}
	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}
	bot := &Bot{
		Bot:        b,
		Log:        log,
		Cfg:        cfg,
		Services:   svc,
		Sessions:   sessions,
		countdowns: make(map[int64]context.CancelFunc),
	}
	bot.registerHandlers()
	return bot, nil
}

func (b *Bot) Start() {
	b.Log.Info("🤖 Driver Bot Started...")
	b.Bot.Start()
}

func (b *Bot) Stop() {
	b.mu.Lock()
	for id, cancel := range b.countdowns {
		cancel()
		delete(b.countdowns, id)
	}
	b.mu.Unlock()
	b.Bot.Stop()
}

var messages = map[string]map[string]string{
	"en": {
		"welcome":           "👋 Welcome to Elemove Driver!",
		"contact_msg":       "Share your phone number to log in:",
		"share_contact":     "📱 Share Phone Number",
		"own_contact":       "Please share your own phone number.",
		"invalid_phone":     "❌ Please enter a valid phone number.",
		"otp_sent":          "🔐 We sent a 4-digit code to %s. Enter it here:",
		"invalid_otp_shape": "❌ The code must be 4 digits.",
		"login_ok":          "✅ Logged in.",
		"session_expired":   "⏳ Your session has expired. Please log in again.",
		"logged_out":        "👋 You have been logged out.",
		"menu":              "🚖 Driver menu:",
		"generic_error":     "⚠️ Something went wrong. Please try again.",
		"server_error":      "⚠️ The server could not process the request. Please try again later.",

		"reg_intro":          "📝 Let's register you as a driver.",
		"reg_first_name":     "First name:",
		"reg_last_name":      "Last name:",
		"reg_email":          "Email:",
		"reg_gender":         "Gender:",
		"reg_dob":            "Date of birth (YYYY-MM-DD):",
		"reg_dob_invalid":    "❌ Use the format YYYY-MM-DD.",
		"reg_password":       "Choose a password (at least 6 characters) to submit. The message is deleted after reading.",
		"reg_vehicle_type":   "Vehicle type:",
		"reg_vehicle_number": "Vehicle number (e.g., TS09AB1234):",
		"reg_confirm":        "Please confirm your details:\n\n%s",
		"reg_cancelled":      "❌ Registration cancelled.",
		"reg_ok":             "🎉 Registration successful!",
		"reg_errors":         "❌ Please fix the following:\n%s",

		"checklist":         "📄 <b>Document checklist</b>\nUpload all five documents to go on duty.",
		"checklist_stale":   "⚠️ Could not reach the server. Showing your last known checklist.",
		"already_uploaded":  "Document Already Uploaded",
		"doc_number":        "Enter the %s number:",
		"doc_front":         "📷 Send a photo of the front side.",
		"doc_back":          "📷 Send a photo of the back side.",
		"doc_photo_needed":  "Please send a photo.",
		"doc_uploading":     "⏳ Uploading...",
		"doc_uploaded":      "✅ %s uploaded.",
		"doc_upload_failed": "❌ Upload failed. Please try again.",
		"review":            "🕵️ Your documents are under verification. We will let you know once they are approved.",

		"ride_offer":       "🔔 <b>New ride</b>\n📍 Pickup: %s\n🏁 Drop: %s\n💰 ₹%.2f\n🚗 %s",
		"ride_busy":        "⚠️ Finish your current ride first.",
		"ride_gone":        "This ride is no longer available.",
		"ride_declined":    "Ride declined.",
		"ride_start":       "🧍 <b>Waiting for customer</b>\n⏱ %s\n\n👤 %s\n📍 %s",
		"ride_otp":         "🔐 Enter the customer's 4-digit OTP:",
		"ride_otp_invalid": "❌ Invalid OTP. Please try again.",
		"ride_payment":     "💵 <b>Collect payment</b>\nAmount: ₹%.2f",
		"ride_done":        "🏁 Ride completed. ₹%.2f collected in cash.",
		"no_ride":          "You have no active ride.",

		"earnings":         "💰 <b>Earnings</b>\n✅ Completed orders: %d\n❌ Missed orders: %d\n\n📅 Today: %d rides, ₹%.2f cash",
		"earnings_history": "\n\n<b>Recent rides</b>",
	},
}

func msg(key string) string {
	return messages["en"][key]
}

func cb(unique string) string {
	return "\f" + unique
}

func (b *Bot) registerHandlers() {
	b.Bot.Handle("/start", b.handleStart)
	b.Bot.Handle("/logout", b.handleLogout)
	b.Bot.Handle(tele.OnContact, b.handleContact)
	b.Bot.Handle(tele.OnPhoto, b.handlePhoto)

	b.Bot.Handle(btnDocuments, b.handleDocuments)
	b.Bot.Handle(btnEarnings, b.handleEarnings)
	b.Bot.Handle(btnLogout, b.handleLogout)

	b.Bot.Handle(cb(cbGender), b.handleGender)
	b.Bot.Handle(cb(cbVehicle), b.handleVehicleType)
	b.Bot.Handle(cb(cbRegConfirm), b.handleRegConfirm)
	b.Bot.Handle(cb(cbDocCategory), b.handleDocCategory)
	b.Bot.Handle(cb(cbDocContinue), b.handleDocContinue)
	b.Bot.Handle(cb(cbRideAccept), b.handleRideAccept)
	b.Bot.Handle(cb(cbRideDecline), b.handleRideDecline)
	b.Bot.Handle(cb(cbCallSender), b.handleCallSender)
	b.Bot.Handle(cb(cbStartTrip), b.handleStartTrip)
	b.Bot.Handle(cb(cbCashCollected), b.handleCashCollected)

	b.Bot.Handle(tele.OnText, b.handleText)
}

func (b *Bot) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.Cfg.HTTPTimeout)
}

func (b *Bot) session(ctx context.Context, teleID int64) *models.Session {
	s, err := b.Sessions.Get(ctx, teleID)
	if err != nil {
		if !errors.Is(err, storage.ErrSessionNotFound) {
			b.Log.Warning("session unavailable, starting fresh", logger.Int64("telegram_id", teleID), logger.Error(err))
		}
		return &models.Session{TelegramID: teleID, State: StateIdle}
	}
	return s
}

func (b *Bot) saveSession(ctx context.Context, s *models.Session) {
	if err := b.Sessions.Save(ctx, s); err != nil {
		b.Log.Error("error while saving session", logger.Int64("telegram_id", s.TelegramID), logger.Error(err))
	}
}

// driver returns the logged-in, registered driver behind the chat, or routes
// the chat to login or registration and returns nil.
func (b *Bot) driver(ctx context.Context, c tele.Context) *models.Driver {
	d, err := b.Services.Driver().Get(ctx, c.Sender().ID)
	if err != nil {
		b.Log.Error("error while loading driver", logger.Int64("telegram_id", c.Sender().ID), logger.Error(err))
		_ = c.Send(msg("generic_error"))
		return nil
	}
	if !service.LoggedIn(d, time.Now()) {
		if d != nil && d.Token != nil {
			_ = c.Send(msg("session_expired"))
		}
		_ = b.navigate(ctx, c, models.Route{Screen: models.ScreenLogin})
		return nil
	}
	if !d.Registered() {
		_ = b.navigate(ctx, c, models.Route{Screen: models.ScreenRegistration})
		return nil
	}
	return d
}

// navigate renders one route. It is the only place that knows what each screen looks like.
func (b *Bot) navigate(ctx context.Context, c tele.Context, route models.Route) error {
	switch route.Screen {
	case models.ScreenLogin:
		return b.showLogin(ctx, c)
	case models.ScreenRegistration:
		return b.startRegistration(ctx, c)
	case models.ScreenHome:
		return b.showMenu(c)
	case models.ScreenChecklist:
		return b.showChecklist(ctx, c, route.DriverID)
	case models.ScreenDrivingLicense, models.ScreenRCDocument, models.ScreenAadharDocument,
		models.ScreenPancard, models.ScreenInsurance:
		return b.startUpload(ctx, c, route.Screen)
	case models.ScreenReview:
		return c.Send(msg("review"))
	case models.ScreenRideStart:
		return b.showRideStart(c, route.DriverID)
	case models.ScreenVerifyRideOTP:
		return b.showRideOTP(ctx, c)
	case models.ScreenPayment:
		return b.showPayment(c, route.Ride)
	case models.ScreenEarnings:
		return b.showEarnings(ctx, c, route.DriverID)
	}
	return fmt.Errorf("no screen for route %q", route.Screen)
}

func (b *Bot) showMenu(c tele.Context) error {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnDocuments), menu.Text(btnEarnings)),
		menu.Row(menu.Text(btnLogout)),
	)
	return c.Send(msg("menu"), menu)
}

func (b *Bot) handleStart(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	name := fmt.Sprintf("%s %s", c.Sender().FirstName, c.Sender().LastName)
	d, err := b.Services.Driver().Start(ctx, c.Sender().ID, name)
	if err != nil {
		b.Log.Error("error while starting driver", logger.Int64("telegram_id", c.Sender().ID), logger.Error(err))
		return c.Send(msg("generic_error"))
	}

	s := b.session(ctx, c.Sender().ID)
	s.DBID = d.ID
	s.State = StateIdle
	s.Profile, s.Upload = nil, nil
	b.saveSession(ctx, s)

	_ = c.Send(msg("welcome"))
	if d = b.driver(ctx, c); d == nil {
		return nil
	}
	return b.showMenu(c)
}

func (b *Bot) handleText(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	s := b.session(ctx, c.Sender().ID)
	switch s.State {
	case StateAwaitingPhone:
		return b.handlePhoneText(ctx, c, s)
	case StateLoginOTP:
		return b.handleLoginOTP(ctx, c, s)
	case StateRegFirstName, StateRegLastName, StateRegEmail, StateRegDOB,
		StateRegPassword, StateRegVehicleNumber:
		return b.handleRegistrationText(ctx, c, s)
	case StateDocNumber:
		return b.handleDocNumber(ctx, c, s)
	case StateDocFront, StateDocBack:
		return c.Send(msg("doc_photo_needed"))
	case StateRideOTP:
		return b.handleRideOTP(ctx, c, s)
	}
	return nil
}

// alert answers a callback with a popup, or a plain message for text updates.
func alert(c tele.Context, text string) error {
	if c.Callback() != nil {
		return c.Respond(&tele.CallbackResponse{Text: text, ShowAlert: true})
	}
	return c.Send(text)
}

// errorText maps an error to what the driver sees.
func errorText(err error) string {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		return fmt.Sprintf(msg("reg_errors"), fieldErrors(verrs))
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		// the body stays in the backend client's log; it may be HTML or internals
		return msg("server_error")
	}
	switch {
	case errors.Is(err, service.ErrInvalidPhone):
		return msg("invalid_phone")
	case errors.Is(err, service.ErrInvalidOTP):
		return msg("invalid_otp_shape")
	case errors.Is(err, service.ErrOTPMismatch):
		return msg("ride_otp_invalid")
	case errors.Is(err, service.ErrRideInProgress):
		return msg("ride_busy")
	case errors.Is(err, service.ErrNoActiveRide):
		return msg("no_ride")
	case errors.Is(err, service.ErrMissingImages):
		return msg("doc_photo_needed")
	}
	return msg("generic_error")
}

// fieldErrors lists field messages one per line in a stable order.
func fieldErrors(verrs validation.Errors) string {
	keys := make([]string, 0, len(verrs))
	for k := range verrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, "• "+verrs[k])
	}
	return strings.Join(lines, "\n")
}

func sprintf(key string, args ...any) string {
	return fmt.Sprintf(msg(key), args...)
}
