package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/pkg/validation"
)

var dobLayouts = []string{"2006-01-02", "02-01-2006", "02/01/2006", "02.01.2006"}

func parseDOB(text string) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range dobLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// fieldStates maps a form field back to the wizard step that asks for it.
var fieldStates = []struct {
	field string
	state string
}{
	{"first_name", StateRegFirstName},
	{"last_name", StateRegLastName},
	{"email", StateRegEmail},
	{"gender", StateRegGender},
	{"dob", StateRegDOB},
	{"vehicle_type", StateRegVehicleType},
	{"vehicle_number", StateRegVehicleNumber},
	{"password", StateRegPassword},
}

func firstInvalidState(verrs validation.Errors) string {
	for _, f := range fieldStates {
		if _, ok := verrs[f.field]; ok {
			return f.state
		}
	}
	return StateRegFirstName
}

// advance moves to the next wizard step, or back to the summary when a
// correction is made on an already completed form.
func (b *Bot) advance(ctx context.Context, c tele.Context, s *models.Session, next string) error {
	if s.Profile.VehicleNumber != "" {
		next = StateRegConfirm
	}
	return b.askRegistrationStep(ctx, c, s, next)
}

func (b *Bot) startRegistration(ctx context.Context, c tele.Context) error {
	s := b.session(ctx, c.Sender().ID)
	s.Profile = &models.DriverProfile{Phone: s.Phone}
	_ = c.Send(msg("reg_intro"), tele.RemoveKeyboard)
	return b.askRegistrationStep(ctx, c, s, StateRegFirstName)
}

func (b *Bot) askRegistrationStep(ctx context.Context, c tele.Context, s *models.Session, state string) error {
	s.State = state
	b.saveSession(ctx, s)

	switch state {
	case StateRegFirstName:
		return c.Send(msg("reg_first_name"))
	case StateRegLastName:
		return c.Send(msg("reg_last_name"))
	case StateRegEmail:
		return c.Send(msg("reg_email"))
	case StateRegGender:
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(
			menu.Data("👨 Male", cbGender, "M"),
			menu.Data("👩 Female", cbGender, "F"),
		))
		return c.Send(msg("reg_gender"), menu)
	case StateRegDOB:
		return c.Send(msg("reg_dob"))
	case StateRegPassword:
		return c.Send(msg("reg_password"))
	case StateRegVehicleType:
		types, err := b.Services.Driver().VehicleTypes(ctx)
		if err != nil {
			return c.Send(msg("generic_error"))
		}
		menu := &tele.ReplyMarkup{}
		var rows []tele.Row
		var row []tele.Btn
		for i, t := range types {
			row = append(row, menu.Data(t, cbVehicle, t))
			if (i+1)%2 == 0 {
				rows = append(rows, menu.Row(row...))
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, menu.Row(row...))
		}
		menu.Inline(rows...)
		return c.Send(msg("reg_vehicle_type"), menu)
	case StateRegVehicleNumber:
		return c.Send(msg("reg_vehicle_number"))
	case StateRegConfirm:
		menu := &tele.ReplyMarkup{}
		menu.Inline(menu.Row(
			menu.Data("✅ Submit", cbRegConfirm, "yes"),
			menu.Data("❌ Cancel", cbRegConfirm, "no"),
		))
		return c.Send(sprintf("reg_confirm", profileSummary(s.Profile)), menu)
	}
	return nil
}

func profileSummary(p *models.DriverProfile) string {
	gender := "Male"
	if p.Gender == "F" {
		gender = "Female"
	}
	return fmt.Sprintf("👤 %s\n📧 %s\n⚧ %s\n🎂 %s\n🚗 %s %s",
		p.FullName(), p.Email, gender, p.DOB.Format("2006-01-02"), p.VehicleType, p.VehicleNumber)
}

func (b *Bot) handleRegistrationText(ctx context.Context, c tele.Context, s *models.Session) error {
	if s.Profile == nil {
		return b.startRegistration(ctx, c)
	}
	text := strings.TrimSpace(c.Text())

	switch s.State {
	case StateRegFirstName:
		if text == "" {
			return c.Send(msg("reg_first_name"))
		}
		s.Profile.FirstName = text
		return b.advance(ctx, c, s, StateRegLastName)
	case StateRegLastName:
		if text == "" {
			return c.Send(msg("reg_last_name"))
		}
		s.Profile.LastName = text
		return b.advance(ctx, c, s, StateRegEmail)
	case StateRegEmail:
		if !validation.Email(text) {
			return c.Send("❌ Email is invalid")
		}
		s.Profile.Email = text
		return b.advance(ctx, c, s, StateRegGender)
	case StateRegDOB:
		dob, ok := parseDOB(text)
		if !ok {
			return c.Send(msg("reg_dob_invalid"))
		}
		s.Profile.DOB = dob
		return b.advance(ctx, c, s, StateRegVehicleType)
	case StateRegPassword:
		if err := c.Delete(); err != nil {
			b.Log.Debug("password message not deleted", logger.Error(err))
		}
		if len(c.Text()) < validation.MinPasswordLength {
			return c.Send("❌ Password must be at least 6 characters")
		}
		return b.register(ctx, c, s, c.Text())
	case StateRegVehicleNumber:
		number := strings.ToUpper(strings.ReplaceAll(text, " ", ""))
		if !validation.VehicleNumber(number) {
			return c.Send("❌ Please enter a valid Telangana vehicle number (e.g., TS09AB1234)")
		}
		s.Profile.VehicleNumber = number
		return b.askRegistrationStep(ctx, c, s, StateRegConfirm)
	}
	return nil
}

func (b *Bot) handleGender(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()
	s := b.session(ctx, c.Sender().ID)
	if s.State != StateRegGender || s.Profile == nil {
		return c.Respond()
	}
	s.Profile.Gender = c.Callback().Data
	_ = c.Respond()
	return b.advance(ctx, c, s, StateRegDOB)
}

func (b *Bot) handleVehicleType(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()
	s := b.session(ctx, c.Sender().ID)
	if s.State != StateRegVehicleType || s.Profile == nil {
		return c.Respond()
	}
	if !validation.VehicleType(c.Callback().Data) {
		b.Log.Warning("vehicle type outside the validated set", logger.String("vehicle_type", c.Callback().Data))
	}
	s.Profile.VehicleType = c.Callback().Data
	_ = c.Respond()
	return b.askRegistrationStep(ctx, c, s, StateRegVehicleNumber)
}

func (b *Bot) handleRegConfirm(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()
	_ = c.Respond()

	s := b.session(ctx, c.Sender().ID)
	if s.State != StateRegConfirm || s.Profile == nil {
		return nil
	}
	if c.Callback().Data != "yes" {
		s.Profile = nil
		s.State = StateIdle
		b.saveSession(ctx, s)
		return c.Send(msg("reg_cancelled"))
	}
	return b.askRegistrationStep(ctx, c, s, StateRegPassword)
}

// register submits the confirmed form. The password only lives for this call.
func (b *Bot) register(ctx context.Context, c tele.Context, s *models.Session, password string) error {
	profile := *s.Profile
	profile.Password = password

	reg, err := b.Services.Driver().Register(ctx, c.Sender().ID, profile)
	if err != nil {
		var verrs validation.Errors
		if errors.As(err, &verrs) {
			_ = c.Send(errorText(err))
			return b.askRegistrationStep(ctx, c, s, firstInvalidState(verrs))
		}
		b.Log.Error("error while registering driver", logger.Int64("telegram_id", c.Sender().ID), logger.Error(err))
		_ = c.Send(errorText(err))
		return b.askRegistrationStep(ctx, c, s, StateRegPassword)
	}

	s.Profile = nil
	s.DriverID = reg.DriverID
	s.State = StateIdle
	b.saveSession(ctx, s)
	_ = c.Send(msg("reg_ok"))
	if err := b.showMenu(c); err != nil {
		return err
	}
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenChecklist, DriverID: reg.DriverID})
}
