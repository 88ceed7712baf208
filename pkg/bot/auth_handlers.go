package bot

import (
	"context"

	tele "gopkg.in/telebot.v3"

	"driverbot/pkg/logger"
	"driverbot/pkg/models"
)

func (b *Bot) showLogin(ctx context.Context, c tele.Context) error {
	s := b.session(ctx, c.Sender().ID)
	s.State = StateAwaitingPhone
	b.saveSession(ctx, s)

	menu := &tele.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Contact(msg("share_contact"))))
	return c.Send(msg("contact_msg"), menu)
}

func (b *Bot) handleContact(c tele.Context) error {
	contact := c.Message().Contact
	if contact.UserID != c.Sender().ID {
		return c.Send(msg("own_contact"))
	}
	ctx, cancel := b.context()
	defer cancel()
	return b.requestOTP(ctx, c, b.session(ctx, c.Sender().ID), contact.PhoneNumber)
}

// handlePhoneText accepts a typed number as an alternative to sharing the contact.
func (b *Bot) handlePhoneText(ctx context.Context, c tele.Context, s *models.Session) error {
	return b.requestOTP(ctx, c, s, c.Text())
}

func (b *Bot) requestOTP(ctx context.Context, c tele.Context, s *models.Session, phone string) error {
	if _, err := b.Services.Driver().Start(ctx, c.Sender().ID, c.Sender().FirstName); err != nil {
		b.Log.Error("error while starting driver", logger.Error(err))
		return c.Send(msg("generic_error"))
	}

	normalized, err := b.Services.Driver().RequestLoginOTP(ctx, c.Sender().ID, phone)
	if err != nil {
		return c.Send(errorText(err))
	}

	s.Phone = normalized
	s.State = StateLoginOTP
	b.saveSession(ctx, s)
	return c.Send(sprintf("otp_sent", normalized), tele.RemoveKeyboard)
}

func (b *Bot) handleLoginOTP(ctx context.Context, c tele.Context, s *models.Session) error {
	res, err := b.Services.Driver().VerifyLoginOTP(ctx, c.Sender().ID, s.Phone, c.Text())
	if err != nil {
		return c.Send(errorText(err))
	}

	s.State = StateIdle
	s.DriverID = res.DriverID
	b.saveSession(ctx, s)
	_ = c.Send(msg("login_ok"))

	if !res.Registered {
		return b.navigate(ctx, c, models.Route{Screen: models.ScreenRegistration})
	}
	if err := b.showMenu(c); err != nil {
		return err
	}
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenChecklist, DriverID: res.DriverID})
}

func (b *Bot) handleLogout(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	if err := b.Services.Driver().Logout(ctx, c.Sender().ID); err != nil {
		b.Log.Error("error while logging out", logger.Int64("telegram_id", c.Sender().ID), logger.Error(err))
	}
	if err := b.Sessions.Delete(ctx, c.Sender().ID); err != nil {
		b.Log.Warning("error while dropping session", logger.Error(err))
	}
	_ = c.Send(msg("logged_out"), tele.RemoveKeyboard)
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenLogin})
}
