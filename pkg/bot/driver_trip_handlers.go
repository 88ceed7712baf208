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
	"driverbot/pkg/ridestage"
	"driverbot/service"
)

// OfferRide forwards a ride offer to the chat linked with ride.DriverID.
func (b *Bot) OfferRide(ctx context.Context, ride models.RideRequest) error {
	d, err := b.Services.Driver().ByDriverID(ctx, ride.DriverID)
	if err != nil {
		return err
	}

	s := b.session(ctx, d.TelegramID)
	s.Offer = &ride
	b.saveSession(ctx, s)

	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(
		menu.Data("✅ Accept", cbRideAccept, ride.BookingID),
		menu.Data("❌ Decline", cbRideDecline, ride.BookingID),
	))
	_, err = b.Bot.Send(&tele.User{ID: d.TelegramID}, offerText(ride), menu, tele.ModeHTML)
	if err != nil {
		return err
	}
	b.Log.Info("ride offered", logger.Int64("driver_id", ride.DriverID), logger.String("booking_id", ride.BookingID))
	return nil
}

func offerText(r models.RideRequest) string {
	return sprintf("ride_offer", r.PickupAddress.Name, r.DropoffAddress.Name, r.TotalPrice, r.VehicleName)
}

func rideStartText(r models.RideRequest, remaining int) string {
	return sprintf("ride_start", ridestage.FormatSeconds(remaining), r.SenderName, r.PickupAddress.Name)
}

func (b *Bot) handleRideAccept(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	s := b.session(ctx, c.Sender().ID)
	if s.Offer == nil || s.Offer.BookingID != c.Callback().Data {
		return alert(c, msg("ride_gone"))
	}
	d := b.driver(ctx, c)
	if d == nil {
		return c.Respond()
	}

	ride := *s.Offer
	if _, err := b.Services.Ride().Accept(ctx, *d.DriverID, ride); err != nil {
		return alert(c, errorText(err))
	}
	s.Offer = nil
	b.saveSession(ctx, s)

	_ = c.Respond()
	_ = c.Edit(offerText(ride)+"\n\n✅ Accepted", tele.ModeHTML)
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenRideStart, DriverID: *d.DriverID, Ride: &ride})
}

func (b *Bot) handleRideDecline(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	s := b.session(ctx, c.Sender().ID)
	if s.Offer != nil && s.Offer.BookingID == c.Callback().Data {
		s.Offer = nil
		b.saveSession(ctx, s)
	}
	_ = c.Respond()
	return c.Edit(msg("ride_declined"))
}

func rideStartMarkup() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	menu.Inline(
		menu.Row(menu.Data("📞 Call sender", cbCallSender)),
		menu.Row(menu.Data("▶️ Start trip", cbStartTrip)),
	)
	return menu
}

func (b *Bot) showRideStart(c tele.Context, driverID int64) error {
	seq, ok := b.Services.Ride().Active(driverID)
	if !ok {
		return c.Send(msg("no_ride"))
	}
	m, err := b.Bot.Send(c.Recipient(), rideStartText(seq.Ride(), seq.Countdown().Remaining()), rideStartMarkup(), tele.ModeHTML)
	if err != nil {
		return err
	}
	b.startCountdown(driverID, seq, m)
	return nil
}

// startCountdown ticks the wait timer every second and re-renders the message
// every CountdownRefresh and once more at zero. Reaching zero changes nothing else.
func (b *Bot) startCountdown(driverID int64, seq *ridestage.Sequencer, m *tele.Message) {
	ctx, cancel := context.WithCancel(context.Background())

	b.mu.Lock()
	if prev, ok := b.countdowns[driverID]; ok {
		prev()
	}
	b.countdowns[driverID] = cancel
	b.mu.Unlock()

	every := int(b.Cfg.CountdownRefresh / time.Second)
	if every < 1 {
		every = 1
	}
	ticker := time.NewTicker(time.Second)

	go func() {
		defer ticker.Stop()
		seq.Countdown().Run(ctx, ticker.C, func(remaining int) {
			if remaining%every != 0 && remaining != 0 {
				return
			}
			if _, err := b.Bot.Edit(m, rideStartText(seq.Ride(), remaining), rideStartMarkup(), tele.ModeHTML); err != nil {
				b.Log.Debug("countdown refresh failed", logger.Error(err))
			}
		})
	}()
}

func (b *Bot) stopCountdown(driverID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if cancel, ok := b.countdowns[driverID]; ok {
		cancel()
		delete(b.countdowns, driverID)
	}
}

func (b *Bot) handleCallSender(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	d := b.driver(ctx, c)
	if d == nil {
		return c.Respond()
	}
	seq, ok := b.Services.Ride().Active(*d.DriverID)
	if !ok {
		return alert(c, msg("no_ride"))
	}
	ride := seq.Ride()
	if ride.SenderPhone == "" {
		return alert(c, "No phone number for the sender.")
	}
	_ = c.Respond()
	return c.Send(&tele.Contact{PhoneNumber: ride.SenderPhone, FirstName: ride.SenderName})
}

func (b *Bot) handleStartTrip(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	d := b.driver(ctx, c)
	if d == nil {
		return c.Respond()
	}
	if err := b.Services.Ride().StartTrip(service.AuthContext(ctx, d), *d.DriverID); err != nil {
		return alert(c, errorText(err))
	}
	b.stopCountdown(*d.DriverID)
	_ = c.Respond()

	if seq, ok := b.Services.Ride().Active(*d.DriverID); ok {
		_ = c.Edit(rideStartText(seq.Ride(), seq.Countdown().Remaining())+"\n\n▶️ Trip started", tele.ModeHTML)
	}
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenVerifyRideOTP, DriverID: *d.DriverID})
}

func (b *Bot) showRideOTP(ctx context.Context, c tele.Context) error {
	s := b.session(ctx, c.Sender().ID)
	s.State = StateRideOTP
	b.saveSession(ctx, s)
	return c.Send(msg("ride_otp"))
}

func (b *Bot) handleRideOTP(ctx context.Context, c tele.Context, s *models.Session) error {
	d := b.driver(ctx, c)
	if d == nil {
		return nil
	}
	err := b.Services.Ride().VerifyOTP(service.AuthContext(ctx, d), *d.DriverID, strings.TrimSpace(c.Text()))
	if errors.Is(err, service.ErrNoActiveRide) {
		s.State = StateIdle
		b.saveSession(ctx, s)
		return c.Send(msg("no_ride"))
	}
	if err != nil {
		return c.Send(errorText(err))
	}

	s.State = StateIdle
	b.saveSession(ctx, s)

	seq, ok := b.Services.Ride().Active(*d.DriverID)
	if !ok {
		return c.Send(msg("no_ride"))
	}
	ride := seq.Ride()
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenPayment, DriverID: *d.DriverID, Ride: &ride})
}

func (b *Bot) showPayment(c tele.Context, ride *models.RideRequest) error {
	if ride == nil {
		return c.Send(msg("no_ride"))
	}
	menu := &tele.ReplyMarkup{}
	menu.Inline(menu.Row(menu.Data("💵 Cash collected", cbCashCollected)))
	return c.Send(sprintf("ride_payment", ride.TotalPrice), menu, tele.ModeHTML)
}

func (b *Bot) handleCashCollected(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	d := b.driver(ctx, c)
	if d == nil {
		return c.Respond()
	}
	done, err := b.Services.Ride().CollectCash(service.AuthContext(ctx, d), *d.DriverID)
	if err != nil {
		return alert(c, errorText(err))
	}
	_ = c.Respond()
	_ = c.Edit(sprintf("ride_done", done.Amount))
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenHome, DriverID: *d.DriverID})
}

func (b *Bot) handleEarnings(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	d := b.driver(ctx, c)
	if d == nil {
		return nil
	}
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenEarnings, DriverID: *d.DriverID})
}

func (b *Bot) showEarnings(ctx context.Context, c tele.Context, driverID int64) error {
	d := b.driver(ctx, c)
	if d == nil {
		return nil
	}
	e, err := b.Services.Earnings().Summary(service.AuthContext(ctx, d), driverID)
	if err != nil {
		return c.Send(errorText(err))
	}
	text := sprintf("earnings", e.CompletedOrders, e.MissedOrders, e.TodayRides, e.TodayCash)

	recent, err := b.Services.Earnings().History(ctx, driverID, recentRides)
	if err != nil {
		b.Log.Warning("ride history unavailable", logger.Int64("driver_id", driverID), logger.Error(err))
	}
	text += historyText(recent)
	return c.Send(text, tele.ModeHTML)
}

const recentRides = 5

func historyText(rides []*models.CompletedRide) string {
	if len(rides) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(msg("earnings_history"))
	for _, r := range rides {
		fmt.Fprintf(&sb, "\n%s  ₹%.2f  %s", r.CompletedAt.Format("02 Jan 15:04"), r.Amount, r.Method)
	}
	return sb.String()
}
