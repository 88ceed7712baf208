package bot

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"driverbot/pkg/checklist"
	"driverbot/pkg/logger"
	"driverbot/pkg/models"
	"driverbot/pkg/validation"
	"driverbot/service"
)

func (b *Bot) handleDocuments(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenChecklist})
}

func checklistMarkup(state checklist.State) *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, len(checklist.Categories)+1)
	for _, cat := range checklist.Categories {
		icon := "📄"
		if state[cat] {
			icon = "✅"
		}
		rows = append(rows, menu.Row(menu.Data(fmt.Sprintf("%s %s", icon, cat), cbDocCategory, strconv.Itoa(int(cat)))))
	}
	rows = append(rows, menu.Row(menu.Data("➡️ Continue", cbDocContinue)))
	menu.Inline(rows...)
	return menu
}

func (b *Bot) showChecklist(ctx context.Context, c tele.Context, driverID int64) error {
	d := b.driver(ctx, c)
	if d == nil {
		return nil
	}
	if driverID == 0 {
		driverID = *d.DriverID
	}

	state, err := b.Services.Document().Checklist(service.AuthContext(ctx, d), driverID)
	if err != nil {
		b.Log.Warning("checklist fetch failed, showing local copy", logger.Int64("driver_id", driverID), logger.Error(err))
		state, err = b.Services.Document().Mirrored(ctx, driverID)
		if err != nil {
			return c.Send(msg("generic_error"))
		}
		_ = c.Send(msg("checklist_stale"))
	}
	return c.Send(msg("checklist"), checklistMarkup(state), tele.ModeHTML)
}

func (b *Bot) handleDocCategory(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	n, err := strconv.Atoi(c.Callback().Data)
	if err != nil || n < 0 || n >= len(checklist.Categories) {
		return c.Respond()
	}
	cat := checklist.Categories[n]

	d := b.driver(ctx, c)
	if d == nil {
		return c.Respond()
	}
	state, err := b.Services.Document().Checklist(service.AuthContext(ctx, d), *d.DriverID)
	if err != nil {
		return alert(c, errorText(err))
	}
	if state[cat] {
		return alert(c, msg("already_uploaded"))
	}
	_ = c.Respond()
	return b.navigate(ctx, c, models.Route{Screen: cat.Screen(), DriverID: *d.DriverID})
}

func (b *Bot) handleDocContinue(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	d := b.driver(ctx, c)
	if d == nil {
		return c.Respond()
	}
	step, err := b.Services.Document().Next(service.AuthContext(ctx, d), *d.DriverID)
	if err != nil {
		return alert(c, errorText(err))
	}
	_ = c.Respond()
	if step.Message != "" {
		_ = c.Send("✅ " + step.Message)
	}
	return b.navigate(ctx, c, step.Route)
}

func (b *Bot) startUpload(ctx context.Context, c tele.Context, screen models.Screen) error {
	cat, ok := checklist.ForScreen(screen)
	if !ok {
		return fmt.Errorf("screen %q is not an upload screen", screen)
	}
	s := b.session(ctx, c.Sender().ID)
	s.Upload = &models.UploadDraft{DocType: cat.String()}
	s.State = StateDocNumber
	b.saveSession(ctx, s)
	return c.Send(sprintf("doc_number", cat))
}

// readDocNumber trims the typed number and checks it as typed. Case is not
// changed, so lowercase input is refused by the formats that require capitals.
func readDocNumber(docType, text string) (number, hint string, ok bool) {
	number = strings.TrimSpace(text)
	ok, hint = validation.DocumentNumber(docType, number)
	return number, hint, ok
}

func (b *Bot) handleDocNumber(ctx context.Context, c tele.Context, s *models.Session) error {
	if s.Upload == nil {
		s.State = StateIdle
		b.saveSession(ctx, s)
		return nil
	}
	number, hint, ok := readDocNumber(s.Upload.DocType, c.Text())
	if !ok {
		return c.Send("❌ " + hint)
	}
	s.Upload.DocNumber = number
	s.State = StateDocFront
	b.saveSession(ctx, s)
	return c.Send(msg("doc_front"))
}

func (b *Bot) handlePhoto(c tele.Context) error {
	ctx, cancel := b.context()
	defer cancel()

	s := b.session(ctx, c.Sender().ID)
	if s.Upload == nil || (s.State != StateDocFront && s.State != StateDocBack) {
		return nil
	}
	photo := c.Message().Photo

	if s.State == StateDocFront {
		s.Upload.FrontFileID = photo.FileID
		s.State = StateDocBack
		b.saveSession(ctx, s)
		return c.Send(msg("doc_back"))
	}

	s.Upload.BackFileID = photo.FileID
	b.saveSession(ctx, s)
	return b.submitUpload(ctx, c, s)
}

func (b *Bot) submitUpload(ctx context.Context, c tele.Context, s *models.Session) error {
	d := b.driver(ctx, c)
	if d == nil {
		return nil
	}
	_ = c.Send(msg("doc_uploading"))

	front, err := b.download(s.Upload.FrontFileID)
	if err != nil {
		return b.uploadFailed(ctx, c, s, err)
	}
	back, err := b.download(s.Upload.BackFileID)
	if err != nil {
		return b.uploadFailed(ctx, c, s, err)
	}

	up := models.DocumentUpload{
		DriverID:   *d.DriverID,
		DocType:    s.Upload.DocType,
		DocNumber:  s.Upload.DocNumber,
		FrontName:  "front.jpg",
		FrontImage: front,
		BackName:   "back.jpg",
		BackImage:  back,
	}
	if err := b.Services.Document().Upload(service.AuthContext(ctx, d), up); err != nil {
		return b.uploadFailed(ctx, c, s, err)
	}

	docType := s.Upload.DocType
	s.Upload = nil
	s.State = StateIdle
	b.saveSession(ctx, s)
	_ = c.Send(sprintf("doc_uploaded", docType))
	return b.navigate(ctx, c, models.Route{Screen: models.ScreenChecklist, DriverID: *d.DriverID})
}

// uploadFailed keeps the number and asks for the photos again.
func (b *Bot) uploadFailed(ctx context.Context, c tele.Context, s *models.Session, err error) error {
	b.Log.Error("document upload failed", logger.Int64("telegram_id", c.Sender().ID), logger.Error(err))
	s.Upload.FrontFileID, s.Upload.BackFileID = "", ""
	s.State = StateDocFront
	b.saveSession(ctx, s)

	text := msg("doc_upload_failed")
	if t := errorText(err); t != msg("generic_error") {
		text = t
	}
	_ = c.Send(text)
	return c.Send(msg("doc_front"))
}

func (b *Bot) download(fileID string) ([]byte, error) {
	rc, err := b.Bot.File(&tele.File{FileID: fileID})
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
