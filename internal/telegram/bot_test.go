package telegramBot

import (
	"context"
	"errors"
	"strings"
	"testing"

	"eventsPipeline/internal/migration"
	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/testsupport"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

type fakeSender struct {
	sent    []tgbotapi.Chattable
	failFor map[int64]bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	var chatID int64
	switch m := c.(type) {
	case tgbotapi.PhotoConfig:
		chatID = m.ChatID
	case tgbotapi.MessageConfig:
		chatID = m.ChatID
	}
	if f.failFor[chatID] {
		return tgbotapi.Message{}, errors.New("forbidden")
	}
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func TestNotifyPendingUsesFirstValidImage(t *testing.T) {
	s := &fakeSender{}
	bot := newBot(testsupport.DiscardLogger(), s, []int64{-100, -200})

	low := 5.0
	event := domain.Event{
		ID:        uuid.New(),
		Title:     "Rock & <Roll>",
		Status:    domain.EventStatusPendingReview,
		PriceLow:  &low,
		Thumbnail: domain.MediaSlot{URL: "https://www.instagram.com/p/abc/"},
		Hero:      domain.MediaSlot{URL: "https://img.evbuc.com/hero.jpg"},
	}

	if err := bot.NotifyPending(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if len(s.sent) != 2 {
		t.Fatalf("sent %d messages", len(s.sent))
	}
	photo, ok := s.sent[0].(tgbotapi.PhotoConfig)
	if !ok {
		t.Fatalf("expected a photo, got %T", s.sent[0])
	}
	if photo.File != tgbotapi.FileURL("https://img.evbuc.com/hero.jpg") {
		t.Fatalf("photo = %v", photo.File)
	}
	if !strings.Contains(photo.Caption, "Rock &amp; &lt;Roll&gt;") {
		t.Fatalf("caption not escaped: %s", photo.Caption)
	}
}

func TestNotifyPendingWithoutImageSendsText(t *testing.T) {
	s := &fakeSender{}
	bot := newBot(testsupport.DiscardLogger(), s, []int64{-100})

	if err := bot.NotifyPending(context.Background(), domain.Event{ID: uuid.New(), Title: "Quiet"}); err != nil {
		t.Fatal(err)
	}
	if _, ok := s.sent[0].(tgbotapi.MessageConfig); !ok {
		t.Fatalf("expected text message, got %T", s.sent[0])
	}
}

func TestBroadcastFailsOnlyWhenNothingSent(t *testing.T) {
	s := &fakeSender{failFor: map[int64]bool{-100: true}}
	bot := newBot(testsupport.DiscardLogger(), s, []int64{-100, -200})

	if err := bot.NotifyMigration(context.Background(), migration.Summary{Slots: 3, Succeeded: 2, Failed: 1}); err != nil {
		t.Fatalf("partial delivery must not fail: %v", err)
	}

	s.failFor[-200] = true
	if err := bot.NotifyMigration(context.Background(), migration.Summary{}); err == nil {
		t.Fatal("expected error when every channel failed")
	}
}
