// Package telegramBot posts reviewer notifications to Telegram channels.
package telegramBot

import (
	"context"
	"fmt"
	"log/slog"

	"eventsPipeline/internal/config"
	"eventsPipeline/internal/migration"
	"eventsPipeline/internal/models/domain"
	"eventsPipeline/internal/urlclassifier"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Bot struct {
	log        *slog.Logger
	tgbot      sender
	channelIDs []int64
}

// New connects to the Bot API with the configured token.
func New(log *slog.Logger, cfg config.NotifierConfig) (*Bot, error) {
	op := "telegramBot.New()"

	api, err := tgbotapi.NewBotAPI(cfg.TgbotApiToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("telegram notifier authorized", slog.String("account", api.Self.UserName))

	return newBot(log, api, cfg.ChannelIDs), nil
}

func newBot(log *slog.Logger, s sender, channelIDs []int64) *Bot {
	return &Bot{log: log, tgbot: s, channelIDs: channelIDs}
}

// NotifyPending announces a new event awaiting review. The best valid image,
// if any, is attached as a photo.
func (bot *Bot) NotifyPending(ctx context.Context, event domain.Event) error {
	op := "bot.NotifyPending()"
	log := bot.log.With(
		slog.String("op", op),
		slog.String("eventID", event.ID.String()),
	)

	text := formatPendingEvent(event)
	photo := urlclassifier.FirstValidImage(event.Thumbnail.URL, event.Hero.URL, event.Flyer.URL)

	return bot.broadcast(ctx, log, func(channelID int64) tgbotapi.Chattable {
		if photo != "" {
			p := tgbotapi.NewPhoto(channelID, tgbotapi.FileURL(photo))
			p.Caption = text
			p.ParseMode = tgbotapi.ModeHTML
			return p
		}
		msg := tgbotapi.NewMessage(channelID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		return msg
	})
}

// NotifyMigration posts the totals of a media migration run.
func (bot *Bot) NotifyMigration(ctx context.Context, summary migration.Summary) error {
	op := "bot.NotifyMigration()"
	log := bot.log.With(slog.String("op", op))

	text := formatMigrationSummary(summary)
	return bot.broadcast(ctx, log, func(channelID int64) tgbotapi.Chattable {
		msg := tgbotapi.NewMessage(channelID, text)
		msg.ParseMode = tgbotapi.ModeHTML
		return msg
	})
}

// broadcast sends to every channel and fails only when no channel got the message.
func (bot *Bot) broadcast(ctx context.Context, log *slog.Logger, build func(channelID int64) tgbotapi.Chattable) error {
	var (
		sent    int
		lastErr error
	)
	for _, channelID := range bot.channelIDs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := bot.tgbot.Send(build(channelID)); err != nil {
			log.Error("failed to send to channel", slog.Int64("channelID", channelID), slog.String("error", err.Error()))
			lastErr = err
			continue
		}
		sent++
		log.Debug("sent to channel", slog.Int64("channelID", channelID))
	}
	if sent == 0 && lastErr != nil {
		return lastErr
	}
	return nil
}
