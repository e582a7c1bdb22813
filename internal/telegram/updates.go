package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/raine/telegram-classifieds-bot/internal/bot"
)

// TranslateUpdate converts a Telegram update into an inbound event. It
// returns false for updates the bot does not handle, such as stickers or
// edited messages.
func TranslateUpdate(update tgbotapi.Update) (bot.InboundEvent, bool) {
	message := update.Message
	if message == nil || message.From == nil {
		return bot.InboundEvent{}, false
	}

	ev := bot.InboundEvent{
		ID:     int64(update.UpdateID),
		UserID: message.From.ID,
	}

	switch {
	case len(message.Photo) > 0:
		// Telegram orders photo sizes from smallest to largest
		ev.Kind = bot.EventPhoto
		ev.Payload = message.Photo[len(message.Photo)-1].FileID
	case message.IsCommand():
		ev.Kind = bot.EventCommand
		ev.Payload = "/" + message.Command()
	case message.Text != "":
		ev.Kind = bot.EventFreeText
		if bot.IsButtonLabel(message.Text) {
			ev.Kind = bot.EventButtonText
		}
		ev.Payload = message.Text
	default:
		return bot.InboundEvent{}, false
	}

	return ev, true
}
