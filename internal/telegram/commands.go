package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command defines a bot command shown in the Telegram command menu.
type Command struct {
	Name        string // Command name without slash (e.g., "start")
	Description string
}

var botCommands = []Command{
	{Name: "start", Description: "Главное меню"},
	{Name: "cancel", Description: "Отменить создание объявления"},
}

// RegisterCommands sets the bot's command menu in Telegram.
// This should be called once at startup.
func RegisterCommands(tg BotAPI) {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		}
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	if _, err := tg.Request(config); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
	} else {
		log.Info().Int("count", len(commands)).Msg("registered bot commands")
	}
}
