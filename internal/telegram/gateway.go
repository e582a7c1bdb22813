package telegram

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/raine/telegram-classifieds-bot/internal/bot"
	"github.com/raine/telegram-classifieds-bot/internal/listing"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Gateway implements bot.Gateway on top of the Telegram Bot API. Messages
// are sent as plain text so user-entered titles need no escaping.
type Gateway struct {
	tg         BotAPI
	downloader *PhotoDownloader
}

var _ bot.Gateway = (*Gateway)(nil)

// NewGateway creates a Gateway using tg for API calls.
func NewGateway(tg BotAPI, downloader *PhotoDownloader) *Gateway {
	if downloader == nil {
		downloader = NewPhotoDownloader()
	}
	return &Gateway{tg: tg, downloader: downloader}
}

// SendText sends a text message. A nil keyboard leaves the user's current
// reply keyboard in place, an empty one removes it.
func (g *Gateway) SendText(ctx context.Context, userID int64, text string, keyboard bot.Keyboard) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(userID, text)
	switch {
	case keyboard == nil:
	case len(keyboard) == 0:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	default:
		msg.ReplyMarkup = replyKeyboard(keyboard)
	}

	if _, err := g.tg.Send(msg); err != nil {
		return fmt.Errorf("failed to send message to %d: %w", userID, err)
	}
	return nil
}

// SendPhotoGroup sends photos as an album with caption on the first photo.
// Telegram albums need at least two items, so a single photo is sent as a
// regular photo message.
func (g *Gateway) SendPhotoGroup(ctx context.Context, userID int64, photos []listing.PhotoRef, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(photos) == 0 {
		return errors.New("no photos to send")
	}

	if len(photos) == 1 {
		msg := tgbotapi.NewPhoto(userID, photoFile(photos[0]))
		msg.Caption = caption
		if _, err := g.tg.Send(msg); err != nil {
			return fmt.Errorf("failed to send photo to %d: %w", userID, err)
		}
		return nil
	}

	media := make([]interface{}, len(photos))
	for i, p := range photos {
		item := tgbotapi.NewInputMediaPhoto(photoFile(p))
		if i == 0 {
			item.Caption = caption
		}
		media[i] = item
	}

	// sendMediaGroup returns an array of messages, which Send cannot decode
	if _, err := g.tg.Request(tgbotapi.NewMediaGroup(userID, media)); err != nil {
		return fmt.Errorf("failed to send media group to %d: %w", userID, err)
	}
	return nil
}

// FetchPhoto downloads the photo with the given Telegram file ID.
func (g *Gateway) FetchPhoto(ctx context.Context, handle string) ([]byte, error) {
	log.Info().Str("fileID", handle).Msg("downloading telegram file")

	url, err := g.tg.GetFileDirectURL(handle)
	if err != nil {
		return nil, fmt.Errorf("failed to get file URL: %w", err)
	}
	return g.downloader.Download(ctx, url)
}

func replyKeyboard(keyboard bot.Keyboard) tgbotapi.ReplyKeyboardMarkup {
	rows := make([][]tgbotapi.KeyboardButton, 0, len(keyboard))
	for _, labels := range keyboard {
		row := make([]tgbotapi.KeyboardButton, 0, len(labels))
		for _, label := range labels {
			row = append(row, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, row)
	}
	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	return markup
}

// photoFile prefers the Telegram file ID, which avoids re-uploading.
func photoFile(p listing.PhotoRef) tgbotapi.RequestFileData {
	if p.ExternalID != "" {
		return tgbotapi.FileID(p.ExternalID)
	}
	return tgbotapi.FilePath(p.BlobPath)
}
