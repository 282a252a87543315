package platform

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"skyfeed/internal/images"
)

// Telegram publishes through the bot API to a channel identified
// either by a numeric chat id or an @channel username.
type Telegram struct {
	Token    string
	ChatID   string
	Endpoint string // override for tests; empty means the bot API default

	api *tgbotapi.BotAPI
}

// NewTelegram creates the Telegram adapter. The bot session is opened
// lazily on the first publish so a bad token surfaces as a failed
// outcome, not a startup error.
func NewTelegram(token, chatID string) *Telegram {
	return &Telegram{Token: token, ChatID: chatID}
}

func (t *Telegram) Name() string { return "telegram" }

// Publish sends a photo with caption when image bytes are attached,
// or a plain message otherwise.
func (t *Telegram) Publish(ctx context.Context, text string, img *images.Image) error {
	if err := t.ensureAPI(); err != nil {
		return fmt.Errorf("connect bot: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	var msg tgbotapi.Chattable
	if img != nil {
		file := tgbotapi.FileBytes{Name: "image", Bytes: img.Data}
		if id, err := strconv.ParseInt(t.ChatID, 10, 64); err == nil {
			photo := tgbotapi.NewPhoto(id, file)
			photo.Caption = text
			msg = photo
		} else {
			photo := tgbotapi.NewPhotoToChannel(t.ChatID, file)
			photo.Caption = text
			msg = photo
		}
	} else {
		if id, err := strconv.ParseInt(t.ChatID, 10, 64); err == nil {
			msg = tgbotapi.NewMessage(id, text)
		} else {
			msg = tgbotapi.NewMessageToChannel(t.ChatID, text)
		}
	}

	if _, err := t.api.Send(msg); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

func (t *Telegram) ensureAPI() error {
	if t.api != nil {
		return nil
	}
	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	api, err := tgbotapi.NewBotAPIWithAPIEndpoint(t.Token, endpoint)
	if err != nil {
		return err
	}
	t.api = api
	return nil
}
