package notify

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram pushes stock alerts to the admin chat. A nil *Telegram is a valid
// no-op notifier, so callers don't have to branch on configuration.
type Telegram struct {
	api       *tgbotapi.BotAPI
	adminChat int64
	log       *slog.Logger
}

func NewTelegram(token string, adminChatID int64, log *slog.Logger) (*Telegram, error) {
	if token == "" || adminChatID == 0 {
		return nil, nil
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Telegram{api: api, adminChat: adminChatID, log: log}, nil
}

func (t *Telegram) LowStock(code, name string, current, minLevel int64) {
	if t == nil {
		return
	}
	text := fmt.Sprintf("⚠️ Низкий остаток: %s (%s) — %d, минимум %d", name, code, current, minLevel)
	if _, err := t.api.Send(tgbotapi.NewMessage(t.adminChat, text)); err != nil {
		t.log.Warn("low stock alert failed", "code", code, "err", err)
	}
}
