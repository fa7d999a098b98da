package channel

import (
	"context"
	"fmt"
	"strconv"

	"github.com/magnus-flipper/sniper-service/internal/app/config"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/mymmrac/telego"
)

type telegramSender struct {
	bot *telego.Bot
}

// NewTelegramSender sends alerts through the Telegram Bot API. The address
// is the numeric chat id the user linked during channel verification.
func NewTelegramSender(cfg config.TelegramConfig) (Sender, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("telegram bot token must be configured")
	}

	bot, err := telego.NewBot(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telegram bot: %w", err)
	}
	return &telegramSender{bot: bot}, nil
}

func (s *telegramSender) Type() entity.ChannelType {
	return entity.ChannelTypeTelegram
}

func (s *telegramSender) Send(ctx context.Context, address string, msg Message) error {
	chatID, err := strconv.ParseInt(address, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid telegram chat id %q: %w", address, err)
	}

	_, err = s.bot.SendMessage(ctx, &telego.SendMessageParams{
		ChatID:    telego.ChatID{ID: chatID},
		Text:      msg.Body,
		ParseMode: telego.ModeMarkdown,
		LinkPreviewOptions: &telego.LinkPreviewOptions{
			IsDisabled: true,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send telegram message to chat %d: %w", chatID, err)
	}
	return nil
}
