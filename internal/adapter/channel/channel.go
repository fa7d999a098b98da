package channel

import (
	"context"

	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
)

// Message is what a sender delivers: a subject line and a Markdown body.
type Message struct {
	Subject string
	Body    string
}

// Sender is the single capability every concrete notification channel
// implements. Address is the channel-specific destination: a Telegram chat
// id, a WhatsApp number, a push token, or an email address.
type Sender interface {
	Type() entity.ChannelType
	Send(ctx context.Context, address string, msg Message) error
}
