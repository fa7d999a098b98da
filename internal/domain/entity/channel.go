package entity

type ChannelType string

const (
	ChannelTypeTelegram ChannelType = "telegram"
	ChannelTypeWhatsApp ChannelType = "whatsapp"
	ChannelTypePush     ChannelType = "push"
	ChannelTypeEmail    ChannelType = "email"
)

// NotificationChannel is a user's linked delivery mechanism. The linking and
// verification flow lives outside the pipeline; here channels are read-only.
type NotificationChannel struct {
	UserID  string      `json:"user_id" bson:"user_id"`
	Type    ChannelType `json:"type" bson:"type"`
	Address string      `json:"address" bson:"address"`
	Enabled bool        `json:"enabled" bson:"enabled"`
}
