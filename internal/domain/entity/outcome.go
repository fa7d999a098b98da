package entity

import "time"

type DeliveryStatus string

const (
	DeliveryStatusSuccess   DeliveryStatus = "success"
	DeliveryStatusThrottled DeliveryStatus = "throttled"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// DeliveryOutcome records the result of dispatching one change event to one
// channel. One outcome is produced per (event, channel) pair.
type DeliveryOutcome struct {
	ID          string         `json:"id" bson:"_id"`
	ProfileID   string         `json:"profile_id" bson:"profile_id"`
	UserID      string         `json:"user_id" bson:"user_id"`
	ChannelType ChannelType    `json:"channel_type" bson:"channel_type"`
	EventKind   ChangeKind     `json:"event_kind" bson:"event_kind"`
	ListingID   string         `json:"listing_id" bson:"listing_id"`
	Status      DeliveryStatus `json:"status" bson:"status"`
	Error       string         `json:"error,omitempty" bson:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
}
