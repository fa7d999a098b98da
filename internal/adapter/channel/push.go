package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/magnus-flipper/sniper-service/internal/app/config"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
)

type pushSender struct {
	cfg    config.PushConfig
	client *http.Client
}

// NewPushSender posts alerts to a push notification gateway. The address is
// the device token registered by the mobile client.
func NewPushSender(cfg config.PushConfig) (Sender, error) {
	if cfg.GatewayURL == "" {
		return nil, fmt.Errorf("push gateway URL must be configured")
	}
	return &pushSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (s *pushSender) Type() entity.ChannelType {
	return entity.ChannelTypePush
}

type pushMessageRequest struct {
	To    string `json:"to"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (s *pushSender) Send(ctx context.Context, address string, msg Message) error {
	payload, err := json.Marshal(pushMessageRequest{
		To:    address,
		Title: msg.Subject,
		Body:  msg.Body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.GatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build push request: %w", err)
	}
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send push notification to %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("push gateway returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
