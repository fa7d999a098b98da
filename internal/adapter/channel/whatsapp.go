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

type whatsAppSender struct {
	cfg    config.WhatsAppConfig
	client *http.Client
}

// NewWhatsAppSender posts alerts to the WhatsApp Business Cloud API. The
// address is the recipient phone number in international format.
func NewWhatsAppSender(cfg config.WhatsAppConfig) (Sender, error) {
	if cfg.APIURL == "" || cfg.AccessToken == "" {
		return nil, fmt.Errorf("whatsapp API URL and access token must be configured")
	}
	return &whatsAppSender{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

func (s *whatsAppSender) Type() entity.ChannelType {
	return entity.ChannelTypeWhatsApp
}

type whatsAppMessageRequest struct {
	MessagingProduct string           `json:"messaging_product"`
	To               string           `json:"to"`
	Type             string           `json:"type"`
	Text             whatsAppTextBody `json:"text"`
}

type whatsAppTextBody struct {
	Body string `json:"body"`
}

func (s *whatsAppSender) Send(ctx context.Context, address string, msg Message) error {
	payload, err := json.Marshal(whatsAppMessageRequest{
		MessagingProduct: "whatsapp",
		To:               address,
		Type:             "text",
		Text:             whatsAppTextBody{Body: msg.Body},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal whatsapp message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.APIURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build whatsapp request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send whatsapp message to %s: %w", address, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("whatsapp API returned status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}
