package channel

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"

	"github.com/magnus-flipper/sniper-service/internal/app/config"
	"github.com/magnus-flipper/sniper-service/internal/domain/entity"
	"github.com/magnus-flipper/sniper-service/internal/platform/logger"
	"gopkg.in/gomail.v2"
)

type emailSender struct {
	cfg config.SMTPConfig
	log logger.Logger
	d   *gomail.Dialer
}

// NewEmailSender delivers alerts over SMTP. The address is the recipient
// email linked to the user.
func NewEmailSender(cfg config.SMTPConfig, log logger.Logger) (Sender, error) {
	if cfg.Host == "" || cfg.Port == 0 || cfg.SenderEmail == "" {
		return nil, fmt.Errorf("SMTP host, port, and sender email must be configured")
	}

	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)

	encryptionLower := strings.ToLower(cfg.Encryption)
	serverName := cfg.ServerName
	if serverName == "" {
		serverName = cfg.Host
	}

	if encryptionLower == "ssl" {
		dialer.SSL = true
		dialer.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	} else if encryptionLower == "tls" || encryptionLower == "starttls" {
		dialer.TLSConfig = &tls.Config{ServerName: serverName, MinVersion: tls.VersionTLS12}
	}

	return &emailSender{
		cfg: cfg,
		log: log,
		d:   dialer,
	}, nil
}

func (s *emailSender) Type() entity.ChannelType {
	return entity.ChannelTypeEmail
}

func (s *emailSender) Send(ctx context.Context, address string, msg Message) error {
	if address == "" {
		return fmt.Errorf("no recipient provided for email")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.cfg.SenderEmail)
	m.SetHeader("To", address)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() {
		done <- s.d.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		s.log.Warnf("Email to %s (subject: %s) cancelled or timed out: %v", address, msg.Subject, ctx.Err())
		return fmt.Errorf("email sending cancelled or timed out: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email to %s: %w", address, err)
		}
	}
	return nil
}
