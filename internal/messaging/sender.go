package messaging

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"selfiebooth/internal/config"
)

// Sender delivers a captured photo plus a text message to one recipient.
// The recipient identifier depends on the strategy: phone number for SMS,
// email address for email, session id for local saves.
type Sender interface {
	Name() string
	SendPhoto(ctx context.Context, recipient string, photo []byte, message string) (string, error)
}

// New picks the delivery strategy once, at startup. A strategy with missing
// credentials falls back to local saves when the config allows it; the
// substitution is logged rather than silent.
func New(cfg config.MessagingConfig, photosDir string, log zerolog.Logger) (Sender, error) {
	build := func() (Sender, error) {
		switch cfg.Service {
		case "", "local":
			return NewLocalSender(photosDir)
		case "twilio":
			return NewTwilioSender(cfg, photosDir)
		case "email":
			return NewEmailSender(cfg)
		default:
			return nil, fmt.Errorf("unknown messaging service %q", cfg.Service)
		}
	}

	sender, err := build()
	if err != nil {
		if !cfg.FallbackLocal {
			return nil, err
		}
		log.Warn().Err(err).
			Str("service", cfg.Service).
			Msg("messaging service unavailable, falling back to local saves")
		return NewLocalSender(photosDir)
	}
	return sender, nil
}

// Recipient resolves the delivery identifier for a sender. Email prefers the
// guest's email address and falls back to the phone string; local saves name
// files after the session.
func Recipient(sender Sender, phone, email, sessionID string) string {
	switch sender.Name() {
	case "email":
		if email != "" {
			return email
		}
		return phone
	case "local":
		return sessionID
	default:
		return phone
	}
}
