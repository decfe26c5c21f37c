package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"selfiebooth/internal/config"
)

const twilioAPIBase = "https://api.twilio.com/2010-04-01"

// TwilioSender sends the message as SMS/MMS through the Twilio REST API.
// When a public media base URL is configured, the photo is staged under the
// photos directory and attached via MediaUrl; otherwise the text goes out
// alone.
type TwilioSender struct {
	accountSID   string
	authToken    string
	fromNumber   string
	mediaBaseURL string
	photosDir    string
	client       *http.Client
	apiBase      string
}

func NewTwilioSender(cfg config.MessagingConfig, photosDir string) (*TwilioSender, error) {
	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioFromNumber == "" {
		return nil, errors.New("twilio credentials not configured")
	}
	if err := os.MkdirAll(photosDir, 0o755); err != nil {
		return nil, fmt.Errorf("create photos dir: %w", err)
	}
	return &TwilioSender{
		accountSID:   cfg.TwilioAccountSID,
		authToken:    cfg.TwilioAuthToken,
		fromNumber:   cfg.TwilioFromNumber,
		mediaBaseURL: cfg.MediaBaseURL,
		photosDir:    photosDir,
		client:       &http.Client{Timeout: 15 * time.Second},
		apiBase:      twilioAPIBase,
	}, nil
}

func (s *TwilioSender) Name() string { return "twilio" }

func (s *TwilioSender) SendPhoto(ctx context.Context, phone string, photo []byte, message string) (string, error) {
	form := url.Values{}
	form.Set("To", "+"+strings.TrimPrefix(phone, "+"))
	form.Set("From", s.fromNumber)
	form.Set("Body", message)

	if s.mediaBaseURL != "" {
		filename := fmt.Sprintf("mms_%d.jpg", time.Now().UnixNano())
		if err := os.WriteFile(filepath.Join(s.photosDir, filename), photo, 0o644); err != nil {
			return "", fmt.Errorf("stage media: %w", err)
		}
		form.Set("MediaUrl", strings.TrimSuffix(s.mediaBaseURL, "/")+"/"+filename)
	}

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.apiBase, s.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("twilio status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed struct {
		SID string `json:"sid"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	return fmt.Sprintf("Photo sent via Twilio: %s", parsed.SID), nil
}
