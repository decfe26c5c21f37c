package messaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"selfiebooth/internal/config"
)

// EmailSender mails the photo as a JPEG attachment over SMTP with STARTTLS.
type EmailSender struct {
	server   string
	port     int
	address  string
	password string
}

func NewEmailSender(cfg config.MessagingConfig) (*EmailSender, error) {
	if cfg.EmailAddress == "" || cfg.EmailPassword == "" {
		return nil, errors.New("email credentials not configured")
	}
	return &EmailSender{
		server:   cfg.SMTPServer,
		port:     cfg.SMTPPort,
		address:  cfg.EmailAddress,
		password: cfg.EmailPassword,
	}, nil
}

func (s *EmailSender) Name() string { return "email" }

func (s *EmailSender) SendPhoto(_ context.Context, recipient string, photo []byte, message string) (string, error) {
	body, err := buildMessage(s.address, recipient, "Your Selfie Booth Photo!", message, photo)
	if err != nil {
		return "", err
	}

	addr := fmt.Sprintf("%s:%d", s.server, s.port)
	auth := smtp.PlainAuth("", s.address, s.password, s.server)
	if err := smtp.SendMail(addr, auth, s.address, []string{recipient}, body); err != nil {
		return "", fmt.Errorf("send mail: %w", err)
	}

	return "Photo sent via email", nil
}

func buildMessage(from, to, subject, text string, photo []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: multipart/mixed; boundary=%q\r\n\r\n",
		from, to, subject, writer.Boundary())

	textPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"text/plain; charset=utf-8"},
	})
	if err != nil {
		return nil, fmt.Errorf("text part: %w", err)
	}
	if _, err := textPart.Write([]byte(text)); err != nil {
		return nil, fmt.Errorf("write text: %w", err)
	}

	imagePart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"image/jpeg"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-Disposition":       {`attachment; filename="selfie.jpg"`},
	})
	if err != nil {
		return nil, fmt.Errorf("image part: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(photo)
	for len(encoded) > 0 {
		n := 76
		if n > len(encoded) {
			n = len(encoded)
		}
		if _, err := imagePart.Write([]byte(encoded[:n] + "\r\n")); err != nil {
			return nil, fmt.Errorf("write image: %w", err)
		}
		encoded = encoded[n:]
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	return buf.Bytes(), nil
}
