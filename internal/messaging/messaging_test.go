package messaging

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"selfiebooth/internal/config"
)

func TestLocalSenderWritesPhoto(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalSender(dir)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}

	detail, err := s.SendPhoto(context.Background(), "session-1", []byte("jpeg"), "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(detail, "saved locally") {
		t.Errorf("detail = %q", detail)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("files = %d, want 1", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "photo_session-1_") || !strings.HasSuffix(name, ".jpg") {
		t.Errorf("filename = %q", name)
	}
	data, _ := os.ReadFile(filepath.Join(dir, name))
	if string(data) != "jpeg" {
		t.Errorf("content = %q", data)
	}
}

func TestNewFallsBackToLocal(t *testing.T) {
	cfg := config.MessagingConfig{Service: "twilio", FallbackLocal: true}
	s, err := New(cfg, t.TempDir(), zerolog.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if s.Name() != "local" {
		t.Errorf("sender = %q, want local fallback", s.Name())
	}

	// without the fallback missing credentials are fatal
	cfg.FallbackLocal = false
	if _, err := New(cfg, t.TempDir(), zerolog.Nop()); err == nil {
		t.Errorf("missing credentials should error when fallback is disabled")
	}
}

func TestNewUnknownService(t *testing.T) {
	cfg := config.MessagingConfig{Service: "pigeon", FallbackLocal: false}
	if _, err := New(cfg, t.TempDir(), zerolog.Nop()); err == nil {
		t.Errorf("unknown service should error")
	}
}

func TestRecipient(t *testing.T) {
	local, err := NewLocalSender(t.TempDir())
	if err != nil {
		t.Fatalf("local sender: %v", err)
	}
	email := &EmailSender{}
	twilio := &TwilioSender{}

	tests := []struct {
		sender Sender
		email  string
		want   string
	}{
		{local, "a@b.com", "sess-1"},
		{email, "a@b.com", "a@b.com"},
		{email, "", "15551234567"},
		{twilio, "a@b.com", "15551234567"},
	}
	for _, tt := range tests {
		got := Recipient(tt.sender, "15551234567", tt.email, "sess-1")
		if got != tt.want {
			t.Errorf("Recipient(%s, email=%q) = %q, want %q", tt.sender.Name(), tt.email, got, tt.want)
		}
	}
}

func TestBuildMessage(t *testing.T) {
	body, err := buildMessage("booth@example.com", "guest@example.com", "Your Photo", "hello there", []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	msg := string(body)
	for _, want := range []string{
		"From: booth@example.com",
		"To: guest@example.com",
		"Subject: Your Photo",
		"Content-Type: multipart/mixed",
		"hello there",
		"Content-Type: image/jpeg",
		`attachment; filename="selfie.jpg"`,
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q", want)
		}
	}
}

func TestTwilioSendPhoto(t *testing.T) {
	var gotPath, gotAuth string
	var gotForm map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		user, pass, _ := r.BasicAuth()
		gotAuth = user + ":" + pass
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		gotForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid": "SM123"}`))
	}))
	defer srv.Close()

	s, err := NewTwilioSender(config.MessagingConfig{
		TwilioAccountSID: "AC1",
		TwilioAuthToken:  "tok",
		TwilioFromNumber: "+15550000000",
	}, t.TempDir())
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	s.apiBase = srv.URL

	detail, err := s.SendPhoto(context.Background(), "15551234567", []byte("jpeg"), "hi Alice")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.Contains(detail, "SM123") {
		t.Errorf("detail = %q, want message sid", detail)
	}
	if gotPath != "/Accounts/AC1/Messages.json" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "AC1:tok" {
		t.Errorf("auth = %q", gotAuth)
	}
	if got := gotForm["To"]; len(got) != 1 || got[0] != "+15551234567" {
		t.Errorf("To = %v", gotForm["To"])
	}
	if got := gotForm["Body"]; len(got) != 1 || got[0] != "hi Alice" {
		t.Errorf("Body = %v", gotForm["Body"])
	}
	if _, ok := gotForm["MediaUrl"]; ok {
		t.Errorf("MediaUrl set without a media base url")
	}
}

func TestTwilioSendPhotoAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "bad number"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	s, err := NewTwilioSender(config.MessagingConfig{
		TwilioAccountSID: "AC1",
		TwilioAuthToken:  "tok",
		TwilioFromNumber: "+15550000000",
	}, t.TempDir())
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	s.apiBase = srv.URL

	if _, err := s.SendPhoto(context.Background(), "15551234567", []byte("jpeg"), "hi"); err == nil {
		t.Errorf("API error should surface")
	}
}

func TestTwilioStagesMedia(t *testing.T) {
	var mediaURL string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		mediaURL = r.PostForm.Get("MediaUrl")
		w.Write([]byte(`{"sid": "SM1"}`))
	}))
	defer srv.Close()

	photosDir := t.TempDir()
	s, err := NewTwilioSender(config.MessagingConfig{
		TwilioAccountSID: "AC1",
		TwilioAuthToken:  "tok",
		TwilioFromNumber: "+15550000000",
		MediaBaseURL:     "https://booth.example.com/media/",
	}, photosDir)
	if err != nil {
		t.Fatalf("new sender: %v", err)
	}
	s.apiBase = srv.URL

	if _, err := s.SendPhoto(context.Background(), "15551234567", []byte("jpeg"), "hi"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !strings.HasPrefix(mediaURL, "https://booth.example.com/media/mms_") {
		t.Errorf("MediaUrl = %q", mediaURL)
	}

	entries, _ := os.ReadDir(photosDir)
	if len(entries) != 1 {
		t.Errorf("staged files = %d, want 1", len(entries))
	}
}
