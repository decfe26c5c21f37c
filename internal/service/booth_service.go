package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"selfiebooth/internal/archive"
	"selfiebooth/internal/config"
	"selfiebooth/internal/ids"
	"selfiebooth/internal/messaging"
	"selfiebooth/internal/models"
	"selfiebooth/internal/repository"
	"selfiebooth/internal/stats"
)

// ValidationError marks guest-input problems; handlers map it to a 400 with
// the message as-is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func validationErr(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// BoothService drives the session lifecycle: registration, code
// verification, photo capture, keep/retake, and the kiosk's polled state.
type BoothService struct {
	sessions *repository.SessionRepository
	counters *stats.Counters
	history  *stats.History
	sender   messaging.Sender
	store    *archive.ObjectStore // nil when archiving is disabled
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewBoothService(
	sessions *repository.SessionRepository,
	counters *stats.Counters,
	history *stats.History,
	sender messaging.Sender,
	store *archive.ObjectStore,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *BoothService {
	return &BoothService{
		sessions: sessions,
		counters: counters,
		history:  history,
		sender:   sender,
		store:    store,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

type RegisterInput struct {
	FirstName string
	Phone     string
	Email     string
	Consent   bool
	TabletID  string
	Location  string
}

type RegisterResult struct {
	SessionID        string
	VerificationCode string
}

func (s *BoothService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	firstName := sanitizeText(input.FirstName, 50)
	if firstName == "" {
		return RegisterResult{}, validationErr("First name is required")
	}

	phone, err := NormalizePhone(input.Phone)
	if err != nil {
		return RegisterResult{}, err
	}

	if !input.Consent {
		return RegisterResult{}, validationErr("Consent is required")
	}

	code, err := ids.VerificationCode()
	if err != nil {
		return RegisterResult{}, err
	}

	now := s.now()
	session := models.Session{
		SessionID:        ids.New(),
		FirstName:        firstName,
		Phone:            phone,
		Email:            sanitizeText(input.Email, 100),
		VerificationCode: code,
		State:            models.SessionStatePending,
		TabletID:         input.TabletID,
		Location:         input.Location,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.cfg.Booth.CodeWindow),
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return RegisterResult{}, fmt.Errorf("create session: %w", err)
	}

	s.counters.SessionCreated()

	s.log.Info().
		Str("session_id", session.SessionID).
		Str("first_name", firstName).
		Str("tablet_id", input.TabletID).
		Msg("new registration")

	return RegisterResult{SessionID: session.SessionID, VerificationCode: code}, nil
}

type VerifyResult struct {
	Success   bool
	FirstName string
}

func (s *BoothService) Verify(ctx context.Context, sessionID, code string) (VerifyResult, error) {
	code = strings.TrimSpace(code)
	if len(code) != 6 || !isDigits(code) {
		return VerifyResult{}, validationErr("Invalid code format")
	}
	if sessionID == "" {
		return VerifyResult{}, validationErr("Session expired")
	}

	now := s.now()
	result, err := s.sessions.Verify(ctx, sessionID, code, now, now.Add(s.cfg.Booth.PhotoWindow))
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify session: %w", err)
	}
	if !result.OK {
		return VerifyResult{Success: false}, nil
	}

	// a correct code re-entered after verification succeeds without
	// counting the session twice
	if !result.AlreadyVerified {
		s.counters.SessionVerified()
	}

	return VerifyResult{Success: true, FirstName: result.FirstName}, nil
}

// KioskState decides which view the polling kiosk display shows: camera when
// a live verified session is waiting for its photo, the verification code
// screen when a live pending session exists, otherwise the idle QR screen.
func (s *BoothService) KioskState(ctx context.Context, tabletID string) (models.KioskState, error) {
	now := s.now()

	if _, err := s.sessions.LatestVerifiedForTablet(ctx, tabletID, now); err == nil {
		return models.KioskStateCamera, nil
	} else if !errors.Is(err, repository.ErrSessionNotFound) {
		return "", fmt.Errorf("query verified session: %w", err)
	}

	if _, err := s.sessions.LatestPendingForTablet(ctx, tabletID, now); err == nil {
		return models.KioskStateVerification, nil
	} else if !errors.Is(err, repository.ErrSessionNotFound) {
		return "", fmt.Errorf("query pending session: %w", err)
	}

	return models.KioskStateIdle, nil
}

// PendingCodeForTablet returns the name and code the kiosk should display
// during the verification step.
func (s *BoothService) PendingCodeForTablet(ctx context.Context, tabletID string) (models.Session, error) {
	return s.sessions.LatestPendingForTablet(ctx, tabletID, s.now())
}

func (s *BoothService) UploadPhoto(ctx context.Context, sessionID string, photo []byte) error {
	if sessionID == "" {
		return validationErr("No session found")
	}
	if len(photo) == 0 {
		return validationErr("No photo uploaded")
	}
	if int64(len(photo)) > s.cfg.Booth.MaxPhotoBytes {
		return validationErr("Photo too large")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return validationErr("No session found")
	}
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if !session.Verified() {
		return validationErr("Session not verified")
	}

	photoB64 := base64.StdEncoding.EncodeToString(photo)
	if err := s.sessions.SetPhoto(ctx, sessionID, photoB64); err != nil {
		return fmt.Errorf("store photo: %w", err)
	}

	s.counters.PhotoTaken()

	s.log.Info().
		Str("session_id", sessionID).
		Int("bytes", len(photo)).
		Msg("photo uploaded")
	return nil
}

type PhotoStatus struct {
	Ready bool
	Data  string
}

// CheckPhoto reports whether the photo is ready for review. An absent
// session reads as not-ready, the state the mobile page keeps polling on.
func (s *BoothService) CheckPhoto(ctx context.Context, sessionID string) (PhotoStatus, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return PhotoStatus{}, nil
	}
	if err != nil {
		return PhotoStatus{}, fmt.Errorf("load session: %w", err)
	}
	if !session.PhotoReady() {
		return PhotoStatus{}, nil
	}
	return PhotoStatus{Ready: true, Data: session.PhotoData}, nil
}

// KeepPhoto completes a session: dispatches the photo to the guest, logs the
// session to history with its image, optionally archives it, and deletes the
// session row.
func (s *BoothService) KeepPhoto(ctx context.Context, sessionID string) (string, error) {
	if sessionID == "" {
		return "", validationErr("No session ID")
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if errors.Is(err, repository.ErrSessionNotFound) {
		return "", validationErr("Session not found")
	}
	if err != nil {
		return "", fmt.Errorf("load session: %w", err)
	}
	if !session.PhotoReady() || session.PhotoData == "" {
		return "", validationErr("No photo to send")
	}

	photo, err := base64.StdEncoding.DecodeString(session.PhotoData)
	if err != nil {
		return "", fmt.Errorf("decode photo: %w", err)
	}

	message := fmt.Sprintf("Hi %s! Here's your selfie from the photo booth!", session.FirstName)
	recipient := messaging.Recipient(s.sender, session.Phone, session.Email, session.SessionID)

	detail, err := s.sender.SendPhoto(ctx, recipient, photo, message)
	if err != nil {
		return "", fmt.Errorf("send photo: %w", err)
	}

	record := s.historyRecord(session)
	if err := s.history.Append(record); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("history append failed")
	} else if _, err := s.history.SavePhoto(record.ID, session.PhotoData); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("history photo save failed")
	}

	if s.store != nil {
		if err := s.store.StorePhoto(ctx, session.SessionID, photo); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("photo archive failed")
		}
	}

	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return "", fmt.Errorf("delete session: %w", err)
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("first_name", session.FirstName).
		Str("via", s.sender.Name()).
		Msg("photo delivered, session completed")

	return detail, nil
}

func (s *BoothService) RetakePhoto(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return validationErr("No session ID")
	}
	// the capture window restarts so a slow guest is not expired mid-retake
	if err := s.sessions.ResetPhoto(ctx, sessionID, s.now().Add(s.cfg.Booth.PhotoWindow)); err != nil {
		return fmt.Errorf("reset photo: %w", err)
	}
	s.log.Info().Str("session_id", sessionID).Msg("photo retake")
	return nil
}

// Sweep deletes lapsed pending/verified sessions and anything older than the
// retention cap, regardless of state.
func (s *BoothService) Sweep(ctx context.Context) (int64, error) {
	now := s.now()

	expired, err := s.sessions.DeleteExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired: %w", err)
	}

	stale, err := s.sessions.DeleteOlderThan(ctx, now.Add(-s.cfg.Booth.Retention))
	if err != nil {
		return expired, fmt.Errorf("delete stale: %w", err)
	}

	return expired + stale, nil
}

func (s *BoothService) SessionStats(ctx context.Context) (models.SessionStats, error) {
	return s.sessions.Stats(ctx)
}

func (s *BoothService) CumulativeStats() models.CumulativeStats {
	return s.counters.Snapshot()
}

func (s *BoothService) RecentSessions(ctx context.Context, limit int) ([]models.Session, error) {
	return s.sessions.Recent(ctx, limit)
}

func (s *BoothService) History() []models.HistoryRecord {
	return s.history.Records()
}

func (s *BoothService) ResetSessions(ctx context.Context) (int64, error) {
	return s.sessions.Reset(ctx)
}

func (s *BoothService) historyRecord(session models.Session) models.HistoryRecord {
	now := s.now()
	tabletID := session.TabletID
	if tabletID == "" {
		tabletID = "UNKNOWN"
	}
	verifiedAt := ""
	if session.VerifiedAt != nil {
		verifiedAt = session.VerifiedAt.Format(time.RFC3339)
	}
	// session id keeps record ids unique when two sessions on the same
	// tablet complete within the same second
	return models.HistoryRecord{
		ID:               fmt.Sprintf("%s_%d_%s", tabletID, now.Unix(), session.SessionID),
		TabletID:         tabletID,
		SessionID:        session.SessionID,
		UserName:         session.FirstName,
		Phone:            session.Phone,
		Email:            session.Email,
		VerificationCode: session.VerificationCode,
		CreatedAt:        session.CreatedAt.Format(time.RFC3339),
		VerifiedAt:       verifiedAt,
		CompletedAt:      now.Format(time.RFC3339),
		State:            "completed",
	}
}

// NormalizePhone reduces free-form input to the stored 11-digit form with a
// leading country code: "(555) 123-4567" and "15551234567" both become
// "15551234567".
func NormalizePhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", validationErr("Phone number required")
	}

	var digits strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			digits.WriteRune(r)
		}
	}

	switch d := digits.String(); {
	case len(d) == 10:
		return "1" + d, nil
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return d, nil
	default:
		return "", validationErr("Invalid phone number format")
	}
}

// sanitizeText trims and caps input at maxLen runes, never splitting a
// multi-byte character.
func sanitizeText(text string, maxLen int) string {
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxLen])
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
