package models

import "time"

type SessionState string

const (
	SessionStatePending    SessionState = "pending"
	SessionStateVerified   SessionState = "verified"
	SessionStatePhotoReady SessionState = "photo_ready"
)

// Session is the single persistent entity: one guest walking up to one kiosk.
// State is an explicit column; ExpiresAt is an explicit deadline renewed on
// each transition rather than being inferred from CreatedAt at read time.
type Session struct {
	SessionID        string
	FirstName        string
	Phone            string
	Email            string
	VerificationCode string
	State            SessionState
	PhotoData        string // base64, empty until upload
	TabletID         string
	Location         string
	CreatedAt        time.Time
	VerifiedAt       *time.Time
	ExpiresAt        time.Time
}

func (s Session) Verified() bool {
	return s.State == SessionStateVerified || s.State == SessionStatePhotoReady
}

func (s Session) PhotoReady() bool {
	return s.State == SessionStatePhotoReady
}

// SessionStats are aggregate counts over the live session table.
type SessionStats struct {
	Total    int
	Verified int
	Pending  int
}

// KioskState is what the polling kiosk display renders.
type KioskState string

const (
	KioskStateIdle         KioskState = "idle"
	KioskStateVerification KioskState = "verification"
	KioskStateCamera       KioskState = "camera"
)
