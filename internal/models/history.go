package models

// HistoryRecord is one completed session in the flat-file history log.
type HistoryRecord struct {
	ID               string `json:"id"`
	TabletID         string `json:"tablet_id"`
	SessionID        string `json:"session_id"`
	UserName         string `json:"user_name"`
	Phone            string `json:"phone"`
	Email            string `json:"email"`
	VerificationCode string `json:"verification_code"`
	CreatedAt        string `json:"created_at"`
	VerifiedAt       string `json:"verified_at"`
	CompletedAt      string `json:"completed_at"`
	State            string `json:"state"`
	ImageFilename    string `json:"image_filename,omitempty"`
}

// CumulativeStats are the dashboard counters persisted across resets.
type CumulativeStats struct {
	TotalSessionsCreated  int `json:"total_sessions_created"`
	TotalSessionsVerified int `json:"total_sessions_verified"`
	TotalPhotosTaken      int `json:"total_photos_taken"`
}
