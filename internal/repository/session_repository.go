package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"selfiebooth/internal/models"
)

var ErrSessionNotFound = errors.New("session not found")

type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `
	session_id, first_name, phone, email, verification_code, state,
	COALESCE(photo_data, ''), tablet_id, location, created_at, verified_at, expires_at`

func scanSession(row interface{ Scan(...any) error }) (models.Session, error) {
	var s models.Session
	var verifiedAt sql.NullTime
	if err := row.Scan(
		&s.SessionID,
		&s.FirstName,
		&s.Phone,
		&s.Email,
		&s.VerificationCode,
		&s.State,
		&s.PhotoData,
		&s.TabletID,
		&s.Location,
		&s.CreatedAt,
		&verifiedAt,
		&s.ExpiresAt,
	); err != nil {
		return models.Session{}, err
	}
	if verifiedAt.Valid {
		t := verifiedAt.Time
		s.VerifiedAt = &t
	}
	return s, nil
}

func (r *SessionRepository) Create(ctx context.Context, session models.Session) error {
	const query = `
		INSERT INTO sessions (
			session_id, first_name, phone, email, verification_code, state,
			photo_data, tablet_id, location, created_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		session.SessionID,
		session.FirstName,
		session.Phone,
		session.Email,
		session.VerificationCode,
		session.State,
		session.PhotoData,
		session.TabletID,
		session.Location,
		session.CreatedAt,
		session.ExpiresAt,
	)
	return err
}

func (r *SessionRepository) GetByID(ctx context.Context, sessionID string) (models.Session, error) {
	const query = `SELECT` + sessionColumns + ` FROM sessions WHERE session_id = ?`
	session, err := scanSession(r.db.QueryRowContext(ctx, query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	return session, err
}

// VerifyResult reports a code check. AlreadyVerified means the session had
// been verified before this call; callers must not count it again.
type VerifyResult struct {
	OK              bool
	AlreadyVerified bool
	FirstName       string
}

// Verify matches session id + code and promotes a pending session to
// verified, stamping verified_at and a fresh photo-window expiry.
func (r *SessionRepository) Verify(ctx context.Context, sessionID, code string, verifiedAt, expiresAt time.Time) (VerifyResult, error) {
	const query = `
		SELECT first_name, state FROM sessions
		WHERE session_id = ? AND verification_code = ?
	`
	var firstName string
	var state models.SessionState
	err := r.db.QueryRowContext(ctx, query, sessionID, code).Scan(&firstName, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return VerifyResult{}, nil
	}
	if err != nil {
		return VerifyResult{}, err
	}

	if state != models.SessionStatePending {
		return VerifyResult{OK: true, AlreadyVerified: true, FirstName: firstName}, nil
	}

	const update = `
		UPDATE sessions
		SET state = ?, verified_at = ?, expires_at = ?
		WHERE session_id = ? AND state = ?
	`
	res, err := r.db.ExecContext(ctx, update,
		models.SessionStateVerified, verifiedAt, expiresAt,
		sessionID, models.SessionStatePending,
	)
	if err != nil {
		return VerifyResult{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// lost a race with a concurrent verify
		return VerifyResult{OK: true, AlreadyVerified: true, FirstName: firstName}, nil
	}
	return VerifyResult{OK: true, FirstName: firstName}, nil
}

func (r *SessionRepository) SetPhoto(ctx context.Context, sessionID, photoB64 string) error {
	const query = `
		UPDATE sessions
		SET photo_data = ?, state = ?
		WHERE session_id = ? AND state IN (?, ?)
	`
	res, err := r.db.ExecContext(ctx, query,
		photoB64, models.SessionStatePhotoReady,
		sessionID, models.SessionStateVerified, models.SessionStatePhotoReady,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ResetPhoto clears the photo for a retake and renews the capture window.
// Missing sessions are a no-op, matching the delete semantics.
func (r *SessionRepository) ResetPhoto(ctx context.Context, sessionID string, expiresAt time.Time) error {
	const query = `
		UPDATE sessions
		SET photo_data = '', state = ?, expires_at = ?
		WHERE session_id = ?
	`
	_, err := r.db.ExecContext(ctx, query, models.SessionStateVerified, expiresAt, sessionID)
	return err
}

// Delete is idempotent: deleting an unknown session id is not an error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	const query = `DELETE FROM sessions WHERE session_id = ?`
	_, err := r.db.ExecContext(ctx, query, sessionID)
	return err
}

// DeleteExpired removes pending and verified sessions whose window has
// lapsed. Photo-ready sessions are spared so a guest reviewing a photo is
// not deleted out from under them; those fall to DeleteOlderThan.
func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE expires_at <= ? AND state IN (?, ?)`
	res, err := r.db.ExecContext(ctx, query, now,
		models.SessionStatePending, models.SessionStateVerified)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SessionRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM sessions WHERE created_at < ?`
	res, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// LatestPendingForTablet returns the most recent unexpired pending session,
// scoped to a tablet when tabletID is non-empty. Most recent created_at wins.
func (r *SessionRepository) LatestPendingForTablet(ctx context.Context, tabletID string, now time.Time) (models.Session, error) {
	return r.latestInState(ctx, models.SessionStatePending, tabletID, now)
}

// LatestVerifiedForTablet returns the most recent unexpired verified session
// that has no photo yet.
func (r *SessionRepository) LatestVerifiedForTablet(ctx context.Context, tabletID string, now time.Time) (models.Session, error) {
	return r.latestInState(ctx, models.SessionStateVerified, tabletID, now)
}

func (r *SessionRepository) latestInState(ctx context.Context, state models.SessionState, tabletID string, now time.Time) (models.Session, error) {
	var row *sql.Row
	if tabletID != "" {
		const query = `
			SELECT` + sessionColumns + `
			FROM sessions
			WHERE state = ? AND expires_at > ? AND tablet_id = ?
			ORDER BY created_at DESC
			LIMIT 1
		`
		row = r.db.QueryRowContext(ctx, query, state, now, tabletID)
	} else {
		const query = `
			SELECT` + sessionColumns + `
			FROM sessions
			WHERE state = ? AND expires_at > ?
			ORDER BY created_at DESC
			LIMIT 1
		`
		row = r.db.QueryRowContext(ctx, query, state, now)
	}

	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, ErrSessionNotFound
	}
	return session, err
}

func (r *SessionRepository) Stats(ctx context.Context) (models.SessionStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN state IN (?, ?) THEN 1 END),
			COUNT(CASE WHEN state = ? THEN 1 END)
		FROM sessions
	`
	var stats models.SessionStats
	err := r.db.QueryRowContext(ctx, query,
		models.SessionStateVerified, models.SessionStatePhotoReady,
		models.SessionStatePending,
	).Scan(&stats.Total, &stats.Verified, &stats.Pending)
	return stats, err
}

func (r *SessionRepository) Recent(ctx context.Context, limit int) ([]models.Session, error) {
	const query = `
		SELECT` + sessionColumns + `
		FROM sessions
		ORDER BY created_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Reset deletes every session and reports how many were removed.
func (r *SessionRepository) Reset(ctx context.Context) (int64, error) {
	const query = `DELETE FROM sessions`
	res, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
