package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"selfiebooth/internal/database"
	"selfiebooth/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := database.CreateSchema(context.Background(), db, "sqlite"); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

func testSession(id, tabletID string, state models.SessionState, created, expires time.Time) models.Session {
	return models.Session{
		SessionID:        id,
		FirstName:        "Alice",
		Phone:            "15551234567",
		VerificationCode: "123456",
		State:            state,
		TabletID:         tabletID,
		CreatedAt:        created,
		ExpiresAt:        expires,
	}
}

func TestCreateAndGet(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	want := testSession("s1", "1", models.SessionStatePending, now, now.Add(2*time.Minute))
	want.Email = "alice@example.com"
	want.Location = "lobby"
	if err := repo.Create(ctx, want); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FirstName != "Alice" || got.Phone != "15551234567" || got.Email != "alice@example.com" {
		t.Errorf("unexpected session: %+v", got)
	}
	if got.State != models.SessionStatePending {
		t.Errorf("state = %q, want pending", got.State)
	}
	if got.VerifiedAt != nil {
		t.Errorf("verified_at should be nil on a fresh session")
	}
	if got.PhotoData != "" {
		t.Errorf("photo_data should be empty")
	}

	if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("get missing: err = %v, want ErrSessionNotFound", err)
	}
}

func TestVerify(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := repo.Create(ctx, testSession("s1", "1", models.SessionStatePending, now, now.Add(2*time.Minute))); err != nil {
		t.Fatalf("create: %v", err)
	}

	// wrong code matches nothing
	res, err := repo.Verify(ctx, "s1", "000000", now, now.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("verify wrong code: %v", err)
	}
	if res.OK {
		t.Fatalf("wrong code should not verify")
	}

	res, err = repo.Verify(ctx, "s1", "123456", now, now.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !res.OK || res.AlreadyVerified || res.FirstName != "Alice" {
		t.Fatalf("unexpected verify result: %+v", res)
	}

	got, err := repo.GetByID(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != models.SessionStateVerified {
		t.Errorf("state = %q, want verified", got.State)
	}
	if got.VerifiedAt == nil {
		t.Errorf("verified_at not stamped")
	}
	if !got.ExpiresAt.After(now.Add(2 * time.Minute)) {
		t.Errorf("expiry not renewed for the photo window: %v", got.ExpiresAt)
	}

	// a second correct submission reports AlreadyVerified
	res, err = repo.Verify(ctx, "s1", "123456", now, now.Add(3*time.Minute))
	if err != nil {
		t.Fatalf("re-verify: %v", err)
	}
	if !res.OK || !res.AlreadyVerified {
		t.Errorf("re-verify result: %+v, want OK and AlreadyVerified", res)
	}
}

func TestSetPhoto(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	if err := repo.Create(ctx, testSession("s1", "1", models.SessionStatePending, now, now.Add(2*time.Minute))); err != nil {
		t.Fatalf("create: %v", err)
	}

	// pending sessions cannot take a photo
	if err := repo.SetPhoto(ctx, "s1", "cGhvdG8="); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("set photo on pending: err = %v, want ErrSessionNotFound", err)
	}

	if _, err := repo.Verify(ctx, "s1", "123456", now, now.Add(3*time.Minute)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := repo.SetPhoto(ctx, "s1", "cGhvdG8="); err != nil {
		t.Fatalf("set photo: %v", err)
	}

	got, _ := repo.GetByID(ctx, "s1")
	if got.State != models.SessionStatePhotoReady || got.PhotoData != "cGhvdG8=" {
		t.Errorf("after set photo: state=%q data=%q", got.State, got.PhotoData)
	}

	// retake, then a second capture lands on the photo_ready row
	if err := repo.ResetPhoto(ctx, "s1", now.Add(3*time.Minute)); err != nil {
		t.Fatalf("reset photo: %v", err)
	}
	got, _ = repo.GetByID(ctx, "s1")
	if got.State != models.SessionStateVerified || got.PhotoData != "" {
		t.Errorf("after reset: state=%q data=%q", got.State, got.PhotoData)
	}

	if err := repo.SetPhoto(ctx, "s1", "YWdhaW4="); err != nil {
		t.Fatalf("second set photo: %v", err)
	}
	if err := repo.SetPhoto(ctx, "s1", "dGhpcmQ="); err != nil {
		t.Fatalf("overwrite on photo_ready: %v", err)
	}
}

func TestResetPhotoMissingSession(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	if err := repo.ResetPhoto(context.Background(), "missing", time.Now()); err != nil {
		t.Fatalf("reset on missing session should be a no-op, got %v", err)
	}
}

func TestDeleteIdempotent(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	if err := repo.Create(ctx, testSession("s1", "1", models.SessionStatePending, now, now.Add(time.Minute))); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "s1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("session survived delete")
	}
}

func TestDeleteExpiredSparesPhotoReady(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-time.Minute)

	for _, s := range []models.Session{
		testSession("expired-pending", "1", models.SessionStatePending, past, past),
		testSession("expired-verified", "1", models.SessionStateVerified, past, past),
		testSession("expired-ready", "1", models.SessionStatePhotoReady, past, past),
		testSession("live-pending", "1", models.SessionStatePending, now, now.Add(time.Minute)),
	} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.SessionID, err)
		}
	}

	deleted, err := repo.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}

	// the guest reviewing a photo is still there
	if _, err := repo.GetByID(ctx, "expired-ready"); err != nil {
		t.Errorf("photo_ready session should survive the expiry sweep: %v", err)
	}
	if _, err := repo.GetByID(ctx, "live-pending"); err != nil {
		t.Errorf("live session should survive: %v", err)
	}

	// retention cap catches it regardless of state
	deleted, err = repo.DeleteOlderThan(ctx, now)
	if err != nil {
		t.Fatalf("delete older than: %v", err)
	}
	if deleted != 1 {
		t.Errorf("retention deleted = %d, want 1", deleted)
	}
	if _, err := repo.GetByID(ctx, "expired-ready"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("stale photo_ready session should be gone")
	}
}

func TestLatestForTablet(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	older := testSession("older", "1", models.SessionStatePending, now.Add(-30*time.Second), now.Add(time.Minute))
	newer := testSession("newer", "1", models.SessionStatePending, now, now.Add(time.Minute))
	other := testSession("other", "2", models.SessionStatePending, now.Add(-10*time.Second), now.Add(time.Minute))
	lapsed := testSession("lapsed", "1", models.SessionStatePending, now.Add(10*time.Second), now.Add(-time.Second))
	for _, s := range []models.Session{older, newer, other, lapsed} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.SessionID, err)
		}
	}

	got, err := repo.LatestPendingForTablet(ctx, "1", now)
	if err != nil {
		t.Fatalf("latest pending: %v", err)
	}
	if got.SessionID != "newer" {
		t.Errorf("latest for tablet 1 = %q, want newer", got.SessionID)
	}

	// no tablet filter: newest live pending row overall
	got, err = repo.LatestPendingForTablet(ctx, "", now)
	if err != nil {
		t.Fatalf("latest pending unscoped: %v", err)
	}
	if got.SessionID != "newer" {
		t.Errorf("unscoped latest = %q, want newer", got.SessionID)
	}

	if _, err := repo.LatestVerifiedForTablet(ctx, "1", now); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("no verified session expected, got err = %v", err)
	}

	if _, err := repo.Verify(ctx, "newer", "123456", now, now.Add(3*time.Minute)); err != nil {
		t.Fatalf("verify: %v", err)
	}
	got, err = repo.LatestVerifiedForTablet(ctx, "1", now)
	if err != nil {
		t.Fatalf("latest verified: %v", err)
	}
	if got.SessionID != "newer" {
		t.Errorf("latest verified = %q, want newer", got.SessionID)
	}
}

func TestStatsAndReset(t *testing.T) {
	repo := NewSessionRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC()

	for _, s := range []models.Session{
		testSession("p1", "1", models.SessionStatePending, now, now.Add(time.Minute)),
		testSession("p2", "1", models.SessionStatePending, now, now.Add(time.Minute)),
		testSession("v1", "1", models.SessionStateVerified, now, now.Add(time.Minute)),
		testSession("r1", "1", models.SessionStatePhotoReady, now, now.Add(time.Minute)),
	} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %s: %v", s.SessionID, err)
		}
	}

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 4 || stats.Pending != 2 || stats.Verified != 2 {
		t.Errorf("stats = %+v, want total=4 pending=2 verified=2", stats)
	}

	recent, err := repo.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("recent len = %d, want 2", len(recent))
	}

	deleted, err := repo.Reset(ctx)
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if deleted != 4 {
		t.Errorf("reset deleted = %d, want 4", deleted)
	}
	stats, _ = repo.Stats(ctx)
	if stats.Total != 0 {
		t.Errorf("table not empty after reset: %+v", stats)
	}
}
