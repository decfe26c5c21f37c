package kiosk

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func TestRegistryDefaults(t *testing.T) {
	r, err := NewRegistry(filepath.Join(t.TempDir(), "kiosk_status.json"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	all := r.All()
	if len(all) != 4 {
		t.Fatalf("kiosks = %d, want 4", len(all))
	}
	for i, want := range []string{"lobby", "entrance", "event_hall", "party_room"} {
		if all[i].Number != i+1 || all[i].Location != want {
			t.Errorf("kiosk %d = %+v, want location %q", i+1, all[i], want)
		}
		if all[i].CheckedOut {
			t.Errorf("kiosk %d checked out on a fresh registry", i+1)
		}
	}
}

func TestCheckoutCheckin(t *testing.T) {
	r, err := NewRegistry(filepath.Join(t.TempDir(), "kiosk_status.json"))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	now := time.Now()

	status, err := r.Checkout(1, "taylor", now)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if !status.CheckedOut || status.CheckedOutBy != "taylor" {
		t.Errorf("checkout status: %+v", status)
	}

	if _, err := r.Checkout(1, "morgan", now); !errors.Is(err, ErrAlreadyCheckedOut) {
		t.Errorf("double checkout err = %v, want ErrAlreadyCheckedOut", err)
	}
	if _, err := r.Checkout(9, "taylor", now); !errors.Is(err, ErrUnknownKiosk) {
		t.Errorf("unknown kiosk err = %v, want ErrUnknownKiosk", err)
	}

	status, err = r.Checkin(1)
	if err != nil {
		t.Fatalf("checkin: %v", err)
	}
	if status.CheckedOut || status.CheckedOutBy != "" {
		t.Errorf("checkin status: %+v", status)
	}
	if _, err := r.Checkin(1); !errors.Is(err, ErrNotCheckedOut) {
		t.Errorf("double checkin err = %v, want ErrNotCheckedOut", err)
	}
}

func TestRegistryPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk_status.json")

	r, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if _, err := r.Checkout(2, "taylor", time.Now()); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	reloaded, err := NewRegistry(path)
	if err != nil {
		t.Fatalf("reload registry: %v", err)
	}
	all := reloaded.All()
	if !all[1].CheckedOut || all[1].CheckedOutBy != "taylor" {
		t.Errorf("checkout lost across reload: %+v", all[1])
	}
	if all[0].CheckedOut {
		t.Errorf("kiosk 1 should still be free")
	}
}
