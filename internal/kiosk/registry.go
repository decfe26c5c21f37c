package kiosk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"
)

var (
	ErrAlreadyCheckedOut = errors.New("kiosk already checked out")
	ErrNotCheckedOut     = errors.New("kiosk not checked out")
	ErrUnknownKiosk      = errors.New("unknown kiosk number")
)

// Status is the checkout state of one numbered kiosk.
type Status struct {
	Number       int    `json:"number"`
	Location     string `json:"location"`
	CheckedOut   bool   `json:"checked_out"`
	CheckedOutBy string `json:"checked_out_by,omitempty"`
	CheckedOutAt string `json:"checked_out_at,omitempty"`
}

// Registry tracks which numbered kiosks are checked out for an event,
// persisted to a flat JSON file next to the other booth state files.
type Registry struct {
	mu     sync.Mutex
	path   string
	kiosks map[int]*Status
}

// defaultLocations mirrors the short-URL tablet mapping: four numbered
// booths with fixed location tags.
var defaultLocations = map[int]string{
	1: "lobby",
	2: "entrance",
	3: "event_hall",
	4: "party_room",
}

func NewRegistry(path string) (*Registry, error) {
	r := &Registry{path: path, kiosks: make(map[int]*Status)}

	data, err := os.ReadFile(path)
	if err == nil {
		var stored []Status
		if err := json.Unmarshal(data, &stored); err != nil {
			return nil, fmt.Errorf("parse kiosk status file: %w", err)
		}
		for i := range stored {
			s := stored[i]
			r.kiosks[s.Number] = &s
		}
	}

	for number, location := range defaultLocations {
		if _, ok := r.kiosks[number]; !ok {
			r.kiosks[number] = &Status{Number: number, Location: location}
		}
	}

	return r, nil
}

func (r *Registry) Checkout(number int, by string, at time.Time) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.kiosks[number]
	if !ok {
		return Status{}, ErrUnknownKiosk
	}
	if k.CheckedOut {
		return *k, ErrAlreadyCheckedOut
	}

	k.CheckedOut = true
	k.CheckedOutBy = by
	k.CheckedOutAt = at.Format(time.RFC3339)
	if err := r.saveLocked(); err != nil {
		return Status{}, err
	}
	return *k, nil
}

func (r *Registry) Checkin(number int) (Status, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	k, ok := r.kiosks[number]
	if !ok {
		return Status{}, ErrUnknownKiosk
	}
	if !k.CheckedOut {
		return *k, ErrNotCheckedOut
	}

	k.CheckedOut = false
	k.CheckedOutBy = ""
	k.CheckedOutAt = ""
	if err := r.saveLocked(); err != nil {
		return Status{}, err
	}
	return *k, nil
}

func (r *Registry) All() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Status, 0, len(r.kiosks))
	for _, k := range r.kiosks {
		out = append(out, *k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func (r *Registry) saveLocked() error {
	out := make([]Status, 0, len(r.kiosks))
	for _, k := range r.kiosks {
		out = append(out, *k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal kiosk status: %w", err)
	}
	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write kiosk status: %w", err)
	}
	return os.Rename(tmp, r.path)
}
