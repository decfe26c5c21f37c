package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"selfiebooth/internal/models"
)

// Counters persists the cumulative dashboard totals to a flat JSON file.
// They survive session-table resets and carry no consistency guarantee with
// it; writes are best effort.
type Counters struct {
	mu    sync.Mutex
	path  string
	stats models.CumulativeStats
	log   zerolog.Logger
}

func NewCounters(path string, log zerolog.Logger) *Counters {
	c := &Counters{path: path, log: log}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &c.stats); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("stats file unreadable, starting fresh")
			c.stats = models.CumulativeStats{}
		}
	}
	return c
}

func (c *Counters) SessionCreated() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalSessionsCreated++
	c.saveLocked()
}

func (c *Counters) SessionVerified() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalSessionsVerified++
	c.saveLocked()
}

func (c *Counters) PhotoTaken() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.TotalPhotosTaken++
	c.saveLocked()
}

func (c *Counters) Snapshot() models.CumulativeStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Counters) saveLocked() {
	data, err := json.Marshal(c.stats)
	if err != nil {
		c.log.Error().Err(err).Msg("marshal stats")
		return
	}
	if err := writeFileAtomic(c.path, data); err != nil {
		c.log.Error().Err(err).Str("file", c.path).Msg("save stats")
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}
