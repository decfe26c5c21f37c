package stats

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"selfiebooth/internal/models"
)

// History is the capped flat-file log of completed sessions plus their saved
// photo files.
type History struct {
	mu        sync.Mutex
	path      string
	imagesDir string
	limit     int
	log       zerolog.Logger
}

func NewHistory(path, imagesDir string, limit int, log zerolog.Logger) (*History, error) {
	if err := os.MkdirAll(imagesDir, 0o755); err != nil {
		return nil, fmt.Errorf("create images dir: %w", err)
	}
	return &History{
		path:      path,
		imagesDir: imagesDir,
		limit:     limit,
		log:       log,
	}, nil
}

// Append adds a completed session record, dropping the oldest entries once
// the cap is exceeded.
func (h *History) Append(record models.HistoryRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	records := h.loadLocked()
	records = append(records, record)
	if len(records) > h.limit {
		records = records[len(records)-h.limit:]
	}
	return h.saveLocked(records)
}

// SavePhoto decodes and stores the photo for a history record, then points
// the record at the file.
func (h *History) SavePhoto(recordID, photoB64 string) (string, error) {
	// strip a data-URL prefix if the kiosk sent one
	if strings.HasPrefix(photoB64, "data:image/") {
		if idx := strings.Index(photoB64, ","); idx >= 0 {
			photoB64 = photoB64[idx+1:]
		}
	}

	data, err := base64.StdEncoding.DecodeString(photoB64)
	if err != nil {
		return "", fmt.Errorf("decode photo: %w", err)
	}

	filename := recordID + ".jpg"
	if err := os.WriteFile(filepath.Join(h.imagesDir, filename), data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	records := h.loadLocked()
	for i := range records {
		if records[i].ID == recordID {
			records[i].ImageFilename = filename
			break
		}
	}
	if err := h.saveLocked(records); err != nil {
		return filename, err
	}
	return filename, nil
}

func (h *History) Records() []models.HistoryRecord {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.loadLocked()
}

func (h *History) loadLocked() []models.HistoryRecord {
	data, err := os.ReadFile(h.path)
	if err != nil {
		return nil
	}
	var records []models.HistoryRecord
	if err := json.Unmarshal(data, &records); err != nil {
		h.log.Warn().Err(err).Str("file", h.path).Msg("history file unreadable, starting fresh")
		return nil
	}
	return records
}

func (h *History) saveLocked(records []models.HistoryRecord) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	return writeFileAtomic(h.path, data)
}
