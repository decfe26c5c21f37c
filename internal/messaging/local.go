package messaging

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalSender writes the photo into the photos directory instead of
// delivering it anywhere. Default strategy for development and events
// without SMS/email credentials.
type LocalSender struct {
	dir string
}

func NewLocalSender(dir string) (*LocalSender, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create photos dir: %w", err)
	}
	return &LocalSender{dir: dir}, nil
}

func (s *LocalSender) Name() string { return "local" }

func (s *LocalSender) SendPhoto(_ context.Context, recipient string, photo []byte, _ string) (string, error) {
	filename := fmt.Sprintf("photo_%s_%d.jpg", recipient, time.Now().Unix())
	path := filepath.Join(s.dir, filename)
	if err := os.WriteFile(path, photo, 0o644); err != nil {
		return "", fmt.Errorf("save photo: %w", err)
	}
	return fmt.Sprintf("Photo saved locally: %s", path), nil
}
