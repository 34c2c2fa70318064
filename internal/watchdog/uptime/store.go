package uptime

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Store persists the last observed uptime in seconds.
type Store interface {
	Load(ctx context.Context) (seconds float64, found bool, err error)
	Save(ctx context.Context, seconds float64) error
}

// FileStore keeps the uptime as a decimal number in a text file.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (float64, bool, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("read uptime file: %w", err)
	}

	raw := strings.TrimSpace(string(data))
	seconds, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(seconds) {
		return 0, false, fmt.Errorf("invalid uptime record %q", raw)
	}
	return seconds, true, nil
}

func (s *FileStore) Save(ctx context.Context, seconds float64) error {
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create uptime dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatFloat(seconds, 'f', -1, 64)), 0o644); err != nil {
		return fmt.Errorf("write uptime file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace uptime file: %w", err)
	}
	return nil
}
