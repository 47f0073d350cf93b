package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

const (
	audioFilePermissions = 0o644
	audioDirPermissions  = 0o755
)

// AudioStore persists synthesized audio and returns a public URL for it.
type AudioStore interface {
	Save(ctx context.Context, data []byte, ext string) (string, error)
}

type diskAudioStore struct {
	dir     string
	baseURL string
}

var _ AudioStore = (*diskAudioStore)(nil)

// NewDiskAudioStore stores files in dir, served under baseURL + "/audio/".
func NewDiskAudioStore(dir, baseURL string) (AudioStore, error) {
	if err := os.MkdirAll(dir, audioDirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create audio dir %s: %w", dir, err)
	}
	return &diskAudioStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *diskAudioStore) Save(ctx context.Context, data []byte, ext string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ext = strings.TrimPrefix(ext, ".")
	if ext == "" {
		ext = "mp3"
	}
	name := uuid.NewString() + "." + ext
	if err := os.WriteFile(filepath.Join(s.dir, name), data, audioFilePermissions); err != nil {
		return "", fmt.Errorf("failed to write audio file: %w", err)
	}
	return s.baseURL + "/audio/" + name, nil
}
