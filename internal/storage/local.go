package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalImageStore keeps images as files under a single directory.
type LocalImageStore struct {
	dir string
}

func NewLocalImageStore(dir string) (*LocalImageStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("image directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &LocalImageStore{dir: dir}, nil
}

func (s *LocalImageStore) PutProfileImage(ctx context.Context, userID int64, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp image: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write image: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close image: %w", err)
	}
	if err := os.Rename(tmpName, s.path(userID)); err != nil {
		return fmt.Errorf("store image: %w", err)
	}
	return nil
}

func (s *LocalImageStore) GetProfileImage(ctx context.Context, userID int64) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	data, err := os.ReadFile(s.path(userID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read image: %w", err)
	}
	return data, true, nil
}

func (s *LocalImageStore) path(userID int64) string {
	return filepath.Join(s.dir, imageName(userID))
}

var _ ImageStore = (*LocalImageStore)(nil)
