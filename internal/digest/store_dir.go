package digest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// DirStore 把页面写到本地目录（GitHub Pages 的 docs/）
type DirStore struct {
	Dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{Dir: dir}
}

func (s *DirStore) Read(_ context.Context, name string) (string, bool, error) {
	b, err := os.ReadFile(filepath.Join(s.Dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}

func (s *DirStore) Write(_ context.Context, name, content string) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.Dir, name), []byte(content), 0o644)
}
