package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// ArtifactStore persists uploaded recordings. Save overwrites an existing
// artifact with the same name.
type ArtifactStore interface {
	Save(ctx context.Context, name string, data []byte) (string, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// LocalStore writes artifacts under a single directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload folder %s: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("create upload folder %s: %w", abs, err)
	}
	return &LocalStore{dir: abs}, nil
}

// Save writes data atomically: a temp file in the same directory is renamed
// over the target, so a concurrent reader sees either the old or new bytes.
func (s *LocalStore) Save(_ context.Context, name string, data []byte) (string, error) {
	if name == "" || filepath.Base(name) != name {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	target := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp artifact: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close artifact: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("move artifact into place: %w", err)
	}
	return target, nil
}

func (s *LocalStore) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	return data, nil
}
