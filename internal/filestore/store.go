package filestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
)

// Store holds package and icon binaries addressed by a flat key.
type Store interface {
	Save(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (*os.File, error)
	Remove(ctx context.Context, key string) error
	Rename(ctx context.Context, from, to string) error
	Path(key string) (string, error)
}

type localStore struct {
	dir string
}

func NewLocal(dir string) (Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("local store dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create package dir: %w", err)
	}
	return &localStore{dir: dir}, nil
}

func (s *localStore) Path(key string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	return filepath.Join(s.dir, key), nil
}

// Save writes r to key, replacing any existing file with that key.
func (s *localStore) Save(_ context.Context, key string, r io.Reader) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		_ = os.Remove(path)
		return err
	}
	return out.Close()
}

// Open returns apperr.ErrNotFound when key does not exist.
func (s *localStore) Open(_ context.Context, key string) (*os.File, error) {
	path, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("file %q: %w", key, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	if st, err := f.Stat(); err != nil || st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("file %q: %w", key, apperr.ErrNotFound)
	}
	return f, nil
}

// Remove tolerates an already missing file.
func (s *localStore) Remove(_ context.Context, key string) error {
	path, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Rename moves from onto to, replacing any existing file at to.
func (s *localStore) Rename(_ context.Context, from, to string) error {
	src, err := s.Path(from)
	if err != nil {
		return err
	}
	dst, err := s.Path(to)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("file %q: %w", from, apperr.ErrNotFound)
		}
		return err
	}
	return nil
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.Contains(key, "/") || strings.Contains(key, "\\") || strings.Contains(key, "..") {
		return fmt.Errorf("%w: invalid file key %q", apperr.ErrInvalidInput, key)
	}
	return nil
}
