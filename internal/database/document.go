package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Document is a whole-collection record set. Update runs a complete
// read-modify-write cycle under the document's lock; when fn returns an error
// nothing is written.
type Document[T any] interface {
	Load() ([]T, error)
	Update(fn func([]T) ([]T, error)) error
}

// FileDocument persists records as a pretty-printed JSON array.
type FileDocument[T any] struct {
	mu   sync.Mutex
	path string
}

func NewFileDocument[T any](path string) *FileDocument[T] {
	return &FileDocument[T]{path: path}
}

func (d *FileDocument[T]) Path() string {
	return d.path
}

func (d *FileDocument[T]) Load() ([]T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.read()
}

func (d *FileDocument[T]) Update(fn func([]T) ([]T, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	items, err := d.read()
	if err != nil {
		return err
	}
	next, err := fn(items)
	if err != nil {
		return err
	}
	return d.write(next)
}

func (d *FileDocument[T]) read() ([]T, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []T{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", d.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []T{}, nil
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", d.path, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

// write replaces the file through a sibling temp file and rename so readers
// never observe a partial document.
func (d *FileDocument[T]) write(items []T) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", d.path, err)
	}
	tmp := filepath.Join(filepath.Dir(d.path), "."+filepath.Base(d.path)+"."+uuid.NewString()+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, d.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", d.path, err)
	}
	return nil
}

// MemoryDocument keeps records in process memory. Records are copied on the
// way in and out, mirroring the value semantics of FileDocument.
type MemoryDocument[T any] struct {
	mu    sync.Mutex
	items []T
}

func NewMemoryDocument[T any](items ...T) *MemoryDocument[T] {
	return &MemoryDocument[T]{items: append([]T{}, items...)}
}

func (d *MemoryDocument[T]) Load() ([]T, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]T{}, d.items...), nil
}

func (d *MemoryDocument[T]) Update(fn func([]T) ([]T, error)) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, err := fn(append([]T{}, d.items...))
	if err != nil {
		return err
	}
	d.items = append([]T{}, next...)
	return nil
}
