package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zaqqye/apkhub_backend/internal/models"
)

const (
	usersFile    = "users.json"
	adminsFile   = "admins.json"
	packagesFile = "packages.json"
)

type DB struct {
	Users    Document[models.User]
	Admins   Document[models.Admin]
	Packages Document[models.Package]
}

// Open prepares dataDir and binds the three record sets to their files.
func Open(dataDir string) (*DB, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &DB{
		Users:    NewFileDocument[models.User](filepath.Join(dataDir, usersFile)),
		Admins:   NewFileDocument[models.Admin](filepath.Join(dataDir, adminsFile)),
		Packages: NewFileDocument[models.Package](filepath.Join(dataDir, packagesFile)),
	}, nil
}

// NewMemory returns a DB backed entirely by memory, used by tests.
func NewMemory() *DB {
	return &DB{
		Users:    NewMemoryDocument[models.User](),
		Admins:   NewMemoryDocument[models.Admin](),
		Packages: NewMemoryDocument[models.Package](),
	}
}
