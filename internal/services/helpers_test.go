package services

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zaqqye/apkhub_backend/internal/database"
	"github.com/zaqqye/apkhub_backend/internal/filestore"
	"github.com/zaqqye/apkhub_backend/internal/models"
	"github.com/zaqqye/apkhub_backend/internal/utils"
)

type fixture struct {
	db       *database.DB
	files    filestore.Store
	dir      string
	registry *PackageRegistry
	uploader *Uploader
	admins   *AdminService
	users    *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	files, err := filestore.NewLocal(dir)
	require.NoError(t, err)
	db := database.NewMemory()
	registry := NewPackageRegistry(db, files)
	return &fixture{
		db:       db,
		files:    files,
		dir:      dir,
		registry: registry,
		uploader: NewUploader(files, registry, UploadLimits{MaxPackageBytes: 1 << 20, MaxIconBytes: 1 << 10}),
		admins:   NewAdminService(db),
		users:    NewUserService(db),
	}
}

func (f *fixture) seedAdmin(t *testing.T, email, password, role string) {
	t.Helper()
	hashed, err := utils.HashPassword(password)
	require.NoError(t, err)
	require.NoError(t, f.db.Admins.Update(func(admins []models.Admin) ([]models.Admin, error) {
		return append(admins, models.Admin{Email: email, Password: hashed, Role: role}), nil
	}))
}

// fileHeader builds a multipart.FileHeader the way net/http would after
// parsing an upload.
func fileHeader(t *testing.T, filename, contentType string, body []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(32 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}

// storedFiles lists the names in the package directory, sorted.
func (f *fixture) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}
