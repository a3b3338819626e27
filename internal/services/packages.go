package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
	"github.com/zaqqye/apkhub_backend/internal/database"
	"github.com/zaqqye/apkhub_backend/internal/filestore"
	"github.com/zaqqye/apkhub_backend/internal/models"
)

// PackageRegistry owns packages.json and the binaries the records point at.
type PackageRegistry struct {
	packages database.Document[models.Package]
	files    filestore.Store
	now      func() time.Time
}

func NewPackageRegistry(db *database.DB, files filestore.Store) *PackageRegistry {
	return &PackageRegistry{packages: db.Packages, files: files, now: time.Now}
}

// RegisterFile inserts a file package. An existing file package with the same
// name is left untouched and created is false.
func (r *PackageRegistry) RegisterFile(name, stored string) (pkg models.Package, created bool, err error) {
	if name == "" || stored == "" {
		return models.Package{}, false, fmt.Errorf("%w: package name required", apperr.ErrInvalidInput)
	}
	err = r.packages.Update(func(items []models.Package) ([]models.Package, error) {
		if i := indexOf(items, name, models.PackageTypeFile); i >= 0 {
			pkg = items[i]
			return items, nil
		}
		pkg = models.Package{
			Name:       name,
			Type:       models.PackageTypeFile,
			Apk:        stored,
			UploadedAt: r.now().UTC(),
		}
		created = true
		return append(items, pkg), nil
	})
	if err != nil {
		return models.Package{}, false, err
	}
	return pkg, created, nil
}

// PublishFile moves the staged upload onto stored and points the file package
// name at it, creating the record when needed. Size and checksum describe the
// published bytes. A previous file of the package stored under another key is
// removed. Both happen under the packages.json lock.
func (r *PackageRegistry) PublishFile(ctx context.Context, name, staged, stored string, size int64, sha string) (pkg models.Package, created bool, err error) {
	if name == "" || stored == "" {
		return models.Package{}, false, fmt.Errorf("%w: package name required", apperr.ErrInvalidInput)
	}
	var previous string
	var removeErr error
	err = r.packages.Update(func(items []models.Package) ([]models.Package, error) {
		if err := r.files.Rename(ctx, staged, stored); err != nil {
			return nil, fmt.Errorf("publish %s: %w", stored, err)
		}
		i := indexOf(items, name, models.PackageTypeFile)
		if i < 0 {
			items = append(items, models.Package{
				Name:       name,
				Type:       models.PackageTypeFile,
				UploadedAt: r.now().UTC(),
			})
			i = len(items) - 1
			created = true
		} else if items[i].Apk != stored {
			previous = items[i].Apk
		}
		items[i].Apk = stored
		items[i].Size = size
		items[i].SHA256 = sha
		pkg = items[i]
		if previous != "" {
			removeErr = r.files.Remove(ctx, previous)
		}
		return items, nil
	})
	if err != nil {
		return models.Package{}, false, err
	}
	if removeErr != nil {
		return pkg, created, fmt.Errorf("remove superseded %s: %w", previous, removeErr)
	}
	return pkg, created, nil
}

// RegisterLink inserts a link package pointing at an external download URL.
func (r *PackageRegistry) RegisterLink(name, rawURL, icon string) (models.Package, error) {
	return r.registerLink(context.Background(), name, rawURL, icon, "")
}

// registerLink moves a staged icon onto icon only once the name is known to
// be free, under the packages.json lock.
func (r *PackageRegistry) registerLink(ctx context.Context, name, rawURL, icon, staged string) (models.Package, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Package{}, fmt.Errorf("%w: app name required", apperr.ErrInvalidInput)
	}
	link, err := ValidateLink(rawURL)
	if err != nil {
		return models.Package{}, err
	}
	pkg := models.Package{
		Name:       name,
		Type:       models.PackageTypeLink,
		ApkLink:    link,
		Icon:       icon,
		UploadedAt: r.now().UTC(),
	}
	err = r.packages.Update(func(items []models.Package) ([]models.Package, error) {
		if indexOf(items, name, models.PackageTypeLink) >= 0 {
			return nil, apperr.ErrDuplicateName
		}
		if staged != "" {
			if err := r.files.Rename(ctx, staged, icon); err != nil {
				return nil, fmt.Errorf("publish %s: %w", icon, err)
			}
		}
		return append(items, pkg), nil
	})
	if err != nil {
		return models.Package{}, err
	}
	return pkg, nil
}

// AttachIcon sets the icon of the named file package. It reports false when no
// such package exists, which is not an error.
func (r *PackageRegistry) AttachIcon(name, icon string) (bool, error) {
	attached := false
	err := r.packages.Update(func(items []models.Package) ([]models.Package, error) {
		if i := indexOf(items, name, models.PackageTypeFile); i >= 0 {
			items[i].Icon = icon
			attached = true
		}
		return items, nil
	})
	return attached, err
}

func (r *PackageRegistry) DeleteFile(ctx context.Context, name string) error {
	return r.delete(ctx, name, models.PackageTypeFile)
}

func (r *PackageRegistry) DeleteLink(ctx context.Context, name string) error {
	return r.delete(ctx, name, models.PackageTypeLink)
}

// delete drops the record first and then its files. The two steps are not
// atomic; a file removal failure leaves the record already gone.
func (r *PackageRegistry) delete(ctx context.Context, name, typ string) error {
	var removed models.Package
	err := r.packages.Update(func(items []models.Package) ([]models.Package, error) {
		i := indexOf(items, name, typ)
		if i < 0 {
			return nil, fmt.Errorf("%s package %q: %w", typ, name, apperr.ErrNotFound)
		}
		removed = items[i]
		return append(items[:i], items[i+1:]...), nil
	})
	if err != nil {
		return err
	}
	var errs []error
	if removed.Apk != "" {
		errs = append(errs, r.files.Remove(ctx, removed.Apk))
	}
	if removed.Icon != "" {
		errs = append(errs, r.files.Remove(ctx, removed.Icon))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("remove files of %q: %w", name, err)
	}
	return nil
}

func (r *PackageRegistry) List() ([]models.Package, error) {
	return r.packages.Load()
}

// HasIcon reports whether any record references icon.
func (r *PackageRegistry) HasIcon(icon string) (bool, error) {
	items, err := r.packages.Load()
	if err != nil {
		return false, err
	}
	for _, p := range items {
		if p.Icon != "" && p.Icon == icon {
			return true, nil
		}
	}
	return false, nil
}

// ValidateLink accepts only absolute URLs with a scheme and host.
func ValidateLink(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidURL, raw)
	}
	return u.String(), nil
}

func indexOf(items []models.Package, name, typ string) int {
	for i, p := range items {
		if p.Name == name && p.Type == typ {
			return i
		}
	}
	return -1
}
