package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
	"github.com/zaqqye/apkhub_backend/internal/filestore"
	"github.com/zaqqye/apkhub_backend/internal/models"
	"github.com/zaqqye/apkhub_backend/internal/utils"
)

const (
	PackageMIME      = "application/vnd.android.package-archive"
	PackageExtension = ".apk"
	iconExtension    = ".png"
	linkIconSuffix   = "_link"
	stagedPrefix     = ".upload-"
)

type UploadLimits struct {
	MaxPackageBytes int64
	MaxIconBytes    int64
}

type Uploader struct {
	files    filestore.Store
	registry *PackageRegistry
	limits   UploadLimits
}

func NewUploader(files filestore.Store, registry *PackageRegistry, limits UploadLimits) *Uploader {
	return &Uploader{files: files, registry: registry, limits: limits}
}

func (u *Uploader) Limits() UploadLimits {
	return u.limits
}

type PackageUpload struct {
	Package models.Package
	// Replaced is set when a file package with the same name already existed.
	// Its record now describes the new bytes and a file it pointed at under
	// another name has been removed.
	Replaced bool
}

// AcceptsPackage applies the package filter: the declared MIME type or the
// file extension, compared case-insensitively.
func AcceptsPackage(filename, contentType string) bool {
	return strings.EqualFold(mediaType(contentType), PackageMIME) ||
		strings.HasSuffix(strings.ToLower(filename), PackageExtension)
}

func AcceptsIcon(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(mediaType(contentType)), "image/")
}

// IconFilename is the stored icon name of a file package. A trailing package
// extension on apkName is ignored.
func IconFilename(apkName string) string {
	return utils.NormalizeBase(trimPackageExt(apkName)) + iconExtension
}

// LinkIconFilename is the stored icon name of a link package. The suffix keeps
// it apart from the icon of a file package with the same name.
func LinkIconFilename(appName string) string {
	return utils.NormalizeBase(appName) + linkIconSuffix + iconExtension
}

func (u *Uploader) UploadPackage(ctx context.Context, fh *multipart.FileHeader) (PackageUpload, error) {
	if fh == nil {
		return PackageUpload{}, fmt.Errorf("%w: no file uploaded", apperr.ErrInvalidInput)
	}
	if !AcceptsPackage(fh.Filename, fh.Header.Get("Content-Type")) {
		return PackageUpload{}, fmt.Errorf("%w: only APK files are allowed", apperr.ErrUnsupportedMediaType)
	}
	if u.limits.MaxPackageBytes > 0 && fh.Size > u.limits.MaxPackageBytes {
		return PackageUpload{}, apperr.ErrPayloadTooLarge
	}
	stored := utils.StoredFilename(fh.Filename)
	name := utils.TrimExt(stored)
	if name == "" {
		return PackageUpload{}, fmt.Errorf("%w: package name required", apperr.ErrInvalidInput)
	}
	staged, digest, err := u.stage(ctx, fh)
	if err != nil {
		return PackageUpload{}, err
	}
	pkg, created, err := u.registry.PublishFile(ctx, name, staged, stored, digest.Size(), digest.Hex())
	if err != nil {
		_ = u.files.Remove(ctx, staged)
		return PackageUpload{}, err
	}
	return PackageUpload{Package: pkg, Replaced: !created}, nil
}

// UploadIcon stores the icon for apkName and attaches it to the matching file
// package when there is one.
func (u *Uploader) UploadIcon(ctx context.Context, apkName string, fh *multipart.FileHeader) (stored string, attached bool, err error) {
	apkName = strings.TrimSpace(apkName)
	if apkName == "" {
		return "", false, fmt.Errorf("%w: apkName required", apperr.ErrInvalidInput)
	}
	if fh == nil {
		return "", false, fmt.Errorf("%w: no icon uploaded", apperr.ErrInvalidInput)
	}
	if err := u.checkIcon(fh); err != nil {
		return "", false, err
	}
	name := utils.NormalizeBase(trimPackageExt(apkName))
	stored = IconFilename(apkName)
	if _, err := u.save(ctx, stored, fh); err != nil {
		return "", false, err
	}
	attached, err = u.registry.AttachIcon(name, stored)
	if err != nil {
		return "", false, err
	}
	return stored, attached, nil
}

// UploadLink registers a link package. The optional icon is staged first and
// only published when the name turns out to be free.
func (u *Uploader) UploadLink(ctx context.Context, appName, link string, icon *multipart.FileHeader) (models.Package, error) {
	appName = strings.TrimSpace(appName)
	if appName == "" {
		return models.Package{}, fmt.Errorf("%w: appName required", apperr.ErrInvalidInput)
	}
	if _, err := ValidateLink(link); err != nil {
		return models.Package{}, err
	}

	var stored, staged string
	if icon != nil {
		if err := u.checkIcon(icon); err != nil {
			return models.Package{}, err
		}
		var err error
		if staged, _, err = u.stage(ctx, icon); err != nil {
			return models.Package{}, err
		}
		stored = LinkIconFilename(appName)
	}
	pkg, err := u.registry.registerLink(ctx, appName, link, stored, staged)
	if err != nil {
		if staged != "" {
			_ = u.files.Remove(ctx, staged)
		}
		return models.Package{}, err
	}
	return pkg, nil
}

func (u *Uploader) checkIcon(fh *multipart.FileHeader) error {
	if !AcceptsIcon(fh.Header.Get("Content-Type")) {
		return fmt.Errorf("%w: only image files are allowed", apperr.ErrUnsupportedMediaType)
	}
	if u.limits.MaxIconBytes > 0 && fh.Size > u.limits.MaxIconBytes {
		return apperr.ErrPayloadTooLarge
	}
	return nil
}

func (u *Uploader) save(ctx context.Context, key string, fh *multipart.FileHeader) (*utils.Digest, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()
	digest := utils.NewDigest()
	if err := u.files.Save(ctx, key, io.TeeReader(src, digest)); err != nil {
		return nil, fmt.Errorf("store %s: %w", key, err)
	}
	return digest, nil
}

// stage saves an upload under a fresh hidden key. The caller publishes it with
// a rename or removes it.
func (u *Uploader) stage(ctx context.Context, fh *multipart.FileHeader) (string, *utils.Digest, error) {
	key := stagedPrefix + uuid.NewString()
	digest, err := u.save(ctx, key, fh)
	if err != nil {
		return "", nil, err
	}
	return key, digest, nil
}

func trimPackageExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), PackageExtension) {
		return name[:len(name)-len(PackageExtension)]
	}
	return name
}

func mediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(mt)
}
