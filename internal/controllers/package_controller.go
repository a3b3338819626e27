package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
	"github.com/zaqqye/apkhub_backend/internal/filestore"
	"github.com/zaqqye/apkhub_backend/internal/metrics"
	"github.com/zaqqye/apkhub_backend/internal/response"
	"github.com/zaqqye/apkhub_backend/internal/services"
)

// multipartSlack covers form fields and part headers on top of the file cap.
const multipartSlack = 1 << 20

type PackageController struct {
	Registry *services.PackageRegistry
	Uploader *services.Uploader
	Files    filestore.Store
	Metrics  *metrics.Metrics
	Log      *zap.Logger
}

func (p *PackageController) Upload(c *gin.Context) {
	limitBody(c, p.Uploader.Limits().MaxPackageBytes)
	fh, err := formFile(c, "apk")
	if err == nil && fh == nil {
		err = fmt.Errorf("%w: no file uploaded", apperr.ErrInvalidInput)
	}
	if err != nil {
		p.Metrics.ObserveUpload("apk", false)
		response.Error(c, p.Log, err)
		return
	}
	res, err := p.Uploader.UploadPackage(c.Request.Context(), fh)
	p.Metrics.ObserveUpload("apk", err == nil)
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	if res.Replaced {
		p.Log.Warn("upload replaced existing package file",
			zap.String("original", fh.Filename),
			zap.String("stored", res.Package.Apk),
		)
	}
	response.Success(c, gin.H{
		"message":  "APK uploaded successfully",
		"filename": res.Package.Apk,
		"package":  res.Package,
	})
}

func (p *PackageController) UploadLink(c *gin.Context) {
	limitBody(c, p.Uploader.Limits().MaxIconBytes)
	icon, err := formFile(c, "icon")
	if err != nil {
		p.Metrics.ObserveUpload("link", false)
		response.Error(c, p.Log, err)
		return
	}
	pkg, err := p.Uploader.UploadLink(c.Request.Context(), c.PostForm("appName"), c.PostForm("apkLink"), icon)
	p.Metrics.ObserveUpload("link", err == nil)
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	response.Success(c, gin.H{
		"message": "Link added successfully",
		"package": pkg,
	})
}

func (p *PackageController) UploadIcon(c *gin.Context) {
	limitBody(c, p.Uploader.Limits().MaxIconBytes)
	fh, err := formFile(c, "icon")
	if err == nil && fh == nil {
		err = fmt.Errorf("%w: no icon uploaded", apperr.ErrInvalidInput)
	}
	if err != nil {
		p.Metrics.ObserveUpload("icon", false)
		response.Error(c, p.Log, err)
		return
	}
	stored, attached, err := p.Uploader.UploadIcon(c.Request.Context(), c.PostForm("apkName"), fh)
	p.Metrics.ObserveUpload("icon", err == nil)
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	response.Success(c, gin.H{
		"message":  "Icon uploaded successfully",
		"filename": stored,
		"attached": attached,
	})
}

func (p *PackageController) DeleteFile(c *gin.Context) {
	if err := p.Registry.DeleteFile(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, p.Log, err)
		return
	}
	response.Success(c, gin.H{"message": "APK deleted successfully"})
}

func (p *PackageController) DeleteLink(c *gin.Context) {
	if err := p.Registry.DeleteLink(c.Request.Context(), c.Param("name")); err != nil {
		response.Error(c, p.Log, err)
		return
	}
	response.Success(c, gin.H{"message": "Link deleted successfully"})
}

func (p *PackageController) List(c *gin.Context) {
	items, err := p.Registry.List()
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	response.Success(c, gin.H{"apks": items})
}

// Download streams a stored package file as an attachment.
func (p *PackageController) Download(c *gin.Context) {
	name := c.Param("name")
	f, err := p.Files.Open(c.Request.Context(), name)
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	if strings.HasSuffix(strings.ToLower(name), services.PackageExtension) {
		c.Header("Content-Type", services.PackageMIME)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	p.Metrics.ObserveDownload()
	http.ServeContent(c.Writer, c.Request, name, st.ModTime(), f)
}

// Icon serves an image referenced as an icon by the registry. The stored
// extension is fixed, so the content type is sniffed from the bytes.
func (p *PackageController) Icon(c *gin.Context) {
	name := c.Param("name")
	known, err := p.Registry.HasIcon(name)
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	if !known {
		response.Error(c, p.Log, fmt.Errorf("icon %q: %w", name, apperr.ErrNotFound))
		return
	}
	f, err := p.Files.Open(c.Request.Context(), name)
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		response.Error(c, p.Log, err)
		return
	}
	head := make([]byte, 512)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		response.Error(c, p.Log, err)
		return
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		response.Error(c, p.Log, err)
		return
	}
	c.Header("Content-Type", http.DetectContentType(head[:n]))
	http.ServeContent(c.Writer, c.Request, name, st.ModTime(), f)
}

func limitBody(c *gin.Context, max int64) {
	if max > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, max+multipartSlack)
	}
}

// formFile returns the named upload, or nil when the field is absent.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return nil, apperr.ErrPayloadTooLarge
	}
	return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
}
