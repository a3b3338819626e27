package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/zaqqye/apkhub_backend/internal/response"
	"github.com/zaqqye/apkhub_backend/internal/services"
)

// ConfigController exposes the upload constraints so clients can check files
// before sending them.
type ConfigController struct {
	Limits   services.UploadLimits
	TokenTTL int64 // seconds
}

func (cc *ConfigController) Get(c *gin.Context) {
	response.Success(c, gin.H{
		"maxPackageBytes":  cc.Limits.MaxPackageBytes,
		"maxIconBytes":     cc.Limits.MaxIconBytes,
		"packageMimeType":  services.PackageMIME,
		"packageExtension": services.PackageExtension,
		"tokenTtlSeconds":  cc.TokenTTL,
	})
}
