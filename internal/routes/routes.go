package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaqqye/apkhub_backend/internal/config"
	"github.com/zaqqye/apkhub_backend/internal/controllers"
	"github.com/zaqqye/apkhub_backend/internal/database"
	"github.com/zaqqye/apkhub_backend/internal/filestore"
	"github.com/zaqqye/apkhub_backend/internal/metrics"
	"github.com/zaqqye/apkhub_backend/internal/middleware"
	"github.com/zaqqye/apkhub_backend/internal/services"
	"github.com/zaqqye/apkhub_backend/internal/token"
)

type Deps struct {
	DB      *database.DB
	Files   filestore.Store
	Config  *config.Config
	Log     *zap.Logger
	Metrics *metrics.Metrics // nil disables /metrics
}

func Register(r *gin.Engine, deps Deps) {
	cfg := deps.Config
	log := deps.Log
	tokens := token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)

	users := services.NewUserService(deps.DB)
	admins := services.NewAdminService(deps.DB)
	registry := services.NewPackageRegistry(deps.DB, deps.Files)
	uploader := services.NewUploader(deps.Files, registry, services.UploadLimits{
		MaxPackageBytes: cfg.MaxPackageBytes,
		MaxIconBytes:    cfg.MaxIconBytes,
	})

	authCtrl := &controllers.AuthController{Users: users, Tokens: tokens, Metrics: deps.Metrics, Log: log}
	adminCtrl := &controllers.AdminController{Admins: admins, Tokens: tokens, Metrics: deps.Metrics, Log: log}
	pkgCtrl := &controllers.PackageController{
		Registry: registry,
		Uploader: uploader,
		Files:    deps.Files,
		Metrics:  deps.Metrics,
		Log:      log,
	}
	pageCtrl := &controllers.PageController{StaticDir: cfg.StaticDir}
	cfgCtrl := &controllers.ConfigController{
		Limits:   uploader.Limits(),
		TokenTTL: int64(tokens.TTL().Seconds()),
	}

	r.Use(middleware.RequestID(), middleware.Recovery(log), middleware.Logger(log))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	authCfg := middleware.AuthConfig{Issuer: tokens, Owners: admins, Log: log}
	anyToken := middleware.Require(middleware.Authenticated, authCfg)
	ownerOnly := middleware.Require(middleware.Owner, authCfg)

	// Public
	r.GET("/", pageCtrl.Index)
	r.GET("/healthz", pageCtrl.Health)
	r.GET("/api/config", cfgCtrl.Get)
	r.POST("/signup", authCtrl.Signup)
	r.POST("/login", authCtrl.Login)
	r.GET("/api/verify", authCtrl.Verify)
	r.POST("/admin/login", adminCtrl.Login)
	r.GET("/api/admin/verify", adminCtrl.Verify)

	// Owner only
	r.POST("/admin/create", ownerOnly, adminCtrl.Create)
	r.GET("/admin/list", ownerOnly, adminCtrl.List)
	r.DELETE("/admin/delete/:email", ownerOnly, adminCtrl.Delete)

	// Any valid token
	r.POST("/admin/upload", anyToken, pkgCtrl.Upload)
	r.POST("/admin/upload-link", anyToken, pkgCtrl.UploadLink)
	r.POST("/admin/upload-icon", anyToken, pkgCtrl.UploadIcon)
	r.DELETE("/admin/apk/:name", anyToken, pkgCtrl.DeleteFile)
	r.DELETE("/admin/apk-link/:name", anyToken, pkgCtrl.DeleteLink)
	r.GET("/api/apks", anyToken, pkgCtrl.List)
	r.GET("/download/:name", anyToken, pkgCtrl.Download)
	r.GET("/apks/files/:name", anyToken, pkgCtrl.Icon)

	r.NoRoute(pageCtrl.Fallback)
}
