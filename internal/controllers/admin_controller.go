package controllers

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
	"github.com/zaqqye/apkhub_backend/internal/metrics"
	"github.com/zaqqye/apkhub_backend/internal/middleware"
	"github.com/zaqqye/apkhub_backend/internal/response"
	"github.com/zaqqye/apkhub_backend/internal/services"
	"github.com/zaqqye/apkhub_backend/internal/token"
)

type AdminController struct {
	Admins  *services.AdminService
	Tokens  *token.Issuer
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

type adminCredentials struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (a *AdminController) Login(c *gin.Context) {
	var req adminCredentials
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, a.Log, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	admin, err := a.Admins.Authenticate(req.Email, req.Password)
	a.Metrics.ObserveLogin("admin", err == nil)
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	tok, err := a.Tokens.IssueAdmin(admin.Email, admin.Role)
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	response.Success(c, gin.H{"token": tok, "role": admin.Role})
}

// Verify looks the token's email up in the admin store, so a deleted admin
// no longer verifies even while its token is unexpired.
func (a *AdminController) Verify(c *gin.Context) {
	claims, err := a.Tokens.Parse(middleware.TokenFromRequest(c))
	if err != nil || !IsAdminRole(claims.Role) {
		response.Success(c, gin.H{"isAdmin": false})
		return
	}
	admin, err := a.Admins.Get(claims.Email)
	if errors.Is(err, apperr.ErrNotFound) {
		response.Success(c, gin.H{"isAdmin": false})
		return
	}
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	response.Success(c, gin.H{
		"isAdmin": true,
		"role":    admin.Role,
		"email":   admin.Email,
	})
}

func (a *AdminController) Create(c *gin.Context) {
	var req adminCredentials
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, a.Log, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	actor := middleware.ClaimsFrom(c).Email
	created, err := a.Admins.Create(actor, req.Email, req.Password)
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	a.Log.Info("admin created", zap.String("email", created.Email), zap.String("by", actor))
	response.Success(c, gin.H{"message": "Admin created successfully"})
}

func (a *AdminController) List(c *gin.Context) {
	admins, err := a.Admins.List(middleware.ClaimsFrom(c).Email)
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	response.Success(c, gin.H{"admins": admins})
}

func (a *AdminController) Delete(c *gin.Context) {
	actor := middleware.ClaimsFrom(c).Email
	target := c.Param("email")
	if err := a.Admins.Delete(actor, target); err != nil {
		response.Error(c, a.Log, err)
		return
	}
	a.Log.Info("admin deleted", zap.String("email", target), zap.String("by", actor))
	response.Success(c, gin.H{"message": "Admin deleted successfully"})
}
