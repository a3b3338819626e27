package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
	"github.com/zaqqye/apkhub_backend/internal/models"
	"github.com/zaqqye/apkhub_backend/internal/response"
	"github.com/zaqqye/apkhub_backend/internal/token"
)

const claimsKey = "claims"

// Permission is the closed set of route gates.
type Permission int

const (
	// Authenticated accepts any valid token, user or admin.
	Authenticated Permission = iota
	// Owner accepts only tokens of a still existing owner account.
	Owner
)

type OwnerChecker interface {
	IsOwner(email string) (bool, error)
}

type AuthConfig struct {
	Issuer *token.Issuer
	Owners OwnerChecker
	Log    *zap.Logger
}

// TokenFromRequest reads "Authorization: Bearer <token>" and falls back to
// the token query parameter used by download links and image tags.
func TokenFromRequest(c *gin.Context) string {
	auth := strings.TrimSpace(c.GetHeader("Authorization"))
	if auth != "" {
		if len(auth) > len("bearer ") && strings.EqualFold(auth[:len("bearer ")], "bearer ") {
			return strings.TrimSpace(auth[len("bearer "):])
		}
		return ""
	}
	return strings.TrimSpace(c.Query("token"))
}

// Require aborts with 401 when no valid token is presented and with 403 when
// the token lacks perm.
func Require(perm Permission, cfg AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := cfg.Issuer.Parse(TokenFromRequest(c))
		if err != nil {
			response.Error(c, cfg.Log, err)
			return
		}
		if perm == Owner {
			if err := checkOwner(cfg.Owners, claims); err != nil {
				response.Error(c, cfg.Log, err)
				return
			}
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

func checkOwner(owners OwnerChecker, claims *token.Claims) error {
	if claims.Role != models.RoleOwner {
		return fmt.Errorf("%w: owner role required", apperr.ErrForbidden)
	}
	ok, err := owners.IsOwner(claims.Email)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: owner role required", apperr.ErrForbidden)
	}
	return nil
}

// ClaimsFrom returns the claims stored by Require.
func ClaimsFrom(c *gin.Context) *token.Claims {
	v, ok := c.Get(claimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*token.Claims)
	return claims
}
