package controllers

import (
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

// AuthController serves end-user signup, login and token verification.
type AuthController struct {
	Users   *services.UserService
	Tokens  *token.Issuer
	Metrics *metrics.Metrics
	Log     *zap.Logger
}

type signupRequest struct {
	Name     string         `json:"name" form:"name"`
	Email    string         `json:"email" form:"email"`
	Phone    FlexibleString `json:"phone" form:"phone"`
	Age      FlexibleString `json:"age" form:"age"`
	Password string         `json:"password" form:"password"`
}

type loginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

func (a *AuthController) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, a.Log, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	user, err := a.Users.Create(services.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone.String(),
		Age:      req.Age.String(),
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	tok, err := a.Tokens.IssueUser(user.Email, user.Name)
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	a.Log.Info("user signed up", zap.String("email", user.Email))
	response.Success(c, gin.H{"token": tok})
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Error(c, a.Log, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err))
		return
	}
	user, err := a.Users.Authenticate(req.Email, req.Password)
	a.Metrics.ObserveLogin("user", err == nil)
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	tok, err := a.Tokens.IssueUser(user.Email, user.Name)
	if err != nil {
		response.Error(c, a.Log, err)
		return
	}
	response.Success(c, gin.H{"token": tok})
}

// Verify reports the identity behind an optional token. An absent or invalid
// token is not an error here.
func (a *AuthController) Verify(c *gin.Context) {
	claims, err := a.Tokens.Parse(middleware.TokenFromRequest(c))
	if err != nil {
		response.Success(c, gin.H{"loggedIn": false})
		return
	}
	response.Success(c, gin.H{
		"loggedIn": true,
		"email":    claims.Email,
		"name":     claims.Name,
	})
}
