package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaqqye/apkhub_backend/internal/apperr"
)

// Success writes {"success": true} merged with fields.
func Success(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// Error converts err into the failure envelope. Errors outside the apperr
// taxonomy are logged and reported as a generic internal error.
func Error(c *gin.Context, log *zap.Logger, err error) {
	status, known := apperr.Status(err)
	if !known {
		if log != nil {
			log.Error("request failed",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Any("request_id", c.Value(RequestIDKey)),
				zap.Error(err),
			)
		}
		Fail(c, status, "internal error")
		return
	}
	Fail(c, status, Message(err))
}

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Message is the client-facing text of a taxonomy error: the wrapped detail
// for validation errors, the sentinel text otherwise.
func Message(err error) string {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput),
		errors.Is(err, apperr.ErrUnsupportedMediaType),
		errors.Is(err, apperr.ErrInvalidURL):
		return err.Error()
	case errors.Is(err, apperr.ErrUnauthorized):
		return apperr.ErrUnauthorized.Error()
	case errors.Is(err, apperr.ErrForbidden):
		return err.Error()
	}
	for _, sentinel := range []error{
		apperr.ErrInvalidCredentials,
		apperr.ErrDuplicateEmail,
		apperr.ErrDuplicateName,
		apperr.ErrNotFound,
		apperr.ErrSelfDeleteForbidden,
		apperr.ErrPayloadTooLarge,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
