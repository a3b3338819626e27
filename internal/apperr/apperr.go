package apperr

import (
	"errors"
	"net/http"
)

var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrDuplicateName        = errors.New("package name already exists")
	ErrNotFound             = errors.New("not found")
	ErrSelfDeleteForbidden  = errors.New("cannot delete your own account")
	ErrInvalidURL           = errors.New("invalid url")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrInvalidInput         = errors.New("invalid input")
	ErrPayloadTooLarge      = errors.New("file too large")
)

var statuses = []struct {
	err    error
	status int
}{
	{ErrUnauthorized, http.StatusUnauthorized},
	{ErrInvalidCredentials, http.StatusUnauthorized},
	{ErrForbidden, http.StatusForbidden},
	{ErrNotFound, http.StatusNotFound},
	{ErrDuplicateEmail, http.StatusBadRequest},
	{ErrDuplicateName, http.StatusBadRequest},
	{ErrSelfDeleteForbidden, http.StatusBadRequest},
	{ErrInvalidURL, http.StatusBadRequest},
	{ErrUnsupportedMediaType, http.StatusBadRequest},
	{ErrInvalidInput, http.StatusBadRequest},
	{ErrPayloadTooLarge, http.StatusBadRequest},
}

// Status returns the HTTP status for err and whether err belongs to the known
// taxonomy. Unknown errors map to 500.
func Status(err error) (int, bool) {
	for _, s := range statuses {
		if errors.Is(err, s.err) {
			return s.status, true
		}
	}
	return http.StatusInternalServerError, false
}
