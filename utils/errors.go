package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("conflict")
	ErrValidation = errors.New("validation failed")
)

// NotFoundError reports a missing resource. It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func NewNotFound(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// Validationf wraps ErrValidation with a client-facing message.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// RespondError maps service errors onto the response envelope.
func RespondError(c *gin.Context, err error) {
	var nf *NotFoundError
	switch {
	case errors.As(err, &nf):
		NotFound(c, nf.Error())
	case errors.Is(err, ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, ErrForbidden):
		ErrorResponse(c, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrConflict):
		ErrorResponse(c, http.StatusConflict, err.Error())
	case errors.Is(err, ErrValidation):
		BadRequest(c, err.Error())
	default:
		Logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		InternalError(c, "Something went wrong")
	}
}
