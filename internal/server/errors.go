package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/job-matcher/internal/matching"
	"github.com/jonathan/job-matcher/internal/recommend"
)

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrForbidden indicates the actor lacks permission for the operation.
type ErrForbidden struct{}

func (e *ErrForbidden) Error() string {
	return "admin role required"
}

// HTTPStatus returns the appropriate HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		validation    *ErrValidation
		recValidation *recommend.ErrValidation
		forbidden     *ErrForbidden
		jobNotFound   *matching.ErrJobNotFound
		profNotFound  *matching.ErrProfileNotFound
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &recValidation):
		return http.StatusBadRequest
	case errors.As(err, &forbidden):
		return http.StatusForbidden
	case errors.As(err, &jobNotFound), errors.As(err, &profNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
