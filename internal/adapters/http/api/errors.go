package api

import (
	"errors"
	"net/http"

	repository "github.com/okian/boared/internal/adapters/repository"
	service "github.com/okian/boared/internal/app"
	"github.com/okian/boared/internal/domain/rating"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
)

// classify maps an upstream error to an HTTP status and an error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, rating.ErrInvalidInput):
		return http.StatusUnprocessableEntity, "invalid_input"
	case errors.Is(err, service.ErrMemberNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, repository.ErrDuplicateGame), errors.Is(err, repository.ErrDuplicateSession):
		return http.StatusConflict, "conflict"
	case errors.Is(err, service.ErrInvalidLimit):
		return http.StatusBadRequest, "limit_exceeded"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, repository.ErrInvalidRecord),
		errors.Is(err, service.ErrTooFewMembers):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
