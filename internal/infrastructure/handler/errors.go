package handler

import (
	"errors"
	"net/http"

	"github.com/damon-houk/transaction-record-service/internal/application/service"
	"github.com/damon-houk/transaction-record-service/internal/domain/repository"
)

// errInvalidBody marks a request body that could not be decoded
var errInvalidBody = errors.New("invalid request body")

// statusForError maps a service or repository error to an HTTP status and a client-facing message
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, errInvalidBody):
		return http.StatusBadRequest, "Invalid request body"
	case errors.Is(err, service.ErrMissingIdentifier):
		return http.StatusBadRequest, "Transaction id is required"
	case errors.Is(err, service.ErrInvalidIdentifier):
		return http.StatusBadRequest, "Invalid transaction id format"
	case errors.Is(err, service.ErrInvalidField):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Transaction not found"
	case errors.Is(err, repository.ErrDuplicateID):
		return http.StatusConflict, "Transaction with this id already exists"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
