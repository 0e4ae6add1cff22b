package server

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/HerbHall/showcase/internal/services"
	"github.com/HerbHall/showcase/pkg/models"
)

// WriteStoreError maps a repository error to a problem response:
// validation failures are 400, missing records 404, duplicates 409 and
// anything else is logged and reported as 500.
func WriteStoreError(w http.ResponseWriter, logger *zap.Logger, err error, instance string) {
	switch {
	case errors.Is(err, models.ErrInvalid):
		BadRequest(w, err.Error(), instance)
	case errors.Is(err, services.ErrNotFound):
		NotFound(w, "not found", instance)
	case errors.Is(err, services.ErrAlreadyExists):
		Conflict(w, err.Error(), instance)
	default:
		logger.Error("store operation failed", zap.String("path", instance), zap.Error(err))
		InternalError(w, "internal error", instance)
	}
}
