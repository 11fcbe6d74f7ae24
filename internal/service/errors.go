package service

import (
	"errors"
	"fmt"

	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/apperr"
	"github.com/PhongSEVN/Real-time-flood-monitoring-backend/internal/domain/repository"
)

// translateRepoErr turns repository sentinels into application errors and
// wraps anything else with op.
func translateRepoErr(err error, entityName, id, op string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperr.NotFound(entityName, id)
	case errors.Is(err, repository.ErrInvalidGeometry):
		return apperr.Wrap(apperr.KindInvalidArgument, "invalid geometry", err)
	case errors.Is(err, repository.ErrDuplicate):
		return apperr.Wrap(apperr.KindConflict, entityName+" already exists", err)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
