package handler

import (
	"errors"

	"g2-yoyodex/internal/annotation"
	"g2-yoyodex/internal/query"
	"g2-yoyodex/internal/service"
	"g2-yoyodex/pkg/apierror"
)

// apiError maps domain errors onto API errors. Anything unrecognised is
// returned unchanged and ends up as a 500.
func apiError(err error) error {
	switch {
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrModelNotFound),
		errors.Is(err, service.ErrSessionNotFound):
		return apierror.NotFound(err.Error())
	case errors.Is(err, service.ErrInvalidSession),
		errors.Is(err, service.ErrTooManyModels),
		errors.Is(err, annotation.ErrUnknownFlag),
		errors.Is(err, query.ErrUnknownAction),
		errors.Is(err, query.ErrInvalidAction):
		return apierror.BadRequest(err.Error())
	}
	return err
}
