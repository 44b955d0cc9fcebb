package service

import (
	"database/sql"
	"errors"
	"time"

	"github.com/noah-isme/institute-api/internal/repository"
	appErrors "github.com/noah-isme/institute-api/pkg/errors"
	"github.com/noah-isme/institute-api/pkg/validation"
)

const dateLayout = "2006-01-02"

func validationError(err error) error {
	return appErrors.WithDetails(appErrors.ErrValidation, validation.FieldErrors(err))
}

func fieldError(field, message string) error {
	return appErrors.WithDetails(appErrors.ErrValidation, map[string]string{field: message})
}

// lookupError maps a repository read failure to not-found or internal.
func lookupError(err error, entity string) error {
	var appErr *appErrors.Error
	switch {
	case errors.Is(err, sql.ErrNoRows), errors.Is(err, repository.ErrSessionNotFound):
		return appErrors.Clone(appErrors.ErrNotFound, entity+" not found")
	case errors.As(err, &appErr):
		return appErr
	default:
		return appErrors.Internal(err, "failed to load "+entity)
	}
}

func parseDate(raw, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fieldError(field, field+" must be a date in YYYY-MM-DD format")
	}
	return t, nil
}
