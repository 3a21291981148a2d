package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
)

// notFound yields e.g. "module not found", still matching ErrNotFound.
func notFound(entity string) error {
	return fmt.Errorf("%s %w", entity, ErrNotFound)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// findByID loads one row by primary key. Malformed ids resolve to not found
// rather than a driver error.
func findByID[T any](tx *gorm.DB, id, entity string) (*T, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound(entity)
	}
	var row T
	if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound(entity)
		}
		return nil, err
	}
	return &row, nil
}
