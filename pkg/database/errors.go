package database

import (
	"errors"
	"fmt"

	"github.com/emmanuel-Sabato/ThePlanetScholarService-sub001/pkg/apperror"
	"gorm.io/gorm"
)

// ErrDuplicateKey is returned when an insert or update hits a unique index.
var ErrDuplicateKey = errors.New("duplicate key")

// TranslateError maps gorm errors onto the application error taxonomy.
func TranslateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperror.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	case errors.Is(err, apperror.ErrNotFound), errors.Is(err, apperror.ErrStorageUnavailable):
		return err
	default:
		return fmt.Errorf("%w: %v", apperror.ErrStorageUnavailable, err)
	}
}
