package validator

import (
	"sync"

	"github.com/go-playground/validator/v10"

	ierr "github.com/datapass/datapass/internal/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateRequest validates a request struct against its validate tags.
func ValidateRequest(req any) error {
	if err := getValidator().Struct(req); err != nil {
		return ierr.WithError(err).
			WithHint("Invalid request parameters").
			Mark(ierr.ErrValidation)
	}
	return nil
}
