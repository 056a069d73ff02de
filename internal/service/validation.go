package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	appErrors "github.com/aquago/aquago-api/pkg/errors"
)

const missingFieldsMessage = "Please fill all the fields!"

// validationError turns validator output into a client-facing validation
// error. Missing required fields collapse into one generic message.
func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.Wrap(err, appErrors.KindValidation, appErrors.ErrValidation.Code, "Invalid payload")
	}
	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return appErrors.Wrap(err, appErrors.KindValidation, appErrors.ErrValidation.Code, missingFieldsMessage)
		}
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.Field())
	var msg string
	switch fe.Tag() {
	case "email":
		msg = "Invalid email address"
	case "oneof":
		msg = fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "latitude", "longitude":
		msg = fmt.Sprintf("%s is out of range", field)
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}
	return appErrors.Wrap(err, appErrors.KindValidation, appErrors.ErrValidation.Code, msg)
}

func notFound(message string) error {
	return appErrors.Clone(appErrors.ErrNotFound, message)
}

func badRequest(message string) error {
	return appErrors.Clone(appErrors.ErrValidation, message)
}

func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
