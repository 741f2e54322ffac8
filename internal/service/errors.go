package service

import (
	"errors"

	"scribble/internal/models"
)

// validationMessage returns the message of a VALIDATION_ERROR AppError, or "".
func validationMessage(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeValidation {
		return appErr.Message
	}
	return ""
}
