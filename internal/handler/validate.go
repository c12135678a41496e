package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/growtools/backend/internal/domain"
)

var validate = validator.New()

// Valid runs struct-tag validation and converts the first failure into a
// 422 AppError.
func Valid(v interface{}) error {
	if err := validate.Struct(v); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			return domain.ErrValidation("invalid field: " + errs[0].Field())
		}
		return domain.ErrValidation("invalid request")
	}
	return nil
}
