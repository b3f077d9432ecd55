package domain

import (
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate carries the struct-tag rules shared by the record factories. It is
// configured once at init; RegisterValidation only errors on empty names or
// nil functions, neither of which can happen here.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("httpurl", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil {
			return false
		}
		return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
	})
	return v
}

// ValidateStruct runs struct-tag validation and converts the first violation
// into a ValidationError for the named entity.
func ValidateStruct(entity string, s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		return &ValidationError{
			Entity: entity,
			Field:  strings.ToLower(fe.Field()),
			Reason: reasonForTag(fe),
		}
	}
	return &ValidationError{Entity: entity, Field: "?", Reason: err.Error()}
}

func reasonForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "max":
		return "exceeds maximum length " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "gt":
		return "must be > " + fe.Param()
	case "httpurl":
		return "must begin with http:// or https://"
	case "oneof":
		return "must be one of " + fe.Param()
	}
	return "failed rule " + fe.Tag()
}
