package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var fieldNames = map[string]string{
	"Title":     "title",
	"Type":      "type",
	"Start":     "start",
	"End":       "end",
	"TrainerID": "trainer_id",
	"Status":    "status",
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

// validateStruct runs the struct tags of payload and collects the failures
// into vErr.
func validateStruct(v *validator.Validate, payload any, vErr *ValidationError) {
	err := v.Struct(payload)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("payload", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		vErr.add(fieldName(fe.StructField()), describe(fe))
	}
}

func fieldName(structField string) string {
	if name, ok := fieldNames[structField]; ok {
		return name
	}
	return strings.ToLower(structField)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldName(fe.StructField()))
	case "gtfield":
		return "end must be after start"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min":
		return "must not be empty"
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}
