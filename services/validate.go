package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// FieldError is one entry of the details list in a validation response
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
	Param string `json:"param,omitempty"`
}

// validateStruct runs the struct tags of req and turns failures into a 400 error
func validateStruct(req interface{}, message string) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Invalid(message)
	}
	details := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		details = append(details, FieldError{
			Field: ns[strings.Index(ns, ".")+1:],
			Rule:  fe.Tag(),
			Param: fe.Param(),
		})
	}
	return Invalid(message, details)
}

// validMoney reports whether d has at most two decimal places
func validMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func trimmed(s *string) {
	*s = strings.TrimSpace(*s)
}
