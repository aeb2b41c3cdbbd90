package validator

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground validator
type Validator struct {
	validate *validator.Validate
}

// ValidationError represents a single failed field
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

var phonePattern = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)

// New creates a new validator instance
func New() *Validator {
	v := validator.New()

	// Report fields by their json names
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})

	return &Validator{validate: v}
}

// Validate validates a struct
func (v *Validator) Validate(i interface{}) []ValidationError {
	var validationErrors []ValidationError

	err := v.validate.Struct(i)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []ValidationError{{Message: err.Error()}}
	}

	for _, fe := range fieldErrs {
		value := fmt.Sprintf("%v", fe.Value())
		if strings.Contains(strings.ToLower(fe.Field()), "password") {
			value = ""
		}
		validationErrors = append(validationErrors, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   value,
			Message: msgForTag(fe),
		})
	}

	return validationErrors
}

// ValidateVar validates a single variable
func (v *Validator) ValidateVar(field interface{}, tag string) error {
	return v.validate.Var(field, tag)
}

func msgForTag(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s é obrigatório", field)
	case "email":
		return fmt.Sprintf("%s deve ser um email válido", field)
	case "min":
		return fmt.Sprintf("%s deve ter no mínimo %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s deve ter no máximo %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s deve ser um de [%s]", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s deve ser maior ou igual a %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s deve ser menor ou igual a %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s deve ser maior que %s", field, fe.Param())
	case "datetime":
		return fmt.Sprintf("%s deve seguir o formato %s", field, fe.Param())
	case "phone":
		return fmt.Sprintf("%s deve ser um número de telefone válido", field)
	default:
		return fmt.Sprintf("%s falhou na validação %s", field, fe.Tag())
	}
}
