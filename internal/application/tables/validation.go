package tables

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/pvp-api/internal/application/dto"
	"github.com/jhoicas/pvp-api/internal/domain"
)

// ValidationError errores por fila y campo. errors.Is(err, domain.ErrInvalidInput) es true.
type ValidationError struct {
	Fields []dto.FieldError
}

func newValidationError(fields ...dto.FieldError) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Row >= 0 {
			parts = append(parts, fmt.Sprintf("fila %d %s: %s", f.Row, f.Field, f.Message))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
		}
	}
	return domain.ErrInvalidInput.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return domain.ErrInvalidInput }

var validate = newValidate()

// newValidate configura validator/v10: nombres de campo desde el tag json,
// NullDecimal como *float64 (nil si vacío) y la regla notblank.
func newValidate() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		d, ok := field.Interface().(decimal.NullDecimal)
		if !ok || !d.Valid {
			return (*float64)(nil)
		}
		f := d.Decimal.InexactFloat64()
		return &f
	}, decimal.NullDecimal{})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// rowErrors acumula los errores de validación de una lista de filas.
type rowErrors struct {
	fields []dto.FieldError
}

func (r *rowErrors) add(row int, field, msg string) {
	r.fields = append(r.fields, dto.FieldError{Row: row, Field: field, Message: msg})
}

// check valida s con sus tags. row < 0 para valores que no son filas.
func (r *rowErrors) check(row int, s interface{}) {
	err := validate.Struct(s)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		r.add(row, "", err.Error())
		return
	}
	for _, fe := range verrs {
		r.add(row, fe.Field(), fieldMessage(fe))
	}
}

func (r *rowErrors) err() error {
	if len(r.fields) == 0 {
		return nil
	}
	return newValidationError(r.fields...)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "obligatorio"
	case "gte":
		return "debe ser mayor o igual que " + fe.Param()
	case "gt":
		return "debe ser mayor que " + fe.Param()
	case "lte":
		return "debe ser menor o igual que " + fe.Param()
	case "lt":
		return "debe ser menor que " + fe.Param()
	default:
		return "no válido (" + fe.Tag() + ")"
	}
}
