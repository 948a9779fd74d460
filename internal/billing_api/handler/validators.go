package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/residential-billing-ledger/internal/domain/ledger"
	"github.com/residential-billing-ledger/internal/domain/resident"
	"github.com/residential-billing-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// RegisterValidators installs the billing tags on gin's validator engine. Decimal fields
// are validated through their string form.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding validator is not go-playground/validator")
	}
	return registerOn(v)
}

func registerOn(v *validator.Validate) error {
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	validations := map[string]validator.Func{
		"rate_frequency":  validRateFrequency,
		"entry_type":      validEntryType,
		"resident_status": validResidentStatus,
		"positive_amount": validPositiveAmount,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}

func validRateFrequency(fl validator.FieldLevel) bool {
	_, err := resident.ParseFrequency(fl.Field().String())
	return err == nil
}

func validEntryType(fl validator.FieldLevel) bool {
	_, err := ledger.ParseEntryType(fl.Field().String())
	return err == nil
}

func validResidentStatus(fl validator.FieldLevel) bool {
	_, err := resident.ParseStatus(fl.Field().String())
	return err == nil
}

func validPositiveAmount(fl validator.FieldLevel) bool {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return false
	}
	return shared.ValidatePositiveAmount("amount", d) == nil
}

// bindingErrorMessage turns validator errors into "field: rule" pairs using JSON names.
func bindingErrorMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body: " + err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s failed %s", toSnake(fe.Field()), fe.Tag()))
	}
	return "Invalid request: " + strings.Join(parts, ", ")
}

func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
