package dto

import (
	"fmt"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Money bounds compare decimals; amount_gt=0 and amount_gte=0 replace gt/gte on money.Amount.
	mustRegister(v, "amount_gt", amountBound(func(c int) bool { return c > 0 }))
	mustRegister(v, "amount_gte", amountBound(func(c int) bool { return c >= 0 }))
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s validation: %v", tag, err))
	}
}

// amountBound compares a money.Amount field with the tag parameter; ok receives the
// result of field.Cmp(param).
func amountBound(ok func(cmp int) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		a, isAmount := fl.Field().Interface().(money.Amount)
		if !isAmount {
			return false
		}
		bound, err := decimal.NewFromString(fl.Param())
		if err != nil {
			return false
		}
		return ok(a.Decimal().Cmp(bound))
	}
}

// Validate runs struct tag validation and wraps failures as validation errors.
func Validate(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return nil
}
