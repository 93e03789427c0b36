package accounting

import (
	"fmt"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	"github.com/samber/lo"
)

// ScheduleInput describes an installment plan for an amount.
type ScheduleInput struct {
	Total           money.Amount
	DownPayment     money.Amount
	Installments    int
	Interval        domain.Interval
	StartDate       time.Time
	MaxInstallments int // 0 disables the cap
}

// ScheduleLine is one row of a computed schedule.
type ScheduleLine struct {
	InstallmentNo int          `json:"installmentNo"`
	Amount        money.Amount `json:"amount"`
	DueDate       time.Time    `json:"dueDate"`
	IsDownPayment bool         `json:"isDownPayment"`
}

// ValidateSchedule checks plan inputs without computing anything.
func ValidateSchedule(in ScheduleInput) error {
	if !in.Total.IsPositive() {
		return fmt.Errorf("%w: schedule total must be positive", apperrors.ErrValidation)
	}
	if in.DownPayment.IsNegative() {
		return fmt.Errorf("%w: down payment cannot be negative", apperrors.ErrValidation)
	}
	if in.DownPayment.GreaterThan(in.Total) {
		return fmt.Errorf("%w: down payment %s exceeds invoice total %s", apperrors.ErrValidation, in.DownPayment, in.Total)
	}
	if in.Installments < 1 {
		return fmt.Errorf("%w: number of installments must be at least 1", apperrors.ErrValidation)
	}
	if in.MaxInstallments > 0 && in.Installments > in.MaxInstallments {
		return fmt.Errorf("%w: number of installments %d exceeds maximum %d", apperrors.ErrValidation, in.Installments, in.MaxInstallments)
	}
	if in.Interval != domain.Monthly && in.Interval != domain.Weekly {
		return fmt.Errorf("%w: unknown installment interval %q", apperrors.ErrValidation, in.Interval)
	}
	if in.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", apperrors.ErrValidation)
	}
	return nil
}

// BuildSchedule computes the installment rows for a plan. A positive down payment
// becomes row #1 due at now. The financed remainder is split into n equal shares
// rounded to three digits; the last share absorbs the rounding remainder so the rows
// always sum to Total exactly.
func BuildSchedule(in ScheduleInput, now time.Time) ([]ScheduleLine, error) {
	if err := ValidateSchedule(in); err != nil {
		return nil, err
	}

	lines := make([]ScheduleLine, 0, in.Installments+1)
	if in.DownPayment.IsPositive() {
		lines = append(lines, ScheduleLine{
			InstallmentNo: 1,
			Amount:        in.DownPayment,
			DueDate:       now,
			IsDownPayment: true,
		})
	}

	financed := in.Total.Sub(in.DownPayment)
	if financed.IsZero() {
		return lines, nil
	}

	n := in.Installments
	share := financed.Div(int64(n))
	last := financed.Sub(share.Mul(int64(n - 1)))
	if !share.IsPositive() || !last.IsPositive() {
		return nil, fmt.Errorf("%w: financed amount %s is too small to split into %d installments", apperrors.ErrValidation, financed, n)
	}

	offset := len(lines)
	lines = append(lines, lo.Times(n, func(i int) ScheduleLine {
		amount := share
		if i == n-1 {
			amount = last
		}
		return ScheduleLine{
			InstallmentNo: offset + i + 1,
			Amount:        amount,
			DueDate:       AddInterval(in.StartDate, in.Interval, i),
		}
	})...)

	return lines, nil
}

// AddInterval advances start by k intervals. Monthly steps keep the day of month,
// clamped to the last day of shorter months (Jan 31 -> Feb 28 -> Mar 31).
func AddInterval(start time.Time, interval domain.Interval, k int) time.Time {
	if interval == domain.Weekly {
		return start.AddDate(0, 0, 7*k)
	}
	y, m, d := start.Date()
	lastDay := time.Date(y, m+time.Month(k)+1, 0, 0, 0, 0, 0, start.Location()).Day()
	return time.Date(y, m+time.Month(k), min(d, lastDay), start.Hour(), start.Minute(), start.Second(), start.Nanosecond(), start.Location())
}
