package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstallment_ApplyPartialThenFull(t *testing.T) {
	inst := Installment{Amount: money.MustParse("250"), Status: InstallmentPending}

	applied := inst.Apply(money.MustParse("100"))
	assert.Equal(t, "100.000", applied.String())
	assert.Equal(t, InstallmentPending, inst.Status)
	assert.Equal(t, "150.000", inst.Outstanding().String())

	applied = inst.Apply(money.MustParse("400"))
	assert.Equal(t, "150.000", applied.String())
	assert.Equal(t, InstallmentPaid, inst.Status)
	assert.True(t, inst.Outstanding().IsZero())

	assert.True(t, inst.Apply(money.MustParse("1")).IsZero())
}

func TestInstallment_MarkOverdue(t *testing.T) {
	now := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		inst    Installment
		changed bool
	}{
		{"pending past due", Installment{Status: InstallmentPending, DueDate: now.AddDate(0, 0, -1)}, true},
		{"pending due exactly now", Installment{Status: InstallmentPending, DueDate: now}, false},
		{"pending future", Installment{Status: InstallmentPending, DueDate: now.AddDate(0, 1, 0)}, false},
		{"paid past due", Installment{Status: InstallmentPaid, DueDate: now.AddDate(0, -1, 0)}, false},
		{"already overdue", Installment{Status: InstallmentOverdue, DueDate: now.AddDate(0, -1, 0)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := tt.inst
			assert.Equal(t, tt.changed, inst.MarkOverdue(now))
			assert.False(t, inst.MarkOverdue(now), "second call must be a no-op")
		})
	}
}

func TestParseInterval(t *testing.T) {
	got, err := ParseInterval(" Monthly ")
	assert.NoError(t, err)
	assert.Equal(t, Monthly, got)

	_, err = ParseInterval("daily")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestInterval_UnmarshalJSON(t *testing.T) {
	var req struct {
		Interval Interval `json:"interval"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"interval":"WEEKLY"}`), &req))
	assert.Equal(t, Weekly, req.Interval)

	err := json.Unmarshal([]byte(`{"interval":"daily"}`), &req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	err = json.Unmarshal([]byte(`{"interval":3}`), &req)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
