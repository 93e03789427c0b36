package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPayment_BelongsTo(t *testing.T) {
	withEnrollment := Invoice{InvoiceID: 1, EnrollmentID: Int64Ptr(7)}
	noEnrollment := Invoice{InvoiceID: 2}

	tests := []struct {
		name    string
		payment Payment
		invoice Invoice
		want    bool
	}{
		{"same invoice id", Payment{InvoiceID: Int64Ptr(1)}, withEnrollment, true},
		{"other invoice id wins over matching enrollment", Payment{InvoiceID: Int64Ptr(3), EnrollmentID: Int64Ptr(7)}, withEnrollment, false},
		{"same enrollment without invoice id", Payment{EnrollmentID: Int64Ptr(7)}, withEnrollment, true},
		{"other enrollment", Payment{EnrollmentID: Int64Ptr(8)}, withEnrollment, false},
		{"enrollment payment on invoice without enrollment", Payment{EnrollmentID: Int64Ptr(99)}, noEnrollment, false},
		{"unlinked payment", Payment{}, withEnrollment, false},
		{"unlinked payment on invoice without enrollment", Payment{}, noEnrollment, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.payment.BelongsTo(tt.invoice))
		})
	}
}
