package domain

import (
	"testing"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/stretchr/testify/assert"
)

func TestDeliveryTypesFor(t *testing.T) {
	tests := []struct {
		in      RegistrationType
		want    []DeliveryType
		wantErr bool
	}{
		{"onsite", []DeliveryType{DeliveryOnsite}, false},
		{"Online", []DeliveryType{DeliveryOnline, DeliveryVirtual}, false},
		{"hybrid", []DeliveryType{DeliveryHybrid}, false},
		{"", nil, false},
		{"carrier-pigeon", nil, true},
	}
	for _, tt := range tests {
		t.Run(string(tt.in), func(t *testing.T) {
			got, err := DeliveryTypesFor(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoursePrice_InstallmentsAllowed(t *testing.T) {
	tests := []struct {
		mode  PricingMode
		allow bool
		want  bool
	}{
		{PricingCourseTotal, true, true},
		{PricingBoth, true, true},
		{PricingCourseTotal, false, false},
		{PricingPerSession, true, false},
		{PricingPerSession, false, false},
	}
	for _, tt := range tests {
		p := CoursePrice{PricingMode: tt.mode, AllowInstallments: tt.allow}
		assert.Equal(t, tt.want, p.InstallmentsAllowed(), "mode=%s allow=%v", tt.mode, tt.allow)
	}
}
