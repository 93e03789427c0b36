package domain

import (
	"fmt"
	"strings"

	"github.com/SscSPs/course_billing_engine/internal/apperrors"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// PricingMode says how a course is charged.
type PricingMode string

const (
	PricingCourseTotal PricingMode = "course_total"
	PricingPerSession  PricingMode = "per_session"
	PricingBoth        PricingMode = "both"
)

// DeliveryType is the stored delivery category on a price row.
type DeliveryType string

const (
	DeliveryOnsite  DeliveryType = "Onsite"
	DeliveryOnline  DeliveryType = "Online"
	DeliveryVirtual DeliveryType = "Virtual"
	DeliveryHybrid  DeliveryType = "Hybrid"
)

// RegistrationType is the delivery intent a student registers with.
type RegistrationType string

const (
	RegisterOnsite RegistrationType = "onsite"
	RegisterOnline RegistrationType = "online"
	RegisterHybrid RegistrationType = "hybrid"
)

var registrationDeliveryTypes = map[RegistrationType][]DeliveryType{
	RegisterOnsite: {DeliveryOnsite},
	RegisterOnline: {DeliveryOnline, DeliveryVirtual},
	RegisterHybrid: {DeliveryHybrid},
}

// DeliveryTypesFor maps a registration intent to the stored delivery categories it
// matches, in preference order. An empty intent maps to nil (delivery not specified).
func DeliveryTypesFor(reg RegistrationType) ([]DeliveryType, error) {
	normalized := RegistrationType(strings.ToLower(strings.TrimSpace(string(reg))))
	if normalized == "" {
		return nil, nil
	}
	types, ok := registrationDeliveryTypes[normalized]
	if !ok {
		return nil, fmt.Errorf("%w: unknown registration type %q", apperrors.ErrValidation, reg)
	}
	return types, nil
}

// CoursePrice is one pricing row. Several rows may exist per course at different
// specificity levels (branch and/or delivery type set or null).
type CoursePrice struct {
	CoursePriceID     int64         `json:"coursePriceID"`
	CourseID          int64         `json:"courseID"`
	BranchID          *int64        `json:"branchID,omitempty"`
	DeliveryType      *DeliveryType `json:"deliveryType,omitempty"`
	PricingMode       PricingMode   `json:"pricingMode"`
	Price             money.Amount  `json:"price"`
	SessionPrice      money.Amount  `json:"sessionPrice"`
	SessionsCount     int           `json:"sessionsCount"`
	AllowInstallments bool          `json:"allowInstallments"`
	MinDownPayment    money.Amount  `json:"minDownPayment"`
	MaxInstallments   int           `json:"maxInstallments"`
	IsActive          bool          `json:"isActive"`
	AuditFields
}

// SupportsCourseTotal reports whether the full-course price can be charged.
func (p CoursePrice) SupportsCourseTotal() bool {
	return p.PricingMode == PricingCourseTotal || p.PricingMode == PricingBoth
}

// SupportsPerSession reports whether per-session charging is offered.
func (p CoursePrice) SupportsPerSession() bool {
	return p.PricingMode == PricingPerSession || p.PricingMode == PricingBoth
}

// InstallmentsAllowed is true only for course-total pricing with the flag set;
// per-session pricing never allows installments.
func (p CoursePrice) InstallmentsAllowed() bool {
	return p.SupportsCourseTotal() && p.AllowInstallments
}

// ChosenMode is the payment option a student picks at enrollment.
type ChosenMode string

const (
	ChoiceFull        ChosenMode = "full"
	ChoicePerSession  ChosenMode = "per_session"
	ChoiceInstallment ChosenMode = "installment"
)

// PricingChoiceResult reports whether a payment option is compatible with the
// resolved price. Incompatibility is data, not an error.
type PricingChoiceResult struct {
	Valid  bool         `json:"valid"`
	Reason string       `json:"reason,omitempty"`
	Price  *CoursePrice `json:"price,omitempty"`
}
