package services

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/dto"
)

// PriceResolverSvc picks the single applicable price for a course.
type PriceResolverSvc interface {
	// Resolve returns the most specific active price. found is false when no tier
	// matches; that is not an error.
	Resolve(ctx context.Context, q dto.PriceQuery) (price *domain.CoursePrice, found bool, err error)
}

// PricingPolicySvc answers questions about the payment options a price offers.
type PricingPolicySvc interface {
	// AllowsInstallments is true only for course-total pricing with installments enabled.
	AllowsInstallments(ctx context.Context, q dto.PriceQuery) (bool, error)

	// ValidatePricingChoice checks a chosen payment option; incompatibility is reported
	// in the result, never as an error.
	ValidatePricingChoice(ctx context.Context, courseID int64, req dto.PricingChoiceRequest) (*domain.PricingChoiceResult, error)
}

// PriceResolverSvcFacade combines all pricing service interfaces
type PriceResolverSvcFacade interface {
	PriceResolverSvc
	PricingPolicySvc
}
