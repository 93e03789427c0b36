package dto

import (
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
)

// PriceQuery identifies the course/branch/delivery combination to price.
type PriceQuery struct {
	CourseID         int64                   `json:"courseID" validate:"required,gt=0"`
	BranchID         *int64                  `json:"branchID"`
	RegistrationType domain.RegistrationType `json:"deliveryType"`
}

// PricingChoiceRequest checks a payment option against the resolved price.
// DownPayment and Installments are checked against the price limits when given.
type PricingChoiceRequest struct {
	BranchID         *int64                  `json:"branchID"`
	RegistrationType domain.RegistrationType `json:"deliveryType"`
	Mode             domain.ChosenMode       `json:"mode" validate:"required,oneof=full per_session installment"`
	DownPayment      *money.Amount           `json:"downPayment"`
	Installments     *int                    `json:"installments" validate:"omitempty,gte=1"`
}

// InstallmentsAllowedResponse answers the installments-allowed query.
type InstallmentsAllowedResponse struct {
	CourseID int64 `json:"courseID"`
	Allowed  bool  `json:"allowed"`
}
