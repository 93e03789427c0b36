package dto

import (
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
)

// CreateAccountRequest defines the data needed to create a new chart-of-accounts node.
type CreateAccountRequest struct {
	Code          string               `json:"code" validate:"required,max=32"`
	Name          string               `json:"name" validate:"required,max=255"`
	AccountType   domain.AccountType   `json:"accountType" validate:"required,oneof=ASSET LIABILITY EQUITY REVENUE EXPENSE CONTRA_REVENUE"`
	NormalBalance domain.NormalBalance `json:"normalBalance" validate:"omitempty,oneof=DEBIT CREDIT"` // Defaults from the account type
	ParentCode    *string              `json:"parentCode"`
}

// ValidateAccountsRequest lists account codes to check.
type ValidateAccountsRequest struct {
	Codes []string `json:"codes" validate:"required,min=1,dive,required"`
}

// ValidateAccountsResponse reports which codes are missing or inactive.
type ValidateAccountsResponse struct {
	AllExist bool     `json:"allExist"`
	Missing  []string `json:"missing"`
}
