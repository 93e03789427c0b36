package models

import "github.com/SscSPs/course_billing_engine/internal/core/money"

// CoursePrice mirrors the course_prices table.
type CoursePrice struct {
	CoursePriceID     int64        `db:"course_price_id"`
	CourseID          int64        `db:"course_id"`
	BranchID          *int64       `db:"branch_id"`
	DeliveryType      *string      `db:"delivery_type"`
	PricingMode       string       `db:"pricing_mode"`
	Price             money.Amount `db:"price"`
	SessionPrice      money.Amount `db:"session_price"`
	SessionsCount     int          `db:"sessions_count"`
	AllowInstallments bool         `db:"allow_installments"`
	MinDownPayment    money.Amount `db:"min_down_payment"`
	MaxInstallments   int          `db:"max_installments"`
	IsActive          bool         `db:"is_active"`
	AuditFields
}
