package mapping

import (
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/models"
)

func ToModelCoursePrice(d domain.CoursePrice) models.CoursePrice {
	var delivery *string
	if d.DeliveryType != nil {
		s := string(*d.DeliveryType)
		delivery = &s
	}
	return models.CoursePrice{
		CoursePriceID:     d.CoursePriceID,
		CourseID:          d.CourseID,
		BranchID:          d.BranchID,
		DeliveryType:      delivery,
		PricingMode:       string(d.PricingMode),
		Price:             d.Price,
		SessionPrice:      d.SessionPrice,
		SessionsCount:     d.SessionsCount,
		AllowInstallments: d.AllowInstallments,
		MinDownPayment:    d.MinDownPayment,
		MaxInstallments:   d.MaxInstallments,
		IsActive:          d.IsActive,
		AuditFields:       ToModelAuditFields(d.AuditFields),
	}
}

func ToDomainCoursePrice(m models.CoursePrice) domain.CoursePrice {
	var delivery *domain.DeliveryType
	if m.DeliveryType != nil {
		dt := domain.DeliveryType(*m.DeliveryType)
		delivery = &dt
	}
	return domain.CoursePrice{
		CoursePriceID:     m.CoursePriceID,
		CourseID:          m.CourseID,
		BranchID:          m.BranchID,
		DeliveryType:      delivery,
		PricingMode:       domain.PricingMode(m.PricingMode),
		Price:             m.Price,
		SessionPrice:      m.SessionPrice,
		SessionsCount:     m.SessionsCount,
		AllowInstallments: m.AllowInstallments,
		MinDownPayment:    m.MinDownPayment,
		MaxInstallments:   m.MaxInstallments,
		IsActive:          m.IsActive,
		AuditFields:       ToDomainAuditFields(m.AuditFields),
	}
}
