package repositories

import (
	"context"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
)

// CoursePriceReader lists pricing candidates for a course.
type CoursePriceReader interface {
	// ListActiveCoursePrices returns every active price row of the course, at any specificity.
	ListActiveCoursePrices(ctx context.Context, courseID int64) ([]domain.CoursePrice, error)
}

// CoursePriceWriter exists for setup flows.
type CoursePriceWriter interface {
	SaveCoursePrice(ctx context.Context, price domain.CoursePrice) (*domain.CoursePrice, error)
}

// CoursePriceRepositoryFacade combines all price-related repository interfaces
type CoursePriceRepositoryFacade interface {
	CoursePriceReader
	CoursePriceWriter
}

// SettingsReader looks up named configuration values such as default account codes.
type SettingsReader interface {
	// GetSetting returns the value and whether it is set.
	GetSetting(ctx context.Context, key string) (string, bool, error)
}
