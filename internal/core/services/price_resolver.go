package services

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/dto"
	"github.com/samber/lo"
)

// priceTier is one level of the fallback chain. Tiers that match on delivery type
// are tried once per acceptable delivery type, in preference order.
type priceTier struct {
	name       string
	byDelivery bool
	match      func(p domain.CoursePrice, branchID *int64, delivery *domain.DeliveryType) bool
}

func sameBranch(p domain.CoursePrice, branchID *int64) bool {
	return branchID != nil && p.BranchID != nil && *p.BranchID == *branchID
}

func sameDelivery(p domain.CoursePrice, delivery *domain.DeliveryType) bool {
	return delivery != nil && p.DeliveryType != nil && *p.DeliveryType == *delivery
}

// priceTiers is ordered most specific first. The first tier with a candidate wins.
var priceTiers = []priceTier{
	{
		name:       "branch_delivery",
		byDelivery: true,
		match: func(p domain.CoursePrice, branchID *int64, delivery *domain.DeliveryType) bool {
			return sameBranch(p, branchID) && sameDelivery(p, delivery)
		},
	},
	{
		name: "branch",
		match: func(p domain.CoursePrice, branchID *int64, _ *domain.DeliveryType) bool {
			return sameBranch(p, branchID) && p.DeliveryType == nil
		},
	},
	{
		name:       "delivery",
		byDelivery: true,
		match: func(p domain.CoursePrice, _ *int64, delivery *domain.DeliveryType) bool {
			return p.BranchID == nil && sameDelivery(p, delivery)
		},
	},
	{
		name: "global",
		match: func(p domain.CoursePrice, _ *int64, _ *domain.DeliveryType) bool {
			return p.BranchID == nil && p.DeliveryType == nil
		},
	},
}

// selectPrice walks the tiers over candidates sorted by id, so ties inside a tier go
// to the oldest row.
func selectPrice(candidates []domain.CoursePrice, branchID *int64, deliveries []domain.DeliveryType) (*domain.CoursePrice, string) {
	slices.SortFunc(candidates, func(a, b domain.CoursePrice) int { return cmp.Compare(a.CoursePriceID, b.CoursePriceID) })

	for _, tier := range priceTiers {
		options := []*domain.DeliveryType{nil}
		if tier.byDelivery {
			options = lo.ToSlicePtr(deliveries)
		}
		for _, delivery := range options {
			if p, ok := lo.Find(candidates, func(p domain.CoursePrice) bool {
				return tier.match(p, branchID, delivery)
			}); ok {
				return &p, tier.name
			}
		}
	}
	return nil, ""
}

type priceResolverService struct {
	BaseService
	priceRepo portsrepo.CoursePriceReader
}

// NewPriceResolverService creates the price resolver. priceRepo may be a cache in
// front of the database.
func NewPriceResolverService(priceRepo portsrepo.CoursePriceReader, options ...ServiceOption) portssvc.PriceResolverSvcFacade {
	svc := &priceResolverService{priceRepo: priceRepo}
	svc.apply(options)
	return svc
}

var _ portssvc.PriceResolverSvcFacade = (*priceResolverService)(nil)

func (s *priceResolverService) Resolve(ctx context.Context, q dto.PriceQuery) (*domain.CoursePrice, bool, error) {
	if err := dto.Validate(q); err != nil {
		return nil, false, err
	}
	deliveries, err := domain.DeliveryTypesFor(q.RegistrationType)
	if err != nil {
		return nil, false, err
	}

	rows, err := s.priceRepo.ListActiveCoursePrices(ctx, q.CourseID)
	if err != nil {
		s.LogError(ctx, err, "Failed to list course prices", slog.Int64("course_id", q.CourseID))
		return nil, false, fmt.Errorf("failed to list prices for course %d: %w", q.CourseID, err)
	}
	candidates := lo.Filter(rows, func(p domain.CoursePrice, _ int) bool {
		return p.IsActive && p.CourseID == q.CourseID
	})

	price, tier := selectPrice(candidates, q.BranchID, deliveries)
	if price == nil {
		s.Metrics.PriceResolved("none")
		s.LogDebug(ctx, "No price matched", slog.Int64("course_id", q.CourseID))
		return nil, false, nil
	}

	s.Metrics.PriceResolved(tier)
	s.LogDebug(ctx, "Price resolved",
		slog.Int64("course_id", q.CourseID),
		slog.Int64("course_price_id", price.CoursePriceID),
		slog.String("tier", tier))
	return price, true, nil
}

func (s *priceResolverService) AllowsInstallments(ctx context.Context, q dto.PriceQuery) (bool, error) {
	price, found, err := s.Resolve(ctx, q)
	if err != nil || !found {
		return false, err
	}
	return price.InstallmentsAllowed(), nil
}

func (s *priceResolverService) ValidatePricingChoice(ctx context.Context, courseID int64, req dto.PricingChoiceRequest) (*domain.PricingChoiceResult, error) {
	if err := dto.Validate(req); err != nil {
		return nil, err
	}
	price, found, err := s.Resolve(ctx, dto.PriceQuery{
		CourseID:         courseID,
		BranchID:         req.BranchID,
		RegistrationType: req.RegistrationType,
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return &domain.PricingChoiceResult{Reason: fmt.Sprintf("no active price for course %d", courseID)}, nil
	}

	reject := func(format string, args ...any) (*domain.PricingChoiceResult, error) {
		return &domain.PricingChoiceResult{Reason: fmt.Sprintf(format, args...), Price: price}, nil
	}

	switch req.Mode {
	case domain.ChoiceFull:
		if !price.SupportsCourseTotal() {
			return reject("course is priced per session only")
		}
	case domain.ChoicePerSession:
		if !price.SupportsPerSession() {
			return reject("course does not offer per-session pricing")
		}
	case domain.ChoiceInstallment:
		if !price.SupportsCourseTotal() {
			return reject("installments are not available for per-session pricing")
		}
		if !price.AllowInstallments {
			return reject("installments are disabled for this course")
		}
		if req.DownPayment != nil {
			if req.DownPayment.LessThan(price.MinDownPayment) {
				return reject("down payment %s is below the minimum %s", *req.DownPayment, price.MinDownPayment)
			}
			if req.DownPayment.GreaterThan(price.Price) {
				return reject("down payment %s exceeds the course price %s", *req.DownPayment, price.Price)
			}
		}
		if req.Installments != nil && price.MaxInstallments > 0 && *req.Installments > price.MaxInstallments {
			return reject("%d installments exceeds the maximum of %d", *req.Installments, price.MaxInstallments)
		}
	}

	return &domain.PricingChoiceResult{Valid: true, Price: price}, nil
}
