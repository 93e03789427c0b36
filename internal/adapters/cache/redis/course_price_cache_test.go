package redis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	cache "github.com/SscSPs/course_billing_engine/internal/adapters/cache/redis"
	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	"github.com/SscSPs/course_billing_engine/internal/core/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCoursePriceRepo struct {
	mock.Mock
}

func (m *MockCoursePriceRepo) ListActiveCoursePrices(ctx context.Context, courseID int64) ([]domain.CoursePrice, error) {
	args := m.Called(ctx, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.CoursePrice), args.Error(1)
}

func (m *MockCoursePriceRepo) SaveCoursePrice(ctx context.Context, price domain.CoursePrice) (*domain.CoursePrice, error) {
	args := m.Called(ctx, price)
	return &price, args.Error(0)
}

// mapStore is an in-process Store; failing makes every call error.
type mapStore struct {
	data    map[string][]byte
	failing bool
}

func newMapStore() *mapStore { return &mapStore{data: map[string][]byte{}} }

func (s *mapStore) Get(_ context.Context, key string) ([]byte, error) {
	if s.failing {
		return nil, errors.New("connection refused")
	}
	v, ok := s.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (s *mapStore) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	if s.failing {
		return errors.New("connection refused")
	}
	s.data[key] = value
	return nil
}

func (s *mapStore) Delete(_ context.Context, key string) error {
	if s.failing {
		return errors.New("connection refused")
	}
	delete(s.data, key)
	return nil
}

func prices() []domain.CoursePrice {
	return []domain.CoursePrice{{
		CoursePriceID: 1, CourseID: 42, PricingMode: domain.PricingCourseTotal,
		Price: money.MustParse("120.5"), IsActive: true,
	}}
}

func TestCoursePriceCache_HitAfterMiss(t *testing.T) {
	repo := new(MockCoursePriceRepo)
	repo.On("ListActiveCoursePrices", mock.Anything, int64(42)).Return(prices(), nil).Once()
	store := newMapStore()
	c := cache.NewCoursePriceCache(repo, store, time.Minute, nil)
	ctx := context.Background()

	first, err := c.ListActiveCoursePrices(ctx, 42)
	require.NoError(t, err)
	assert.Contains(t, store.data, cache.CacheKey(42))

	second, err := c.ListActiveCoursePrices(ctx, 42)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Price.String(), second[0].Price.String())
	assert.Equal(t, "120.500", second[0].Price.String())
	repo.AssertExpectations(t)
}

func TestCoursePriceCache_FallsBackWhenStoreFails(t *testing.T) {
	repo := new(MockCoursePriceRepo)
	repo.On("ListActiveCoursePrices", mock.Anything, int64(42)).Return(prices(), nil).Twice()
	store := newMapStore()
	store.failing = true
	c := cache.NewCoursePriceCache(repo, store, time.Minute, nil)

	for range 2 {
		got, err := c.ListActiveCoursePrices(context.Background(), 42)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
	repo.AssertExpectations(t)
}

func TestCoursePriceCache_SaveInvalidates(t *testing.T) {
	repo := new(MockCoursePriceRepo)
	repo.On("SaveCoursePrice", mock.Anything, mock.Anything).Return(nil)
	store := newMapStore()
	store.data[cache.CacheKey(42)] = []byte("[]")
	c := cache.NewCoursePriceCache(repo, store, time.Minute, nil)

	_, err := c.SaveCoursePrice(context.Background(), prices()[0])
	require.NoError(t, err)
	assert.NotContains(t, store.data, cache.CacheKey(42))
}

func TestCoursePriceCache_RepositoryErrorIsReturned(t *testing.T) {
	repo := new(MockCoursePriceRepo)
	repo.On("ListActiveCoursePrices", mock.Anything, int64(7)).Return(nil, errors.New("db down"))
	store := newMapStore()
	c := cache.NewCoursePriceCache(repo, store, time.Minute, nil)

	_, err := c.ListActiveCoursePrices(context.Background(), 7)
	assert.Error(t, err)
	assert.Empty(t, store.data)
}
