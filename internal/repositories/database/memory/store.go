// Package memory is an in-process implementation of every repository port. It backs
// local runs without PGSQL_URL and the service tests.
package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/SscSPs/course_billing_engine/internal/core/domain"
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
)

type txKey struct{}

type state struct {
	accounts     map[int64]domain.Account
	journals     map[int64]domain.Journal
	invoices     map[int64]domain.Invoice
	payments     map[int64]domain.Payment
	installments map[int64]domain.Installment
	allocations  []domain.InstallmentAllocation
	prices       map[int64]domain.CoursePrice
	settings     map[string]string
}

func (s *state) clone() *state {
	return &state{
		accounts:     maps.Clone(s.accounts),
		journals:     maps.Clone(s.journals),
		invoices:     maps.Clone(s.invoices),
		payments:     maps.Clone(s.payments),
		installments: maps.Clone(s.installments),
		allocations:  slices.Clone(s.allocations),
		prices:       maps.Clone(s.prices),
		settings:     maps.Clone(s.settings),
	}
}

// Store keeps all data behind one mutex. A transaction holds the mutex for its whole
// duration, which serializes writers the way row locks do in Postgres.
type Store struct {
	mu     sync.Mutex
	data   *state
	nextID int64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		data: &state{
			accounts:     map[int64]domain.Account{},
			journals:     map[int64]domain.Journal{},
			invoices:     map[int64]domain.Invoice{},
			payments:     map[int64]domain.Payment{},
			installments: map[int64]domain.Installment{},
			prices:       map[int64]domain.CoursePrice{},
			settings:     map[string]string{},
		},
	}
}

// NewRepositoryProvider exposes the store through every repository port.
func NewRepositoryProvider(store *Store) portsrepo.RepositoryProvider {
	return portsrepo.RepositoryProvider{
		TxManager:       store,
		AccountRepo:     store,
		JournalRepo:     store,
		InvoiceRepo:     store,
		PaymentRepo:     store,
		InstallmentRepo: store,
		CoursePriceRepo: store,
		SettingsRepo:    store,
	}
}

var (
	_ portsrepo.TransactionManager          = (*Store)(nil)
	_ portsrepo.AccountRepositoryFacade     = (*Store)(nil)
	_ portsrepo.JournalRepositoryFacade     = (*Store)(nil)
	_ portsrepo.InvoiceRepositoryFacade     = (*Store)(nil)
	_ portsrepo.PaymentRepositoryFacade     = (*Store)(nil)
	_ portsrepo.InstallmentRepositoryFacade = (*Store)(nil)
	_ portsrepo.CoursePriceRepositoryFacade = (*Store)(nil)
	_ portsrepo.SettingsReader              = (*Store)(nil)
)

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

// lock acquires the store unless ctx already runs inside one of its transactions.
// The returned func releases what was acquired.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTransaction runs fn with exclusive access. Any error restores the state
// captured before fn started.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// id must be called with the store locked.
func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// SetSetting stores a settings-table value.
func (s *Store) SetSetting(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.settings[key] = value
}
