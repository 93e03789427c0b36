package pgsql

import (
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	"github.com/jackc/pgx/v5/pgxpool"
)

// NewRepositoryProvider wires every Postgres repository. priceCache, when non-nil,
// wraps the course price repository (see the cache package).
func NewRepositoryProvider(dbPool *pgxpool.Pool, priceCache func(portsrepo.CoursePriceRepositoryFacade) portsrepo.CoursePriceRepositoryFacade) portsrepo.RepositoryProvider {
	var coursePriceRepo portsrepo.CoursePriceRepositoryFacade = newPgxCoursePriceRepository(dbPool)
	if priceCache != nil {
		coursePriceRepo = priceCache(coursePriceRepo)
	}

	return portsrepo.RepositoryProvider{
		TxManager:       newPgxTxManager(dbPool),
		AccountRepo:     newPgxAccountRepository(dbPool),
		JournalRepo:     newPgxJournalRepository(dbPool),
		InvoiceRepo:     newPgxInvoiceRepository(dbPool),
		PaymentRepo:     newPgxPaymentRepository(dbPool),
		InstallmentRepo: newPgxInstallmentRepository(dbPool),
		CoursePriceRepo: coursePriceRepo,
		SettingsRepo:    newPgxSettingsRepository(dbPool),
	}
}
