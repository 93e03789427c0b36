package services

import (
	portsrepo "github.com/SscSPs/course_billing_engine/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/course_billing_engine/internal/core/ports/services"
	"github.com/SscSPs/course_billing_engine/internal/platform/config"
	"github.com/SscSPs/course_billing_engine/internal/platform/metrics"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider, recorder *metrics.Recorder) *portssvc.ServiceContainer {
	options := []ServiceOption{WithMetrics(recorder)}

	// Stored settings win over the env-provided defaults.
	settings := SettingsChain{repos.SettingsRepo, StaticSettings(cfg.AccountCodes)}

	return &portssvc.ServiceContainer{
		Pricing: NewPriceResolverService(repos.CoursePriceRepo, options...),
		Installment: NewInstallmentService(
			repos.TxManager,
			repos.InvoiceRepo,
			repos.PaymentRepo,
			repos.InstallmentRepo,
			cfg.MaxInstallments,
			options...,
		),
		Ledger: NewLedgerService(
			repos.TxManager,
			repos.AccountRepo,
			repos.JournalRepo,
			repos.InvoiceRepo,
			repos.PaymentRepo,
			settings,
			options...,
		),
		Invoice: NewInvoiceService(repos.TxManager, repos.InvoiceRepo, options...),
	}
}
