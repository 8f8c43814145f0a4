package services

import (
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_reconciler/internal/core/ports/services"
	"github.com/SscSPs/invoice_reconciler/internal/platform/config"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	paymentOpts := []PaymentServiceOption{
		WithCommandTimeout(cfg.CommandTimeout),
	}
	if cfg.RetryMaxAttempts > 1 {
		paymentOpts = append(paymentOpts, WithRetry(cfg.RetryMaxAttempts, cfg.RetryInitialInterval))
	}

	container.Payment = NewPaymentService(repos.LedgerRepo, paymentOpts...)
	container.Invoice = NewInvoiceService(repos.LedgerRepo)

	return container
}
