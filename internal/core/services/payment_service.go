package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	portsrepo "github.com/SscSPs/invoice_reconciler/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/invoice_reconciler/internal/core/ports/services"
	"github.com/SscSPs/invoice_reconciler/internal/core/reconciliation"
	"github.com/SscSPs/invoice_reconciler/internal/dto"
	"github.com/SscSPs/invoice_reconciler/internal/middleware"
)

// paymentService is the payment command processor. Every command loads the
// invoice under its store lock, mutates the payment set, reconciles, and
// persists invoice, payment and history in one transaction.
type paymentService struct {
	BaseService
	ledgerRepo     portsrepo.LedgerRepositoryWithTx
	now            func() time.Time
	newID          func() string
	commandTimeout time.Duration
	retryAttempts  uint
	retryInterval  time.Duration
}

// PaymentServiceOption is a function that configures a paymentService
type PaymentServiceOption func(*paymentService)

// WithClock sets the time source used for audit fields and history timestamps.
func WithClock(now func() time.Time) PaymentServiceOption {
	return func(s *paymentService) {
		s.now = now
	}
}

// WithIDGenerator sets the generator for payment and history event ids.
func WithIDGenerator(newID func() string) PaymentServiceOption {
	return func(s *paymentService) {
		s.newID = newID
	}
}

// WithCommandTimeout bounds each command, lock wait included. A command that
// runs out of time fails with ErrStoreUnavailable and writes nothing.
func WithCommandTimeout(d time.Duration) PaymentServiceOption {
	return func(s *paymentService) {
		s.commandTimeout = d
	}
}

// WithRetry resubmits a command that failed with ErrVersionConflict or
// ErrStoreUnavailable, up to maxAttempts tries in total, with exponential
// backoff starting at initialInterval.
func WithRetry(maxAttempts uint, initialInterval time.Duration) PaymentServiceOption {
	return func(s *paymentService) {
		s.retryAttempts = maxAttempts
		s.retryInterval = initialInterval
	}
}

// NewPaymentService creates a new payment command processor.
func NewPaymentService(ledgerRepo portsrepo.LedgerRepositoryWithTx, opts ...PaymentServiceOption) portssvc.PaymentSvcFacade {
	s := &paymentService{
		BaseService: newBaseService(),
		ledgerRepo:  ledgerRepo,
		now:         func() time.Time { return time.Now().UTC() },
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ensure paymentService implements the portssvc.PaymentSvcFacade interface
var _ portssvc.PaymentSvcFacade = (*paymentService)(nil)

// execute runs op with the command-scoped logger, timeout and retry policy.
func (s *paymentService) execute(ctx context.Context, command string, op func(ctx context.Context) error, attrs ...any) (err error) {
	ctx, finish := middleware.StartCommand(ctx, command, attrs...)
	defer func() { finish(err) }()

	if s.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commandTimeout)
		defer cancel()
	}

	if s.retryAttempts <= 1 {
		return mapContextErr(op(ctx))
	}

	attempt := func() (struct{}, error) {
		opErr := mapContextErr(op(ctx))
		if opErr != nil && !apperrors.IsRetryable(opErr) {
			return struct{}{}, backoff.Permanent(opErr)
		}
		if opErr != nil {
			s.LogDebug(ctx, "Retryable command failure", slog.String("error", opErr.Error()))
		}
		return struct{}{}, opErr
	}

	policy := backoff.NewExponentialBackOff()
	if s.retryInterval > 0 {
		policy.InitialInterval = s.retryInterval
	}
	_, err = backoff.Retry(ctx, attempt,
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(s.retryAttempts),
	)
	return mapContextErr(err)
}

// mapContextErr turns a bare context error into ErrStoreUnavailable.
func mapContextErr(err error) error {
	if err == nil || errors.Is(err, apperrors.ErrStoreUnavailable) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return apperrors.NewAppError(apperrors.ErrStoreUnavailable, "command did not complete in time", err)
	}
	return err
}

// reconcileAndSave recomputes the invoice from payments, bumps its version and
// appends event plus a STATUS_CHANGED event when the status moved.
func (s *paymentService) reconcileAndSave(ctx context.Context, tx portsrepo.LedgerTx, invoice domain.Invoice, payments []domain.Payment, event domain.HistoryEvent, actor domain.Actor, now time.Time) (*domain.Invoice, error) {
	result, err := reconciliation.Reconcile(invoice, payments)
	if err != nil {
		return nil, err
	}

	previousStatus := invoice.Status
	expectedVersion := invoice.Version

	invoice.AlreadyPaid = result.AlreadyPaid
	invoice.AmountDue = result.AmountDue
	invoice.Status = result.Status
	invoice.Version = expectedVersion + 1
	invoice.Touch(actor.UserID, now)

	if err := tx.SaveInvoice(ctx, invoice, expectedVersion); err != nil {
		return nil, err
	}
	if err := tx.AppendHistory(ctx, event); err != nil {
		return nil, err
	}

	if previousStatus != invoice.Status {
		from, to := previousStatus, invoice.Status
		statusEvent := s.newEvent(invoice, domain.ActionStatusChanged, actor, now)
		statusEvent.FromStatus = &from
		statusEvent.ToStatus = &to
		if err := tx.AppendHistory(ctx, statusEvent); err != nil {
			return nil, err
		}
		s.LogInfo(ctx, "Invoice status changed",
			slog.String("invoice_id", invoice.InvoiceID),
			slog.String("from", string(from)),
			slog.String("to", string(to)))
	}

	return &invoice, nil
}

func (s *paymentService) newEvent(invoice domain.Invoice, action domain.HistoryAction, actor domain.Actor, now time.Time) domain.HistoryEvent {
	return domain.HistoryEvent{
		EventID:        s.newID(),
		InvoiceID:      invoice.InvoiceID,
		Action:         action,
		ActorUserID:    actor.UserID,
		OrganizationID: invoice.OrganizationID,
		TenantID:       invoice.TenantID,
		Timestamp:      now,
	}
}

func (s *paymentService) paymentEvent(invoice domain.Invoice, action domain.HistoryAction, payment domain.Payment, actor domain.Actor, now time.Time) domain.HistoryEvent {
	event := s.newEvent(invoice, action, actor, now)
	amount := payment.Amount
	paymentID := payment.PaymentID
	event.Amount = &amount
	event.PaymentID = &paymentID
	return event
}

// applyNewPayment inserts a payment for a locked invoice and reconciles it.
func (s *paymentService) applyNewPayment(ctx context.Context, tx portsrepo.LedgerTx, invoice domain.Invoice, payments []domain.Payment, amount domain.Money, paymentDate time.Time, method domain.PaymentMethod, note string, actor domain.Actor) (*domain.Invoice, *domain.Payment, error) {
	if amount.Currency != invoice.CurrencyCode {
		return nil, nil, fmt.Errorf("%w: payment is in %s, invoice %s is in %s",
			apperrors.ErrCurrencyMismatch, amount.Currency, invoice.InvoiceID, invoice.CurrencyCode)
	}

	now := s.now()
	invoiceID := invoice.InvoiceID
	payment := domain.Payment{
		PaymentID:      s.newID(),
		InvoiceID:      &invoiceID,
		OrganizationID: invoice.OrganizationID,
		TenantID:       invoice.TenantID,
		Amount:         amount,
		PaymentDate:    paymentDate,
		Method:         method,
		Note:           note,
		RecordedBy:     actor.UserID,
		Overdue:        reconciliation.IsOverdue(paymentDate, invoice.DueDate),
		AuditFields:    domain.NewAuditFields(actor.UserID, now),
	}

	if err := tx.InsertPayment(ctx, payment); err != nil {
		return nil, nil, err
	}

	updated, err := s.reconcileAndSave(ctx, tx, invoice, append(payments, payment), s.paymentEvent(invoice, domain.ActionPaymentAdded, payment, actor, now), actor, now)
	if err != nil {
		return nil, nil, err
	}
	return updated, &payment, nil
}

// RecordPayment applies a new payment to an invoice.
func (s *paymentService) RecordPayment(ctx context.Context, req dto.RecordPaymentRequest, actor domain.Actor) (*domain.Invoice, *domain.Payment, error) {
	req.CurrencyCode = normalizeCurrencyCode(req.CurrencyCode)
	if err := s.ValidateRequest(actor, req); err != nil {
		return nil, nil, err
	}
	amount, err := s.parsePositiveAmount(req.Amount, req.CurrencyCode)
	if err != nil {
		return nil, nil, err
	}

	var invoice *domain.Invoice
	var payment *domain.Payment
	err = s.execute(ctx, "RecordPayment", func(ctx context.Context) error {
		return s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			inv, payments, err := tx.LoadInvoiceForUpdate(ctx, req.InvoiceID)
			if err != nil {
				return err
			}
			if err := s.AuthorizeInvoice(ctx, inv, actor); err != nil {
				return err
			}
			invoice, payment, err = s.applyNewPayment(ctx, tx, *inv, payments, amount, req.PaymentDate, req.Method, req.Note, actor)
			return err
		})
	}, slog.String("invoice_id", req.InvoiceID), slog.String("user_id", actor.UserID))
	if err != nil {
		return nil, nil, err
	}

	s.LogInfo(ctx, "Payment recorded",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("amount", payment.Amount.String()),
		slog.String("status", string(invoice.Status)))
	return invoice, payment, nil
}

// RecordFullPayment applies a payment of exactly the current amount due.
func (s *paymentService) RecordFullPayment(ctx context.Context, req dto.RecordFullPaymentRequest, actor domain.Actor) (*domain.Invoice, *domain.Payment, error) {
	if err := s.ValidateRequest(actor, req); err != nil {
		return nil, nil, err
	}

	var invoice *domain.Invoice
	var payment *domain.Payment
	err := s.execute(ctx, "RecordFullPayment", func(ctx context.Context) error {
		return s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			inv, payments, err := tx.LoadInvoiceForUpdate(ctx, req.InvoiceID)
			if err != nil {
				return err
			}
			if err := s.AuthorizeInvoice(ctx, inv, actor); err != nil {
				return err
			}
			current, err := reconciliation.Reconcile(*inv, payments)
			if err != nil {
				return err
			}
			if !current.AmountDue.IsPositive() {
				return fmt.Errorf("%w: invoice %s has nothing due", apperrors.ErrInvalidAmount, inv.InvoiceID)
			}
			invoice, payment, err = s.applyNewPayment(ctx, tx, *inv, payments, current.AmountDue, req.PaymentDate, req.Method, req.Note, actor)
			return err
		})
	}, slog.String("invoice_id", req.InvoiceID), slog.String("user_id", actor.UserID))
	if err != nil {
		return nil, nil, err
	}

	s.LogInfo(ctx, "Full payment recorded",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("payment_id", payment.PaymentID),
		slog.String("amount", payment.Amount.String()))
	return invoice, payment, nil
}

// RecordUnassignedPayment stores a pre-payment that is not linked to any invoice.
// Nothing is reconciled and no history is written.
func (s *paymentService) RecordUnassignedPayment(ctx context.Context, req dto.RecordUnassignedPaymentRequest, actor domain.Actor) (*domain.Payment, error) {
	req.CurrencyCode = normalizeCurrencyCode(req.CurrencyCode)
	if err := s.ValidateRequest(actor, req); err != nil {
		return nil, err
	}
	amount, err := s.parsePositiveAmount(req.Amount, req.CurrencyCode)
	if err != nil {
		return nil, err
	}

	var payment domain.Payment
	err = s.execute(ctx, "RecordUnassignedPayment", func(ctx context.Context) error {
		now := s.now()
		payment = domain.Payment{
			PaymentID:      s.newID(),
			OrganizationID: actor.OrganizationID,
			TenantID:       actor.TenantID,
			Amount:         amount,
			PaymentDate:    req.PaymentDate,
			Method:         req.Method,
			Note:           req.Note,
			RecordedBy:     actor.UserID,
			AuditFields:    domain.NewAuditFields(actor.UserID, now),
		}
		return s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			return tx.InsertPayment(ctx, payment)
		})
	}, slog.String("user_id", actor.UserID))
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

// lookupPayment reads a payment outside the command transaction to learn
// which lock to take.
func (s *paymentService) lookupPayment(ctx context.Context, paymentID string, actor domain.Actor) (*domain.Payment, error) {
	existing, err := s.ledgerRepo.FindPaymentByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if err := s.AuthorizePayment(ctx, existing, actor); err != nil {
		return nil, err
	}
	return existing, nil
}

func findActivePayment(payments []domain.Payment, paymentID string) (int, error) {
	for i := range payments {
		if payments[i].PaymentID != paymentID {
			continue
		}
		if payments[i].Voided {
			return -1, fmt.Errorf("%w: payment %s is voided", apperrors.ErrPaymentNotFound, paymentID)
		}
		return i, nil
	}
	return -1, fmt.Errorf("%w: %s", apperrors.ErrPaymentNotFound, paymentID)
}

// applyEdit copies the requested changes onto payment. Overdue is recomputed
// only when the payment date changes and a due date is known.
func applyEdit(payment *domain.Payment, req dto.EditPaymentRequest, newAmount *domain.Money, dueDate *time.Time) error {
	if newAmount != nil {
		if newAmount.Currency != payment.Amount.Currency {
			return fmt.Errorf("%w: payment %s is in %s, edit is in %s",
				apperrors.ErrCurrencyMismatch, payment.PaymentID, payment.Amount.Currency, newAmount.Currency)
		}
		payment.Amount = *newAmount
	}
	if req.PaymentDate != nil && !req.PaymentDate.Equal(payment.PaymentDate) {
		payment.PaymentDate = *req.PaymentDate
		if dueDate != nil {
			payment.Overdue = reconciliation.IsOverdue(payment.PaymentDate, *dueDate)
		}
	}
	if req.Method != nil {
		payment.Method = *req.Method
	}
	if req.Note != nil {
		payment.Note = *req.Note
	}
	return nil
}

// EditPayment changes an existing payment and reconciles its invoice.
func (s *paymentService) EditPayment(ctx context.Context, paymentID string, req dto.EditPaymentRequest, actor domain.Actor) (*domain.Invoice, *domain.Payment, error) {
	if req.CurrencyCode != nil {
		code := normalizeCurrencyCode(*req.CurrencyCode)
		req.CurrencyCode = &code
	}
	if err := s.ValidateRequest(actor, req); err != nil {
		return nil, nil, err
	}
	if req.Amount == nil && req.PaymentDate == nil && req.Method == nil && req.Note == nil {
		return nil, nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}
	var newAmount *domain.Money
	if req.Amount != nil {
		amount, err := s.parsePositiveAmount(*req.Amount, *req.CurrencyCode)
		if err != nil {
			return nil, nil, err
		}
		newAmount = &amount
	}

	var invoice *domain.Invoice
	var payment *domain.Payment
	err := s.execute(ctx, "EditPayment", func(ctx context.Context) error {
		existing, err := s.lookupPayment(ctx, paymentID, actor)
		if err != nil {
			return err
		}

		if existing.IsUnassigned() {
			return s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
				locked, err := tx.LoadPaymentForUpdate(ctx, paymentID)
				if err != nil {
					return err
				}
				if locked.Voided {
					return fmt.Errorf("%w: payment %s is voided", apperrors.ErrPaymentNotFound, paymentID)
				}
				if err := applyEdit(locked, req, newAmount, nil); err != nil {
					return err
				}
				locked.Touch(actor.UserID, s.now())
				if err := tx.UpdatePayment(ctx, *locked); err != nil {
					return err
				}
				invoice, payment = nil, locked
				return nil
			})
		}

		return s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			inv, payments, err := tx.LoadInvoiceForUpdate(ctx, *existing.InvoiceID)
			if err != nil {
				return err
			}
			if err := s.AuthorizeInvoice(ctx, inv, actor); err != nil {
				return err
			}
			idx, err := findActivePayment(payments, paymentID)
			if err != nil {
				return err
			}

			edited := payments[idx].Clone()
			if err := applyEdit(&edited, req, newAmount, &inv.DueDate); err != nil {
				return err
			}
			now := s.now()
			edited.Touch(actor.UserID, now)
			if err := tx.UpdatePayment(ctx, edited); err != nil {
				return err
			}
			payments[idx] = edited

			invoice, err = s.reconcileAndSave(ctx, tx, *inv, payments, s.paymentEvent(*inv, domain.ActionPaymentEdited, edited, actor, now), actor, now)
			if err != nil {
				return err
			}
			payment = &edited
			return nil
		})
	}, slog.String("payment_id", paymentID), slog.String("user_id", actor.UserID))
	if err != nil {
		return nil, nil, err
	}

	s.LogInfo(ctx, "Payment edited", slog.String("payment_id", paymentID))
	return invoice, payment, nil
}

// DeletePayment voids a payment and reconciles its invoice. The payment row
// and its history stay in the store.
func (s *paymentService) DeletePayment(ctx context.Context, paymentID string, actor domain.Actor) (*domain.Invoice, error) {
	if err := s.ValidateRequest(actor, nil); err != nil {
		return nil, err
	}

	var invoice *domain.Invoice
	err := s.execute(ctx, "DeletePayment", func(ctx context.Context) error {
		existing, err := s.lookupPayment(ctx, paymentID, actor)
		if err != nil {
			return err
		}

		if existing.IsUnassigned() {
			return s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
				locked, err := tx.LoadPaymentForUpdate(ctx, paymentID)
				if err != nil {
					return err
				}
				if locked.Voided {
					return fmt.Errorf("%w: payment %s is already voided", apperrors.ErrPaymentNotFound, paymentID)
				}
				invoice = nil
				return tx.VoidPayment(ctx, paymentID, actor.UserID, s.now())
			})
		}

		return s.ledgerRepo.RunInTx(ctx, func(ctx context.Context, tx portsrepo.LedgerTx) error {
			inv, payments, err := tx.LoadInvoiceForUpdate(ctx, *existing.InvoiceID)
			if err != nil {
				return err
			}
			if err := s.AuthorizeInvoice(ctx, inv, actor); err != nil {
				return err
			}
			idx, err := findActivePayment(payments, paymentID)
			if err != nil {
				return err
			}

			now := s.now()
			if err := tx.VoidPayment(ctx, paymentID, actor.UserID, now); err != nil {
				return err
			}
			voided := payments[idx].Clone()
			voided.Voided = true
			voidedBy := actor.UserID
			voided.VoidedAt = &now
			voided.VoidedBy = &voidedBy
			payments[idx] = voided

			invoice, err = s.reconcileAndSave(ctx, tx, *inv, payments, s.paymentEvent(*inv, domain.ActionPaymentDeleted, voided, actor, now), actor, now)
			return err
		})
	}, slog.String("payment_id", paymentID), slog.String("user_id", actor.UserID))
	if err != nil {
		return nil, err
	}

	s.LogInfo(ctx, "Payment voided", slog.String("payment_id", paymentID))
	return invoice, nil
}
