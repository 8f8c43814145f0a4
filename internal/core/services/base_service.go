package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/SscSPs/invoice_reconciler/internal/core/domain"
	"github.com/SscSPs/invoice_reconciler/internal/middleware"
	"github.com/go-playground/validator/v10"
)

// BaseService provides common functionality for all services
type BaseService struct {
	validate *validator.Validate
}

func newBaseService() BaseService {
	return BaseService{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+2)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	logger.Debug(msg, keyvals...)
}

// ValidateRequest checks the actor and the struct tags of req.
func (s *BaseService) ValidateRequest(actor domain.Actor, req any) error {
	if err := actor.Validate(); err != nil {
		return err
	}
	if req == nil {
		return nil
	}
	if err := s.validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrValidation, err.Error())
	}
	return nil
}

// normalizeCurrencyCode upper-cases and trims a currency code so that "usd"
// validates the same as "USD".
func normalizeCurrencyCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ParseAmount parses a plain decimal amount such as "12.50". Anything else,
// including exponent forms, is ErrInvalidAmount.
func (s *BaseService) ParseAmount(amount, currencyCode string) (domain.Money, error) {
	if err := s.validate.Var(strings.TrimSpace(amount), "required,numeric"); err != nil {
		return domain.Money{}, fmt.Errorf("%w: %q is not a decimal amount", apperrors.ErrInvalidAmount, amount)
	}
	return domain.ParseMoney(amount, currencyCode)
}

// parsePositiveAmount parses a request amount. Zero, negative or malformed
// amounts are rejected before any store access.
func (s *BaseService) parsePositiveAmount(amount, currencyCode string) (domain.Money, error) {
	money, err := s.ParseAmount(amount, currencyCode)
	if err != nil {
		return domain.Money{}, err
	}
	if !money.IsPositive() {
		return domain.Money{}, fmt.Errorf("%w: amount must be greater than zero", apperrors.ErrInvalidAmount)
	}
	return money, nil
}

// AuthorizeInvoice checks that the actor's organization and tenant own the invoice.
func (s *BaseService) AuthorizeInvoice(ctx context.Context, invoice *domain.Invoice, actor domain.Actor) error {
	if invoice.OwnedBy(actor) {
		return nil
	}
	s.GetLogger(ctx).Warn("Actor does not own invoice",
		slog.String("invoice_id", invoice.InvoiceID),
		slog.String("user_id", actor.UserID),
		slog.String("organization_id", actor.OrganizationID))
	return fmt.Errorf("%w: invoice %s does not belong to organization %s", apperrors.ErrForbidden, invoice.InvoiceID, actor.OrganizationID)
}

// AuthorizePayment checks that the actor's organization and tenant own the payment.
func (s *BaseService) AuthorizePayment(ctx context.Context, payment *domain.Payment, actor domain.Actor) error {
	if payment.OwnedBy(actor) {
		return nil
	}
	s.GetLogger(ctx).Warn("Actor does not own payment",
		slog.String("payment_id", payment.PaymentID),
		slog.String("user_id", actor.UserID),
		slog.String("organization_id", actor.OrganizationID))
	return fmt.Errorf("%w: payment %s does not belong to organization %s", apperrors.ErrForbidden, payment.PaymentID, actor.OrganizationID)
}
