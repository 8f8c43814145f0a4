package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/SscSPs/invoice_reconciler/internal/apperrors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Money is an exact amount in the minor units of an ISO-4217 currency
// (cents for USD, yen for JPY). The zero value is not a valid Money; use
// NewMoney, ParseMoney or Zero.
type Money struct {
	Amount   int64  `json:"amount"`   // Minor units
	Currency string `json:"currency"` // ISO-4217 code, upper case
}

// NormalizeCurrency validates an ISO-4217 code and returns it in canonical form.
func NormalizeCurrency(code string) (string, error) {
	unit, err := currency.ParseISO(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidCurrency, code)
	}
	return unit.String(), nil
}

// CurrencyScale returns the number of minor-unit digits of a currency.
func CurrencyScale(code string) (int32, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", apperrors.ErrInvalidCurrency, code)
	}
	scale, _ := currency.Standard.Rounding(unit)
	return int32(scale), nil
}

// NewMoney builds Money from a non-negative minor-unit amount.
func NewMoney(minorUnits int64, currencyCode string) (Money, error) {
	code, err := NormalizeCurrency(currencyCode)
	if err != nil {
		return Money{}, err
	}
	if minorUnits < 0 {
		return Money{}, fmt.Errorf("%w: %d is negative", apperrors.ErrInvalidAmount, minorUnits)
	}
	return Money{Amount: minorUnits, Currency: code}, nil
}

// Zero returns zero in the given (already validated) currency.
func Zero(currencyCode string) Money {
	return Money{Currency: currencyCode}
}

// ParseMoney parses a decimal string such as "40.00" into Money. More
// fractional digits than the currency allows is an error, never a rounding.
func ParseMoney(text string, currencyCode string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a decimal number", apperrors.ErrInvalidAmount, text)
	}
	return MoneyFromDecimal(d, currencyCode)
}

// MoneyFromDecimal converts a decimal major-unit amount into Money.
func MoneyFromDecimal(d decimal.Decimal, currencyCode string) (Money, error) {
	code, err := NormalizeCurrency(currencyCode)
	if err != nil {
		return Money{}, err
	}
	if d.IsNegative() {
		return Money{}, fmt.Errorf("%w: %s is negative", apperrors.ErrInvalidAmount, d.String())
	}
	scale, err := CurrencyScale(code)
	if err != nil {
		return Money{}, err
	}
	minor := d.Shift(scale)
	if !minor.Equal(minor.Truncate(0)) {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places for %s", apperrors.ErrInvalidAmount, d.String(), scale, code)
	}
	if !minor.BigInt().IsInt64() {
		return Money{}, fmt.Errorf("%w: %s %s", apperrors.ErrAmountOverflow, d.String(), code)
	}
	return Money{Amount: minor.IntPart(), Currency: code}, nil
}

func (m Money) scale() int32 {
	scale, err := CurrencyScale(m.Currency)
	if err != nil {
		return 2
	}
	return scale
}

// Decimal returns the amount in major units.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -m.scale())
}

// String renders the amount with the currency's fixed number of decimals, e.g. "60.00 USD".
func (m Money) String() string {
	return m.Decimal().StringFixed(m.scale()) + " " + m.Currency
}

func (m Money) sameCurrency(other Money) error {
	if m.Currency != other.Currency {
		return fmt.Errorf("%w: %s vs %s", apperrors.ErrCurrencyMismatch, m.Currency, other.Currency)
	}
	return nil
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	if (other.Amount > 0 && m.Amount > math.MaxInt64-other.Amount) ||
		(other.Amount < 0 && m.Amount < math.MinInt64-other.Amount) {
		return Money{}, fmt.Errorf("%w: %s + %s", apperrors.ErrAmountOverflow, m, other)
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sub returns m - other. The result may be negative; callers that need a
// non-negative value use ClampNonNegative or RequireNonNegative.
func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	if (other.Amount < 0 && m.Amount > math.MaxInt64+other.Amount) ||
		(other.Amount > 0 && m.Amount < math.MinInt64+other.Amount) {
		return Money{}, fmt.Errorf("%w: %s - %s", apperrors.ErrAmountOverflow, m, other)
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

// Compare returns -1, 0 or 1.
func (m Money) Compare(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	switch {
	case m.Amount < other.Amount:
		return -1, nil
	case m.Amount > other.Amount:
		return 1, nil
	default:
		return 0, nil
	}
}

// ClampNonNegative returns zero for negative amounts.
func (m Money) ClampNonNegative() Money {
	if m.Amount < 0 {
		return Zero(m.Currency)
	}
	return m
}

// RequireNonNegative fails with ErrNegativeAmount for negative amounts.
func (m Money) RequireNonNegative() (Money, error) {
	if m.Amount < 0 {
		return Money{}, fmt.Errorf("%w: %s", apperrors.ErrNegativeAmount, m)
	}
	return m, nil
}

func (m Money) IsZero() bool     { return m.Amount == 0 }
func (m Money) IsPositive() bool { return m.Amount > 0 }
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal reports whether both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}
