package services

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

// positiveMoney converts an amount that must be > 0.
func positiveMoney(field string, amount decimal.Decimal) (models.Money, error) {
	if !amount.IsPositive() {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("%s must be greater than zero", field))
	}
	return toMoney(field, amount)
}

// nonNegativeMoney converts an amount that must be >= 0.
func nonNegativeMoney(field string, amount decimal.Decimal) (models.Money, error) {
	if amount.IsNegative() {
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("%s cannot be negative", field))
	}
	return toMoney(field, amount)
}

// toMoney rejects amounts the ledger cannot hold exactly.
func toMoney(field string, amount decimal.Decimal) (models.Money, error) {
	m, err := models.NewMoney(amount)
	switch {
	case errors.Is(err, models.ErrMoneyPrecision):
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("%s supports at most %d decimal places", field, models.MoneyScale))
	case errors.Is(err, models.ErrMoneyRange):
		return 0, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("%s must be less than %s in magnitude", field, models.MaxMoney))
	case err != nil:
		return 0, apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	return m, nil
}

// requireRate checks an annual interest rate in percent against the
// decimal(7,4) column.
func requireRate(rate decimal.Decimal) error {
	if rate.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "interest rate cannot be negative")
	}
	if rate.GreaterThan(models.MaxInterestRate) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("interest rate cannot exceed %s", models.MaxInterestRate))
	}
	if !rate.Equal(rate.Truncate(models.MoneyScale)) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("interest rate supports at most %d decimal places", models.MoneyScale))
	}
	return nil
}

func requireDate(field string, value string) error {
	if _, err := models.ParseDate(value); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("%s must be a YYYY-MM-DD date", field))
	}
	return nil
}

func requireMonth(value string) error {
	if _, err := models.ParseMonth(value); err != nil {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be in YYYY-MM format")
	}
	return nil
}
