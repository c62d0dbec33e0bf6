package models

import "github.com/shopspring/decimal"

// UtilizationStatus is the health band of a budget.
type UtilizationStatus string

const (
	UtilizationSafe     UtilizationStatus = "safe"
	UtilizationWarning  UtilizationStatus = "warning"
	UtilizationExceeded UtilizationStatus = "exceeded"
)

var (
	warningThreshold  = decimal.NewFromInt(80)
	exceededThreshold = decimal.NewFromInt(100)
)

// Budget caps spending for one category in one month.
// Spent is kept in sync incrementally by the transaction processor.
type Budget struct {
	Base
	UserID   string `gorm:"type:uuid;not null;uniqueIndex:idx_budget_user_category_month" json:"user_id"`
	Category string `gorm:"not null;uniqueIndex:idx_budget_user_category_month" json:"category"`
	Month    string `gorm:"type:varchar(7);not null;uniqueIndex:idx_budget_user_category_month" json:"month"`
	Amount   Money  `gorm:"type:bigint;not null" json:"amount"`
	Spent    Money  `gorm:"type:bigint;not null;default:0" json:"spent"`
}

// Utilization describes how much of a budget has been used.
type Utilization struct {
	Percentage decimal.Decimal   `json:"percentage"`
	Status     UtilizationStatus `json:"status"`
	Remaining  decimal.Decimal   `json:"remaining"`
}

// Utilization computes the budget's current utilization.
func (b *Budget) Utilization() Utilization {
	return ComputeUtilization(b.Amount.Decimal(), b.Spent.Decimal())
}

// ComputeUtilization returns spent/amount*100 with its status band. A
// non-positive cap always reports zero and safe.
func ComputeUtilization(amount, spent decimal.Decimal) Utilization {
	if !amount.IsPositive() {
		return Utilization{
			Percentage: decimal.Zero,
			Status:     UtilizationSafe,
			Remaining:  decimal.Zero,
		}
	}

	pct := spent.Div(amount).Mul(decimal.NewFromInt(100))
	status := UtilizationSafe
	switch {
	case pct.GreaterThanOrEqual(exceededThreshold):
		status = UtilizationExceeded
	case pct.GreaterThanOrEqual(warningThreshold):
		status = UtilizationWarning
	}

	return Utilization{
		Percentage: pct.Round(2),
		Status:     status,
		Remaining:  amount.Sub(spent),
	}
}
