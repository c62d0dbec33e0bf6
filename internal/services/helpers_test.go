package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/events"
	"fintrack/internal/testutil"
)

// ledger bundles the services a transaction test needs over one database.
type ledger struct {
	db           *gorm.DB
	accounts     AccountServicer
	budgets      BudgetServicer
	transactions TransactionServicer
	goals        GoalServicer
	events       *events.Recorder
}

func newLedger(t *testing.T) *ledger {
	t.Helper()

	db := testutil.SetupTestDB(t)
	recorder := &events.Recorder{}
	accounts := NewAccountService(db)
	budgets := NewBudgetService(db)
	return &ledger{
		db:           db,
		accounts:     accounts,
		budgets:      budgets,
		transactions: NewTransactionService(db, accounts, budgets, recorder),
		goals:        NewGoalService(db, recorder),
		events:       recorder,
	}
}

func strPtr(s string) *string { return &s }

func decPtr(s string) *decimal.Decimal {
	d := testutil.Dec(s)
	return &d
}
