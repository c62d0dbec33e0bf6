package services

import (
	"testing"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestGetSummary(t *testing.T) {
	l := newLedger(t)
	svc := NewDashboardService(l.db)
	user := testutil.CreateTestUser(t, l.db)
	other := testutil.CreateTestUser(t, l.db)

	checking := testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "1000")
	testutil.CreateTestFixedDeposit(t, l.db, user.ID, "10000", "5", "2024-01-01", "2024-12-31")
	closed := testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "999")
	l.db.Model(closed).Update("is_active", false)
	testutil.CreateTestAccountWithBalance(t, l.db, other.ID, "123")

	record := func(in TransactionIntent) {
		t.Helper()
		in.AccountID = checking.ID
		_, err := l.transactions.CreateTransaction(user.ID, in)
		testutil.AssertNoError(t, err)
	}
	record(TransactionIntent{Type: models.TransactionTypeIncome, Amount: testutil.Dec("400"), Category: "Salary", Date: "2024-03-01"})
	record(TransactionIntent{Type: models.TransactionTypeExpense, Amount: testutil.Dec("50"), Category: "Shopping", Date: "2024-03-05"})
	record(TransactionIntent{Type: models.TransactionTypeExpense, Amount: testutil.Dec("25"), Category: "Other", Date: "2024-03-06"})
	record(TransactionIntent{Type: models.TransactionTypeExpense, Amount: testutil.Dec("999"), Category: "Other", Date: "2024-02-27"})

	safe := testutil.CreateTestBudget(t, l.db, user.ID, "Food & Dining", "2024-03", "100")
	warn := testutil.CreateTestBudget(t, l.db, user.ID, "Utilities", "2024-03", "100")
	over := testutil.CreateTestBudget(t, l.db, user.ID, "Healthcare", "2024-03", "100")
	l.db.Model(safe).Update("spent", testutil.Money("40"))
	l.db.Model(warn).Update("spent", testutil.Money("90"))
	l.db.Model(over).Update("spent", testutil.Money("150"))

	testutil.CreateTestGoal(t, l.db, user.ID, "100", "0")
	testutil.CreateTestGoal(t, l.db, user.ID, "100", "10")
	done := testutil.CreateTestGoal(t, l.db, user.ID, "100", "0")
	_, err := l.goals.MarkComplete(user.ID, done.ID)
	testutil.AssertNoError(t, err)

	summary, err := svc.GetSummary(user.ID, "2024-03")
	testutil.AssertNoError(t, err)

	// 1000 + 400 - 50 - 25 - 999 on checking, plus the deposit
	testutil.AssertMoney(t, "total balance", summary.TotalBalance, "10326")
	testutil.AssertMoney(t, "income", summary.MonthlyIncome, "400")
	testutil.AssertMoney(t, "expenses", summary.MonthlyExpenses, "75")
	testutil.AssertDecimal(t, "projected interest", summary.ProjectedInterest, "500")
	if summary.ActiveGoals != 2 {
		t.Errorf("expected 2 active goals, got %d", summary.ActiveGoals)
	}

	// (60 + 10 + 0) / 3
	testutil.AssertDecimal(t, "budget health", summary.BudgetHealth, "23.33")
	if len(summary.BudgetAlerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(summary.BudgetAlerts))
	}
	if summary.BudgetAlerts[0].Status != models.UtilizationExceeded || summary.BudgetAlerts[1].Status != models.UtilizationWarning {
		t.Errorf("expected exceeded before warning, got %s, %s", summary.BudgetAlerts[0].Status, summary.BudgetAlerts[1].Status)
	}

	if len(summary.RecentTransactions) != 4 {
		t.Fatalf("expected 4 recent transactions, got %d", len(summary.RecentTransactions))
	}
	if summary.RecentTransactions[0].Date != "2024-03-06" {
		t.Errorf("expected newest first, got %s", summary.RecentTransactions[0].Date)
	}
}

func TestGetSummaryEmpty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewDashboardService(db)
	user := testutil.CreateTestUser(t, db)

	summary, err := svc.GetSummary(user.ID, "")
	testutil.AssertNoError(t, err)

	if summary.Month != models.CurrentMonth() {
		t.Errorf("expected current month, got %s", summary.Month)
	}
	testutil.AssertMoney(t, "total balance", summary.TotalBalance, "0")
	testutil.AssertDecimal(t, "budget health", summary.BudgetHealth, "100")
	if summary.BudgetAlerts == nil || summary.RecentTransactions == nil {
		t.Error("expected empty slices, not nil")
	}
}

func TestGetSummaryInvalidMonth(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewDashboardService(db)

	_, err := svc.GetSummary("anyone", "2024-13")
	testutil.AssertAppError(t, err, "INVALID_INPUT")
}

func TestBudgetHealth(t *testing.T) {
	t.Run("no_budgets", func(t *testing.T) {
		health, alerts := budgetHealth(nil)
		testutil.AssertDecimal(t, "health", health, "100")
		if len(alerts) != 0 {
			t.Errorf("expected no alerts, got %d", len(alerts))
		}
	})

	t.Run("exactly_full_counts_as_zero_headroom", func(t *testing.T) {
		health, alerts := budgetHealth([]models.Budget{
			{Amount: testutil.Money("200"), Spent: testutil.Money("200")},
			{Amount: testutil.Money("200"), Spent: testutil.Money("0")},
		})
		testutil.AssertDecimal(t, "health", health, "50")
		if len(alerts) != 1 || alerts[0].Status != models.UtilizationExceeded {
			t.Errorf("expected a single exceeded alert, got %+v", alerts)
		}
	})
}
