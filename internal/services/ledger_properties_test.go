package services

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestLedgerBalanceConservation(t *testing.T) {
	l := newLedger(t)
	user := testutil.CreateTestUser(t, l.db)

	accounts := []*models.Account{
		testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "0"),
		testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "0"),
		testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "0"),
	}
	categories := []string{"Other", "Shopping", "Utilities"}
	for _, c := range categories {
		testutil.CreateTestBudget(t, l.db, user.ID, c, "2024-05", "1000")
	}

	rng := rand.New(rand.NewSource(42))
	var committed []*models.Transaction

	for i := 0; i < 60; i++ {
		if len(committed) > 0 && rng.Intn(4) == 0 {
			idx := rng.Intn(len(committed))
			require.NoError(t, l.transactions.DeleteTransaction(user.ID, committed[idx].ID))
			committed = append(committed[:idx], committed[idx+1:]...)
			continue
		}

		// any amount up to 100 with the full four decimal places
		amount := decimal.New(int64(rng.Intn(1_000_000)+1), -models.MoneyScale)
		from := accounts[rng.Intn(len(accounts))]
		intent := TransactionIntent{
			Amount:    amount,
			Category:  categories[rng.Intn(len(categories))],
			AccountID: from.ID,
			Date:      "2024-05-1" + string(rune('0'+rng.Intn(10))),
		}
		switch rng.Intn(3) {
		case 0:
			intent.Type = models.TransactionTypeIncome
		case 1:
			intent.Type = models.TransactionTypeExpense
		default:
			intent.Type = models.TransactionTypeTransfer
			to := accounts[(indexOf(accounts, from)+1+rng.Intn(len(accounts)-1))%len(accounts)]
			intent.ToAccountID = &to.ID
		}

		tx, err := l.transactions.CreateTransaction(user.ID, intent)
		require.NoError(t, err)
		committed = append(committed, tx)
	}

	expectedBalance := map[string]models.Money{}
	expectedSpent := map[string]models.Money{}
	for _, tx := range committed {
		for id, delta := range tx.Effects() {
			expectedBalance[id] += delta
		}
		if tx.Type == models.TransactionTypeExpense {
			expectedSpent[tx.Category] += tx.Amount
		}
	}

	for _, a := range accounts {
		got := testutil.ReloadAccount(t, l.db, a.ID).Balance
		assert.Equal(t, expectedBalance[a.ID], got, "account %s: expected %s, got %s", a.Name, expectedBalance[a.ID], got)
	}

	var budgets []models.Budget
	require.NoError(t, l.db.Where("user_id = ?", user.ID).Find(&budgets).Error)
	for _, b := range budgets {
		assert.Equal(t, expectedSpent[b.Category], b.Spent, "budget %s: expected %s, got %s", b.Category, expectedSpent[b.Category], b.Spent)
	}

	report, err := NewReconcileService(l.db).Reconcile(user.ID, true)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "reconcile found drift: %+v", report)
}

func indexOf(accounts []*models.Account, target *models.Account) int {
	for i, a := range accounts {
		if a.ID == target.ID {
			return i
		}
	}
	return -1
}

func TestLedgerDeleteIsInverse(t *testing.T) {
	intents := map[string]func(from, to string) TransactionIntent{
		"income": func(from, _ string) TransactionIntent {
			return TransactionIntent{Type: models.TransactionTypeIncome, Amount: testutil.Dec("123.4567"), Category: "Salary", AccountID: from, Date: "2024-06-01"}
		},
		"expense": func(from, _ string) TransactionIntent {
			return TransactionIntent{Type: models.TransactionTypeExpense, Amount: testutil.Dec("0.0001"), Category: "Other", AccountID: from, Date: "2024-06-15"}
		},
		"transfer": func(from, to string) TransactionIntent {
			return TransactionIntent{Type: models.TransactionTypeTransfer, Amount: testutil.Dec("99.99"), AccountID: from, ToAccountID: &to, Date: "2024-06-30"}
		},
	}

	for name, build := range intents {
		t.Run(name, func(t *testing.T) {
			l := newLedger(t)
			user := testutil.CreateTestUser(t, l.db)
			from := testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "250.5")
			to := testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "10")
			budget := testutil.CreateTestBudget(t, l.db, user.ID, "Other", "2024-06", "300")

			tx, err := l.transactions.CreateTransaction(user.ID, build(from.ID, to.ID))
			require.NoError(t, err)
			require.NoError(t, l.transactions.DeleteTransaction(user.ID, tx.ID))

			assert.Equal(t, testutil.Money("250.5"), testutil.ReloadAccount(t, l.db, from.ID).Balance)
			assert.Equal(t, testutil.Money("10"), testutil.ReloadAccount(t, l.db, to.ID).Balance)
			assert.Equal(t, models.Money(0), testutil.ReloadBudget(t, l.db, budget.ID).Spent)
		})
	}
}

// Tenths have no exact binary representation; the stored totals must still
// come out exact.
func TestLedgerTenthsStayExact(t *testing.T) {
	l := newLedger(t)
	user := testutil.CreateTestUser(t, l.db)
	account := testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "0.1")
	budget := testutil.CreateTestBudget(t, l.db, user.ID, "Other", "2024-06", "1")

	income, err := l.transactions.CreateTransaction(user.ID, TransactionIntent{
		Type: models.TransactionTypeIncome, Amount: testutil.Dec("0.2"), Category: "Salary",
		AccountID: account.ID, Date: "2024-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "0.3", testutil.ReloadAccount(t, l.db, account.ID).Balance.String())

	require.NoError(t, l.transactions.DeleteTransaction(user.ID, income.ID))
	assert.Equal(t, "0.1", testutil.ReloadAccount(t, l.db, account.ID).Balance.String())

	for _, amount := range []string{"0.1", "0.2"} {
		_, err := l.transactions.CreateTransaction(user.ID, TransactionIntent{
			Type: models.TransactionTypeExpense, Amount: testutil.Dec(amount), Category: "Other",
			AccountID: account.ID, Date: "2024-06-02",
		})
		require.NoError(t, err)
	}
	assert.Equal(t, "0.3", testutil.ReloadBudget(t, l.db, budget.ID).Spent.String())
	assert.Equal(t, "-0.2", testutil.ReloadAccount(t, l.db, account.ID).Balance.String())

	report, err := NewReconcileService(l.db).Reconcile(user.ID, true)
	require.NoError(t, err)
	assert.True(t, report.Clean(), "reconcile found drift: %+v", report)
}

func TestBudgetUtilizationBands(t *testing.T) {
	cases := []struct {
		amount, spent string
		percentage    string
		status        models.UtilizationStatus
	}{
		{"1000", "750", "75", models.UtilizationSafe},
		{"1000", "799.99", "80", models.UtilizationSafe},
		{"1000", "800", "80", models.UtilizationWarning},
		{"1000", "850", "85", models.UtilizationWarning},
		{"1000", "1000", "100", models.UtilizationExceeded},
		{"1000", "1200", "120", models.UtilizationExceeded},
		{"0", "500", "0", models.UtilizationSafe},
	}

	for _, tc := range cases {
		u := models.ComputeUtilization(testutil.Dec(tc.amount), testutil.Dec(tc.spent))
		assert.True(t, u.Percentage.Equal(testutil.Dec(tc.percentage)), "%s/%s: percentage %s", tc.spent, tc.amount, u.Percentage)
		assert.Equal(t, tc.status, u.Status, "%s/%s", tc.spent, tc.amount)
	}
}

func TestGoalContributionCompletesExactly(t *testing.T) {
	l := newLedger(t)
	user := testutil.CreateTestUser(t, l.db)

	for _, gap := range []string{"exact", "overshoot"} {
		goal := testutil.CreateTestGoal(t, l.db, user.ID, "1234.5", "234.25")
		amount := (goal.TargetAmount - goal.CurrentAmount).Decimal()
		if gap == "overshoot" {
			amount = amount.Mul(decimal.NewFromInt(3))
		}

		updated, err := l.goals.Contribute(user.ID, goal.ID, amount)
		require.NoError(t, err, gap)
		assert.Equal(t, models.GoalStatusCompleted, updated.Status, gap)
		assert.Equal(t, updated.TargetAmount, updated.CurrentAmount, "%s: current %s", gap, updated.CurrentAmount)
	}
}

func TestPrimaryAccountExclusivity(t *testing.T) {
	l := newLedger(t)
	user := testutil.CreateTestUser(t, l.db)
	a := testutil.CreateTestAccount(t, l.db, user.ID)
	b := testutil.CreateTestAccount(t, l.db, user.ID)
	c := testutil.CreateTestAccount(t, l.db, user.ID)

	_, err := l.accounts.SetPrimary(user.ID, a.ID)
	require.NoError(t, err)
	_, err = l.accounts.SetPrimary(user.ID, b.ID)
	require.NoError(t, err)

	assert.False(t, testutil.ReloadAccount(t, l.db, a.ID).IsPrimary)
	assert.True(t, testutil.ReloadAccount(t, l.db, b.ID).IsPrimary)
	assert.False(t, testutil.ReloadAccount(t, l.db, c.ID).IsPrimary)

	var primaries int64
	l.db.Model(&models.Account{}).Where("user_id = ? AND is_primary = ?", user.ID, true).Count(&primaries)
	assert.EqualValues(t, 1, primaries)
}

func TestTransferSymmetry(t *testing.T) {
	l := newLedger(t)
	user := testutil.CreateTestUser(t, l.db)
	x := testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "500")
	y := testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "200")

	tx, err := l.transactions.CreateTransaction(user.ID, TransactionIntent{
		Type:        models.TransactionTypeTransfer,
		Amount:      testutil.Dec("150"),
		AccountID:   x.ID,
		ToAccountID: &y.ID,
		Date:        "2024-07-01",
	})
	require.NoError(t, err)
	testutil.AssertMoney(t, "x", testutil.ReloadAccount(t, l.db, x.ID).Balance, "350")
	testutil.AssertMoney(t, "y", testutil.ReloadAccount(t, l.db, y.ID).Balance, "350")

	require.NoError(t, l.transactions.DeleteTransaction(user.ID, tx.ID))
	testutil.AssertMoney(t, "x", testutil.ReloadAccount(t, l.db, x.ID).Balance, "500")
	testutil.AssertMoney(t, "y", testutil.ReloadAccount(t, l.db, y.ID).Balance, "200")
}

func TestUnbudgetedExpenseLeavesBudgetsAlone(t *testing.T) {
	l := newLedger(t)
	user := testutil.CreateTestUser(t, l.db)
	account := testutil.CreateTestAccountWithBalance(t, l.db, user.ID, "100")
	other := testutil.CreateTestBudget(t, l.db, user.ID, "Other", "2024-08", "100")

	_, err := l.transactions.CreateTransaction(user.ID, TransactionIntent{
		Type:      models.TransactionTypeExpense,
		Amount:    testutil.Dec("40"),
		Category:  "Entertainment",
		AccountID: account.ID,
		Date:      "2024-08-08",
	})
	require.NoError(t, err)

	var count int64
	l.db.Model(&models.Budget{}).Count(&count)
	assert.EqualValues(t, 1, count, "no budget row may be created")
	testutil.AssertMoney(t, "other spent", testutil.ReloadBudget(t, l.db, other.ID).Spent, "0")
}
