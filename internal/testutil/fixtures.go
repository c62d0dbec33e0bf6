package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPIN is the PIN every fixture user is created with.
const TestPIN = "1234"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Dec parses a decimal literal, failing loudly on typos in tests.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Money parses a money literal such as "150.25".
func Money(s string) models.Money {
	return models.MustMoney(s)
}

// CreateTestUser creates a user with a hashed PIN and unique username.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	return CreateTestUserWithUsername(t, db, fmt.Sprintf("user%d", nextID()))
}

// CreateTestUserWithUsername creates a user with the given username.
func CreateTestUserWithUsername(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPIN), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash PIN: %v", err)
	}

	user := &models.User{
		Username:       username,
		PinHash:        string(hash),
		ClearanceLevel: 1,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates an active day-to-day account with a zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, "0")
}

// CreateTestAccountWithBalance creates an active day-to-day account whose
// opening balance and balance are both set to balance.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID, balance string) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Account %d", nextID()),
		Type:           models.AccountTypeDayToDay,
		Balance:        Money(balance),
		OpeningBalance: Money(balance),
		IsActive:       true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestFixedDeposit creates a fixed-deposit account.
func CreateTestFixedDeposit(t *testing.T, db *gorm.DB, userID, balance, rate, from, to string) *models.Account {
	t.Helper()

	r := Dec(rate)
	account := &models.Account{
		UserID:         userID,
		Name:           fmt.Sprintf("Test Deposit %d", nextID()),
		Type:           models.AccountTypeFixedDeposit,
		Balance:        Money(balance),
		OpeningBalance: Money(balance),
		IsActive:       true,
		InterestRate:   &r,
		DepositDate:    &from,
		MaturityDate:   &to,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test fixed deposit: %v", err)
	}
	return account
}

// CreateTestCategory creates a user-owned category of the given type.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string, categoryType models.CategoryType) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID: &userID,
		Name:   fmt.Sprintf("Test Category %d", nextID()),
		Type:   categoryType,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateTestBudget inserts a budget row directly, bypassing spent seeding.
func CreateTestBudget(t *testing.T, db *gorm.DB, userID, category, month, amount string) *models.Budget {
	t.Helper()

	budget := &models.Budget{
		UserID:   userID,
		Category: category,
		Month:    month,
		Amount:   Money(amount),
	}
	if err := db.Create(budget).Error; err != nil {
		t.Fatalf("failed to create test budget: %v", err)
	}
	return budget
}

// CreateTestGoal creates an active medium-priority goal.
func CreateTestGoal(t *testing.T, db *gorm.DB, userID, target, current string) *models.Goal {
	t.Helper()

	goal := &models.Goal{
		UserID:        userID,
		Name:          fmt.Sprintf("Test Goal %d", nextID()),
		TargetAmount:  Money(target),
		CurrentAmount: Money(current),
		Priority:      models.GoalPriorityMedium,
		Status:        models.GoalStatusActive,
	}
	if err := db.Create(goal).Error; err != nil {
		t.Fatalf("failed to create test goal: %v", err)
	}
	return goal
}

// RawTransaction inserts a transaction row without applying any ledger
// effect, for building drift scenarios.
func RawTransaction(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount, category, date string) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Type:      txType,
		Amount:    Money(amount),
		Category:  category,
		Date:      date,
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// ReloadAccount reads the account back from the database.
func ReloadAccount(t *testing.T, db *gorm.DB, id string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", id, err)
	}
	return &account
}

// ReloadBudget reads the budget back from the database.
func ReloadBudget(t *testing.T, db *gorm.DB, id string) *models.Budget {
	t.Helper()

	var budget models.Budget
	if err := db.First(&budget, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload budget %s: %v", id, err)
	}
	return &budget
}
