package services

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"fintrack/internal/models"
	"fintrack/internal/pagination"
)

// CredentialVerifier hashes and checks user PINs. The ledger never sees
// credentials; swapping the implementation changes the auth model only.
type CredentialVerifier interface {
	Hash(pin string) (string, error)
	Verify(hash, pin string) bool
}

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	Register(username, pin string) (*models.User, error)
	Authenticate(username, pin string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
}

// CategoryServicer defines the contract for the category registry.
type CategoryServicer interface {
	EnsureDefaults() error
	ListCategories(userID string, categoryType *models.CategoryType) ([]models.Category, error)
	CreateCategory(userID, name string, categoryType models.CategoryType) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
}

// AccountInput holds the fields for a new account.
type AccountInput struct {
	Name           string
	Type           models.AccountType
	OpeningBalance decimal.Decimal
	InterestRate   *decimal.Decimal
	DepositDate    *string
	MaturityDate   *string
	IsPrimary      bool
}

// AccountUpdateFields holds the optional fields of a partial account update.
// Balance is an explicit correction; the opening balance absorbs the delta.
type AccountUpdateFields struct {
	Name         *string
	Type         *models.AccountType
	Balance      *decimal.Decimal
	InterestRate *decimal.Decimal
	DepositDate  *string
	MaturityDate *string
	IsActive     *bool
	IsPrimary    *bool
}

// AccountServicer defines the contract for the account ledger.
type AccountServicer interface {
	CreateAccount(userID string, in AccountInput) (*models.Account, error)
	ListAccounts(userID string, includeInactive bool) ([]models.Account, error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(userID, accountID string) (disabled bool, err error)
	SetPrimary(userID, accountID string) (*models.Account, error)
	ApplyTransactionEffect(tx *gorm.DB, t *models.Transaction) error
	ReverseTransactionEffect(tx *gorm.DB, t *models.Transaction) error
}

// BudgetProgress pairs a budget with its utilization.
type BudgetProgress struct {
	models.Budget
	Utilization models.Utilization `json:"utilization"`
}

// BudgetServicer defines the contract for the budget tracker.
type BudgetServicer interface {
	CreateBudget(userID, category string, amount decimal.Decimal, month string) (*models.Budget, error)
	ListBudgets(userID, month string) ([]BudgetProgress, error)
	GetBudgetByID(userID, budgetID string) (*models.Budget, error)
	UpdateBudget(userID, budgetID string, amount decimal.Decimal) (*models.Budget, error)
	DeleteBudget(userID, budgetID string) error
	GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error)
	RecordExpense(tx *gorm.DB, userID, category, month string, amount models.Money) error
	ReverseExpense(tx *gorm.DB, userID, category, month string, amount models.Money) error
}

// GoalInput holds the fields for a new goal.
type GoalInput struct {
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      *string
	Priority      models.GoalPriority
}

// GoalUpdateFields holds the optional fields of a partial goal update.
type GoalUpdateFields struct {
	Name          *string
	TargetAmount  *decimal.Decimal
	CurrentAmount *decimal.Decimal
	Deadline      *string
	Priority      *models.GoalPriority
	Status        *models.GoalStatus
}

// GoalServicer defines the contract for the goal tracker.
type GoalServicer interface {
	CreateGoal(userID string, in GoalInput) (*models.Goal, error)
	ListGoals(userID string, status *models.GoalStatus) ([]models.Goal, error)
	GetGoalByID(userID, goalID string) (*models.Goal, error)
	UpdateGoal(userID, goalID string, fields GoalUpdateFields) (*models.Goal, error)
	DeleteGoal(userID, goalID string) error
	Contribute(userID, goalID string, amount decimal.Decimal) (*models.Goal, error)
	SetStatus(userID, goalID string, status models.GoalStatus) (*models.Goal, error)
	MarkComplete(userID, goalID string) (*models.Goal, error)
}

// TransactionIntent is a request to record a transaction.
type TransactionIntent struct {
	Type        models.TransactionType
	Amount      decimal.Decimal
	Category    string
	Description string
	AccountID   string
	ToAccountID *string
	Date        string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	AccountID *string
	Type      *models.TransactionType
	Category  *string
	Month     *string
}

// TransactionServicer defines the contract for the transaction processor.
type TransactionServicer interface {
	CreateTransaction(userID string, intent TransactionIntent) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
}

// AccountDrift is a stored balance that disagrees with the transaction log.
type AccountDrift struct {
	AccountID string       `json:"account_id"`
	Name      string       `json:"name"`
	Stored    models.Money `json:"stored"`
	Expected  models.Money `json:"expected"`
}

// BudgetDrift is a stored spent total that disagrees with the transaction log.
type BudgetDrift struct {
	BudgetID string       `json:"budget_id"`
	Category string       `json:"category"`
	Month    string       `json:"month"`
	Stored   models.Money `json:"stored"`
	Expected models.Money `json:"expected"`
}

// ReconcileReport lists every drift found for one user.
type ReconcileReport struct {
	UserID        string         `json:"user_id"`
	AccountDrifts []AccountDrift `json:"account_drifts"`
	BudgetDrifts  []BudgetDrift  `json:"budget_drifts"`
	Repaired      bool           `json:"repaired"`
}

// Clean reports whether no drift was found.
func (r *ReconcileReport) Clean() bool {
	return len(r.AccountDrifts) == 0 && len(r.BudgetDrifts) == 0
}

// ReconcileServicer recomputes derived totals from the transaction log.
type ReconcileServicer interface {
	Reconcile(userID string, dryRun bool) (*ReconcileReport, error)
	ReconcileAll(dryRun bool) ([]ReconcileReport, error)
}

// BudgetAlert is a budget at or above the warning threshold.
type BudgetAlert struct {
	BudgetID   string                   `json:"budget_id"`
	Category   string                   `json:"category"`
	Amount     models.Money             `json:"amount"`
	Spent      models.Money             `json:"spent"`
	Percentage decimal.Decimal          `json:"percentage"`
	Status     models.UtilizationStatus `json:"status"`
}

// DashboardSummary aggregates one month of ledger state.
type DashboardSummary struct {
	Month              string               `json:"month"`
	TotalBalance       models.Money         `json:"total_balance"`
	MonthlyIncome      models.Money         `json:"monthly_income"`
	MonthlyExpenses    models.Money         `json:"monthly_expenses"`
	ActiveGoals        int64                `json:"active_goals"`
	BudgetHealth       decimal.Decimal      `json:"budget_health"`
	BudgetAlerts       []BudgetAlert        `json:"budget_alerts"`
	RecentTransactions []models.Transaction `json:"recent_transactions"`
	ProjectedInterest  decimal.Decimal      `json:"projected_interest"`
}

// DashboardServicer defines the contract for the dashboard summary.
type DashboardServicer interface {
	GetSummary(userID, month string) (*DashboardSummary, error)
}
