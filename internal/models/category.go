package models

// CategoryType represents the type of category
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// TransferCategory is the fixed label every transfer is recorded under.
const TransferCategory = "Transfer"

// Category is a transaction label. Defaults have no owner and are shared by
// every user.
type Category struct {
	Base
	UserID    *string      `gorm:"type:uuid;index" json:"user_id,omitempty"`
	Name      string       `gorm:"not null" json:"name"`
	Type      CategoryType `gorm:"type:varchar(10);not null" json:"type"`
	IsDefault bool         `gorm:"not null;default:false" json:"is_default"`
}

// DefaultCategories is the built-in category set.
var DefaultCategories = []Category{
	{Name: "Salary", Type: CategoryTypeIncome, IsDefault: true},
	{Name: "Freelance", Type: CategoryTypeIncome, IsDefault: true},
	{Name: "Investments", Type: CategoryTypeIncome, IsDefault: true},
	{Name: "Other Income", Type: CategoryTypeIncome, IsDefault: true},
	{Name: "Food & Dining", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Transportation", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Utilities", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Entertainment", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Shopping", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Healthcare", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Education", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Bills & Fees", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Savings", Type: CategoryTypeExpense, IsDefault: true},
	{Name: "Other", Type: CategoryTypeExpense, IsDefault: true},
}
