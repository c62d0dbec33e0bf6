package models

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionTypeIncome, TransactionTypeExpense, TransactionTypeTransfer:
		return true
	}
	return false
}

// Transaction is an immutable ledger entry. It is never edited in place;
// correcting one means deleting it and recording a new one.
type Transaction struct {
	Base
	UserID      string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type        TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Amount      Money           `gorm:"type:bigint;not null" json:"amount"`
	Category    string          `gorm:"not null" json:"category"`
	Description string          `json:"description"`
	AccountID   string          `gorm:"type:uuid;not null;index" json:"account_id"`
	ToAccountID *string         `gorm:"type:uuid;index" json:"to_account_id,omitempty"`
	Date        string          `gorm:"type:varchar(10);not null;index" json:"date"`
}

// Month returns the YYYY-MM bucket the transaction belongs to.
func (t *Transaction) Month() string {
	return MonthOf(t.Date)
}

// Effects returns the signed balance change the transaction applies to each
// account it touches.
func (t *Transaction) Effects() map[string]Money {
	effects := make(map[string]Money, 2)
	switch t.Type {
	case TransactionTypeIncome:
		effects[t.AccountID] = t.Amount
	case TransactionTypeExpense:
		effects[t.AccountID] = -t.Amount
	case TransactionTypeTransfer:
		effects[t.AccountID] = -t.Amount
		if t.ToAccountID != nil {
			effects[*t.ToAccountID] += t.Amount
		}
	}
	return effects
}
