package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeDayToDay     AccountType = "day-to-day"
	AccountTypeFixedDeposit AccountType = "fixed-deposit"
)

// MaxInterestRate is the highest annual rate, in percent, a deposit may carry.
var MaxInterestRate = decimal.NewFromInt(100)

// Valid reports whether t is a known account type.
func (t AccountType) Valid() bool {
	return t == AccountTypeDayToDay || t == AccountTypeFixedDeposit
}

// Account represents a financial account in the system.
// Balance always equals OpeningBalance plus the signed effects of every
// committed transaction touching the account.
type Account struct {
	Base
	UserID         string      `gorm:"type:uuid;not null;index" json:"user_id"`
	Name           string      `gorm:"not null" json:"name"`
	Type           AccountType `gorm:"type:varchar(20);not null" json:"type"`
	Balance        Money       `gorm:"type:bigint;not null;default:0" json:"balance"`
	OpeningBalance Money       `gorm:"type:bigint;not null;default:0" json:"opening_balance"`
	IsActive       bool        `gorm:"not null;default:true" json:"is_active"`
	IsPrimary      bool        `gorm:"not null;default:false" json:"is_primary"`

	// Fixed-deposit only
	InterestRate *decimal.Decimal `gorm:"type:decimal(7,4)" json:"interest_rate,omitempty"`
	DepositDate  *string          `gorm:"type:varchar(10)" json:"deposit_date,omitempty"`
	MaturityDate *string          `gorm:"type:varchar(10)" json:"maturity_date,omitempty"`
}

// BeforeCreate assigns the ID and clears fields that do not apply to the type
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if err := a.Base.BeforeCreate(tx); err != nil {
		return err
	}
	if a.Type != AccountTypeFixedDeposit {
		a.InterestRate = nil
		a.DepositDate = nil
		a.MaturityDate = nil
	}
	return nil
}

// CanBePrimary reports whether the account may hold the primary flag.
func (a *Account) CanBePrimary() bool {
	return a.IsActive && a.Type == AccountTypeDayToDay
}

// ProjectedInterest returns the simple interest a fixed deposit earns between
// its deposit and maturity dates: balance * rate/100 * days/365, rounded to
// cents. Anything that is not a dated fixed deposit earns zero.
func (a *Account) ProjectedInterest() decimal.Decimal {
	if a.Type != AccountTypeFixedDeposit || a.InterestRate == nil ||
		a.DepositDate == nil || a.MaturityDate == nil {
		return decimal.Zero
	}
	start, err := time.Parse(DateLayout, *a.DepositDate)
	if err != nil {
		return decimal.Zero
	}
	end, err := time.Parse(DateLayout, *a.MaturityDate)
	if err != nil || !end.After(start) {
		return decimal.Zero
	}
	days := decimal.NewFromInt(int64(end.Sub(start).Hours() / 24))
	return a.Balance.Decimal().
		Mul(*a.InterestRate).
		Div(decimal.NewFromInt(100)).
		Mul(days).
		Div(decimal.NewFromInt(365)).
		Round(2)
}
