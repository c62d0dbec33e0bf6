package services

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/sanitize"
)

// budgetService tracks per-category monthly caps and their running spend.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// CreateBudget upserts the budget for (user, category, month). An existing
// row only has its amount replaced. A new row has spent seeded from the
// expenses already recorded for that category and month.
func (s *budgetService) CreateBudget(userID, category string, value decimal.Decimal, month string) (*models.Budget, error) {
	category = sanitize.Text(category)
	if category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	amount, err := positiveMoney("amount", value)
	if err != nil {
		return nil, err
	}
	if err := requireMonth(month); err != nil {
		return nil, err
	}

	var budget models.Budget
	err = s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND category = ? AND month = ?", userID, category, month).First(&budget).Error
		switch {
		case err == nil:
			budget.Amount = amount
			if err := tx.Model(&budget).Update("amount", amount).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		spent, err := sumExpenses(tx, userID, category, month)
		if err != nil {
			return err
		}
		budget = models.Budget{
			UserID:   userID,
			Category: category,
			Month:    month,
			Amount:   amount,
			Spent:    spent,
		}
		if err := tx.Create(&budget).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

// ListBudgets returns the month's budgets with utilization, ordered by category.
func (s *budgetService) ListBudgets(userID, month string) ([]BudgetProgress, error) {
	if month == "" {
		month = models.CurrentMonth()
	}
	if err := requireMonth(month); err != nil {
		return nil, err
	}

	var budgets []models.Budget
	if err := s.db.Where("user_id = ? AND month = ?", userID, month).
		Order("category ASC").
		Find(&budgets).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make([]BudgetProgress, len(budgets))
	for i, b := range budgets {
		result[i] = BudgetProgress{Budget: b, Utilization: b.Utilization()}
	}
	return result, nil
}

// GetBudgetByID returns a budget by ID if it belongs to the user.
func (s *budgetService) GetBudgetByID(userID, budgetID string) (*models.Budget, error) {
	var budget models.Budget
	if err := s.db.Where("id = ? AND user_id = ?", budgetID, userID).First(&budget).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrBudgetNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &budget, nil
}

// UpdateBudget replaces the cap. Spent is never edited directly.
func (s *budgetService) UpdateBudget(userID, budgetID string, value decimal.Decimal) (*models.Budget, error) {
	amount, err := positiveMoney("amount", value)
	if err != nil {
		return nil, err
	}

	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}

	if err := s.db.Model(budget).Update("amount", amount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	budget.Amount = amount
	return budget, nil
}

// DeleteBudget removes a budget. Transactions are untouched.
func (s *budgetService) DeleteBudget(userID, budgetID string) error {
	res := s.db.Where("id = ? AND user_id = ?", budgetID, userID).Delete(&models.Budget{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrBudgetNotFound
	}
	return nil
}

// GetBudgetProgress returns the budget with its utilization.
func (s *budgetService) GetBudgetProgress(userID, budgetID string) (*BudgetProgress, error) {
	budget, err := s.GetBudgetByID(userID, budgetID)
	if err != nil {
		return nil, err
	}
	return &BudgetProgress{Budget: *budget, Utilization: budget.Utilization()}, nil
}

// RecordExpense adds amount to the matching budget's spent. When no budget
// exists for the category and month nothing happens.
func (s *budgetService) RecordExpense(tx *gorm.DB, userID, category, month string, amount models.Money) error {
	return adjustSpent(tx, userID, category, month, amount)
}

// ReverseExpense subtracts amount from the matching budget's spent.
func (s *budgetService) ReverseExpense(tx *gorm.DB, userID, category, month string, amount models.Money) error {
	return adjustSpent(tx, userID, category, month, amount.Neg())
}

func adjustSpent(tx *gorm.DB, userID, category, month string, delta models.Money) error {
	err := tx.Model(&models.Budget{}).
		Where("user_id = ? AND category = ? AND month = ?", userID, category, month).
		Update("spent", gorm.Expr("spent + ?", delta)).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

type sumResult struct {
	Total models.Money
}

// sumExpenses totals the expense transactions for a category in a month.
func sumExpenses(db *gorm.DB, userID, category, month string) (models.Money, error) {
	var res sumResult
	err := db.Model(&models.Transaction{}).
		Select("CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS total").
		Where("user_id = ? AND category = ? AND type = ? AND date LIKE ?",
			userID, category, models.TransactionTypeExpense, month+"-%").
		Scan(&res).Error
	if err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return res.Total, nil
}
