package services

import (
	"sort"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
)

const recentTransactionLimit = 5

// dashboardService builds the monthly summary from independent reads.
type dashboardService struct {
	db *gorm.DB
}

// NewDashboardService creates a new DashboardServicer.
func NewDashboardService(db *gorm.DB) DashboardServicer {
	return &dashboardService{db: db}
}

// GetSummary aggregates balances, monthly flows, goals and budget health for
// month (the current month when empty).
func (s *dashboardService) GetSummary(userID, month string) (*DashboardSummary, error) {
	if month == "" {
		month = models.CurrentMonth()
	}
	if err := requireMonth(month); err != nil {
		return nil, err
	}

	summary := &DashboardSummary{
		Month:              month,
		BudgetHealth:       decimal.NewFromInt(100),
		BudgetAlerts:       []BudgetAlert{},
		RecentTransactions: []models.Transaction{},
		ProjectedInterest:  decimal.Zero,
	}

	var g errgroup.Group

	g.Go(func() error {
		var accounts []models.Account
		if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&accounts).Error; err != nil {
			return err
		}
		for i := range accounts {
			summary.TotalBalance += accounts[i].Balance
			summary.ProjectedInterest = summary.ProjectedInterest.Add(accounts[i].ProjectedInterest())
		}
		return nil
	})

	g.Go(func() error {
		var rows []struct {
			Type  models.TransactionType
			Total models.Money
		}
		if err := s.db.Model(&models.Transaction{}).
			Select("type, CAST(COALESCE(SUM(amount), 0) AS BIGINT) AS total").
			Where("user_id = ? AND date LIKE ? AND type IN ?", userID, month+"-%",
				[]models.TransactionType{models.TransactionTypeIncome, models.TransactionTypeExpense}).
			Group("type").
			Scan(&rows).Error; err != nil {
			return err
		}
		for _, r := range rows {
			switch r.Type {
			case models.TransactionTypeIncome:
				summary.MonthlyIncome = r.Total
			case models.TransactionTypeExpense:
				summary.MonthlyExpenses = r.Total
			}
		}
		return nil
	})

	g.Go(func() error {
		return s.db.Model(&models.Goal{}).
			Where("user_id = ? AND status = ?", userID, models.GoalStatusActive).
			Count(&summary.ActiveGoals).Error
	})

	g.Go(func() error {
		var budgets []models.Budget
		if err := s.db.Where("user_id = ? AND month = ?", userID, month).Find(&budgets).Error; err != nil {
			return err
		}
		summary.BudgetHealth, summary.BudgetAlerts = budgetHealth(budgets)
		return nil
	})

	g.Go(func() error {
		return s.db.Where("user_id = ?", userID).
			Order("date DESC").
			Order("created_at DESC").
			Limit(recentTransactionLimit).
			Find(&summary.RecentTransactions).Error
	})

	if err := g.Wait(); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return summary, nil
}

// budgetHealth is the mean of (100 - usage) over the budgets, with overspent
// budgets counting as zero; no budgets is full health. Alerts are the budgets
// at or above the warning band, highest usage first.
func budgetHealth(budgets []models.Budget) (decimal.Decimal, []BudgetAlert) {
	alerts := []BudgetAlert{}
	if len(budgets) == 0 {
		return decimal.NewFromInt(100), alerts
	}

	hundred := decimal.NewFromInt(100)
	total := decimal.Zero
	for _, b := range budgets {
		u := b.Utilization()
		if u.Percentage.LessThanOrEqual(hundred) {
			total = total.Add(hundred.Sub(u.Percentage))
		}
		if u.Status != models.UtilizationSafe {
			alerts = append(alerts, BudgetAlert{
				BudgetID:   b.ID,
				Category:   b.Category,
				Amount:     b.Amount,
				Spent:      b.Spent,
				Percentage: u.Percentage,
				Status:     u.Status,
			})
		}
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].Percentage.GreaterThan(alerts[j].Percentage)
	})
	return total.Div(decimal.NewFromInt(int64(len(budgets)))).Round(2), alerts
}
