package services

import (
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
)

const reconcileBatchSize = 500

// reconcileService recomputes account balances and budget spend from the
// transaction log and repairs drift.
type reconcileService struct {
	db *gorm.DB
}

// NewReconcileService creates a new ReconcileServicer.
func NewReconcileService(db *gorm.DB) ReconcileServicer {
	return &reconcileService{db: db}
}

type budgetKey struct {
	category string
	month    string
}

// Reconcile reports every drifted balance and spent total for the user.
// Unless dryRun is set, all drifts are repaired in one database transaction.
//
// The user's account and budget rows are locked before the transaction log
// is read. A concurrent write has either committed by then and is counted,
// or it blocks on the lock and lands on top of the repaired value. Dry runs
// take a share lock so the report never mixes two ledger states.
func (s *reconcileService) Reconcile(userID string, dryRun bool) (*ReconcileReport, error) {
	report := &ReconcileReport{
		UserID:        userID,
		AccountDrifts: []AccountDrift{},
		BudgetDrifts:  []BudgetDrift{},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		strength := clause.LockingStrengthUpdate
		if dryRun {
			strength = clause.LockingStrengthShare
		}
		lock := clause.Locking{Strength: strength}

		// Lock in ID order, the same order applyEffects updates accounts in.
		var accounts []models.Account
		if err := tx.Clauses(lock).Where("user_id = ?", userID).Order("id ASC").Find(&accounts).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		var budgets []models.Budget
		if err := tx.Clauses(lock).Where("user_id = ?", userID).Order("id ASC").Find(&budgets).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		sort.SliceStable(accounts, func(i, j int) bool {
			return accounts[i].CreatedAt.Before(accounts[j].CreatedAt)
		})
		sort.SliceStable(budgets, func(i, j int) bool {
			if budgets[i].Month != budgets[j].Month {
				return budgets[i].Month < budgets[j].Month
			}
			return budgets[i].Category < budgets[j].Category
		})

		balances := make(map[string]models.Money, len(accounts))
		for _, a := range accounts {
			balances[a.ID] = a.OpeningBalance
		}
		spent := make(map[budgetKey]models.Money)

		var batch []models.Transaction
		res := tx.Where("user_id = ?", userID).FindInBatches(&batch, reconcileBatchSize, func(_ *gorm.DB, _ int) error {
			for i := range batch {
				t := &batch[i]
				for accountID, delta := range t.Effects() {
					balances[accountID] += delta
				}
				if t.Type == models.TransactionTypeExpense {
					spent[budgetKey{category: t.Category, month: t.Month()}] += t.Amount
				}
			}
			return nil
		})
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}

		for _, a := range accounts {
			expected := balances[a.ID]
			if a.Balance != expected {
				report.AccountDrifts = append(report.AccountDrifts, AccountDrift{
					AccountID: a.ID,
					Name:      a.Name,
					Stored:    a.Balance,
					Expected:  expected,
				})
			}
		}
		for _, b := range budgets {
			expected := spent[budgetKey{category: b.Category, month: b.Month}]
			if b.Spent != expected {
				report.BudgetDrifts = append(report.BudgetDrifts, BudgetDrift{
					BudgetID: b.ID,
					Category: b.Category,
					Month:    b.Month,
					Stored:   b.Spent,
					Expected: expected,
				})
			}
		}

		if dryRun || report.Clean() {
			return nil
		}

		for _, d := range report.AccountDrifts {
			if err := tx.Model(&models.Account{}).
				Where("id = ? AND user_id = ?", d.AccountID, userID).
				Update("balance", d.Expected).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		for _, d := range report.BudgetDrifts {
			if err := tx.Model(&models.Budget{}).
				Where("id = ? AND user_id = ?", d.BudgetID, userID).
				Update("spent", d.Expected).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		report.Repaired = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.Clean() {
		logger.Named("reconcile").Warnw("Ledger drift detected",
			"user_id", userID,
			"account_drifts", len(report.AccountDrifts),
			"budget_drifts", len(report.BudgetDrifts),
			"repaired", report.Repaired,
		)
	}
	return report, nil
}

// ReconcileAll runs Reconcile for every user.
func (s *reconcileService) ReconcileAll(dryRun bool) ([]ReconcileReport, error) {
	var userIDs []string
	if err := s.db.Model(&models.User{}).Order("created_at ASC").Pluck("id", &userIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	reports := make([]ReconcileReport, 0, len(userIDs))
	for _, id := range userIDs {
		report, err := s.Reconcile(id, dryRun)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}
