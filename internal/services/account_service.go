package services

import (
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/sanitize"
)

// accountService owns account balances and applies transaction effects.
type accountService struct {
	db *gorm.DB
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB) AccountServicer {
	return &accountService{db: db}
}

// CreateAccount creates a new account. When IsPrimary is set the flag is
// moved from any other account in the same database transaction.
func (s *accountService) CreateAccount(userID string, in AccountInput) (*models.Account, error) {
	name := sanitize.Text(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if !in.Type.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account type must be day-to-day or fixed-deposit")
	}
	opening, err := toMoney("opening balance", in.OpeningBalance)
	if err != nil {
		return nil, err
	}
	if err := validateDepositTerms(in.InterestRate, in.DepositDate, in.MaturityDate); err != nil {
		return nil, err
	}
	if in.IsPrimary && in.Type != models.AccountTypeDayToDay {
		return nil, apperrors.ErrPrimaryNotAllowed
	}

	account := &models.Account{
		UserID:         userID,
		Name:           name,
		Type:           in.Type,
		Balance:        opening,
		OpeningBalance: opening,
		IsActive:       true,
		InterestRate:   in.InterestRate,
		DepositDate:    in.DepositDate,
		MaturityDate:   in.MaturityDate,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(account).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if in.IsPrimary {
			return setPrimary(tx, userID, account)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts returns the user's accounts, primary first, then by creation.
func (s *accountService) ListAccounts(userID string, includeInactive bool) ([]models.Account, error) {
	q := s.db.Where("user_id = ?", userID)
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}

	var accounts []models.Account
	if err := q.Order("is_primary DESC").Order("created_at ASC").Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return accounts, nil
}

// GetAccountByID retrieves an account by ID for a specific user, active or not.
func (s *accountService) GetAccountByID(userID, accountID string) (*models.Account, error) {
	return findAccount(s.db, userID, accountID)
}

// UpdateAccount applies a partial update. A balance correction shifts the
// opening balance by the same delta so the ledger invariant still holds.
func (s *accountService) UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	var account *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = findAccount(tx, userID, accountID)
		if err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if fields.Name != nil {
			name := sanitize.Text(*fields.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "account name cannot be empty")
			}
			updates["name"] = name
			account.Name = name
		}
		if fields.Type != nil {
			if !fields.Type.Valid() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "account type must be day-to-day or fixed-deposit")
			}
			updates["type"] = *fields.Type
			account.Type = *fields.Type
		}
		if fields.IsActive != nil {
			updates["is_active"] = *fields.IsActive
			account.IsActive = *fields.IsActive
		}

		if account.Type == models.AccountTypeFixedDeposit {
			rate, deposit, maturity := account.InterestRate, account.DepositDate, account.MaturityDate
			if fields.InterestRate != nil {
				rate = fields.InterestRate
			}
			if fields.DepositDate != nil {
				deposit = fields.DepositDate
			}
			if fields.MaturityDate != nil {
				maturity = fields.MaturityDate
			}
			if err := validateDepositTerms(rate, deposit, maturity); err != nil {
				return err
			}
			updates["interest_rate"], updates["deposit_date"], updates["maturity_date"] = rate, deposit, maturity
			account.InterestRate, account.DepositDate, account.MaturityDate = rate, deposit, maturity
		} else if fields.Type != nil {
			updates["interest_rate"], updates["deposit_date"], updates["maturity_date"] = nil, nil, nil
			account.InterestRate, account.DepositDate, account.MaturityDate = nil, nil, nil
		}

		if fields.Balance != nil {
			balance, err := toMoney("balance", *fields.Balance)
			if err != nil {
				return err
			}
			delta := balance - account.Balance
			updates["balance"] = gorm.Expr("balance + ?", delta)
			updates["opening_balance"] = gorm.Expr("opening_balance + ?", delta)
		}

		// Primary only survives on an active day-to-day account.
		if !account.CanBePrimary() {
			if fields.IsPrimary != nil && *fields.IsPrimary {
				return apperrors.ErrPrimaryNotAllowed
			}
			if account.IsPrimary {
				updates["is_primary"] = false
			}
		} else if fields.IsPrimary != nil && !*fields.IsPrimary {
			updates["is_primary"] = false
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Account{}).
				Where("id = ? AND user_id = ?", account.ID, userID).
				Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if fields.IsPrimary != nil && *fields.IsPrimary {
			if err := setPrimary(tx, userID, account); err != nil {
				return err
			}
		}

		account, err = findAccount(tx, userID, accountID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// DeleteAccount hard-deletes an account with no transaction history. An
// account with history is disabled instead and disabled is true.
func (s *accountService) DeleteAccount(userID, accountID string) (bool, error) {
	disabled := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		account, err := findAccount(tx, userID, accountID)
		if err != nil {
			return err
		}

		var history int64
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND (account_id = ? OR to_account_id = ?)", userID, account.ID, account.ID).
			Count(&history).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if history == 0 {
			if err := tx.Delete(account).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return nil
		}

		disabled = true
		if err := tx.Model(account).Updates(map[string]interface{}{
			"is_active":  false,
			"is_primary": false,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return disabled, nil
}

// SetPrimary makes accountID the user's only primary account.
func (s *accountService) SetPrimary(userID, accountID string) (*models.Account, error) {
	var account *models.Account
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		account, err = findAccount(tx, userID, accountID)
		if err != nil {
			return err
		}
		return setPrimary(tx, userID, account)
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ApplyTransactionEffect adds the transaction's signed amounts to every
// account it touches. Balances may go negative.
func (s *accountService) ApplyTransactionEffect(tx *gorm.DB, t *models.Transaction) error {
	return applyEffects(tx, t.UserID, t.Effects(), false)
}

// ReverseTransactionEffect undoes ApplyTransactionEffect exactly.
func (s *accountService) ReverseTransactionEffect(tx *gorm.DB, t *models.Transaction) error {
	return applyEffects(tx, t.UserID, t.Effects(), true)
}

// applyEffects uses in-place increments so concurrent writers never lose
// an update. Accounts are updated in ID order so two transfers between the
// same pair of accounts lock their rows in the same order.
func applyEffects(tx *gorm.DB, userID string, effects map[string]models.Money, reverse bool) error {
	ids := make([]string, 0, len(effects))
	for id := range effects {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, accountID := range ids {
		delta := effects[accountID]
		if reverse {
			delta = delta.Neg()
		}
		res := tx.Model(&models.Account{}).
			Where("id = ? AND user_id = ?", accountID, userID).
			Update("balance", gorm.Expr("balance + ?", delta))
		if res.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
		}
		if res.RowsAffected == 0 {
			return apperrors.ErrAccountNotFound
		}
	}
	return nil
}

// setPrimary clears the flag on every other account of the user, then sets
// it on account. It must run inside the caller's transaction.
func setPrimary(tx *gorm.DB, userID string, account *models.Account) error {
	if !account.CanBePrimary() {
		return apperrors.ErrPrimaryNotAllowed
	}

	if err := tx.Model(&models.Account{}).
		Where("user_id = ? AND id <> ? AND is_primary = ?", userID, account.ID, true).
		Update("is_primary", false).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", account.ID, userID).
		Update("is_primary", true).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	account.IsPrimary = true
	return nil
}

func findAccount(db *gorm.DB, userID, accountID string) (*models.Account, error) {
	var account models.Account
	if err := db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &account, nil
}

// findActiveAccount is findAccount for accounts that must accept new entries.
func findActiveAccount(db *gorm.DB, userID, accountID string) (*models.Account, error) {
	account, err := findAccount(db, userID, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, apperrors.ErrAccountInactive
	}
	return account, nil
}

func validateDepositTerms(rate *decimal.Decimal, deposit, maturity *string) error {
	if rate != nil {
		if err := requireRate(*rate); err != nil {
			return err
		}
	}
	if deposit != nil {
		if err := requireDate("deposit date", *deposit); err != nil {
			return err
		}
	}
	if maturity != nil {
		if err := requireDate("maturity date", *maturity); err != nil {
			return err
		}
	}
	if deposit != nil && maturity != nil && *maturity < *deposit {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "maturity date must not be before deposit date")
	}
	return nil
}
