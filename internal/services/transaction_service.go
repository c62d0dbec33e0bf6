package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/events"
	"fintrack/internal/models"
	"fintrack/internal/pagination"
	"fintrack/internal/sanitize"
)

// transactionService records and removes transactions, keeping account
// balances and budget spend in step inside one database transaction.
type transactionService struct {
	db             *gorm.DB
	accountService AccountServicer
	budgetService  BudgetServicer
	publisher      events.Publisher
}

// NewTransactionService creates a new TransactionServicer. A nil publisher
// discards events.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, budgetService BudgetServicer, publisher events.Publisher) TransactionServicer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &transactionService{
		db:             db,
		accountService: accountService,
		budgetService:  budgetService,
		publisher:      publisher,
	}
}

// CreateTransaction validates the intent, persists the record, applies its
// balance effect and, for expenses, its budget spend. Either all three
// writes commit or none do.
func (s *transactionService) CreateTransaction(userID string, intent TransactionIntent) (*models.Transaction, error) {
	transaction, err := buildTransaction(userID, intent)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := findActiveAccount(tx, userID, transaction.AccountID); err != nil {
			return err
		}
		if transaction.ToAccountID != nil {
			if _, err := findActiveAccount(tx, userID, *transaction.ToAccountID); err != nil {
				return err
			}
		}

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := s.accountService.ApplyTransactionEffect(tx, transaction); err != nil {
			return err
		}
		if transaction.Type == models.TransactionTypeExpense {
			return s.budgetService.RecordExpense(tx, userID, transaction.Category, transaction.Month(), transaction.Amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(context.Background(), events.New(events.TransactionCreated, userID, transaction.ID, transaction))
	return transaction, nil
}

// DeleteTransaction reverses the transaction's effects using its own stored
// category and date, then removes the record.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	var transaction *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transaction, err = findTransaction(tx, userID, transactionID)
		if err != nil {
			return err
		}

		if err := s.accountService.ReverseTransactionEffect(tx, transaction); err != nil {
			return err
		}
		if transaction.Type == models.TransactionTypeExpense {
			if err := s.budgetService.ReverseExpense(tx, userID, transaction.Category, transaction.Month(), transaction.Amount); err != nil {
				return err
			}
		}
		if err := tx.Delete(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publisher.Publish(context.Background(), events.New(events.TransactionDeleted, userID, transaction.ID, transaction))
	return nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	return findTransaction(s.db, userID, transactionID)
}

// GetUserTransactions returns a filtered page of transactions, newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	if filter.Month != nil {
		if err := requireMonth(*filter.Month); err != nil {
			return nil, err
		}
	}

	base := applyTransactionFilters(s.db.Model(&models.Transaction{}).Where("user_id = ?", userID), filter)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("date DESC").
		Order("created_at DESC").
		Order("id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.AccountID != nil {
		q = q.Where("(account_id = ? OR to_account_id = ?)", *f.AccountID, *f.AccountID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.Category != nil {
		q = q.Where("category = ?", *f.Category)
	}
	if f.Month != nil {
		q = q.Where("date LIKE ?", *f.Month+"-%")
	}
	return q
}

// buildTransaction validates an intent and normalizes it into a record.
func buildTransaction(userID string, intent TransactionIntent) (*models.Transaction, error) {
	if !intent.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	amount, err := positiveMoney("amount", intent.Amount)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(intent.AccountID) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account ID is required")
	}

	date := intent.Date
	if date == "" {
		date = models.Today()
	} else if err := requireDate("date", date); err != nil {
		return nil, err
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Type:        intent.Type,
		Amount:      amount,
		Description: sanitize.Text(intent.Description),
		AccountID:   intent.AccountID,
		Date:        date,
	}

	if intent.Type == models.TransactionTypeTransfer {
		if intent.ToAccountID == nil || strings.TrimSpace(*intent.ToAccountID) == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "destination account ID is required for transfers")
		}
		if *intent.ToAccountID == intent.AccountID {
			return nil, apperrors.ErrSameAccountTransfer
		}
		to := *intent.ToAccountID
		transaction.ToAccountID = &to
		transaction.Category = models.TransferCategory
		return transaction, nil
	}

	transaction.Category = sanitize.Text(intent.Category)
	if transaction.Category == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category is required")
	}
	return transaction, nil
}

func findTransaction(db *gorm.DB, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}
