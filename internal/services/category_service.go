package services

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/logger"
	"fintrack/internal/models"
	"fintrack/internal/sanitize"
)

const defaultsCacheKey = "default-categories"

// categoryService handles the category registry. Default categories are
// read-mostly and cached.
type categoryService struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewCategoryService creates a new CategoryServicer. A zero ttl uses ten minutes.
func NewCategoryService(db *gorm.DB, ttl time.Duration) CategoryServicer {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &categoryService{
		db:    db,
		cache: cache.New(ttl, 2*ttl),
	}
}

// EnsureDefaults inserts any missing default category. Safe to run repeatedly.
func (s *categoryService) EnsureDefaults() error {
	var existing []models.Category
	if err := s.db.Where("is_default = ? AND user_id IS NULL", true).Find(&existing).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	have := make(map[string]bool, len(existing))
	for _, c := range existing {
		have[c.Name] = true
	}

	var missing []models.Category
	for _, c := range models.DefaultCategories {
		if !have[c.Name] {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}

	if err := s.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&missing).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	s.cache.Delete(defaultsCacheKey)
	logger.Named("categories").Infow("Seeded default categories", "count", len(missing))
	return nil
}

// ListCategories returns the defaults followed by the user's own categories,
// each group ordered by name.
func (s *categoryService) ListCategories(userID string, categoryType *models.CategoryType) ([]models.Category, error) {
	defaults, err := s.defaults()
	if err != nil {
		return nil, err
	}

	var own []models.Category
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&own).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := make([]models.Category, 0, len(defaults)+len(own))
	for _, group := range [][]models.Category{defaults, own} {
		for _, c := range group {
			if categoryType == nil || c.Type == *categoryType {
				result = append(result, c)
			}
		}
	}
	return result, nil
}

// CreateCategory adds a user-owned category. Names are unique per user,
// case-insensitively, including the defaults.
func (s *categoryService) CreateCategory(userID, name string, categoryType models.CategoryType) (*models.Category, error) {
	name = sanitize.Text(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if categoryType != models.CategoryTypeIncome && categoryType != models.CategoryTypeExpense {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category type must be income or expense")
	}
	if strings.EqualFold(name, models.TransferCategory) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "Transfer is a reserved category")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("LOWER(name) = LOWER(?) AND (user_id = ? OR user_id IS NULL)", name, userID).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateCategory
	}

	category := &models.Category{
		UserID: &userID,
		Name:   name,
		Type:   categoryType,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// DeleteCategory removes one of the user's own categories. Defaults cannot
// be deleted and report not found. Transactions and budgets keep the label.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Delete(&category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *categoryService) defaults() ([]models.Category, error) {
	if cached, ok := s.cache.Get(defaultsCacheKey); ok {
		return cached.([]models.Category), nil
	}

	var defaults []models.Category
	if err := s.db.Where("is_default = ? AND user_id IS NULL", true).Find(&defaults).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	sort.Slice(defaults, func(i, j int) bool { return defaults[i].Name < defaults[j].Name })

	s.cache.SetDefault(defaultsCacheKey, defaults)
	return defaults, nil
}
