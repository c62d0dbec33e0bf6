package services

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/events"
	"fintrack/internal/models"
	"fintrack/internal/sanitize"
)

// goalService tracks savings goals and their progress.
type goalService struct {
	db        *gorm.DB
	publisher events.Publisher
}

// NewGoalService creates a new GoalServicer. A nil publisher discards events.
func NewGoalService(db *gorm.DB, publisher events.Publisher) GoalServicer {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &goalService{db: db, publisher: publisher}
}

// CreateGoal creates a goal. One created at or above its target starts completed.
func (s *goalService) CreateGoal(userID string, in GoalInput) (*models.Goal, error) {
	name := sanitize.Text(in.Name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name is required")
	}
	target, err := positiveMoney("target amount", in.TargetAmount)
	if err != nil {
		return nil, err
	}
	current, err := nonNegativeMoney("current amount", in.CurrentAmount)
	if err != nil {
		return nil, err
	}
	if in.Deadline != nil {
		if err := requireDate("deadline", *in.Deadline); err != nil {
			return nil, err
		}
	}
	priority := in.Priority
	if priority == "" {
		priority = models.GoalPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "priority must be low, medium, high or critical")
	}

	goal := &models.Goal{
		UserID:        userID,
		Name:          name,
		TargetAmount:  target,
		CurrentAmount: current,
		Deadline:      in.Deadline,
		Priority:      priority,
		Status:        models.GoalStatusActive,
	}
	goal.RecomputeStatus()

	if err := s.db.Create(goal).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return goal, nil
}

// ListGoals returns goals ordered by priority (critical first), then by
// deadline with undated goals last.
func (s *goalService) ListGoals(userID string, status *models.GoalStatus) ([]models.Goal, error) {
	q := s.db.Where("user_id = ?", userID)
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var goals []models.Goal
	if err := q.Order("created_at ASC").Find(&goals).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	sort.SliceStable(goals, func(i, j int) bool {
		a, b := goals[i], goals[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		switch {
		case a.Deadline == nil:
			return false
		case b.Deadline == nil:
			return true
		default:
			return *a.Deadline < *b.Deadline
		}
	})
	return goals, nil
}

// GetGoalByID returns a goal by ID if it belongs to the user.
func (s *goalService) GetGoalByID(userID, goalID string) (*models.Goal, error) {
	return findGoal(s.db, userID, goalID)
}

// UpdateGoal applies a partial edit. Whenever the resulting progress reaches
// the target the goal is completed, overriding any status in the same edit.
// Completed cannot be requested directly.
func (s *goalService) UpdateGoal(userID, goalID string, fields GoalUpdateFields) (*models.Goal, error) {
	if fields.Status != nil && *fields.Status != models.GoalStatusActive && *fields.Status != models.GoalStatusPaused {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be active or paused; use contribute or complete to finish a goal")
	}

	var goal *models.Goal
	completed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		goal, err = findGoal(tx, userID, goalID)
		if err != nil {
			return err
		}
		wasComplete := goal.IsComplete()

		if fields.Name != nil {
			name := sanitize.Text(*fields.Name)
			if name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "goal name cannot be empty")
			}
			goal.Name = name
		}
		if fields.TargetAmount != nil {
			goal.TargetAmount, err = positiveMoney("target amount", *fields.TargetAmount)
			if err != nil {
				return err
			}
		}
		if fields.CurrentAmount != nil {
			goal.CurrentAmount, err = nonNegativeMoney("current amount", *fields.CurrentAmount)
			if err != nil {
				return err
			}
		}
		if fields.Deadline != nil {
			if err := requireDate("deadline", *fields.Deadline); err != nil {
				return err
			}
			goal.Deadline = fields.Deadline
		}
		if fields.Priority != nil {
			if !fields.Priority.Valid() {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "priority must be low, medium, high or critical")
			}
			goal.Priority = *fields.Priority
		}

		switch {
		case fields.Status != nil:
			goal.Status = *fields.Status
		case wasComplete && goal.CurrentAmount < goal.TargetAmount:
			// progress edited back below target
			goal.Status = models.GoalStatusActive
		}
		goal.RecomputeStatus()
		completed = !wasComplete && goal.IsComplete()

		if err := tx.Save(goal).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.publishCompleted(goal)
	}
	return goal, nil
}

// DeleteGoal removes a goal.
func (s *goalService) DeleteGoal(userID, goalID string) error {
	res := s.db.Where("id = ? AND user_id = ?", goalID, userID).Delete(&models.Goal{})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrGoalNotFound
	}
	return nil
}

// Contribute adds amount to the goal, clamped at the target.
func (s *goalService) Contribute(userID, goalID string, value decimal.Decimal) (*models.Goal, error) {
	amount, err := positiveMoney("amount", value)
	if err != nil {
		return nil, err
	}

	var goal *models.Goal
	completed := false
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		goal, err = findGoal(tx, userID, goalID)
		if err != nil {
			return err
		}

		completed = goal.Contribute(amount)
		if err := tx.Model(goal).Updates(map[string]interface{}{
			"current_amount": goal.CurrentAmount,
			"status":         goal.Status,
		}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if completed {
		s.publishCompleted(goal)
	}
	return goal, nil
}

// SetStatus moves a goal between active and paused.
func (s *goalService) SetStatus(userID, goalID string, status models.GoalStatus) (*models.Goal, error) {
	if status != models.GoalStatusActive && status != models.GoalStatusPaused {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be active or paused")
	}

	goal, err := findGoal(s.db, userID, goalID)
	if err != nil {
		return nil, err
	}
	if goal.IsComplete() {
		return nil, apperrors.ErrInvalidGoalTransition
	}

	if err := s.db.Model(goal).Update("status", status).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	goal.Status = status
	return goal, nil
}

// MarkComplete forces the goal to completed at its full target.
func (s *goalService) MarkComplete(userID, goalID string) (*models.Goal, error) {
	goal, err := findGoal(s.db, userID, goalID)
	if err != nil {
		return nil, err
	}
	wasComplete := goal.IsComplete()

	goal.MarkComplete()
	if err := s.db.Model(goal).Updates(map[string]interface{}{
		"current_amount": goal.CurrentAmount,
		"status":         goal.Status,
	}).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if !wasComplete {
		s.publishCompleted(goal)
	}
	return goal, nil
}

func (s *goalService) publishCompleted(goal *models.Goal) {
	s.publisher.Publish(context.Background(), events.New(events.GoalCompleted, goal.UserID, goal.ID, map[string]interface{}{
		"name":          goal.Name,
		"target_amount": goal.TargetAmount,
	}))
}

func findGoal(db *gorm.DB, userID, goalID string) (*models.Goal, error) {
	var goal models.Goal
	if err := db.Where("id = ? AND user_id = ?", goalID, userID).First(&goal).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGoalNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &goal, nil
}
