package models

// GoalPriority ranks how urgent a savings goal is
type GoalPriority string

const (
	GoalPriorityLow      GoalPriority = "low"
	GoalPriorityMedium   GoalPriority = "medium"
	GoalPriorityHigh     GoalPriority = "high"
	GoalPriorityCritical GoalPriority = "critical"
)

// Rank orders priorities from critical (0) to low (3).
func (p GoalPriority) Rank() int {
	switch p {
	case GoalPriorityCritical:
		return 0
	case GoalPriorityHigh:
		return 1
	case GoalPriorityMedium:
		return 2
	default:
		return 3
	}
}

// Valid reports whether p is a known priority.
func (p GoalPriority) Valid() bool {
	switch p {
	case GoalPriorityLow, GoalPriorityMedium, GoalPriorityHigh, GoalPriorityCritical:
		return true
	}
	return false
}

// GoalStatus is the lifecycle state of a goal
type GoalStatus string

const (
	GoalStatusActive    GoalStatus = "active"
	GoalStatusCompleted GoalStatus = "completed"
	GoalStatusPaused    GoalStatus = "paused"
)

// Goal is a savings target.
type Goal struct {
	Base
	UserID        string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string       `gorm:"not null" json:"name"`
	TargetAmount  Money        `gorm:"type:bigint;not null" json:"target_amount"`
	CurrentAmount Money        `gorm:"type:bigint;not null;default:0" json:"current_amount"`
	Deadline      *string      `gorm:"type:varchar(10)" json:"deadline,omitempty"`
	Priority      GoalPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	Status        GoalStatus   `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
}

// IsComplete reports whether the goal is in the completed state.
func (g *Goal) IsComplete() bool {
	return g.Status == GoalStatusCompleted
}

// Contribute adds amount to the goal, clamped at the target. The goal becomes
// completed once the target is reached; otherwise the status is left alone,
// so a paused goal stays paused. It reports whether this call completed it.
func (g *Goal) Contribute(amount Money) bool {
	wasComplete := g.IsComplete()
	g.CurrentAmount = min(g.CurrentAmount+amount, g.TargetAmount)
	if g.CurrentAmount >= g.TargetAmount {
		g.Status = GoalStatusCompleted
	}
	return !wasComplete && g.IsComplete()
}

// MarkComplete forces the goal to completed at its full target amount.
func (g *Goal) MarkComplete() {
	g.CurrentAmount = g.TargetAmount
	g.Status = GoalStatusCompleted
}

// RecomputeStatus marks the goal completed when progress has reached the
// target. It never moves a goal out of completed.
func (g *Goal) RecomputeStatus() {
	if g.CurrentAmount >= g.TargetAmount {
		g.Status = GoalStatusCompleted
	}
}
