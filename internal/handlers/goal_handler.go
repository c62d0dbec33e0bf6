package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/models"
	"fintrack/internal/services"
)

// GoalHandler handles savings goal requests.
type GoalHandler struct {
	goalService services.GoalServicer
}

// NewGoalHandler creates a new GoalHandler.
func NewGoalHandler(goalService services.GoalServicer) *GoalHandler {
	return &GoalHandler{goalService: goalService}
}

// CreateGoalRequest represents the request payload for creating a goal.
type CreateGoalRequest struct {
	Name          string              `json:"name" binding:"required,min=1,max=100"`
	TargetAmount  decimal.Decimal     `json:"target_amount" binding:"required,gt=0" swaggertype:"string"`
	CurrentAmount decimal.Decimal     `json:"current_amount" binding:"gte=0" swaggertype:"string"`
	Deadline      *string             `json:"deadline" binding:"omitempty,calendar_date"`
	Priority      models.GoalPriority `json:"priority" binding:"omitempty,goal_priority"`
}

// UpdateGoalRequest represents a partial goal edit. Status may only be
// active or paused.
type UpdateGoalRequest struct {
	Name          *string              `json:"name" binding:"omitempty,min=1,max=100"`
	TargetAmount  *decimal.Decimal     `json:"target_amount" binding:"omitempty,gt=0" swaggertype:"string"`
	CurrentAmount *decimal.Decimal     `json:"current_amount" binding:"omitempty,gte=0" swaggertype:"string"`
	Deadline      *string              `json:"deadline" binding:"omitempty,calendar_date"`
	Priority      *models.GoalPriority `json:"priority" binding:"omitempty,goal_priority"`
	Status        *models.GoalStatus   `json:"status" binding:"omitempty,goal_status"`
}

// ContributeRequest represents a contribution toward a goal.
type ContributeRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required,gt=0" swaggertype:"string"`
}

// SetGoalStatusRequest pauses or resumes a goal.
type SetGoalStatusRequest struct {
	Status models.GoalStatus `json:"status" binding:"required,goal_status"`
}

// CreateGoal creates a savings goal
// @Summary     Create a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGoalRequest true "Goal details"
// @Success     201 {object} models.Goal
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /goals [post]
func (h *GoalHandler) CreateGoal(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.goalService.CreateGoal(userID, services.GoalInput{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      req.Deadline,
		Priority:      req.Priority,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"goal": goal})
}

// ListGoals lists goals by priority then deadline
// @Summary     List goals
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       status query string false "active, completed or paused"
// @Success     200 {array} models.Goal
// @Failure     400 {object} ErrorResponse "Invalid status"
// @Router      /goals [get]
func (h *GoalHandler) ListGoals(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var status *models.GoalStatus
	if v := c.Query("status"); v != "" {
		s := models.GoalStatus(v)
		switch s {
		case models.GoalStatusActive, models.GoalStatusCompleted, models.GoalStatusPaused:
			status = &s
		default:
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be active, completed or paused"))
			return
		}
	}

	goals, err := h.goalService.ListGoals(userID, status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

// GetGoalByID returns one goal
// @Summary     Get a goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} models.Goal
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [get]
func (h *GoalHandler) GetGoalByID(c *gin.Context) {
	userID, goalID, ok := h.ids(c)
	if !ok {
		return
	}

	goal, err := h.goalService.GetGoalByID(userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// UpdateGoal applies a partial edit
// @Summary     Update a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Goal ID"
// @Param       request body UpdateGoalRequest true "Fields to change"
// @Success     200 {object} models.Goal
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [patch]
func (h *GoalHandler) UpdateGoal(c *gin.Context) {
	userID, goalID, ok := h.ids(c)
	if !ok {
		return
	}

	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.goalService.UpdateGoal(userID, goalID, services.GoalUpdateFields{
		Name:          req.Name,
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		Deadline:      req.Deadline,
		Priority:      req.Priority,
		Status:        req.Status,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// DeleteGoal removes a goal
// @Summary     Delete a goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(c *gin.Context) {
	userID, goalID, ok := h.ids(c)
	if !ok {
		return
	}

	if err := h.goalService.DeleteGoal(userID, goalID); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Goal deleted successfully"})
}

// Contribute adds money toward a goal, clamped at the target
// @Summary     Contribute to a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string            true "Goal ID"
// @Param       request body ContributeRequest true "Amount"
// @Success     200 {object} models.Goal
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/contribute [post]
func (h *GoalHandler) Contribute(c *gin.Context) {
	userID, goalID, ok := h.ids(c)
	if !ok {
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.goalService.Contribute(userID, goalID, req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// SetStatus pauses or resumes a goal
// @Summary     Pause or resume a goal
// @Tags        goals
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Goal ID"
// @Param       request body SetGoalStatusRequest true "New status"
// @Success     200 {object} models.Goal
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Goal already completed"
// @Router      /goals/{id}/status [post]
func (h *GoalHandler) SetStatus(c *gin.Context) {
	userID, goalID, ok := h.ids(c)
	if !ok {
		return
	}

	var req SetGoalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	goal, err := h.goalService.SetStatus(userID, goalID, req.Status)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// MarkComplete completes a goal at its full target
// @Summary     Complete a goal
// @Tags        goals
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Goal ID"
// @Success     200 {object} models.Goal
// @Failure     404 {object} ErrorResponse "Goal not found"
// @Router      /goals/{id}/complete [post]
func (h *GoalHandler) MarkComplete(c *gin.Context) {
	userID, goalID, ok := h.ids(c)
	if !ok {
		return
	}

	goal, err := h.goalService.MarkComplete(userID, goalID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"goal": goal})
}

// ids reads the caller and the goal path ID, writing the error response
// itself when either is missing.
func (h *GoalHandler) ids(c *gin.Context) (userID, goalID string, ok bool) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	goalID, err = parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return "", "", false
	}
	return userID, goalID, true
}
