package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"fintrack/internal/models"
	"fintrack/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService}
}

// CreateAccountRequest represents the request payload for creating an account.
// Fixed-deposit terms are ignored for day-to-day accounts.
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required,min=1,max=100"`
	Type           models.AccountType `json:"type" binding:"required,account_type"`
	OpeningBalance decimal.Decimal    `json:"opening_balance" swaggertype:"string"`
	InterestRate   *decimal.Decimal   `json:"interest_rate" binding:"omitempty,gte=0,lte=100" swaggertype:"string"`
	DepositDate    *string            `json:"deposit_date" binding:"omitempty,calendar_date"`
	MaturityDate   *string            `json:"maturity_date" binding:"omitempty,calendar_date"`
	IsPrimary      bool               `json:"is_primary"`
}

// UpdateAccountRequest represents the partial update payload. Setting
// balance records an explicit correction.
type UpdateAccountRequest struct {
	Name         *string             `json:"name" binding:"omitempty,min=1,max=100"`
	Type         *models.AccountType `json:"type" binding:"omitempty,account_type"`
	Balance      *decimal.Decimal    `json:"balance" swaggertype:"string"`
	InterestRate *decimal.Decimal    `json:"interest_rate" binding:"omitempty,gte=0,lte=100" swaggertype:"string"`
	DepositDate  *string             `json:"deposit_date" binding:"omitempty,calendar_date"`
	MaturityDate *string             `json:"maturity_date" binding:"omitempty,calendar_date"`
	IsActive     *bool               `json:"is_active"`
	IsPrimary    *bool               `json:"is_primary"`
}

// AccountResponse is an account with its projected fixed-deposit interest.
type AccountResponse struct {
	models.Account
	ProjectedInterest decimal.Decimal `json:"projected_interest" swaggertype:"string"`
}

func newAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{Account: *a, ProjectedInterest: a.ProjectedInterest()}
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Create a day-to-day or fixed-deposit account for the authenticated user
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} AccountResponse "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.CreateAccount(userID, services.AccountInput{
		Name:           req.Name,
		Type:           req.Type,
		OpeningBalance: req.OpeningBalance,
		InterestRate:   req.InterestRate,
		DepositDate:    req.DepositDate,
		MaturityDate:   req.MaturityDate,
		IsPrimary:      req.IsPrimary,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": newAccountResponse(account)})
}

// ListAccounts lists the user's accounts, primary first
// @Summary     List accounts
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       include_inactive query bool false "Include disabled accounts"
// @Success     200 {array} AccountResponse
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /accounts [get]
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.accountService.ListAccounts(userID, c.Query("include_inactive") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		resp = append(resp, newAccountResponse(&accounts[i]))
	}
	c.JSON(http.StatusOK, gin.H{"accounts": resp})
}

// GetAccountByID returns one account
// @Summary     Get an account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} AccountResponse
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": newAccountResponse(account)})
}

// UpdateAccount applies a partial update
// @Summary     Update an account
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to change"
// @Success     200 {object} AccountResponse
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [patch]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.UpdateAccount(userID, accountID, services.AccountUpdateFields{
		Name:         req.Name,
		Type:         req.Type,
		Balance:      req.Balance,
		InterestRate: req.InterestRate,
		DepositDate:  req.DepositDate,
		MaturityDate: req.MaturityDate,
		IsActive:     req.IsActive,
		IsPrimary:    req.IsPrimary,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": newAccountResponse(account)})
}

// DeleteAccount removes an account, or disables it when it has history
// @Summary     Delete an account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} MessageResponse
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	disabled, err := h.accountService.DeleteAccount(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if disabled {
		c.JSON(http.StatusOK, gin.H{"message": "Account has transactions and was disabled", "disabled": true})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account deleted successfully", "disabled": false})
}

// SetPrimary makes the account the user's primary account
// @Summary     Set primary account
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} AccountResponse
// @Failure     400 {object} ErrorResponse "Account cannot be primary"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id}/primary [post]
func (h *AccountHandler) SetPrimary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}
	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.SetPrimary(userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": newAccountResponse(account)})
}
