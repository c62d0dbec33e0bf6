package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "fintrack/internal/errors"
	"fintrack/internal/services"
)

// LedgerHandler exposes reconciliation of stored totals against the
// transaction log.
type LedgerHandler struct {
	reconcileService services.ReconcileServicer
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconcileService services.ReconcileServicer) *LedgerHandler {
	return &LedgerHandler{reconcileService: reconcileService}
}

// DriftResponse is returned by a dry run that found drift.
type DriftResponse struct {
	Error  ErrorDetail               `json:"error"`
	Report *services.ReconcileReport `json:"report"`
}

// ReconcileAllResponse summarizes an operator reconciliation run.
type ReconcileAllResponse struct {
	Users   int                        `json:"users"`
	Drifted int                        `json:"drifted"`
	Reports []services.ReconcileReport `json:"reports"`
}

// Reconcile checks the caller's balances and budget spend
// @Summary     Reconcile my ledger
// @Description Recompute balances and budget spend from the transaction log. Drift is repaired unless dry_run=true, in which case it is reported as LEDGER_DRIFT.
// @Tags        ledger
// @Produce     json
// @Security    BearerAuth
// @Param       dry_run query bool false "Report only"
// @Success     200 {object} services.ReconcileReport
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} DriftResponse "Drift found in a dry run"
// @Router      /ledger/reconcile [post]
func (h *LedgerHandler) Reconcile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	dryRun := c.Query("dry_run") == "true"
	report, err := h.reconcileService.Reconcile(userID, dryRun)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if dryRun && !report.Clean() {
		c.JSON(apperrors.ErrLedgerDrift.StatusCode, DriftResponse{
			Error:  ErrorDetail{Code: apperrors.ErrLedgerDrift.Code, Message: apperrors.ErrLedgerDrift.Message},
			Report: report,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report})
}

// ReconcileAll checks every user's ledger
// @Summary     Reconcile all ledgers
// @Description Operator endpoint guarded by X-API-Key. Only drifted users are listed.
// @Tags        internal
// @Produce     json
// @Param       X-API-Key header string true "Internal API key"
// @Param       dry_run   query  bool   false "Report only"
// @Success     200 {object} ReconcileAllResponse
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Router      /internal/reconcile [post]
func (h *LedgerHandler) ReconcileAll(c *gin.Context) {
	reports, err := h.reconcileService.ReconcileAll(c.Query("dry_run") == "true")
	if err != nil {
		respondWithError(c, err)
		return
	}

	resp := ReconcileAllResponse{Users: len(reports), Reports: []services.ReconcileReport{}}
	for _, r := range reports {
		if !r.Clean() {
			resp.Reports = append(resp.Reports, r)
		}
	}
	resp.Drifted = len(resp.Reports)

	c.JSON(http.StatusOK, resp)
}
