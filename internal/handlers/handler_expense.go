package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/dto"
	"github.com/expenseflow/expense_management_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// expenseHandler handles HTTP requests for expense claims and decisions.
type expenseHandler struct {
	expenseService portssvc.ExpenseSvcFacade
}

func newExpenseHandler(es portssvc.ExpenseSvcFacade) *expenseHandler {
	return &expenseHandler{expenseService: es}
}

// registerExpenseRoutes registers all expense-related routes.
func registerExpenseRoutes(rg *gin.RouterGroup, expenseService portssvc.ExpenseSvcFacade) {
	h := newExpenseHandler(expenseService)

	expenses := rg.Group("/expenses")
	{
		expenses.GET("", h.listMyExpenses)
		expenses.GET("/company", h.listCompanyExpenses) // Admin only
		expenses.GET("/pending-approval", h.listPendingApproval)
		expenses.GET("/:id", h.getExpense)
		expenses.POST("", h.submitExpense)
		expenses.POST("/:id/decision", h.decideExpense)
	}
}

// listMyExpenses godoc
// @Summary List the caller's own expenses
// @Tags expenses
// @Produce  json
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /expenses [get]
func (h *expenseHandler) listMyExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expenses, err := h.expenseService.ListMyExpenses(c.Request.Context(), requesterID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list expenses")
		return
	}

	c.JSON(http.StatusOK, dto.ToListExpensesResponse(expenses))
}

// listCompanyExpenses godoc
// @Summary List all company expenses
// @Description Lists every expense of the company. Admin only.
// @Tags expenses
// @Produce  json
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /expenses/company [get]
func (h *expenseHandler) listCompanyExpenses(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expenses, err := h.expenseService.ListCompanyExpenses(c.Request.Context(), requesterID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list company expenses")
		return
	}

	c.JSON(http.StatusOK, dto.ToListExpensesResponse(expenses))
}

// listPendingApproval godoc
// @Summary List expenses awaiting the caller's decision
// @Description Lists pending expenses the caller can act on right now. Sequential chains show only the expense whose turn it is; other rule types show every expense with an undecided step for the caller.
// @Tags expenses
// @Produce  json
// @Success 200 {object} dto.ListExpensesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /expenses/pending-approval [get]
func (h *expenseHandler) listPendingApproval(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expenses, err := h.expenseService.ListPendingApproval(c.Request.Context(), requesterID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list pending approvals")
		return
	}

	c.JSON(http.StatusOK, dto.ToListExpensesResponse(expenses))
}

// getExpense godoc
// @Summary Get an expense by ID
// @Description Retrieves an expense visible to the caller: the submitter, a chain participant, or a company admin.
// @Tags expenses
// @Produce  json
// @Param   id path string true "Expense ID"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Expense not found"
// @Security BearerAuth
// @Router /expenses/{id} [get]
func (h *expenseHandler) getExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("id")

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expense, err := h.expenseService.GetExpenseByID(c.Request.Context(), expenseID, requesterID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to get expense")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}

// submitExpense godoc
// @Summary Submit an expense claim
// @Description Creates an expense, normalizes the amount into the company currency when a rate is available, and snapshots the approval chain from the company's default rule. An empty chain auto-approves.
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   expense body dto.CreateExpenseRequest true "Expense details"
// @Success 201 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /expenses [post]
func (h *expenseHandler) submitExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for submit expense request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	submitterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expense, err := h.expenseService.SubmitExpense(c.Request.Context(), req, submitterID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to submit expense")
		return
	}

	c.JSON(http.StatusCreated, dto.ToExpenseResponse(expense))
}

// decideExpense godoc
// @Summary Approve or reject an expense
// @Description Applies the caller's decision to their step. One rejection finalizes the expense as rejected; approval advances the chain or finalizes per the snapshotted rule.
// @Tags expenses
// @Accept  json
// @Produce  json
// @Param   id path string true "Expense ID"
// @Param   decision body dto.DecisionRequest true "Decision"
// @Success 200 {object} dto.ExpenseResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Not an active approver or expense finalized"
// @Failure 404 {object} map[string]string "Expense not found"
// @Failure 409 {object} map[string]string "Step already decided"
// @Security BearerAuth
// @Router /expenses/{id}/decision [post]
func (h *expenseHandler) decideExpense(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	expenseID := c.Param("id")

	var req dto.DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for decision request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	approverID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	expense, err := h.expenseService.DecideExpense(c.Request.Context(), expenseID, req, approverID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to apply decision")
		return
	}

	c.JSON(http.StatusOK, dto.ToExpenseResponse(expense))
}
