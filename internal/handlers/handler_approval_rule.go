package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/dto"
	"github.com/expenseflow/expense_management_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// approvalRuleHandler handles HTTP requests for the rule catalog.
type approvalRuleHandler struct {
	ruleService portssvc.ApprovalRuleSvcFacade
}

func newApprovalRuleHandler(rs portssvc.ApprovalRuleSvcFacade) *approvalRuleHandler {
	return &approvalRuleHandler{ruleService: rs}
}

// registerApprovalRuleRoutes registers all rule-catalog routes.
func registerApprovalRuleRoutes(rg *gin.RouterGroup, ruleService portssvc.ApprovalRuleSvcFacade) {
	h := newApprovalRuleHandler(ruleService)

	rules := rg.Group("/approval-rules")
	{
		rules.GET("", h.listRules)
		rules.GET("/:id", h.getRule)
		rules.POST("", h.createRule)       // Admin only
		rules.PUT("/:id", h.updateRule)    // Admin only
		rules.DELETE("/:id", h.deleteRule) // Admin only
	}
}

// listRules godoc
// @Summary List the company's approval rules
// @Tags approval-rules
// @Produce  json
// @Success 200 {object} dto.ListApprovalRulesResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Security BearerAuth
// @Router /approval-rules [get]
func (h *approvalRuleHandler) listRules(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rules, err := h.ruleService.ListRules(c.Request.Context(), requesterID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to list approval rules")
		return
	}

	c.JSON(http.StatusOK, dto.ToListApprovalRulesResponse(rules))
}

// getRule godoc
// @Summary Get an approval rule by ID
// @Tags approval-rules
// @Produce  json
// @Param   id path string true "Rule ID"
// @Success 200 {object} dto.ApprovalRuleResponse
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /approval-rules/{id} [get]
func (h *approvalRuleHandler) getRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ruleID := c.Param("id")

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.ruleService.GetRuleByID(c.Request.Context(), ruleID, requesterID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to get approval rule")
		return
	}

	c.JSON(http.StatusOK, dto.ToApprovalRuleResponse(rule))
}

// createRule godoc
// @Summary Create an approval rule
// @Description Creates a rule in the caller's company. Every violated invariant is reported, not just the first. Admin only.
// @Tags approval-rules
// @Accept  json
// @Produce  json
// @Param   rule body dto.CreateApprovalRuleRequest true "Rule definition"
// @Success 201 {object} dto.ApprovalRuleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Security BearerAuth
// @Router /approval-rules [post]
func (h *approvalRuleHandler) createRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	var req dto.CreateApprovalRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for create rule request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.ruleService.CreateRule(c.Request.Context(), req, creatorUserID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to create approval rule")
		return
	}

	c.JSON(http.StatusCreated, dto.ToApprovalRuleResponse(rule))
}

// updateRule godoc
// @Summary Update an approval rule
// @Description Replaces the rule definition wholesale. Chains already built from the rule keep their snapshots. Admin only.
// @Tags approval-rules
// @Accept  json
// @Produce  json
// @Param   id path string true "Rule ID"
// @Param   rule body dto.UpdateApprovalRuleRequest true "Rule definition"
// @Success 200 {object} dto.ApprovalRuleResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /approval-rules/{id} [put]
func (h *approvalRuleHandler) updateRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ruleID := c.Param("id")

	var req dto.UpdateApprovalRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for update rule request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	updaterUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	rule, err := h.ruleService.UpdateRule(c.Request.Context(), ruleID, req, updaterUserID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to update approval rule")
		return
	}

	c.JSON(http.StatusOK, dto.ToApprovalRuleResponse(rule))
}

// deleteRule godoc
// @Summary Delete an approval rule
// @Description Removes a rule. In-flight expenses keep their snapshotted chains; a default-rule designation pointing at the rule is cleared. Admin only.
// @Tags approval-rules
// @Produce  json
// @Param   id path string true "Rule ID"
// @Success 204 "No Content"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Rule not found"
// @Security BearerAuth
// @Router /approval-rules/{id} [delete]
func (h *approvalRuleHandler) deleteRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	ruleID := c.Param("id")

	deleterUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.ruleService.DeleteRule(c.Request.Context(), ruleID, deleterUserID); err != nil {
		respondServiceError(c, logger, err, "Failed to delete approval rule")
		return
	}

	c.Status(http.StatusNoContent)
}
