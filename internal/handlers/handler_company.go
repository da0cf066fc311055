package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/dto"
	"github.com/expenseflow/expense_management_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// companyHandler handles HTTP requests related to companies.
type companyHandler struct {
	companyService portssvc.CompanySvcFacade
}

func newCompanyHandler(cs portssvc.CompanySvcFacade) *companyHandler {
	return &companyHandler{companyService: cs}
}

// registerCompanyRoutes registers all company-related routes.
func registerCompanyRoutes(rg *gin.RouterGroup, companyService portssvc.CompanySvcFacade) {
	h := newCompanyHandler(companyService)

	companies := rg.Group("/companies")
	{
		companies.GET("/:id", h.getCompany)
		companies.PUT("/:id/default-rule", h.setDefaultRule) // Admin only
	}
}

// getCompany godoc
// @Summary Get a company by ID
// @Tags companies
// @Produce  json
// @Param   id path string true "Company ID"
// @Success 200 {object} dto.CompanyResponse
// @Failure 404 {object} map[string]string "Company not found"
// @Security BearerAuth
// @Router /companies/{id} [get]
func (h *companyHandler) getCompany(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("id")

	company, err := h.companyService.GetCompanyByID(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to get company")
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyResponse(company))
}

// setDefaultRule godoc
// @Summary Designate the default approval rule
// @Description Points the company's default rule at the given rule ID. A null ruleID clears the designation, after which new submissions auto-approve. Admin only.
// @Tags companies
// @Accept  json
// @Produce  json
// @Param   id path string true "Company ID"
// @Param   rule body dto.SetDefaultRuleRequest true "Rule designation"
// @Success 200 {object} dto.CompanyResponse
// @Failure 400 {object} map[string]string "Invalid input"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Company not found"
// @Security BearerAuth
// @Router /companies/{id}/default-rule [put]
func (h *companyHandler) setDefaultRule(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	companyID := c.Param("id")

	var req dto.SetDefaultRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for set default rule request", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	requesterID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	company, err := h.companyService.SetDefaultRule(c.Request.Context(), companyID, req.RuleID, requesterID)
	if err != nil {
		respondServiceError(c, logger, err, "Failed to set default rule")
		return
	}

	c.JSON(http.StatusOK, dto.ToCompanyResponse(company))
}
