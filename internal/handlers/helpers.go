package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/services"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps service errors onto HTTP status codes. Validation
// errors carry their full violation list to the client; everything
// unrecognized collapses to a 500 with a generic message.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error, fallbackMsg string) {
	var vErr *apperrors.ValidationError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "violations": vErr.Violations})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, apperrors.ErrForbidden), errors.Is(err, services.ErrNotActiveApprover), errors.Is(err, services.ErrExpenseFinalized):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrDuplicate), errors.Is(err, apperrors.ErrConflict), errors.Is(err, services.ErrAlreadyDecided):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Error("Unhandled service error", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMsg})
	}
}
