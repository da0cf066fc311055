package dto

import (
	"time"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
	"github.com/shopspring/decimal"
)

// CreateExpenseRequest defines the structure for submitting an expense claim.
// Amount, currency, category and date are the structured output of receipt
// extraction or manual entry; extraction itself happens upstream.
type CreateExpenseRequest struct {
	Amount       decimal.Decimal `json:"amount" binding:"required"`
	CurrencyCode string          `json:"currencyCode" binding:"required,len=3,uppercase"`
	Category     string          `json:"category" binding:"required"`
	Description  string          `json:"description"`
	ExpenseDate  time.Time       `json:"expenseDate" binding:"required"`
	ReceiptRef   *string         `json:"receiptRef"`
}

// DecisionRequest carries one approver's verdict on an expense.
type DecisionRequest struct {
	Decision domain.ApprovalDecision `json:"decision" binding:"required,oneof=approve reject"`
	Comment  string                  `json:"comment"`
}

// ApprovalStepResponse mirrors one step of an expense's approval history.
type ApprovalStepResponse struct {
	ApproverID   string            `json:"approverID"`
	ApproverName string            `json:"approverName"`
	Status       domain.StepStatus `json:"status"`
	Comment      string            `json:"comment,omitempty"`
	DecidedAt    *time.Time        `json:"decidedAt,omitempty"`
	Sequence     int               `json:"sequence"`
}

// ExpenseResponse defines the structure for API responses containing expense details.
type ExpenseResponse struct {
	ExpenseID             string                 `json:"expenseID"`
	EmployeeID            string                 `json:"employeeID"`
	EmployeeName          string                 `json:"employeeName"`
	Amount                decimal.Decimal        `json:"amount"`
	CurrencyCode          string                 `json:"currencyCode"`
	AmountCompanyCurrency *decimal.Decimal       `json:"amountCompanyCurrency,omitempty"`
	Category              string                 `json:"category"`
	Description           string                 `json:"description"`
	ExpenseDate           time.Time              `json:"expenseDate"`
	Status                domain.ExpenseStatus   `json:"status"`
	CurrentApproverID     *string                `json:"currentApproverID,omitempty"`
	ApprovalHistory       []ApprovalStepResponse `json:"approvalHistory"`
	ReceiptRef            *string                `json:"receiptRef,omitempty"`
	CreatedAt             time.Time              `json:"createdAt"`
}

// ToExpenseResponse converts a domain.Expense to ExpenseResponse DTO
func ToExpenseResponse(expense *domain.Expense) ExpenseResponse {
	history := make([]ApprovalStepResponse, len(expense.ApprovalHistory))
	for i, step := range expense.ApprovalHistory {
		history[i] = ApprovalStepResponse{
			ApproverID:   step.ApproverID,
			ApproverName: step.ApproverName,
			Status:       step.Status,
			Comment:      step.Comment,
			DecidedAt:    step.DecidedAt,
			Sequence:     step.Sequence,
		}
	}
	return ExpenseResponse{
		ExpenseID:             expense.ExpenseID,
		EmployeeID:            expense.EmployeeID,
		EmployeeName:          expense.EmployeeName,
		Amount:                expense.Amount,
		CurrencyCode:          expense.CurrencyCode,
		AmountCompanyCurrency: expense.AmountCompanyCurrency,
		Category:              expense.Category,
		Description:           expense.Description,
		ExpenseDate:           expense.ExpenseDate,
		Status:                expense.Status,
		CurrentApproverID:     expense.CurrentApproverID,
		ApprovalHistory:       history,
		ReceiptRef:            expense.ReceiptRef,
		CreatedAt:             expense.CreatedAt,
	}
}

// ListExpensesResponse wraps a list of expenses.
type ListExpensesResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
}

// ToListExpensesResponse converts a slice of domain.Expense to the list DTO
func ToListExpensesResponse(expenses []domain.Expense) ListExpensesResponse {
	responses := make([]ExpenseResponse, len(expenses))
	for i, expense := range expenses {
		responses[i] = ToExpenseResponse(&expense)
	}
	return ListExpensesResponse{Expenses: responses}
}
