package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/expenseflow/expense_management_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/core/services"
	"github.com/expenseflow/expense_management_app/internal/dto"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
)

type ExpenseServiceTestSuite struct {
	suite.Suite
	mockExpenseRepo *MockExpenseRepository
	mockUserRepo    *MockUserRepository
	mockCompanyRepo *MockCompanyRepository
	mockRuleRepo    *MockApprovalRuleRepository
	mockProvider    *MockRateProvider
	service         portssvc.ExpenseSvcFacade

	companyID string
	company   *domain.Company
	employee  *domain.User
	manager   *domain.User
	alice     *domain.User
	bob       *domain.User
	carol     *domain.User
}

func (suite *ExpenseServiceTestSuite) SetupTest() {
	suite.mockExpenseRepo = new(MockExpenseRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockCompanyRepo = new(MockCompanyRepository)
	suite.mockRuleRepo = new(MockApprovalRuleRepository)
	suite.mockProvider = new(MockRateProvider)

	exchangeRateSvc := services.NewExchangeRateService(suite.mockProvider, time.Hour)
	suite.service = services.NewExpenseService(suite.mockExpenseRepo, suite.mockUserRepo, suite.mockCompanyRepo, suite.mockRuleRepo, exchangeRateSvc)

	suite.companyID = uuid.NewString()
	suite.company = &domain.Company{CompanyID: suite.companyID, Name: "Acme", CurrencyCode: "USD", Country: "US"}
	suite.manager = &domain.User{UserID: uuid.NewString(), CompanyID: suite.companyID, Name: "Mallory", Role: domain.RoleManager}
	suite.employee = &domain.User{UserID: uuid.NewString(), CompanyID: suite.companyID, Name: "Eve", Role: domain.RoleEmployee, ManagerID: &suite.manager.UserID}
	suite.alice = &domain.User{UserID: uuid.NewString(), CompanyID: suite.companyID, Name: "Alice", Role: domain.RoleManager}
	suite.bob = &domain.User{UserID: uuid.NewString(), CompanyID: suite.companyID, Name: "Bob", Role: domain.RoleManager}
	suite.carol = &domain.User{UserID: uuid.NewString(), CompanyID: suite.companyID, Name: "Carol", Role: domain.RoleManager}
}

func (suite *ExpenseServiceTestSuite) companyUsers() []domain.User {
	return []domain.User{*suite.manager, *suite.employee, *suite.alice, *suite.bob, *suite.carol}
}

func (suite *ExpenseServiceTestSuite) sequentialRule() *domain.ApprovalRule {
	return &domain.ApprovalRule{
		RuleID:            uuid.NewString(),
		CompanyID:         suite.companyID,
		Name:              "Manager then finance",
		Type:              domain.RuleSequential,
		IsManagerApprover: true,
		Approvers: []domain.ApproverConfig{
			{UserID: suite.alice.UserID, UserName: "Alice", Sequence: 0},
			{UserID: suite.bob.UserID, UserName: "Bob", Sequence: 1},
		},
	}
}

func (suite *ExpenseServiceTestSuite) expectSubmissionLookups(rule *domain.ApprovalRule) {
	ctx := mock.Anything
	suite.mockUserRepo.On("FindUserByID", ctx, suite.employee.UserID).Return(suite.employee, nil).Once()
	suite.mockCompanyRepo.On("FindCompanyByID", ctx, suite.companyID).Return(suite.company, nil).Once()
	if rule != nil {
		suite.company.DefaultRuleID = &rule.RuleID
		suite.mockRuleRepo.On("FindRuleByID", ctx, rule.RuleID).Return(rule, nil).Once()
	} else {
		suite.company.DefaultRuleID = nil
	}
	suite.mockUserRepo.On("FindUsersByCompany", ctx, suite.companyID).Return(suite.companyUsers(), nil).Once()
}

func submitRequest() dto.CreateExpenseRequest {
	return dto.CreateExpenseRequest{
		Amount:       decimal.NewFromInt(8000),
		CurrencyCode: "INR",
		Category:     "travel",
		Description:  "Client visit",
		ExpenseDate:  time.Now().Truncate(24 * time.Hour),
	}
}

func (suite *ExpenseServiceTestSuite) TestSubmitExpense_BuildsManagerFirstChain() {
	ctx := context.Background()
	rule := suite.sequentialRule()
	suite.expectSubmissionLookups(rule)
	suite.mockProvider.On("FetchRates", mock.Anything, "USD").Return(usdTable(), nil).Once()
	suite.mockExpenseRepo.On("SaveExpense", mock.Anything, mock.AnythingOfType("domain.Expense")).Return(nil).Once()

	expense, err := suite.service.SubmitExpense(ctx, submitRequest(), suite.employee.UserID)

	suite.Require().NoError(err)
	suite.Require().NotNil(expense)
	suite.Equal(domain.ExpensePending, expense.Status)
	suite.Require().Len(expense.ApprovalHistory, 3)
	suite.Equal(suite.manager.UserID, expense.ApprovalHistory[0].ApproverID)
	suite.Equal(suite.alice.UserID, expense.ApprovalHistory[1].ApproverID)
	suite.Equal(suite.bob.UserID, expense.ApprovalHistory[2].ApproverID)
	suite.Require().NotNil(expense.CurrentApproverID)
	suite.Equal(suite.manager.UserID, *expense.CurrentApproverID)
	suite.Equal(domain.RuleSequential, expense.RuleType)

	// 8000 INR at 80 INR/USD normalizes to 100 USD.
	suite.Require().NotNil(expense.AmountCompanyCurrency)
	suite.True(decimal.NewFromInt(100).Equal(*expense.AmountCompanyCurrency))
	suite.mockExpenseRepo.AssertExpectations(suite.T())
}

func (suite *ExpenseServiceTestSuite) TestSubmitExpense_NoDefaultRuleAutoApproves() {
	ctx := context.Background()
	suite.expectSubmissionLookups(nil)
	suite.mockProvider.On("FetchRates", mock.Anything, "USD").Return(usdTable(), nil).Once()
	suite.mockExpenseRepo.On("SaveExpense", mock.Anything, mock.AnythingOfType("domain.Expense")).Return(nil).Once()

	expense, err := suite.service.SubmitExpense(ctx, submitRequest(), suite.employee.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseApproved, expense.Status)
	suite.Empty(expense.ApprovalHistory)
	suite.Nil(expense.CurrentApproverID)
}

func (suite *ExpenseServiceTestSuite) TestSubmitExpense_RateOutageLeavesNormalizedUnset() {
	ctx := context.Background()
	rule := suite.sequentialRule()
	suite.expectSubmissionLookups(rule)
	suite.mockProvider.On("FetchRates", mock.Anything, "USD").Return(domain.RateTable{}, fmt.Errorf("connection refused")).Once()
	suite.mockExpenseRepo.On("SaveExpense", mock.Anything, mock.AnythingOfType("domain.Expense")).Return(nil).Once()

	expense, err := suite.service.SubmitExpense(ctx, submitRequest(), suite.employee.UserID)

	suite.Require().NoError(err)
	suite.Nil(expense.AmountCompanyCurrency)
	suite.Equal(domain.ExpensePending, expense.Status)
}

func (suite *ExpenseServiceTestSuite) TestSubmitExpense_RejectsNonPositiveAmount() {
	ctx := context.Background()
	req := submitRequest()
	req.Amount = decimal.Zero

	_, err := suite.service.SubmitExpense(ctx, req, suite.employee.UserID)

	suite.Require().Error(err)
	suite.mockExpenseRepo.AssertNotCalled(suite.T(), "SaveExpense")
}

// pendingExpense builds an in-flight expense fixture owned by the employee.
func (suite *ExpenseServiceTestSuite) pendingExpense(ruleType domain.RuleType, steps []domain.ApprovalStep) *domain.Expense {
	var current *string
	for i := range steps {
		if steps[i].Status == domain.StepPending {
			current = &steps[i].ApproverID
			break
		}
	}
	return &domain.Expense{
		ExpenseID:       uuid.NewString(),
		CompanyID:       suite.companyID,
		EmployeeID:      suite.employee.UserID,
		EmployeeName:    suite.employee.Name,
		Amount:          decimal.NewFromInt(100),
		CurrencyCode:    "USD",
		Status:          domain.ExpensePending,
		RuleType:        ruleType,
		CurrentApproverID: current,
		ApprovalHistory: steps,
	}
}

func (suite *ExpenseServiceTestSuite) expectDecision(expense *domain.Expense, approver *domain.User) {
	suite.mockUserRepo.On("FindUserByID", mock.Anything, approver.UserID).Return(approver, nil).Once()
	suite.mockExpenseRepo.On("DecideExpense", mock.Anything, expense.ExpenseID).Return(expense, nil).Once()
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_SequentialApprovalAdvancesChain() {
	ctx := context.Background()
	expense := suite.pendingExpense(domain.RuleSequential, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, ApproverName: "Alice", Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.bob.UserID, ApproverName: "Bob", Status: domain.StepPending, Sequence: 1},
	})
	suite.expectDecision(expense, suite.alice)

	got, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove, Comment: "ok"}, suite.alice.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpensePending, got.Status)
	suite.Equal(domain.StepApproved, got.ApprovalHistory[0].Status)
	suite.Equal("ok", got.ApprovalHistory[0].Comment)
	suite.NotNil(got.ApprovalHistory[0].DecidedAt)
	suite.Require().NotNil(got.CurrentApproverID)
	suite.Equal(suite.bob.UserID, *got.CurrentApproverID)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_SequentialLastApprovalFinalizes() {
	ctx := context.Background()
	expense := suite.pendingExpense(domain.RuleSequential, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepApproved, Sequence: 0},
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 1},
	})
	suite.expectDecision(expense, suite.bob)

	got, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove}, suite.bob.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseApproved, got.Status)
	suite.Nil(got.CurrentApproverID)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_SequentialOutOfTurnIsRejected() {
	ctx := context.Background()
	expense := suite.pendingExpense(domain.RuleSequential, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 1},
	})
	suite.expectDecision(expense, suite.bob)

	_, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove}, suite.bob.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNotActiveApprover)
	// Nothing changed.
	suite.Equal(domain.StepPending, expense.ApprovalHistory[1].Status)
	suite.Equal(domain.ExpensePending, expense.Status)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_RejectionShortCircuits() {
	ctx := context.Background()
	expense := suite.pendingExpense(domain.RuleSequential, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 1},
		{ApproverID: suite.carol.UserID, Status: domain.StepPending, Sequence: 2},
	})
	suite.expectDecision(expense, suite.alice)

	got, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionReject, Comment: "no receipt"}, suite.alice.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseRejected, got.Status)
	suite.Nil(got.CurrentApproverID)
	suite.Equal(domain.StepRejected, got.ApprovalHistory[0].Status)
	// Later steps stay pending in history; they are never awaited.
	suite.Equal(domain.StepPending, got.ApprovalHistory[1].Status)
	suite.Equal(domain.StepPending, got.ApprovalHistory[2].Status)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_PercentageThresholdFinalizes() {
	ctx := context.Background()
	threshold := 60
	expense := suite.pendingExpense(domain.RulePercentage, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepApproved, Sequence: 0},
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 1},
		{ApproverID: suite.carol.UserID, Status: domain.StepPending, Sequence: 2},
	})
	expense.PercentageThreshold = &threshold
	suite.expectDecision(expense, suite.carol)

	// Carol acts out of sequence order, which percentage rules permit.
	// 2 of 3 approved is 66.7%, meeting the 60% threshold.
	got, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove}, suite.carol.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseApproved, got.Status)
	suite.Nil(got.CurrentApproverID)
	// Bob's step stays pending in history.
	suite.Equal(domain.StepPending, got.ApprovalHistory[1].Status)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_PercentageBelowThresholdStaysPending() {
	ctx := context.Background()
	threshold := 60
	expense := suite.pendingExpense(domain.RulePercentage, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 1},
		{ApproverID: suite.carol.UserID, Status: domain.StepPending, Sequence: 2},
	})
	expense.PercentageThreshold = &threshold
	suite.expectDecision(expense, suite.alice)

	got, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove}, suite.alice.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpensePending, got.Status)
	suite.Require().NotNil(got.CurrentApproverID)
	suite.Equal(suite.bob.UserID, *got.CurrentApproverID)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_SpecificApproverFinalizesInstantly() {
	ctx := context.Background()
	expense := suite.pendingExpense(domain.RuleSpecific, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.carol.UserID, Status: domain.StepPending, Sequence: 1},
	})
	expense.SpecificApproverID = &suite.carol.UserID
	suite.expectDecision(expense, suite.carol)

	got, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove}, suite.carol.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpenseApproved, got.Status)
	suite.Equal(domain.StepPending, got.ApprovalHistory[0].Status)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_SpecificOtherApproverDoesNotFinalize() {
	ctx := context.Background()
	expense := suite.pendingExpense(domain.RuleSpecific, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.carol.UserID, Status: domain.StepPending, Sequence: 1},
	})
	expense.SpecificApproverID = &suite.carol.UserID
	suite.expectDecision(expense, suite.alice)

	got, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove}, suite.alice.UserID)

	suite.Require().NoError(err)
	suite.Equal(domain.ExpensePending, got.Status)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_SecondDecisionIsAlreadyDecided() {
	ctx := context.Background()
	threshold := 100
	expense := suite.pendingExpense(domain.RulePercentage, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepApproved, Sequence: 0},
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 1},
	})
	expense.PercentageThreshold = &threshold
	suite.expectDecision(expense, suite.alice)

	_, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove}, suite.alice.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrAlreadyDecided)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_FinalizedExpenseRejectsDecisions() {
	ctx := context.Background()
	expense := suite.pendingExpense(domain.RuleSequential, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepApproved, Sequence: 0},
	})
	expense.Status = domain.ExpenseApproved
	expense.CurrentApproverID = nil
	suite.expectDecision(expense, suite.alice)

	_, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionReject}, suite.alice.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrExpenseFinalized)
}

func (suite *ExpenseServiceTestSuite) TestDecideExpense_NonParticipantIsNotActiveApprover() {
	ctx := context.Background()
	expense := suite.pendingExpense(domain.RuleSequential, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 0},
	})
	suite.expectDecision(expense, suite.bob)

	_, err := suite.service.DecideExpense(ctx, expense.ExpenseID, dto.DecisionRequest{Decision: domain.DecisionApprove}, suite.bob.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, services.ErrNotActiveApprover)
}

func (suite *ExpenseServiceTestSuite) TestListPendingApproval_SequentialShowsOnlyActiveTurn() {
	ctx := context.Background()
	active := suite.pendingExpense(domain.RuleSequential, []domain.ApprovalStep{
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 1},
	})
	waiting := suite.pendingExpense(domain.RuleSequential, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 1},
	})
	suite.mockExpenseRepo.On("FindExpensesPendingApprover", mock.Anything, suite.bob.UserID).
		Return([]domain.Expense{*active, *waiting}, nil).Once()

	got, err := suite.service.ListPendingApproval(ctx, suite.bob.UserID)

	suite.Require().NoError(err)
	suite.Require().Len(got, 1)
	suite.Equal(active.ExpenseID, got[0].ExpenseID)
}

func (suite *ExpenseServiceTestSuite) TestListPendingApproval_PercentageShowsAnyUndecidedStep() {
	ctx := context.Background()
	threshold := 60
	expense := suite.pendingExpense(domain.RulePercentage, []domain.ApprovalStep{
		{ApproverID: suite.alice.UserID, Status: domain.StepPending, Sequence: 0},
		{ApproverID: suite.bob.UserID, Status: domain.StepPending, Sequence: 1},
	})
	expense.PercentageThreshold = &threshold
	suite.mockExpenseRepo.On("FindExpensesPendingApprover", mock.Anything, suite.bob.UserID).
		Return([]domain.Expense{*expense}, nil).Once()

	got, err := suite.service.ListPendingApproval(ctx, suite.bob.UserID)

	suite.Require().NoError(err)
	suite.Len(got, 1)
}

func TestExpenseServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExpenseServiceTestSuite))
}
