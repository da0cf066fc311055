package services_test

import (
	"context"
	"testing"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/core/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
)

type CompanyServiceTestSuite struct {
	suite.Suite
	mockCompanyRepo *MockCompanyRepository
	mockUserRepo    *MockUserRepository
	mockRuleRepo    *MockApprovalRuleRepository
	service         portssvc.CompanySvcFacade

	companyID string
	company   *domain.Company
	admin     *domain.User
}

func (suite *CompanyServiceTestSuite) SetupTest() {
	suite.mockCompanyRepo = new(MockCompanyRepository)
	suite.mockUserRepo = new(MockUserRepository)
	suite.mockRuleRepo = new(MockApprovalRuleRepository)
	suite.service = services.NewCompanyService(suite.mockCompanyRepo, suite.mockUserRepo, suite.mockRuleRepo)

	suite.companyID = uuid.NewString()
	suite.company = &domain.Company{CompanyID: suite.companyID, Name: "Acme", CurrencyCode: "USD"}
	suite.admin = &domain.User{UserID: uuid.NewString(), CompanyID: suite.companyID, Role: domain.RoleAdmin}
}

func (suite *CompanyServiceTestSuite) TestSetDefaultRule_Success() {
	ctx := context.Background()
	ruleID := uuid.NewString()
	rule := &domain.ApprovalRule{RuleID: ruleID, CompanyID: suite.companyID, Type: domain.RuleSequential}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.admin.UserID).Return(suite.admin, nil).Once()
	suite.mockCompanyRepo.On("FindCompanyByID", ctx, suite.companyID).Return(suite.company, nil).Once()
	suite.mockRuleRepo.On("FindRuleByID", ctx, ruleID).Return(rule, nil).Once()
	suite.mockCompanyRepo.On("UpdateDefaultRule", ctx, suite.companyID, &ruleID, suite.admin.UserID).Return(nil).Once()

	company, err := suite.service.SetDefaultRule(ctx, suite.companyID, &ruleID, suite.admin.UserID)

	suite.Require().NoError(err)
	suite.Require().NotNil(company.DefaultRuleID)
	suite.Equal(ruleID, *company.DefaultRuleID)
}

func (suite *CompanyServiceTestSuite) TestSetDefaultRule_ClearDesignation() {
	ctx := context.Background()
	suite.mockUserRepo.On("FindUserByID", ctx, suite.admin.UserID).Return(suite.admin, nil).Once()
	suite.mockCompanyRepo.On("FindCompanyByID", ctx, suite.companyID).Return(suite.company, nil).Once()
	suite.mockCompanyRepo.On("UpdateDefaultRule", ctx, suite.companyID, (*string)(nil), suite.admin.UserID).Return(nil).Once()

	company, err := suite.service.SetDefaultRule(ctx, suite.companyID, nil, suite.admin.UserID)

	suite.Require().NoError(err)
	suite.Nil(company.DefaultRuleID)
	suite.mockRuleRepo.AssertNotCalled(suite.T(), "FindRuleByID")
}

func (suite *CompanyServiceTestSuite) TestSetDefaultRule_ForeignRuleRejected() {
	ctx := context.Background()
	ruleID := uuid.NewString()
	foreignRule := &domain.ApprovalRule{RuleID: ruleID, CompanyID: uuid.NewString(), Type: domain.RuleSequential}

	suite.mockUserRepo.On("FindUserByID", ctx, suite.admin.UserID).Return(suite.admin, nil).Once()
	suite.mockCompanyRepo.On("FindCompanyByID", ctx, suite.companyID).Return(suite.company, nil).Once()
	suite.mockRuleRepo.On("FindRuleByID", ctx, ruleID).Return(foreignRule, nil).Once()

	_, err := suite.service.SetDefaultRule(ctx, suite.companyID, &ruleID, suite.admin.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
	suite.mockCompanyRepo.AssertNotCalled(suite.T(), "UpdateDefaultRule")
}

func (suite *CompanyServiceTestSuite) TestSetDefaultRule_NonAdminForbidden() {
	ctx := context.Background()
	employee := &domain.User{UserID: uuid.NewString(), CompanyID: suite.companyID, Role: domain.RoleEmployee}
	ruleID := uuid.NewString()
	suite.mockUserRepo.On("FindUserByID", ctx, employee.UserID).Return(employee, nil).Once()

	_, err := suite.service.SetDefaultRule(ctx, suite.companyID, &ruleID, employee.UserID)

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrForbidden)
}

func TestCompanyServiceTestSuite(t *testing.T) {
	suite.Run(t, new(CompanyServiceTestSuite))
}
