package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/expenseflow/expense_management_app/internal/apperrors"
	"github.com/expenseflow/expense_management_app/internal/core/domain"
	portssvc "github.com/expenseflow/expense_management_app/internal/core/ports/services"
	"github.com/expenseflow/expense_management_app/internal/core/services"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ExchangeRateServiceTestSuite struct {
	suite.Suite
	mockProvider *MockRateProvider
	service      portssvc.ExchangeRateSvcFacade
}

func (suite *ExchangeRateServiceTestSuite) SetupTest() {
	suite.mockProvider = new(MockRateProvider)
	suite.service = services.NewExchangeRateService(suite.mockProvider, time.Hour)
}

func usdTable() domain.RateTable {
	return domain.RateTable{
		Base: "USD",
		Rates: map[string]decimal.Decimal{
			"USD": decimal.NewFromInt(1),
			"EUR": decimal.NewFromFloat(0.8),
			"INR": decimal.NewFromInt(80),
		},
		FetchedAt: time.Now(),
	}
}

func (suite *ExchangeRateServiceTestSuite) TestNormalizeAmount_SameCurrencyIsIdentity() {
	ctx := context.Background()
	amount := decimal.NewFromFloat(123.45)

	got, err := suite.service.NormalizeAmount(ctx, amount, "USD", "USD")

	suite.Require().NoError(err)
	suite.True(amount.Equal(got))
	// No fetch happens for the identity case.
	suite.mockProvider.AssertNotCalled(suite.T(), "FetchRates")
}

func (suite *ExchangeRateServiceTestSuite) TestNormalizeAmount_ConvertsThroughBaseRates() {
	ctx := context.Background()
	suite.mockProvider.On("FetchRates", ctx, "USD").Return(usdTable(), nil).Once()

	// 8000 INR / 80 * 1 = 100 USD
	got, err := suite.service.NormalizeAmount(ctx, decimal.NewFromInt(8000), "INR", "USD")

	suite.Require().NoError(err)
	suite.True(decimal.NewFromInt(100).Equal(got), "got %s", got)
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *ExchangeRateServiceTestSuite) TestNormalizeAmount_MissingRateIsUnavailableNotParity() {
	ctx := context.Background()
	suite.mockProvider.On("FetchRates", ctx, "USD").Return(usdTable(), nil).Once()

	_, err := suite.service.NormalizeAmount(ctx, decimal.NewFromInt(50), "GBP", "USD")

	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrRateUnavailable)
}

func (suite *ExchangeRateServiceTestSuite) TestNormalizeAmount_LowercaseCodesAreNormalized() {
	ctx := context.Background()
	suite.mockProvider.On("FetchRates", ctx, "USD").Return(usdTable(), nil).Once()

	got, err := suite.service.NormalizeAmount(ctx, decimal.NewFromInt(80), "inr", "usd")

	suite.Require().NoError(err)
	suite.True(decimal.NewFromInt(1).Equal(got))
}

func (suite *ExchangeRateServiceTestSuite) TestRateTable_CachesWithinTTL() {
	ctx := context.Background()
	suite.mockProvider.On("FetchRates", ctx, "USD").Return(usdTable(), nil).Once()

	_, err := suite.service.RateTable(ctx, "USD")
	suite.Require().NoError(err)
	_, err = suite.service.RateTable(ctx, "USD")
	suite.Require().NoError(err)

	// The Once() above fails the suite if a second fetch happened.
	suite.mockProvider.AssertExpectations(suite.T())
}

func (suite *ExchangeRateServiceTestSuite) TestRateTable_ProviderFailureWithoutCacheSurfaces() {
	ctx := context.Background()
	suite.mockProvider.On("FetchRates", ctx, "USD").Return(domain.RateTable{}, fmt.Errorf("connection refused")).Once()

	_, err := suite.service.RateTable(ctx, "USD")
	suite.Require().Error(err)
}

func (suite *ExchangeRateServiceTestSuite) TestRateTable_ServesStaleTableOnProviderFailure() {
	ctx := context.Background()
	table := usdTable()
	table.FetchedAt = time.Now().Add(-2 * time.Hour) // already stale
	suite.mockProvider.On("FetchRates", ctx, "USD").Return(table, nil).Once()

	_, err := suite.service.RateTable(ctx, "USD")
	suite.Require().NoError(err)

	suite.mockProvider.On("FetchRates", ctx, "USD").Return(domain.RateTable{}, fmt.Errorf("connection refused")).Once()

	got, err := suite.service.RateTable(ctx, "USD")
	suite.Require().NoError(err)
	suite.Equal("USD", got.Base)
}

func (suite *ExchangeRateServiceTestSuite) TestRateTable_RejectsBadCurrencyCode() {
	_, err := suite.service.RateTable(context.Background(), "US")
	suite.Require().Error(err)
	suite.ErrorIs(err, apperrors.ErrValidation)
}

func TestExchangeRateServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ExchangeRateServiceTestSuite))
}
