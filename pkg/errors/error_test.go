package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeEmptyTicker, "stock ticker cannot be empty")
	suite.Equal(ErrCodeEmptyTicker, err.Code)
	suite.Equal("stock ticker cannot be empty", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeNoDataFound, "no data found for ticker %s", "AAPL")
	suite.Equal("no data found for ticker AAPL", err.Message)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("connection refused")
	err := Wrap(ErrCodeMarketDataFetchFailed, "failed to fetch aggregates", cause)
	suite.Equal(cause, err.Unwrap())
	suite.Equal("[700] failed to fetch aggregates: connection refused", err.Error())
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("boom")
	err := Wrapf(ErrCodeQueryFailed, cause, "query for %s failed", "MSFT")
	suite.Equal("query for MSFT failed", err.Message)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidCapital, "starting capital must be greater than 0")
	suite.Equal("[103] starting capital must be greater than 0", err.Error())
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	inner := New(ErrCodeDataOutOfRange, "out of range")
	wrapped := fmt.Errorf("ticker AAPL: %w", inner)
	suite.Equal(ErrCodeDataOutOfRange, GetCode(wrapped))
	suite.True(HasCode(wrapped, ErrCodeDataOutOfRange))
}

func (suite *ErrorTestSuite) TestGetCodeFromPlainError() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestAsError() {
	var target *Error
	err := fmt.Errorf("wrapped: %w", New(ErrCodeInvalidStopLoss, "bad"))
	suite.True(As(err, &target))
	suite.Equal(ErrCodeInvalidStopLoss, target.Code)
}

func (suite *ErrorTestSuite) TestCategories() {
	suite.Equal(CategoryValidation, ErrCodeFutureEndDate.Category())
	suite.Equal(CategoryData, ErrCodeNoDataFound.Category())
	suite.Equal(CategoryMarketData, ErrCodeMarketDataFetchFailed.Category())
	suite.Equal(CategoryGeneral, ErrCodeUnknown.Category())

	suite.True(IsValidation(New(ErrCodeInvalidDateRange, "x")))
	suite.False(IsValidation(New(ErrCodeNoDataFound, "x")))
	suite.True(IsData(New(ErrCodeNoDataFound, "x")))
	suite.True(IsData(New(ErrCodeMarketDataFetchFailed, "x")))
	suite.False(IsData(errors.New("plain")))
}
