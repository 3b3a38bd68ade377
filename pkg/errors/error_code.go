package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

// Category groups error codes by their hundreds digit.
type Category int

const (
	CategoryGeneral    Category = 0
	CategoryValidation Category = 1
	CategoryData       Category = 2
	CategoryLedger     Category = 3
	CategoryBacktest   Category = 6
	CategoryMarketData Category = 7
)

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeEmptyTicker          ErrorCode = 102
	ErrCodeInvalidCapital       ErrorCode = 103
	ErrCodeInvalidDateRange     ErrorCode = 104
	ErrCodeFutureEndDate        ErrorCode = 105
	ErrCodeInvalidStopLoss      ErrorCode = 106
	ErrCodeInvalidProbability   ErrorCode = 107
	ErrCodeInvalidFailurePolicy ErrorCode = 108
	ErrCodeInvalidPriceSeries   ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeMissingParameter     ErrorCode = 111
	ErrCodeInvalidConcurrency   ErrorCode = 112

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204
	ErrCodeDataOutOfRange        ErrorCode = 205

	// Ledger errors (300-399)
	ErrCodeLedgerFinalized ErrorCode = 300
	ErrCodeLedgerTicker    ErrorCode = 301

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil      ErrorCode = 600
	ErrCodeBacktestInitFailed    ErrorCode = 601
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestNoResultsDir  ErrorCode = 607
	ErrCodeBacktestNoDatasource  ErrorCode = 608
	ErrCodeBacktestWriteFailed   ErrorCode = 609
	ErrCodeBacktestTickerAborted ErrorCode = 610

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 704
)

// Category returns the category of the code.
func (c ErrorCode) Category() Category {
	return Category(int(c) / 100)
}
