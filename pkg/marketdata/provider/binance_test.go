package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/suite"

	argoErrors "github.com/rxtech-lab/argo-swing/pkg/errors"
)

// mockBinanceAPIClient implements BinanceAPIClient for testing.
type mockBinanceAPIClient struct {
	klinesPerCall [][]*binance.Kline
	err           error
	calls         int
	startTimes    []int64
	intervals     []string
}

func (m *mockBinanceAPIClient) NewKlinesService() BinanceKlinesService {
	return &mockBinanceKlinesService{client: m}
}

type mockBinanceKlinesService struct {
	client *mockBinanceAPIClient
}

func (m *mockBinanceKlinesService) Symbol(_ string) BinanceKlinesService {
	return m
}

func (m *mockBinanceKlinesService) Interval(interval string) BinanceKlinesService {
	m.client.intervals = append(m.client.intervals, interval)

	return m
}

func (m *mockBinanceKlinesService) StartTime(startTime int64) BinanceKlinesService {
	m.client.startTimes = append(m.client.startTimes, startTime)

	return m
}

func (m *mockBinanceKlinesService) EndTime(_ int64) BinanceKlinesService {
	return m
}

func (m *mockBinanceKlinesService) Limit(_ int) BinanceKlinesService {
	return m
}

func (m *mockBinanceKlinesService) Do(_ context.Context) ([]*binance.Kline, error) {
	if m.client.err != nil {
		return nil, m.client.err
	}

	if m.client.calls >= len(m.client.klinesPerCall) {
		return nil, nil
	}

	klines := m.client.klinesPerCall[m.client.calls]
	m.client.calls++

	return klines, nil
}

type BinanceClientTestSuite struct {
	suite.Suite
	start time.Time
}

func TestBinanceClientSuite(t *testing.T) {
	suite.Run(t, new(BinanceClientTestSuite))
}

func (suite *BinanceClientTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

func (suite *BinanceClientTestSuite) klines(from int, count int) []*binance.Kline {
	klines := make([]*binance.Kline, 0, count)

	for i := 0; i < count; i++ {
		open := suite.start.AddDate(0, 0, from+i)
		klines = append(klines, &binance.Kline{
			OpenTime:  open.UnixMilli(),
			CloseTime: open.AddDate(0, 0, 1).UnixMilli() - 1,
			Close:     "42000.50",
		})
	}

	return klines
}

func (suite *BinanceClientTestSuite) TestNewBinanceClient() {
	client, err := NewBinanceClient()
	suite.Require().NoError(err)

	binanceClient, ok := client.(*BinanceClient)
	suite.Require().True(ok)
	suite.NotNil(binanceClient.apiClient)
}

func (suite *BinanceClientTestSuite) TestGetSeriesSinglePage() {
	api := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{suite.klines(0, 3)}}

	series, err := NewBinanceClientWithAPI(api).GetSeries(context.Background(), "BTCUSDT", suite.start, suite.start.AddDate(0, 0, 2))
	suite.Require().NoError(err)

	suite.Equal(3, series.Len())
	suite.Equal(suite.start, series.Points[0].Date)
	suite.InDelta(42000.50, series.Points[0].Close, 1e-9)
	suite.Equal(1, api.calls)
	suite.Equal([]string{"1d"}, api.intervals)
}

func (suite *BinanceClientTestSuite) TestGetSeriesPaginates() {
	first := suite.klines(0, binancePageLimit)
	second := suite.klines(binancePageLimit, 5)
	api := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{first, second}}

	end := suite.start.AddDate(0, 0, binancePageLimit+10)
	series, err := NewBinanceClientWithAPI(api).GetSeries(context.Background(), "BTCUSDT", suite.start, end)
	suite.Require().NoError(err)

	suite.Equal(binancePageLimit+5, series.Len())
	suite.Equal(2, api.calls)
	suite.Equal(first[len(first)-1].CloseTime+1, api.startTimes[1])
}

func (suite *BinanceClientTestSuite) TestGetSeriesFetchError() {
	api := &mockBinanceAPIClient{err: errors.New("banned")}

	_, err := NewBinanceClientWithAPI(api).GetSeries(context.Background(), "BTCUSDT", suite.start, suite.start)
	suite.True(argoErrors.HasCode(err, argoErrors.ErrCodeMarketDataFetchFailed))
}

func (suite *BinanceClientTestSuite) TestGetSeriesInvalidClose() {
	klines := suite.klines(0, 1)
	klines[0].Close = "not-a-number"
	api := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{klines}}

	_, err := NewBinanceClientWithAPI(api).GetSeries(context.Background(), "BTCUSDT", suite.start, suite.start)
	suite.True(argoErrors.HasCode(err, argoErrors.ErrCodeMarketDataParseFailed))
}

func (suite *BinanceClientTestSuite) TestGetSeriesNoData() {
	api := &mockBinanceAPIClient{}

	_, err := NewBinanceClientWithAPI(api).GetSeries(context.Background(), "BTCUSDT", suite.start, suite.start)
	suite.True(argoErrors.HasCode(err, argoErrors.ErrCodeNoDataFound))
}

func (suite *BinanceClientTestSuite) TestDownloadWithoutWriter() {
	_, err := NewBinanceClientWithAPI(&mockBinanceAPIClient{}).Download(context.Background(), "BTCUSDT", suite.start, suite.start, nil)
	suite.Error(err)
	suite.Contains(err.Error(), "writer is not configured")
}

func (suite *BinanceClientTestSuite) TestDownloadSuccess() {
	api := &mockBinanceAPIClient{klinesPerCall: [][]*binance.Kline{suite.klines(0, 2)}}
	client := NewBinanceClientWithAPI(api)
	mockW := &mockWriter{outputPath: "out.parquet"}
	client.ConfigWriter(mockW)

	path, err := client.Download(context.Background(), "BTCUSDT", suite.start, suite.start.AddDate(0, 0, 1), nil)
	suite.Require().NoError(err)
	suite.Equal("out.parquet", path)
	suite.Len(mockW.written, 2)
	suite.True(mockW.finalized)
}
