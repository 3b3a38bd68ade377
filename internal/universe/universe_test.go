package universe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-swing/internal/logger"
)

type UniverseTestSuite struct {
	suite.Suite
	dir string
}

func TestUniverseSuite(t *testing.T) {
	suite.Run(t, new(UniverseTestSuite))
}

func (suite *UniverseTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	nasdaq := "Symbol,Security Name\nAAPL,Apple Inc.\nMSFT,Microsoft\n,Blank\nAMZN,Amazon\n"
	nyse := "Symbol,Name\nIBM,IBM\nAAPL,Duplicate\nAA,Alcoa\n"

	suite.Require().NoError(os.WriteFile(filepath.Join(suite.dir, "nasdaq-listed.csv"), []byte(nasdaq), 0o644))
	suite.Require().NoError(os.WriteFile(filepath.Join(suite.dir, "nyse.csv"), []byte(nyse), 0o644))
}

func (suite *UniverseTestSuite) load() *Universe {
	u, err := Load(logger.NewNopLogger(),
		filepath.Join(suite.dir, "nasdaq-listed.csv"),
		filepath.Join(suite.dir, "nyse.csv"))
	suite.Require().NoError(err)

	return u
}

func (suite *UniverseTestSuite) TestLoadDropsBlanksAndDuplicates() {
	u := suite.load()

	suite.Equal(5, u.Len())
	suite.True(u.Contains(" aapl "))
	suite.False(u.Contains("TSLA"))
}

func (suite *UniverseTestSuite) TestSuggest() {
	u := suite.load()

	suite.Equal([]string{"AAPL", "AMZN", "AA"}, u.Suggest(" a", 0))
	suite.Equal([]string{"AAPL", "AA"}, u.Suggest("aa", 0))
	suite.Equal([]string{"AAPL"}, u.Suggest("a", 1))
	suite.Equal(5, len(u.Suggest("", 0)))
	suite.Empty(u.Suggest("XYZ", 0))
}

func (suite *UniverseTestSuite) TestLoadMissingFileIsSkipped() {
	u, err := Load(nil, filepath.Join(suite.dir, "missing.csv"), filepath.Join(suite.dir, "nyse.csv"))
	suite.Require().NoError(err)
	suite.Equal([]string{"IBM", "AAPL", "AA"}, u.Suggest("", 0))
}

func (suite *UniverseTestSuite) TestReadSymbols() {
	symbols, err := ReadSymbols(strings.NewReader("Symbol\nspy\nqqq\n"))
	suite.Require().NoError(err)
	suite.Equal([]string{"spy", "qqq"}, symbols)
}

func (suite *UniverseTestSuite) TestNew() {
	u := New([]string{"spy", "SPY", " qqq"})
	suite.Equal([]string{"SPY", "QQQ"}, u.Suggest("", 0))
}
