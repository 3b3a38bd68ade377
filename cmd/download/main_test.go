package main

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DownloadCommandTestSuite struct {
	suite.Suite
}

func TestDownloadCommandSuite(t *testing.T) {
	suite.Run(t, new(DownloadCommandTestSuite))
}

func (suite *DownloadCommandTestSuite) TestProgressCallback() {
	onProgress := newProgress("AAPL")

	suite.NotPanics(func() {
		onProgress(0, 3, "Fetching AAPL")
		onProgress(2, 3, "Writing AAPL")
		onProgress(3, 3, "Done")
	})
}
