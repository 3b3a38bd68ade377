package writer

import (
	"github.com/rxtech-lab/argo-swing/internal/types"
)

// MarketDataWriter defines the interface for writing daily closes to a destination.
type MarketDataWriter interface {
	// Initialize sets up the writer, potentially creating tables or files.
	Initialize() error
	// Write persists a single close for ticker.
	Write(ticker string, point types.PricePoint) error
	// Finalize completes the writing process (e.g., commits transactions, exports files).
	Finalize() (outputPath string, err error)
	// Close releases any resources held by the writer.
	Close() error
	// GetOutputPath returns the configured output file path.
	GetOutputPath() string
}
