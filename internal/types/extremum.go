package types

// ExtremumLabel classifies a point of a price series against its two neighbours.
type ExtremumLabel string

const (
	ExtremumNone    ExtremumLabel = "none"
	ExtremumMinimum ExtremumLabel = "minimum"
	ExtremumMaximum ExtremumLabel = "maximum"
)

func (l ExtremumLabel) String() string {
	return string(l)
}
