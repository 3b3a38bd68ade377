// Package extrema labels the local minima and maxima of a closing-price series.
package extrema

import "github.com/rxtech-lab/argo-swing/internal/types"

// MinimumLength is the shortest series that can contain an extremum.
const MinimumLength = 3

// Detect labels every index of closes. A point is a Minimum when it is strictly
// lower than both neighbours and a Maximum when strictly higher. The endpoints and
// plateaus are None. Series shorter than MinimumLength yield an empty labeling.
func Detect(closes []float64) []types.ExtremumLabel {
	n := len(closes)
	if n < MinimumLength {
		return []types.ExtremumLabel{}
	}

	labels := make([]types.ExtremumLabel, n)
	labels[0] = types.ExtremumNone
	labels[n-1] = types.ExtremumNone

	for i := 1; i < n-1; i++ {
		labels[i] = Classify(closes[i-1], closes[i], closes[i+1])
	}

	return labels
}

// DetectSeries labels the closes of series.
func DetectSeries(series types.PriceSeries) []types.ExtremumLabel {
	return Detect(series.Closes())
}

// Classify labels the middle value of three consecutive closes.
func Classify(prev, current, next float64) types.ExtremumLabel {
	switch {
	case current < prev && current < next:
		return types.ExtremumMinimum
	case current > prev && current > next:
		return types.ExtremumMaximum
	default:
		return types.ExtremumNone
	}
}

// Indices returns the positions carrying label, in ascending order.
func Indices(labels []types.ExtremumLabel, label types.ExtremumLabel) []int {
	idx := []int{}

	for i, l := range labels {
		if l == label {
			idx = append(idx, i)
		}
	}

	return idx
}
