package policy

import (
	"hash/fnv"
	"math/rand/v2"
)

// RandomSource yields uniformly distributed draws in [0, 1).
type RandomSource interface {
	Float64() float64
}

// NewSeededSource returns a PCG generator. The same (seed, stream) pair always
// yields the same sequence of draws.
func NewSeededSource(seed uint64, stream uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, stream))
}

// StreamForTicker derives the independent stream a ticker draws from, so results do
// not depend on the order or concurrency in which tickers run.
func StreamForTicker(seed uint64, ticker string) RandomSource {
	h := fnv.New64a()
	_, _ = h.Write([]byte(ticker))

	return NewSeededSource(seed, h.Sum64())
}

// NewSeed picks a fresh seed for runs that do not configure one.
func NewSeed() uint64 {
	return rand.Uint64()
}

// SequenceSource replays a fixed list of draws, starting over when exhausted.
// An empty sequence always draws 0.
type SequenceSource struct {
	draws    []float64
	consumed int
}

// NewSequenceSource creates a source replaying draws in order.
func NewSequenceSource(draws ...float64) *SequenceSource {
	return &SequenceSource{
		draws:    append([]float64{}, draws...),
		consumed: 0,
	}
}

// Float64 implements RandomSource.
func (s *SequenceSource) Float64() float64 {
	defer func() { s.consumed++ }()

	if len(s.draws) == 0 {
		return 0
	}

	return s.draws[s.consumed%len(s.draws)]
}

// Consumed returns how many draws have been taken.
func (s *SequenceSource) Consumed() int {
	return s.consumed
}
