// Package rng provides the random sources used by mood classification and
// reply generation. Production code uses the runtime generator; tests inject
// a Sequence to get exact outputs.
package rng

import (
	"math/rand/v2"
	"sync"
)

// Source is the subset of math/rand/v2 used by the chat pipeline.
type Source interface {
	// IntN returns a value in [0, n).
	IntN(n int) int
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

type runtimeSource struct{}

func (runtimeSource) IntN(n int) int   { return rand.IntN(n) }
func (runtimeSource) Float64() float64 { return rand.Float64() }

// Default returns a goroutine-safe source backed by the runtime generator.
func Default() Source {
	return runtimeSource{}
}

// Seeded returns a goroutine-safe deterministic source.
func Seeded(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedSource) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

func (l *lockedSource) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Sequence replays a fixed list of draws in [0, 1). IntN(n) maps a draw to
// int(draw*n). Once exhausted it wraps around to the start.
type Sequence struct {
	mu    sync.Mutex
	draws []float64
	pos   int
}

// NewSequence returns a Sequence over draws. An empty Sequence always yields 0.
func NewSequence(draws ...float64) *Sequence {
	return &Sequence{draws: draws}
}

func (s *Sequence) next() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.draws) == 0 {
		return 0
	}
	v := s.draws[s.pos%len(s.draws)]
	s.pos++
	return v
}

func (s *Sequence) Float64() float64 {
	return s.next()
}

func (s *Sequence) IntN(n int) int {
	if n <= 0 {
		panic("rng: invalid argument to IntN")
	}
	i := int(s.next() * float64(n))
	if i >= n {
		i = n - 1
	}
	return i
}

// Used reports how many draws have been consumed.
func (s *Sequence) Used() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}
