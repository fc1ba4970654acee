package risk

import (
	"math/rand/v2"
	"sync"
)

// Source é a fonte de aleatoriedade injetável (justiça, não segurança).
// *rand.Rand de math/rand/v2 satisfaz a interface, mas não é seguro para uso concorrente.
type Source interface {
	IntN(n int) int
	Float64() float64
}

type globalSource struct{}

func (globalSource) IntN(n int) int   { return rand.IntN(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

// DefaultSource usa o gerador global de math/rand/v2 (seguro entre goroutines)
func DefaultSource() Source { return globalSource{} }

type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource cria uma fonte reprodutível e segura para goroutines
func NewSeededSource(seed uint64) Source {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

func (s *lockedSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64()
}
