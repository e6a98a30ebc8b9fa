package market

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

const (
	// MaxStepPercent bounds the per-tick multiplicative move, in percent.
	MaxStepPercent = 0.2
	// MaxChange24hPercent bounds the cosmetic 24h change, in percent.
	MaxChange24hPercent = 3.0
)

// ErrTickFailed is returned when a tick could not produce a valid price set.
var ErrTickFailed = errors.New("price tick failed")

// Source yields uniformly distributed values in [0, 1).
type Source interface {
	Float64() float64
}

type globalSource struct{}

func (globalSource) Float64() float64 { return rand.Float64() }

// Simulator produces a bounded random walk per instrument.
type Simulator struct {
	mu  sync.Mutex
	src Source
}

// NewSimulator creates a simulator. A nil source uses the process-wide generator.
func NewSimulator(src Source) *Simulator {
	if src == nil {
		src = globalSource{}
	}
	return &Simulator{src: src}
}

// Seed draws an initial price for the symbol.
func (s *Simulator) Seed(symbol string) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seed(symbol)
}

// Step applies one random multiplicative move to price.
func (s *Simulator) Step(price float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step(price)
}

// Tick returns the next instrument set. The input slice is never modified;
// on error the caller keeps its previous state.
func (s *Simulator) Tick(instruments []Instrument) (next []Instrument, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			next = nil
			err = fmt.Errorf("%w: %v", ErrTickFailed, r)
		}
	}()

	next = Clone(instruments)
	for i := range next {
		inst := &next[i]
		if !inst.Seeded() || math.IsNaN(inst.Price) || math.IsInf(inst.Price, 0) {
			inst.Price = s.seed(inst.Symbol)
		} else {
			inst.Price = s.step(inst.Price)
		}
		inst.Change24h = s.src.Float64()*2*MaxChange24hPercent - MaxChange24hPercent

		if math.IsNaN(inst.Price) || math.IsInf(inst.Price, 0) || inst.Price <= 0 {
			return nil, fmt.Errorf("%w: invalid price %v for %s", ErrTickFailed, inst.Price, inst.Symbol)
		}
	}
	return next, nil
}

func (s *Simulator) seed(symbol string) float64 {
	r, ok := seedRanges[symbol]
	if !ok {
		return DefaultSeedPrice
	}
	return r.Min + s.src.Float64()*r.Width
}

func (s *Simulator) step(price float64) float64 {
	changePercent := s.src.Float64()*2*MaxStepPercent - MaxStepPercent
	return price * (1 + changePercent/100)
}
