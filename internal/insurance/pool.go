package insurance

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotAvailable is returned by pool operations that are not offered yet.
	ErrNotAvailable = errors.New("not available yet")
	ErrUnknownPool  = errors.New("unknown pool level")
)

// Pool is a liquidity pool level with display figures.
type Pool struct {
	Level        int     `json:"level"`
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	Balance      float64 `json:"balance"`
	APY          float64 `json:"apy"`
	TotalInsured float64 `json:"total_insured"`
	Color        string  `json:"color"`
	Expanded     bool    `json:"-"`
}

// Utilization is balance over total insured, in percent.
func (p Pool) Utilization() float64 {
	if p.TotalInsured == 0 {
		return 0
	}
	return p.Balance / p.TotalInsured * 100
}

// DefaultPools returns the three pool levels.
func DefaultPools() []Pool {
	return []Pool{
		{
			Level:        0,
			Name:         "Insurance Compensation Pool (Level 0)",
			Description:  "All insurance premiums land here and wait for positions to close",
			Balance:      158400,
			APY:          0,
			TotalInsured: 325000,
			Color:        "#3B82F6",
		},
		{
			Level:        1,
			Name:         "Agent Investment Pool (Level 1)",
			Description:  "Premiums left after closes and payouts move here and are invested for yield",
			Balance:      89750,
			APY:          5.8,
			TotalInsured: 215000,
			Color:        "#2AFFAA",
		},
		{
			Level:        2,
			Name:         "Agent Investment Pool (Level 2)",
			Description:  "Margin liquidity beyond open interest accumulates here for long-term dividends",
			Balance:      42500,
			APY:          8.2,
			TotalInsured: 125000,
			Color:        "#8B5CF6",
		},
	}
}

// FlowSteps describes how funds move between pool levels.
var FlowSteps = []string{
	"Insurance bought under the premium rule goes to the Level 0 compensation pool and stays there until the position closes.",
	"After a close the premium moves to the Level 1 agent pool, where liquidity can be staked for yield.",
	"Margin liquidity above open interest flows to the Level 2 agent pool and keeps accumulating for dividends.",
}

// Registry is the read-only pool list plus per-level display state.
type Registry struct {
	mu    sync.RWMutex
	pools []Pool
}

// NewRegistry creates a registry over pools. Nil uses DefaultPools.
func NewRegistry(pools []Pool) *Registry {
	if pools == nil {
		pools = DefaultPools()
	}
	cp := make([]Pool, len(pools))
	copy(cp, pools)
	return &Registry{pools: cp}
}

// Pools returns a snapshot ordered by level as given.
func (r *Registry) Pools() []Pool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Pool, len(r.pools))
	copy(out, r.pools)
	return out
}

// Get returns the pool at level.
func (r *Registry) Get(level int) (Pool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.pools {
		if p.Level == level {
			return p, nil
		}
	}
	return Pool{}, fmt.Errorf("%w: %d", ErrUnknownPool, level)
}

// Toggle flips the expanded state of a level and returns the new state.
func (r *Registry) Toggle(level int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.pools {
		if r.pools[i].Level == level {
			r.pools[i].Expanded = !r.pools[i].Expanded
			return r.pools[i].Expanded, nil
		}
	}
	return false, fmt.Errorf("%w: %d", ErrUnknownPool, level)
}

// TotalBalance sums pool balances.
func (r *Registry) TotalBalance() float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0.0
	for _, p := range r.pools {
		total += p.Balance
	}
	return total
}

// Stake is not offered yet.
func (r *Registry) Stake(level int, amount float64) error {
	if _, err := r.Get(level); err != nil {
		return err
	}
	return fmt.Errorf("staking in level %d pool: %w", level, ErrNotAvailable)
}

// Withdraw is not offered yet.
func (r *Registry) Withdraw(level int, amount float64) error {
	if _, err := r.Get(level); err != nil {
		return err
	}
	return fmt.Errorf("withdrawal from level %d pool: %w", level, ErrNotAvailable)
}
