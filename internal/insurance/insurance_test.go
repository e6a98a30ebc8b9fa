package insurance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFee(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		rate   float64
		want   float64
	}{
		{"ten percent", 250, DefaultFeeRate, 25},
		{"fractional", 0.5, DefaultFeeRate, 0.05},
		{"zero amount", 0, DefaultFeeRate, 0},
		{"negative amount", -10, DefaultFeeRate, 0},
		{"zero rate", 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Fee(tt.amount, tt.rate), 1e-12)
		})
	}
}

func TestDefaultPools(t *testing.T) {
	pools := DefaultPools()
	require.Len(t, pools, 3)

	assert.Equal(t, 0, pools[0].Level)
	assert.Equal(t, 158400.0, pools[0].Balance)
	assert.Zero(t, pools[0].APY)
	assert.Equal(t, 325000.0, pools[0].TotalInsured)

	assert.Equal(t, 5.8, pools[1].APY)
	assert.Equal(t, 89750.0, pools[1].Balance)
	assert.Equal(t, 8.2, pools[2].APY)
	assert.Equal(t, 125000.0, pools[2].TotalInsured)

	for _, p := range pools {
		assert.False(t, p.Expanded)
	}
}

func TestRegistryToggle(t *testing.T) {
	reg := NewRegistry(nil)

	expanded, err := reg.Toggle(1)
	require.NoError(t, err)
	assert.True(t, expanded)

	p, err := reg.Get(1)
	require.NoError(t, err)
	assert.True(t, p.Expanded)

	expanded, err = reg.Toggle(1)
	require.NoError(t, err)
	assert.False(t, expanded)

	_, err = reg.Toggle(9)
	assert.ErrorIs(t, err, ErrUnknownPool)
}

func TestRegistrySnapshotIsolation(t *testing.T) {
	reg := NewRegistry(nil)
	snap := reg.Pools()
	snap[0].Balance = 1

	p, err := reg.Get(0)
	require.NoError(t, err)
	assert.Equal(t, 158400.0, p.Balance)
	assert.Equal(t, 158400.0+89750.0+42500.0, reg.TotalBalance())
}

func TestStakeAndWithdrawNotAvailable(t *testing.T) {
	reg := NewRegistry(nil)

	assert.ErrorIs(t, reg.Stake(0, 100), ErrNotAvailable)
	assert.ErrorIs(t, reg.Withdraw(2, 100), ErrNotAvailable)
	assert.ErrorIs(t, reg.Stake(5, 100), ErrUnknownPool)

	p, _ := reg.Get(0)
	assert.Equal(t, 158400.0, p.Balance, "balances never move")
}

func TestPoolUtilization(t *testing.T) {
	assert.InDelta(t, 40.0, Pool{Balance: 40, TotalInsured: 100}.Utilization(), 1e-9)
	assert.Zero(t, Pool{Balance: 40}.Utilization())
}
