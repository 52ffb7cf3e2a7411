package signal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDesk_GenerateSignal(t *testing.T) {
	desk := NewDesk(NewValidator(wideLimits(), nil), nil)

	sig, d := desk.GenerateSignal(equity())
	require.True(t, d.Approved)
	assert.Equal(t, "AAPL", sig.Symbol)

	bad := equity()
	bad.TakeProfit = 151
	_, d = desk.GenerateSignal(bad)
	assert.False(t, d.Approved)
	assert.ErrorIs(t, d.Reason, ErrRiskRewardTooLow)
}

func TestDesk_ActiveTrades(t *testing.T) {
	desk := NewDesk(NewValidator(wideLimits(), nil), nil)

	msft := equity()
	msft.Symbol = "MSFT"
	desk.AddActiveTrade(msft)
	desk.AddActiveTrade(equity())

	replacement := equity()
	replacement.Quantity = 7
	desk.AddActiveTrade(replacement)

	trades := desk.ActiveTrades()
	require.Len(t, trades, 2)
	assert.Equal(t, "AAPL", trades[0].Symbol)
	assert.Equal(t, int64(7), trades[0].Quantity)
	assert.Equal(t, "MSFT", trades[1].Symbol)

	assert.True(t, desk.RemoveActiveTrade("MSFT"))
	assert.False(t, desk.RemoveActiveTrade("MSFT"))
	_, ok := desk.ActiveTrade("MSFT")
	assert.False(t, ok)
	assert.Len(t, desk.ActiveTrades(), 1)
}
