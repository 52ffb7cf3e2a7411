package alert

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand121shah/tradingbot/internal/model"
)

func mk(symbol string, p model.Priority, typ model.AlertType) model.Alert {
	return model.Alert{Symbol: symbol, Priority: p, Type: typ, Data: map[string]float64{"x": 1}}
}

func TestLog_FilterPreservesOrder(t *testing.T) {
	l := NewLog(0)
	l.Append(
		mk("A", model.PriorityMedium, model.AlertRSIOverbought),
		mk("B", model.PriorityHigh, model.AlertHighVolume),
		mk("A", model.PriorityHigh, model.AlertHighVolume),
		mk("A", model.PriorityMedium, model.AlertAboveUpperBand),
	)

	all := l.Filter(Filter{})
	require.Len(t, all, 4)
	assert.Equal(t, "B", all[1].Symbol)

	a := l.Filter(Filter{Symbol: "A"})
	require.Len(t, a, 3)
	assert.Equal(t, model.AlertRSIOverbought, a[0].Type)
	assert.Equal(t, model.AlertAboveUpperBand, a[2].Type)

	high := l.Filter(Filter{Priority: model.PriorityHigh})
	require.Len(t, high, 2)

	both := l.Filter(Filter{Symbol: "A", Priority: model.PriorityHigh})
	require.Len(t, both, 1)
	assert.Equal(t, model.AlertHighVolume, both[0].Type)

	assert.Empty(t, l.Filter(Filter{Symbol: "ZZZ"}))
	assert.NotNil(t, l.Filter(Filter{Symbol: "ZZZ"}))
}

func TestLog_ReturnsCopies(t *testing.T) {
	l := NewLog(0)
	l.Append(mk("A", model.PriorityLow, model.AlertRSIOversold))

	got := l.Filter(Filter{})
	got[0].Data["x"] = 42
	got[0].Symbol = "mutated"

	again := l.Filter(Filter{})
	assert.Equal(t, 1.0, again[0].Data["x"])
	assert.Equal(t, "A", again[0].Symbol)
}

func TestLog_Limit(t *testing.T) {
	l := NewLog(2)
	l.Append(mk("1", model.PriorityLow, ""), mk("2", model.PriorityLow, ""))
	l.Append(mk("3", model.PriorityLow, ""))

	got := l.Filter(Filter{})
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].Symbol)
	assert.Equal(t, "3", got[1].Symbol)
	assert.Equal(t, uint64(1), l.Dropped())
}

func TestLog_ConcurrentAppend(t *testing.T) {
	l := NewLog(0)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				l.Append(mk("S", model.PriorityMedium, ""))
				_ = l.Filter(Filter{Symbol: "S"})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, l.Len())
}
