// Package alert turns indicator snapshots into market alerts, keeps the
// ordered alert log and fans alerts out to delivery sinks.
package alert

import (
	"fmt"
	"time"

	"github.com/anand121shah/tradingbot/internal/indicator"
	"github.com/anand121shah/tradingbot/internal/model"
)

// Thresholds configures when rules fire.
type Thresholds struct {
	RSIOverbought float64
	RSIOversold   float64
	VolumeSigma   float64
}

// DefaultThresholds returns RSI 70/30 and a 2-sigma volume spike.
func DefaultThresholds() Thresholds {
	return Thresholds{RSIOverbought: 70, RSIOversold: 30, VolumeSigma: 2}
}

// Rules evaluates the fixed rule set against one snapshot.
type Rules struct {
	th  Thresholds
	now func() time.Time
}

// NewRules creates a rule evaluator. now stamps emitted alerts; nil uses time.Now.
func NewRules(th Thresholds, now func() time.Time) *Rules {
	if now == nil {
		now = time.Now
	}
	return &Rules{th: th, now: now}
}

// Evaluate returns the alerts that fire for symbol given the latest snapshot
// and price, in rule order: RSI, MACD, volume, Bollinger. Indicators that are
// not ready never fire.
func (r *Rules) Evaluate(symbol string, price float64, snap indicator.Snapshot) []model.Alert {
	var out []model.Alert
	ts := r.now()

	emit := func(typ model.AlertType, msg string, pr model.Priority, data map[string]float64) {
		out = append(out, model.Alert{
			Symbol:    symbol,
			Type:      typ,
			Message:   msg,
			Timestamp: ts,
			Priority:  pr,
			Data:      data,
		})
	}

	if rsi := snap.RSI; rsi.Ready {
		switch {
		case rsi.Value > r.th.RSIOverbought:
			emit(model.AlertRSIOverbought,
				fmt.Sprintf("RSI (%.2f) indicates overbought conditions", rsi.Value),
				model.PriorityMedium, map[string]float64{"rsi": rsi.Value})
		case rsi.Value < r.th.RSIOversold:
			emit(model.AlertRSIOversold,
				fmt.Sprintf("RSI (%.2f) indicates oversold conditions", rsi.Value),
				model.PriorityMedium, map[string]float64{"rsi": rsi.Value})
		}
	}

	if m := snap.MACD; m.Ready && m.HasPrev {
		data := map[string]float64{"macd": m.MACD, "signal": m.Signal}
		switch {
		case m.MACD > m.Signal && m.PrevMACD <= m.PrevSignal:
			emit(model.AlertMACDBullishCross, "MACD line crossed above signal line",
				model.PriorityMedium, data)
		case m.MACD < m.Signal && m.PrevMACD >= m.PrevSignal:
			emit(model.AlertMACDBearishCross, "MACD line crossed below signal line",
				model.PriorityMedium, data)
		}
	}

	if v := snap.Volume; v.Ready && v.Current > v.Average+r.th.VolumeSigma*v.StdDev {
		emit(model.AlertHighVolume,
			fmt.Sprintf("Unusually high volume detected: %.0f vs avg %.0f", v.Current, v.Average),
			model.PriorityHigh, map[string]float64{
				"average_volume": v.Average,
				"volume_std":     v.StdDev,
				"current_volume": v.Current,
			})
	}

	if b := snap.Bollinger; b.Ready {
		switch {
		case price > b.Upper:
			emit(model.AlertAboveUpperBand, "Price moved above upper Bollinger Band",
				model.PriorityMedium, map[string]float64{"price": price, "upper_band": b.Upper})
		case price < b.Lower:
			emit(model.AlertBelowLowerBand, "Price moved below lower Bollinger Band",
				model.PriorityMedium, map[string]float64{"price": price, "lower_band": b.Lower})
		}
	}

	return out
}
