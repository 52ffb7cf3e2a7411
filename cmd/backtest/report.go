package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/anand121shah/tradingbot/internal/market"
	"github.com/anand121shah/tradingbot/internal/model"
)

type symbolStats struct {
	ticks  int
	alerts int
}

type runStats struct {
	bySymbol map[string]*symbolStats
	byType   map[model.AlertType]int
}

func newRunStats() *runStats {
	return &runStats{
		bySymbol: make(map[string]*symbolStats),
		byType:   make(map[model.AlertType]int),
	}
}

func (s *runStats) observe(t model.Tick, alerts []model.Alert) {
	st, ok := s.bySymbol[t.Symbol]
	if !ok {
		st = &symbolStats{}
		s.bySymbol[t.Symbol] = st
	}
	st.ticks++
	st.alerts += len(alerts)
	for _, a := range alerts {
		s.byType[a.Type]++
	}
}

func renderReport(w io.Writer, analyzer *market.Analyzer, stats *runStats, replayed int) {
	symbols := make([]string, 0, len(stats.bySymbol))
	for sym := range stats.bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("BACKTEST COMPLETE")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Symbol", "Ticks", "Alerts", "Last Price", "Change %", "RSI"})
	for _, sym := range symbols {
		st := stats.bySymbol[sym]
		an, _ := analyzer.MarketAnalysis(sym)
		rsi := "-"
		if an.Indicators.RSI.Ready {
			rsi = fmt.Sprintf("%.2f", an.Indicators.RSI.Value)
		}
		t.AppendRow(table.Row{sym, st.ticks, st.alerts,
			fmt.Sprintf("%.2f", an.PriceData.CurrentPrice),
			fmt.Sprintf("%+.2f", an.PriceData.PriceChangePercent),
			rsi})
	}
	t.AppendFooter(table.Row{"TOTAL", replayed, analyzer.AlertCount(), "", "", ""})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
	})
	t.Render()

	if len(stats.byType) == 0 {
		return
	}
	types := make([]string, 0, len(stats.byType))
	for typ := range stats.byType {
		types = append(types, string(typ))
	}
	sort.Strings(types)

	at := table.NewWriter()
	at.SetOutputMirror(w)
	at.SetTitle("ALERTS BY TYPE")
	at.SetStyle(table.StyleRounded)
	at.AppendHeader(table.Row{"Type", "Count"})
	for _, typ := range types {
		at.AppendRow(table.Row{typ, stats.byType[model.AlertType(typ)]})
	}
	at.Render()
}
