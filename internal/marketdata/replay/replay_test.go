package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anand121shah/tradingbot/internal/model"
)

type sliceReader struct {
	ticks []model.Tick
	err   error
	got   string
}

func (s *sliceReader) ReadTicks(_ context.Context, symbol string, _, _ time.Time) ([]model.Tick, error) {
	s.got = symbol
	return s.ticks, s.err
}

func (s *sliceReader) Close() error { return nil }

var t0 = time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

func tick(sym string, sec int, price float64) model.Tick {
	return model.Tick{Symbol: sym, Price: price, Volume: 10, TS: t0.Add(time.Duration(sec) * time.Second)}
}

func TestRunEmitsInTimeOrder(t *testing.T) {
	rd := &sliceReader{ticks: []model.Tick{
		tick("AAPL", 2, 102), tick("AAPL", 0, 100), tick("MSFT", 1, 400), tick("AAPL", 1, 101),
	}}
	r := New(rd)

	var got []model.Tick
	n, err := r.Run(context.Background(), Range{Symbol: "AAPL"}, 0, func(t model.Tick) { got = append(got, t) })
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n != 4 || len(got) != 4 {
		t.Fatalf("expected 4 ticks, got n=%d len=%d", n, len(got))
	}
	if rd.got != "AAPL" {
		t.Errorf("reader symbol = %q, want AAPL", rd.got)
	}
	// Equal timestamps keep arrival order: MSFT@1 arrived before AAPL@1.
	want := []float64{100, 400, 101, 102}
	for i, w := range want {
		if got[i].Price != w {
			t.Errorf("tick %d price = %v, want %v", i, got[i].Price, w)
		}
	}
}

func TestRunScalesGaps(t *testing.T) {
	rd := &sliceReader{ticks: []model.Tick{tick("A", 0, 1), tick("A", 10, 2), tick("A", 100, 3)}}
	r := New(rd)

	var slept []time.Duration
	r.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	if _, err := r.Run(context.Background(), Range{}, 10, func(model.Tick) {}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(slept) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(slept))
	}
	if slept[0] != time.Second {
		t.Errorf("first gap = %v, want 1s", slept[0])
	}
	// 90s / 10 = 9s, capped at 5s
	if slept[1] != maxGap {
		t.Errorf("second gap = %v, want %v", slept[1], maxGap)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	rd := &sliceReader{ticks: []model.Tick{tick("A", 0, 1), tick("A", 1, 2), tick("A", 2, 3)}}
	r := New(rd)

	ctx, cancel := context.WithCancel(context.Background())
	n, err := r.Run(ctx, Range{}, 0, func(model.Tick) { cancel() })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if n != 1 {
		t.Errorf("emitted %d ticks before cancel, want 1", n)
	}
}

func TestRunReaderError(t *testing.T) {
	boom := errors.New("db locked")
	r := New(&sliceReader{err: boom})
	if _, err := r.Run(context.Background(), Range{}, 0, func(model.Tick) {}); !errors.Is(err, boom) {
		t.Fatalf("expected reader error, got %v", err)
	}
}

func TestRunEmpty(t *testing.T) {
	r := New(&sliceReader{})
	n, err := r.Run(context.Background(), Range{}, 1, func(model.Tick) { t.Fatal("unexpected emit") })
	if err != nil || n != 0 {
		t.Fatalf("expected 0, nil; got %d, %v", n, err)
	}
}
