// Package replay reads journaled ticks and emits them at configurable speed
// for backtesting.
package replay

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/anand121shah/tradingbot/internal/model"
)

const maxGap = 5 * time.Second

// Range selects the ticks to replay. Zero values are open bounds; an empty
// Symbol replays every symbol.
type Range struct {
	Symbol string
	From   time.Time
	To     time.Time
}

// Replayer reads historical ticks and replays them at a configurable speed
// multiplier.
type Replayer struct {
	reader model.TickReader

	// sleep is swapped in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates a Replayer backed by reader.
func New(reader model.TickReader) *Replayer {
	return &Replayer{reader: reader, sleep: sleepCtx}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Run replays every tick in rg into emit, oldest first, and returns how
// many were emitted. speed controls the playback rate: 1.0 = real-time,
// 10.0 = 10x, 0 = as fast as possible. Gaps are capped at 5s of wall time.
func (r *Replayer) Run(ctx context.Context, rg Range, speed float64, emit func(model.Tick)) (int, error) {
	ticks, err := r.reader.ReadTicks(ctx, rg.Symbol, rg.From, rg.To)
	if err != nil {
		return 0, err
	}
	if len(ticks) == 0 {
		log.Println("[replay] no ticks found in journal")
		return 0, nil
	}

	// Readers return time order already; keep arrival order for equal stamps.
	sort.SliceStable(ticks, func(i, j int) bool { return ticks[i].TS.Before(ticks[j].TS) })

	log.Printf("[replay] loaded %d ticks, speed=%.1fx", len(ticks), speed)

	var prevTS time.Time
	emitted := 0

	for _, t := range ticks {
		if err := ctx.Err(); err != nil {
			log.Printf("[replay] cancelled after %d ticks", emitted)
			return emitted, err
		}

		// Simulate time gaps between ticks
		if speed > 0 && !prevTS.IsZero() {
			if gap := t.TS.Sub(prevTS); gap > 0 {
				scaled := time.Duration(float64(gap) / speed)
				if scaled > maxGap {
					scaled = maxGap
				}
				if err := r.sleep(ctx, scaled); err != nil {
					return emitted, err
				}
			}
		}
		prevTS = t.TS

		emit(t)
		emitted++
	}

	log.Printf("[replay] completed: %d ticks replayed", emitted)
	return emitted, nil
}
