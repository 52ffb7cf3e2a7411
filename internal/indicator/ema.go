package indicator

import "strconv"

// EMA calculates an Exponential Moving Average with alpha = 2/(span+1).
// The first value seeds the average directly, with no warm-up window, which
// matches the recursive (non-adjusted) form used by most charting tools.
// O(1) per update.
type EMA struct {
	span    int
	alpha   float64
	current float64
	count   int
}

// NewEMA creates a new EMA indicator with the given span.
func NewEMA(span int) *EMA {
	if span < 1 {
		span = 1
	}
	return &EMA{
		span:  span,
		alpha: 2.0 / float64(span+1),
	}
}

func (e *EMA) Name() string { return "EMA_" + strconv.Itoa(e.span) }

func (e *EMA) Update(v float64) {
	e.count++
	if e.count == 1 {
		e.current = v
		return
	}
	// EMA = alpha*price + (1-alpha)*EMA_prev
	e.current = e.alpha*v + (1-e.alpha)*e.current
}

func (e *EMA) Value() float64 { return e.current }
func (e *EMA) Ready() bool    { return e.count > 0 }
