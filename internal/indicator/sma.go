package indicator

import (
	"math"
	"strconv"
)

// SMA calculates Simple Moving Average over a rolling window.
// Uses a preallocated circular buffer; the window is also used for the
// sample standard deviation that Bollinger Bands need. The mean is summed
// from the window on each update, never carried as a running sum, so a
// constant window yields exactly its value however long the history.
type SMA struct {
	period  int
	buf     []float64 // preallocated circular buffer
	idx     int       // current write position
	count   int       // total values received
	current float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	if period < 1 {
		period = 1
	}
	return &SMA{
		period: period,
		buf:    make([]float64, period),
	}
}

func (s *SMA) Name() string { return "SMA_" + strconv.Itoa(s.period) }

func (s *SMA) Update(v float64) {
	s.buf[s.idx] = v
	s.idx = (s.idx + 1) % s.period
	s.count++

	if s.count >= s.period {
		s.current = s.windowMean()
	}
}

// windowMean averages deviations from buf[0] and adds them back, which is
// exact for a constant window. StdDev measures from this same mean.
func (s *SMA) windowMean() float64 {
	base := s.buf[0]
	dev := 0.0
	for _, v := range s.buf {
		dev += v - base
	}
	return base + dev/float64(s.period)
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.count >= s.period }

// StdDev returns the sample (n-1) standard deviation of the current window.
// Returns 0 until Ready, or when the period is 1.
func (s *SMA) StdDev() float64 {
	if !s.Ready() || s.period < 2 {
		return 0
	}
	mean := s.current

	ss := 0.0
	for _, v := range s.buf {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(s.period-1))
}
