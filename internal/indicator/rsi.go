package indicator

import "strconv"

// Neutral RSI reported when the window holds neither gains nor losses.
const rsiNeutral = 50.0

// RSI calculates the Relative Strength Index from simple rolling means of
// gains and losses over the last period price changes.
//
// The first price contributes a zero gain and zero loss, so the window is
// full after period prices. Once more than period prices have been seen the
// window holds only real price changes.
type RSI struct {
	period    int
	count     int
	prevPrice float64

	gains  []float64
	losses []float64
	idx    int

	current float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	if period < 1 {
		period = 1
	}
	return &RSI{
		period: period,
		gains:  make([]float64, period),
		losses: make([]float64, period),
	}
}

func (r *RSI) Name() string { return "RSI_" + strconv.Itoa(r.period) }

func (r *RSI) Update(price float64) {
	gain, loss := 0.0, 0.0
	if r.count > 0 {
		delta := price - r.prevPrice
		if delta > 0 {
			gain = delta
		} else {
			loss = -delta
		}
	}
	r.prevPrice = price

	r.gains[r.idx] = gain
	r.losses[r.idx] = loss
	r.idx = (r.idx + 1) % r.period
	r.count++

	if r.count >= r.period {
		// Summed from the window each time so a flat window is exactly zero.
		sumG, sumL := 0.0, 0.0
		for i := 0; i < r.period; i++ {
			sumG += r.gains[i]
			sumL += r.losses[i]
		}
		r.current = rsiFromMeans(sumG/float64(r.period), sumL/float64(r.period))
	}
}

func (r *RSI) Value() float64 { return r.current }
func (r *RSI) Ready() bool    { return r.count >= r.period }

func rsiFromMeans(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return rsiNeutral
	case avgLoss == 0:
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
