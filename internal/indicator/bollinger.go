package indicator

// Bollinger computes an SMA middle band with upper and lower bands k sample
// standard deviations away.
type Bollinger struct {
	sma *SMA
	k   float64
}

// NewBollinger creates Bollinger Bands over period with width k (typically 20, 2).
func NewBollinger(period int, k float64) *Bollinger {
	return &Bollinger{sma: NewSMA(period), k: k}
}

func (b *Bollinger) Name() string { return "BB" }

func (b *Bollinger) Update(price float64) { b.sma.Update(price) }

// Value returns the middle band.
func (b *Bollinger) Value() float64 { return b.sma.Value() }
func (b *Bollinger) Ready() bool    { return b.sma.Ready() }

// Bands returns upper, middle and lower. All zero until Ready.
func (b *Bollinger) Bands() (upper, middle, lower float64) {
	if !b.Ready() {
		return 0, 0, 0
	}
	mid := b.sma.Value()
	width := b.k * b.sma.StdDev()
	return mid + width, mid, mid - width
}
