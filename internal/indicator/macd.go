package indicator

// MACD tracks the fast-minus-slow EMA spread and its signal EMA. It keeps the
// previous (macd, signal) pair so callers can detect crossovers.
type MACD struct {
	fast, slow, signal *EMA

	macd, sig         float64
	prevMACD, prevSig float64
	count             int
}

// NewMACD creates a MACD with the given fast, slow and signal spans
// (typically 12, 26, 9).
func NewMACD(fast, slow, signal int) *MACD {
	return &MACD{
		fast:   NewEMA(fast),
		slow:   NewEMA(slow),
		signal: NewEMA(signal),
	}
}

func (m *MACD) Name() string { return "MACD" }

func (m *MACD) Update(price float64) {
	m.prevMACD, m.prevSig = m.macd, m.sig

	m.fast.Update(price)
	m.slow.Update(price)
	m.macd = m.fast.Value() - m.slow.Value()
	m.signal.Update(m.macd)
	m.sig = m.signal.Value()
	m.count++
}

func (m *MACD) Value() float64 { return m.macd }
func (m *MACD) Ready() bool    { return m.count > 0 }

// Signal returns the signal line value.
func (m *MACD) Signal() float64 { return m.sig }

// Histogram returns macd - signal.
func (m *MACD) Histogram() float64 { return m.macd - m.sig }

// Previous returns the (macd, signal) pair before the last update and whether
// such a pair exists.
func (m *MACD) Previous() (macd, signal float64, ok bool) {
	return m.prevMACD, m.prevSig, m.count > 1
}
