package indicator

// Params sets the indicator periods. The zero value is not usable; start
// from DefaultParams.
type Params struct {
	RSIPeriod      int
	MACDFast       int
	MACDSlow       int
	MACDSignal     int
	BollingerLen   int
	BollingerWidth float64
}

// DefaultParams returns the standard periods: RSI(14), MACD(12,26,9), BB(20,2).
func DefaultParams() Params {
	return Params{
		RSIPeriod:      14,
		MACDFast:       12,
		MACDSlow:       26,
		MACDSignal:     9,
		BollingerLen:   20,
		BollingerWidth: 2,
	}
}

// RSIValue is the latest RSI reading.
type RSIValue struct {
	Value float64 `json:"value"`
	Ready bool    `json:"ready"`
}

// MACDValue is the latest MACD reading plus the previous pair for crossovers.
type MACDValue struct {
	MACD       float64 `json:"macd"`
	Signal     float64 `json:"signal"`
	Histogram  float64 `json:"histogram"`
	PrevMACD   float64 `json:"prev_macd"`
	PrevSignal float64 `json:"prev_signal"`
	HasPrev    bool    `json:"has_prev"`
	Ready      bool    `json:"ready"`
}

// BandsValue is the latest Bollinger Bands reading.
type BandsValue struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
	Ready  bool    `json:"ready"`
}

// Snapshot holds the latest value of every indicator for one series.
type Snapshot struct {
	RSI       RSIValue      `json:"rsi"`
	MACD      MACDValue     `json:"macd"`
	Bollinger BandsValue    `json:"bollinger_bands"`
	Volume    VolumeProfile `json:"volume_profile"`
}

// Engine computes indicator snapshots from full price and volume windows.
// It holds no per-series state and is safe for concurrent use.
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given periods.
func NewEngine(p Params) *Engine {
	return &Engine{params: p}
}

// Params returns the engine's periods.
func (e *Engine) Params() Params { return e.params }

// Compute recomputes every indicator from scratch over prices (oldest first)
// and volumes. It never mutates its inputs.
func (e *Engine) Compute(prices, volumes []float64) Snapshot {
	p := e.params
	rsi := NewRSI(p.RSIPeriod)
	macd := NewMACD(p.MACDFast, p.MACDSlow, p.MACDSignal)
	bb := NewBollinger(p.BollingerLen, p.BollingerWidth)

	for _, v := range prices {
		rsi.Update(v)
		macd.Update(v)
		bb.Update(v)
	}

	var snap Snapshot
	snap.RSI = RSIValue{Value: rsi.Value(), Ready: rsi.Ready()}

	if macd.Ready() {
		pm, ps, ok := macd.Previous()
		snap.MACD = MACDValue{
			MACD:       macd.Value(),
			Signal:     macd.Signal(),
			Histogram:  macd.Histogram(),
			PrevMACD:   pm,
			PrevSignal: ps,
			HasPrev:    ok,
			Ready:      true,
		}
	}

	if bb.Ready() {
		u, m, l := bb.Bands()
		snap.Bollinger = BandsValue{Upper: u, Middle: m, Lower: l, Ready: true}
	}

	snap.Volume = NewVolumeProfile(volumes)
	return snap
}
