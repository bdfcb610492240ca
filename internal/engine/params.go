package engine

import "fmt"

// Params is the immutable parameter set for one simulation run. The
// engine never consults configuration at runtime; callers build a
// Params once, validated, and hand it over.
type Params struct {
	Symbol        string
	InverseSymbol string

	InitialCapital      float64
	BasePositionSize    float64
	MinPositionSize     float64
	MaxPositionSize     float64
	MinTradeValue       float64
	SignalCapMultiplier float64

	BuyThreshold  float64 // > 0, targets Symbol
	SellThreshold float64 // < 0, targets InverseSymbol

	StopLossPct           float64
	TakeProfitPct         float64
	TrailingStopPct       float64
	TrailingActivationPct float64

	CommissionPerTrade float64
	SlippagePct        float64
}

// Validate checks the parameter set for internal consistency.
func (p Params) Validate() error {
	if p.Symbol == "" || p.InverseSymbol == "" {
		return fmt.Errorf("params: both symbols are required")
	}
	if p.Symbol == p.InverseSymbol {
		return fmt.Errorf("params: symbols must differ")
	}
	if p.InitialCapital <= 0 {
		return fmt.Errorf("params: initial capital must be > 0")
	}
	if p.BasePositionSize <= 0 {
		return fmt.Errorf("params: base position size must be > 0")
	}
	if p.MinPositionSize > p.MaxPositionSize {
		return fmt.Errorf("params: min position size exceeds max")
	}
	if p.BuyThreshold <= 0 {
		return fmt.Errorf("params: buy threshold must be > 0")
	}
	if p.SellThreshold >= 0 {
		return fmt.Errorf("params: sell threshold must be < 0")
	}
	for name, pct := range map[string]float64{
		"stop loss":           p.StopLossPct,
		"take profit":         p.TakeProfitPct,
		"trailing stop":       p.TrailingStopPct,
		"trailing activation": p.TrailingActivationPct,
	} {
		if pct <= 0 || pct >= 1 {
			return fmt.Errorf("params: %s pct must be in (0,1)", name)
		}
	}
	if p.SlippagePct < 0 {
		return fmt.Errorf("params: slippage pct must be >= 0")
	}
	if p.CommissionPerTrade < 0 {
		return fmt.Errorf("params: commission must be >= 0")
	}
	if p.SignalCapMultiplier < 1 {
		return fmt.Errorf("params: signal cap multiplier must be >= 1")
	}
	return nil
}
