package models

import (
	"fmt"
	"time"
)

// Position is an open long holding in one instrument. At most one
// position may exist per instrument at any time.
type Position struct {
	Symbol    string    `json:"symbol"`
	Quantity  int       `json:"quantity"`
	AvgPrice  float64   `json:"avg_price"`
	EntryDate time.Time `json:"entry_date"`
}

// MarketValue returns the position valued at the given price.
func (p *Position) MarketValue(price float64) float64 {
	return float64(p.Quantity) * price
}

// UnrealizedPnL returns the open profit at the given price.
func (p *Position) UnrealizedPnL(price float64) float64 {
	return float64(p.Quantity) * (price - p.AvgPrice)
}

// Validate ensures the position satisfies its structural invariants.
func (p *Position) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("position: symbol is required")
	}
	if p.Quantity <= 0 {
		return fmt.Errorf("position %s: quantity must be > 0 (got %d)", p.Symbol, p.Quantity)
	}
	if p.AvgPrice <= 0 {
		return fmt.Errorf("position %s: avg price must be > 0 (got %.4f)", p.Symbol, p.AvgPrice)
	}
	if p.EntryDate.IsZero() {
		return fmt.Errorf("position %s: entry date must be set", p.Symbol)
	}
	return nil
}

// ActiveStop holds the risk-control levels for an open position. It
// exists iff a Position exists for the same instrument and is destroyed
// with it.
type ActiveStop struct {
	Symbol          string    `json:"symbol"`
	EntryPrice      float64   `json:"entry_price"`
	StopLossPrice   float64   `json:"stop_loss_price"`
	TakeProfitPrice float64   `json:"take_profit_price"`
	EntryDate       time.Time `json:"entry_date"`
	TrailingActive  bool      `json:"trailing_active"`
	TrailingPrice   float64   `json:"trailing_price,omitempty"`
}

// NewActiveStop derives the stop levels from the entry fill.
func NewActiveStop(symbol string, entryPrice float64, entryDate time.Time, stopLossPct, takeProfitPct float64) *ActiveStop {
	return &ActiveStop{
		Symbol:          symbol,
		EntryPrice:      entryPrice,
		StopLossPrice:   entryPrice * (1 - stopLossPct),
		TakeProfitPrice: entryPrice * (1 + takeProfitPct),
		EntryDate:       entryDate,
	}
}

// ActivateTrailing turns the trailing stop on at the given price. Once
// active it never deactivates.
func (s *ActiveStop) ActivateTrailing(price, trailingPct float64) {
	s.TrailingActive = true
	s.TrailingPrice = price * (1 - trailingPct)
}

// Ratchet raises the trailing price if the candidate derived from the
// current price is higher. The trailing price never loosens.
func (s *ActiveStop) Ratchet(price, trailingPct float64) {
	candidate := price * (1 - trailingPct)
	if candidate > s.TrailingPrice {
		s.TrailingPrice = candidate
	}
}
