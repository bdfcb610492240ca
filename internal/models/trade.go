package models

import (
	"time"

	"github.com/google/uuid"
)

// Side is the direction of an executed trade.
type Side string

const (
	// SideBuy is a purchase.
	SideBuy Side = "BUY"
	// SideSell is a liquidation.
	SideSell Side = "SELL"
)

// CloseReason records why a trade was executed.
type CloseReason string

const (
	// ReasonSignal marks entries and signal-refresh closes.
	ReasonSignal CloseReason = "SIGNAL"
	// ReasonStopLoss marks a stop-loss breach.
	ReasonStopLoss CloseReason = "STOP_LOSS"
	// ReasonTakeProfit marks a take-profit breach.
	ReasonTakeProfit CloseReason = "TAKE_PROFIT"
	// ReasonTrailingStop marks a trailing-stop breach.
	ReasonTrailingStop CloseReason = "TRAILING_STOP"
	// ReasonMutualExclusivity marks a forced close because the opposing
	// instrument received a BUY signal.
	ReasonMutualExclusivity CloseReason = "MUTUAL_EXCLUSIVITY"
	// ReasonEndOfSimulation marks the forced liquidation on the final day.
	ReasonEndOfSimulation CloseReason = "END_OF_SIMULATION"
)

// Trade is a single executed order. Trades are append-only log entries
// and are never mutated after creation.
type Trade struct {
	ID             string      `json:"id"`
	Timestamp      time.Time   `json:"timestamp"`
	Symbol         string      `json:"symbol"`
	Side           Side        `json:"side"`
	Quantity       int         `json:"quantity"`
	Price          float64     `json:"price"` // post-slippage execution price
	Value          float64     `json:"value"`
	SignalStrength float64     `json:"signal_strength"`
	Confidence     float64     `json:"confidence"`
	Reason         CloseReason `json:"reason"`
}

// NewTrade builds a trade with a fresh ID.
func NewTrade(ts time.Time, symbol string, side Side, qty int, price float64, strength, confidence float64, reason CloseReason) Trade {
	return Trade{
		ID:             uuid.NewString(),
		Timestamp:      ts,
		Symbol:         symbol,
		Side:           side,
		Quantity:       qty,
		Price:          price,
		Value:          float64(qty) * price,
		SignalStrength: strength,
		Confidence:     confidence,
		Reason:         reason,
	}
}

// PortfolioValue is one day's total portfolio value (cash plus open
// positions marked at that day's prices).
type PortfolioValue struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
