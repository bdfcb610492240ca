// Package models provides the data structures shared by the signal
// pipeline, the simulation engine, and the performance summarizer.
package models

import "time"

// Action is the decision carried by a daily composite signal.
type Action string

const (
	// ActionBuy opens (or refreshes) a position in the target instrument.
	ActionBuy Action = "BUY"
	// ActionHold takes no action for the day.
	ActionHold Action = "HOLD"
)

// Signal is one day's composite trading signal. Signals are immutable;
// they are produced once by the signal pipeline and consumed at most
// once per simulated day by the engine.
type Signal struct {
	Timestamp time.Time `json:"timestamp"`

	// Sub-signals before weighting.
	Temperature float64 `json:"temperature_signal"`
	Inventory   float64 `json:"inventory_signal"`
	Storm       float64 `json:"storm_signal"`

	// Total is the weighted sum of the sub-signals.
	Total float64 `json:"total_signal"`

	Action Action `json:"action"`
	// Symbol is the target instrument for BUY signals, empty for HOLD.
	Symbol     string  `json:"symbol"`
	Confidence float64 `json:"confidence"`
}

// IsBuy reports whether the signal asks the engine to open a position.
func (s Signal) IsBuy() bool {
	return s.Action == ActionBuy && s.Symbol != ""
}
