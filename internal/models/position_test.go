package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPositionValueAndPnL(t *testing.T) {
	p := testPosition("BOIL")
	assert.InDelta(t, 1100, p.MarketValue(110), 1e-9)
	assert.InDelta(t, 100, p.UnrealizedPnL(110), 1e-9)
	assert.InDelta(t, -50, p.UnrealizedPnL(95), 1e-9)
}

func TestPositionValidate(t *testing.T) {
	assert.NoError(t, testPosition("BOIL").Validate())

	bad := testPosition("")
	assert.Error(t, bad.Validate())

	bad = testPosition("BOIL")
	bad.Quantity = -1
	assert.Error(t, bad.Validate())

	bad = testPosition("BOIL")
	bad.AvgPrice = 0
	assert.Error(t, bad.Validate())

	bad = testPosition("BOIL")
	bad.EntryDate = time.Time{}
	assert.Error(t, bad.Validate())
}

func TestNewActiveStopLevels(t *testing.T) {
	s := NewActiveStop("BOIL", 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0.05, 0.15)

	assert.InDelta(t, 95, s.StopLossPrice, 1e-9)
	assert.InDelta(t, 115, s.TakeProfitPrice, 1e-9)
	assert.False(t, s.TrailingActive)
	assert.Equal(t, 0.0, s.TrailingPrice)
}

func TestActiveStopTrailing(t *testing.T) {
	s := NewActiveStop("BOIL", 100, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0.05, 0.15)

	s.ActivateTrailing(110, 0.03)
	assert.True(t, s.TrailingActive)
	assert.InDelta(t, 106.7, s.TrailingPrice, 1e-9)

	// Higher price ratchets the trail up.
	s.Ratchet(115, 0.03)
	assert.InDelta(t, 111.55, s.TrailingPrice, 1e-9)

	// Lower price never loosens it.
	s.Ratchet(108, 0.03)
	assert.InDelta(t, 111.55, s.TrailingPrice, 1e-9)
}

func TestNewTradeValue(t *testing.T) {
	tr := NewTrade(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		"BOIL", SideBuy, 9, 100.1, 0.5, 1.2, ReasonSignal)

	assert.NotEmpty(t, tr.ID)
	assert.InDelta(t, 900.9, tr.Value, 1e-9)
	assert.Equal(t, SideBuy, tr.Side)
	assert.Equal(t, ReasonSignal, tr.Reason)
}

func TestSignalIsBuy(t *testing.T) {
	assert.True(t, Signal{Action: ActionBuy, Symbol: "BOIL"}.IsBuy())
	assert.False(t, Signal{Action: ActionHold}.IsBuy())
	assert.False(t, Signal{Action: ActionBuy}.IsBuy()) // no target symbol
}
