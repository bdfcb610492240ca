package market

import (
	"sort"
	"time"

	"github.com/msevon/NATGAS-trader/internal/models"
)

// SignalSeries is a date-keyed view over a day's-worth-each sequence of
// composite signals. A missing day is treated as HOLD by the engine.
type SignalSeries struct {
	byDay map[time.Time]models.Signal
	days  []time.Time
}

// NewSignalSeries indexes signals by calendar day. Duplicate days keep
// the last signal.
func NewSignalSeries(signals []models.Signal) *SignalSeries {
	byDay := make(map[time.Time]models.Signal, len(signals))
	for _, sig := range signals {
		byDay[Day(sig.Timestamp)] = sig
	}
	days := make([]time.Time, 0, len(byDay))
	for d := range byDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return &SignalSeries{byDay: byDay, days: days}
}

// At returns the signal for the given calendar day, if one exists.
func (s *SignalSeries) At(date time.Time) (models.Signal, bool) {
	sig, ok := s.byDay[Day(date)]
	return sig, ok
}

// Len returns the number of distinct signal days.
func (s *SignalSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.days)
}
