// Package market provides the in-memory time series the engine and the
// signal pipeline consume: daily closing prices and dated observations.
package market

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Point is a single dated observation (a closing price, an HDD reading,
// a storage level, a storm flag).
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Series is an immutable, date-sorted sequence of daily observations.
type Series struct {
	points []Point
}

// Day truncates t to a UTC calendar day. All series dates and all
// engine lookups are normalized through it.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// NewSeries builds a series from points, normalizing dates to UTC days
// and sorting chronologically. Duplicate dates keep the last value.
func NewSeries(points []Point) *Series {
	byDay := make(map[time.Time]float64, len(points))
	for _, p := range points {
		byDay[Day(p.Date)] = p.Value
	}
	out := make([]Point, 0, len(byDay))
	for d, v := range byDay {
		out = append(out, Point{Date: d, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return &Series{points: out}
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// At returns the value for date using last-observation-carried-forward
// semantics: an exact match if one exists, otherwise the most recent
// observation at or before date. The second return is false when no
// observation exists at or before date.
func (s *Series) At(date time.Time) (float64, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	d := Day(date)
	// First index strictly after d.
	i := sort.Search(len(s.points), func(i int) bool { return s.points[i].Date.After(d) })
	if i == 0 {
		return 0, false
	}
	return s.points[i-1].Value, true
}

// Nearest returns the observation closest in time to date, in either
// direction. Used for sparse observation series (temperature, storms)
// where the closest reading is a better proxy than carry-forward.
func (s *Series) Nearest(date time.Time) (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	d := Day(date)
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Date.Before(d) })
	if i == 0 {
		return s.points[0], true
	}
	if i == len(s.points) {
		return s.points[len(s.points)-1], true
	}
	before, after := s.points[i-1], s.points[i]
	if d.Sub(before.Date) <= after.Date.Sub(d) {
		return before, true
	}
	return after, true
}

// First returns the earliest observation.
func (s *Series) First() (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	return s.points[0], true
}

// Last returns the latest observation.
func (s *Series) Last() (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// Mean returns the arithmetic mean of all values, or 0 for an empty
// series.
func (s *Series) Mean() float64 {
	if s.Len() == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range s.points {
		sum += p.Value
	}
	return sum / float64(len(s.points))
}

// Points returns a copy of the underlying observations.
func (s *Series) Points() []Point {
	out := make([]Point, s.Len())
	if s != nil {
		copy(out, s.points)
	}
	return out
}

// Range reports the first and last observation dates, or an error for
// an empty series.
func (s *Series) Range() (start, end time.Time, err error) {
	first, ok := s.First()
	if !ok {
		return time.Time{}, time.Time{}, fmt.Errorf("series is empty")
	}
	last, _ := s.Last()
	return first.Date, last.Date, nil
}

// Validate rejects series containing non-finite values.
func (s *Series) Validate() error {
	for _, p := range s.points {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			return fmt.Errorf("series: non-finite value at %s", p.Date.Format("2006-01-02"))
		}
	}
	return nil
}
