package signals

import "github.com/msevon/NATGAS-trader/internal/models"

// window is a bounded ring buffer of the most recent daily signals.
// It replaces unbounded history scanning: confirmation only ever needs
// the last minDays entries.
type window struct {
	buf  []models.Signal
	head int
	size int
}

func newWindow(capacity int) *window {
	return &window{buf: make([]models.Signal, capacity)}
}

func (w *window) push(sig models.Signal) {
	w.buf[w.head] = sig
	w.head = (w.head + 1) % len(w.buf)
	if w.size < len(w.buf) {
		w.size++
	}
}

// last returns the i-th most recent entry (0 = newest).
func (w *window) last(i int) models.Signal {
	idx := (w.head - 1 - i + 2*len(w.buf)) % len(w.buf)
	return w.buf[idx]
}

// confirmed reports whether the newest signal is a BUY backed by
// minDays consecutive same-instrument BUY days.
func (w *window) confirmed(minDays int) bool {
	if w.size < minDays {
		return false
	}
	newest := w.last(0)
	if !newest.IsBuy() {
		return false
	}
	for i := 0; i < minDays; i++ {
		sig := w.last(i)
		if !sig.IsBuy() || sig.Symbol != newest.Symbol {
			return false
		}
	}
	return true
}

// Confirm applies the consecutive-day confirmation filter: a BUY
// survives only when the last minDays daily signals (including the
// current one) all target the same instrument. Unconfirmed BUY days are
// demoted to HOLD, preserving the sub-signal values for reporting.
// minDays of 1 passes every BUY through. The input order must be
// chronological; the input slice is not modified.
func Confirm(in []models.Signal, minDays int) []models.Signal {
	if minDays <= 1 {
		out := make([]models.Signal, len(in))
		copy(out, in)
		return out
	}

	w := newWindow(minDays)
	out := make([]models.Signal, 0, len(in))
	for _, sig := range in {
		w.push(sig)
		if !sig.IsBuy() || w.confirmed(minDays) {
			out = append(out, sig)
			continue
		}
		hold := sig
		hold.Action = models.ActionHold
		hold.Symbol = ""
		hold.Confidence = 0
		out = append(out, hold)
	}
	return out
}
