package forecast

import (
	"time"
)

// Direction is a per-source daily call.
type Direction string

const (
	Bullish Direction = "BULLISH"
	Bearish Direction = "BEARISH"
	Unknown Direction = "UNKNOWN"
	// Neutral only ever appears as a combined verdict.
	Neutral Direction = "NEUTRAL"
)

// Series maps trading dates (normalized to midnight UTC) to a directional
// call. Gaps are allowed; a missing date reads as Unknown.
type Series map[time.Time]Direction

// Verdict is the reconciled per-day view of both models.
type Verdict struct {
	LSTM     Direction
	RF       Direction
	Combined Direction
}

// Adapter merges the LSTM and Random Forest forecast series. The Available
// flag is fixed at construction: it is a property of the whole run, not of
// any single day.
type Adapter struct {
	lstm      Series
	rf        Series
	available bool
}

// NewAdapter builds an adapter for the simulated [start, end] range.
// Available is true iff at least one series contributes at least one call
// inside that range; when false the engine runs indicator-only.
func NewAdapter(lstm, rf Series, start, end time.Time) *Adapter {
	a := &Adapter{lstm: lstm, rf: rf}
	for _, s := range []Series{lstm, rf} {
		for d, dir := range s {
			if dir == Unknown {
				continue
			}
			if !d.Before(DateKey(start)) && !d.After(DateKey(end)) {
				a.available = true
				return a
			}
		}
	}
	return a
}

// Available reports whether any model covered the simulated range.
func (a *Adapter) Available() bool { return a.available }

// VerdictOn returns the reconciled call for a date. The combined verdict is
// bullish only when both sources say bullish, bearish only when both say
// bearish, otherwise neutral.
func (a *Adapter) VerdictOn(date time.Time) Verdict {
	key := DateKey(date)
	v := Verdict{
		LSTM: lookup(a.lstm, key),
		RF:   lookup(a.rf, key),
	}
	switch {
	case v.LSTM == Bullish && v.RF == Bullish:
		v.Combined = Bullish
	case v.LSTM == Bearish && v.RF == Bearish:
		v.Combined = Bearish
	default:
		v.Combined = Neutral
	}
	return v
}

// DateKey normalizes a timestamp to its trading date.
func DateKey(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func lookup(s Series, key time.Time) Direction {
	if s == nil {
		return Unknown
	}
	if dir, ok := s[key]; ok && dir != Unknown {
		return dir
	}
	return Unknown
}
