package core

import (
	"sort"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Candle represents a single OHLCV data point.
type Candle struct {
	// Timestamp is the start of the candle period.
	Timestamp time.Time `json:"timestamp"`
	// Open is the price at the start of the period.
	Open apd.Decimal `json:"open"`
	// High is the highest price during the period.
	High apd.Decimal `json:"high"`
	// Low is the lowest price during the period.
	Low apd.Decimal `json:"low"`
	// Close is the price at the end of the period.
	Close apd.Decimal `json:"close"`
	// Volume is the base volume traded during the period.
	Volume apd.Decimal `json:"volume"`
}

// FilterCandles sorts candles by timestamp ascending, drops entries older than
// since, and truncates the result to limit entries. A zero since disables the
// lower bound and a non-positive limit disables truncation. The input slice is
// not modified.
func FilterCandles(candles []Candle, since time.Time, limit int) []Candle {
	out := make([]Candle, len(candles))
	copy(out, candles)

	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})

	if !since.IsZero() {
		i := sort.Search(len(out), func(i int) bool {
			return !out[i].Timestamp.Before(since)
		})
		out = out[i:]
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}

	return out
}
