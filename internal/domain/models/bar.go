package models

import "time"

// Bar represents a single OHLCV record for one calendar day (or week).
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// AlignedBar pairs a security bar with the benchmark bar for the same date.
type AlignedBar struct {
	Date      time.Time
	Security  Bar
	Benchmark Bar
}

// SortBars orders bars by date ascending in place and drops exact
// duplicate dates, keeping the first occurrence.
func SortBars(bars []Bar) []Bar {
	if len(bars) < 2 {
		return bars
	}
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Date.Before(sorted[j-1].Date); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	out := sorted[:1]
	for _, b := range sorted[1:] {
		if !b.Date.Equal(out[len(out)-1].Date) {
			out = append(out, b)
		}
	}
	return out
}

// AlignByDate joins two bar series on exact calendar-date match. Dates
// missing from either side are dropped, never imputed.
func AlignByDate(security, benchmark []Bar) []AlignedBar {
	security = SortBars(security)
	benchmark = SortBars(benchmark)

	byDate := make(map[string]Bar, len(benchmark))
	for _, b := range benchmark {
		byDate[b.Date.UTC().Format("2006-01-02")] = b
	}

	out := make([]AlignedBar, 0, len(security))
	for _, s := range security {
		if b, ok := byDate[s.Date.UTC().Format("2006-01-02")]; ok {
			out = append(out, AlignedBar{Date: s.Date, Security: s, Benchmark: b})
		}
	}
	return out
}
