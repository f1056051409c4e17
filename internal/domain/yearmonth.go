package domain

import (
	"fmt"
	"time"
)

// YearMonth identifies one calendar month.
type YearMonth struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

func YM(year, month int) YearMonth {
	return YearMonth{Year: year, Month: month}
}

// YMOf returns the calendar month containing t (UTC).
func YMOf(t time.Time) YearMonth {
	u := t.UTC()
	return YearMonth{Year: u.Year(), Month: int(u.Month())}
}

// Next returns the following month, wrapping December into January.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == 12 {
		return YearMonth{Year: ym.Year + 1, Month: 1}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// After reports whether ym is strictly later than other.
func (ym YearMonth) After(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year > other.Year
	}
	return ym.Month > other.Month
}

// Bounds returns the [start, end) UTC instants covering the month.
func (ym YearMonth) Bounds() (time.Time, time.Time) {
	start := time.Date(ym.Year, time.Month(ym.Month), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// Start returns the first instant of the month in UTC.
func (ym YearMonth) Start() time.Time {
	s, _ := ym.Bounds()
	return s
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%d-%02d", ym.Year, ym.Month)
}
