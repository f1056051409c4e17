package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	const wallet = "UQWallet01"
	const other = "UQOther01"

	tests := []struct {
		name string
		from string
		to   string
		want Direction
	}{
		{"incoming", other, wallet, Acquisition},
		{"outgoing", wallet, other, Disposal},
		{"self transfer", wallet, wallet, Internal},
		{"unrelated", other, "UQThird01", Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &LedgerEntry{FromAddress: tt.from, ToAddress: tt.to}
			assert.Equal(t, tt.want, Classify(e, wallet))
		})
	}
}

func TestYearMonth(t *testing.T) {
	assert.Equal(t, YM(2026, 1), YM(2025, 12).Next())
	assert.Equal(t, YM(2025, 7), YM(2025, 6).Next())

	assert.True(t, YM(2025, 3).After(YM(2025, 2)))
	assert.True(t, YM(2026, 1).After(YM(2025, 12)))
	assert.False(t, YM(2025, 2).After(YM(2025, 2)))

	start, end := YM(2025, 12).Bounds()
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), end)

	assert.Equal(t, "2025-03", YM(2025, 3).String())
	assert.Equal(t, YM(2025, 8), YMOf(time.Date(2025, 8, 31, 23, 59, 0, 0, time.UTC)))
}
