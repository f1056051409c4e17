package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// DefaultMonthMultipliers shape the simulated historical price by calendar
// month, relative to the current spot price. Placeholder values with no
// market fidelity; they only make simulated history non-flat.
var DefaultMonthMultipliers = [12]float64{
	0.84, 0.87, 0.91, 0.95, 0.93, 0.89,
	0.86, 0.88, 0.92, 0.97, 1.02, 1.05,
}

// Simulator synthesizes a historical price as a pure function of the date
// and the current price. Repeated calls for the same date return the same
// value, so reports stay reproducible when no price source is reachable.
// It is a clearly-labeled placeholder strategy, not a source of truth.
type Simulator struct {
	multipliers [12]decimal.Decimal
}

func NewSimulator(multipliers [12]float64) *Simulator {
	s := &Simulator{}
	for i, m := range multipliers {
		s.multipliers[i] = decimal.NewFromFloat(m)
	}
	return s
}

// PriceOn derives the simulated price: current spot scaled by the month's
// multiplier and two small variation factors computed from the date's
// digits (day of month, and a year/month/day mix).
func (s *Simulator) PriceOn(date time.Time, current decimal.Decimal) decimal.Decimal {
	u := date.UTC()
	month := s.multipliers[int(u.Month())-1]

	day := u.Day()
	// Both factors stay within a few percent of 1.
	dayVariation := one.Add(decimal.New(int64(day*7%11-5), -3))
	dateVariation := one.Add(decimal.New(int64((u.Year()%100+int(u.Month())+day)%13-6), -3))

	return current.Mul(month).Mul(dayVariation).Mul(dateVariation)
}

var one = decimal.New(1, 0)
