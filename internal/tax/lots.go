package tax

import "github.com/shopspring/decimal"

// lot is an open acquisition not yet fully matched against a disposal.
type lot struct {
	remaining decimal.Decimal
}

// LotMatcher is a FIFO queue of open acquisition lots. Disposals consume
// the oldest lots first; a lot is dropped once fully consumed. One matcher
// instance belongs to exactly one range computation and must never be
// shared across independent report runs.
type LotMatcher struct {
	lots []lot
}

func NewLotMatcher() *LotMatcher {
	return &LotMatcher{}
}

// Add appends a lot with the full amount remaining to the back of the
// queue. Non-positive amounts are ignored.
func (m *LotMatcher) Add(amount decimal.Decimal) {
	if amount.Sign() <= 0 {
		return
	}
	m.lots = append(m.lots, lot{remaining: amount})
}

// Consume removes up to amount from the front of the queue and returns how
// much was actually matched. Fully drained lots are removed; a partially
// consumed lot stays at the front with its remainder. Returns less than
// amount when the queue empties first. Non-positive amounts match nothing.
func (m *LotMatcher) Consume(amount decimal.Decimal) decimal.Decimal {
	matched := decimal.Zero
	if amount.Sign() <= 0 {
		return matched
	}

	remaining := amount
	for remaining.Sign() > 0 && len(m.lots) > 0 {
		front := &m.lots[0]

		use := remaining
		if front.remaining.LessThan(use) {
			use = front.remaining
		}

		matched = matched.Add(use)
		remaining = remaining.Sub(use)
		front.remaining = front.remaining.Sub(use)

		if front.remaining.Sign() <= 0 {
			m.lots = m.lots[1:]
		}
	}
	return matched
}

// Open returns the total amount still unmatched across all lots.
func (m *LotMatcher) Open() decimal.Decimal {
	total := decimal.Zero
	for _, l := range m.lots {
		total = total.Add(l.remaining)
	}
	return total
}

// Len returns the number of open lots.
func (m *LotMatcher) Len() int {
	return len(m.lots)
}
