package tax

import "github.com/shopspring/decimal"

// Policy holds the taxation parameters applied to every disposal.
type Policy struct {
	// TaxRate is the fraction of realized profit owed as tax.
	TaxRate decimal.Decimal

	// UnmatchedDisposalIsProfit controls what happens when a disposal
	// exceeds all open lots (incomplete acquisition history): when true the
	// unmatched portion is taxed as zero-cost-basis profit, when false it
	// is left untaxed. The conservative default matches the historical
	// reporting behavior.
	UnmatchedDisposalIsProfit bool
}

// DefaultPolicy is 5% of profit per disposal, shortfall taxed in full.
func DefaultPolicy() Policy {
	return Policy{
		TaxRate:                   decimal.New(5, -2),
		UnmatchedDisposalIsProfit: true,
	}
}
