package tax

import (
	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/domain"
)

// Reduce folds an ordered list of monthly reports into one aggregate.
// An empty input yields zero totals and no period.
func Reduce(monthly []domain.MonthlyReport) domain.AggregateReport {
	agg := domain.AggregateReport{
		TotalTaxTON:      decimal.Zero,
		TotalTaxUSD:      decimal.Zero,
		TotalDisposedTON: decimal.Zero,
		TotalDisposedUSD: decimal.Zero,
		Monthly:          monthly,
	}

	for i := range monthly {
		r := &monthly[i]
		agg.TotalTaxTON = agg.TotalTaxTON.Add(r.TotalTaxTON)
		agg.TotalTaxUSD = agg.TotalTaxUSD.Add(r.TotalTaxUSD)
		agg.TotalDisposedTON = agg.TotalDisposedTON.Add(r.TotalDisposedTON)
		agg.TotalDisposedUSD = agg.TotalDisposedUSD.Add(r.TotalDisposedUSD)
		agg.TotalTransactions += r.TransactionCount
	}

	if len(monthly) > 0 {
		first, last := &monthly[0], &monthly[len(monthly)-1]
		agg.Period = &domain.Period{
			Start: domain.YM(first.Year, first.Month),
			End:   domain.YM(last.Year, last.Month),
		}
	}

	return agg
}
