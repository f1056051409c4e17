package api

import (
	"github.com/tonledger/taxreporter/internal/domain"
)

// Presentation rounding: native amounts carry full precision through the
// engine and are trimmed to nine fractional digits only here; fiat shows
// cents.
const (
	nativeScale = 9
	fiatScale   = 2
)

func roundMonthly(r domain.MonthlyReport) domain.MonthlyReport {
	r.TotalDisposedTON = r.TotalDisposedTON.Round(nativeScale)
	r.TotalDisposedUSD = r.TotalDisposedUSD.Round(fiatScale)
	r.TotalTaxTON = r.TotalTaxTON.Round(nativeScale)
	r.TotalTaxUSD = r.TotalTaxUSD.Round(fiatScale)
	r.PriceUSD = r.PriceUSD.Round(fiatScale)

	details := make([]domain.DisposalDetail, len(r.Details))
	for i, d := range r.Details {
		d.AmountTON = d.AmountTON.Round(nativeScale)
		d.AmountUSD = d.AmountUSD.Round(fiatScale)
		d.MatchedCostTON = d.MatchedCostTON.Round(nativeScale)
		d.ProfitTON = d.ProfitTON.Round(nativeScale)
		d.ProfitUSD = d.ProfitUSD.Round(fiatScale)
		d.TaxTON = d.TaxTON.Round(nativeScale)
		d.TaxUSD = d.TaxUSD.Round(fiatScale)
		details[i] = d
	}
	r.Details = details
	return r
}

func roundAggregate(a domain.AggregateReport) domain.AggregateReport {
	a.TotalTaxTON = a.TotalTaxTON.Round(nativeScale)
	a.TotalTaxUSD = a.TotalTaxUSD.Round(fiatScale)
	a.TotalDisposedTON = a.TotalDisposedTON.Round(nativeScale)
	a.TotalDisposedUSD = a.TotalDisposedUSD.Round(fiatScale)
	a.PriceUSD = a.PriceUSD.Round(fiatScale)

	monthly := make([]domain.MonthlyReport, len(a.Monthly))
	for i, m := range a.Monthly {
		monthly[i] = roundMonthly(m)
	}
	a.Monthly = monthly
	return a
}
