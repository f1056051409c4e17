package tax

import (
	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/domain"
)

// calculateMonth runs the per-entry tax pass for a single wallet-month.
// Entries must be restricted to the month and ordered by timestamp
// ascending (ties keep input order). The lot matcher is owned by the
// caller so open lots survive across month boundaries within one range
// computation. Never fails on well-formed input; a report is produced even
// when no entry qualifies.
func calculateMonth(
	wallet string,
	ym domain.YearMonth,
	priceUSD decimal.Decimal,
	lots *LotMatcher,
	entries []domain.LedgerEntry,
	policy Policy,
) domain.MonthlyReport {
	report := domain.MonthlyReport{
		Year:             ym.Year,
		Month:            ym.Month,
		TotalDisposedTON: decimal.Zero,
		TotalDisposedUSD: decimal.Zero,
		TotalTaxTON:      decimal.Zero,
		TotalTaxUSD:      decimal.Zero,
		PriceUSD:         priceUSD,
		Details:          []domain.DisposalDetail{},
	}

	for i := range entries {
		e := &entries[i]
		amountUSD := e.Amount.Mul(priceUSD)

		switch domain.Classify(e, wallet) {
		case domain.Acquisition:
			lots.Add(e.Amount)
			report.Details = append(report.Details, domain.DisposalDetail{
				EntryID:        e.ID,
				TxHash:         e.TxHash,
				Timestamp:      e.Timestamp,
				Operation:      domain.OperationBuy,
				AmountTON:      e.Amount,
				AmountUSD:      amountUSD,
				MatchedCostTON: e.Amount,
				ProfitTON:      decimal.Zero,
				ProfitUSD:      decimal.Zero,
				TaxRate:        policy.TaxRate,
				TaxTON:         decimal.Zero,
				TaxUSD:         decimal.Zero,
			})

		case domain.Disposal:
			report.TotalDisposedTON = report.TotalDisposedTON.Add(e.Amount)
			report.TotalDisposedUSD = report.TotalDisposedUSD.Add(amountUSD)

			matched := lots.Consume(e.Amount)

			profit := e.Amount.Sub(matched)
			if profit.Sign() < 0 || !policy.UnmatchedDisposalIsProfit {
				profit = decimal.Zero
			}

			tax := profit.Mul(policy.TaxRate)

			report.TotalTaxTON = report.TotalTaxTON.Add(tax)
			report.TotalTaxUSD = report.TotalTaxUSD.Add(tax.Mul(priceUSD))

			report.Details = append(report.Details, domain.DisposalDetail{
				EntryID:        e.ID,
				TxHash:         e.TxHash,
				Timestamp:      e.Timestamp,
				Operation:      domain.OperationSell,
				AmountTON:      e.Amount,
				AmountUSD:      amountUSD,
				MatchedCostTON: matched,
				ProfitTON:      profit,
				ProfitUSD:      profit.Mul(priceUSD),
				TaxRate:        policy.TaxRate,
				TaxTON:         tax,
				TaxUSD:         tax.Mul(priceUSD),
			})

		case domain.Internal:
			// Self-transfers and unrelated entries carry no tax consequence.
		}
	}

	report.TransactionCount = len(report.Details)
	return report
}
