package api

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/config"
)

// SyntheticDeal is a demonstration buy/sell pair rendered alongside a real
// monthly report. Purely presentational; it never touches the engine or
// the ledger.
type SyntheticDeal struct {
	Operation string          `json:"operation_type"`
	Date      string          `json:"date"`
	AmountTON decimal.Decimal `json:"amount_ton"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
	PriceUSD  decimal.Decimal `json:"price_usd"`
	ProfitUSD decimal.Decimal `json:"profit_usd"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	TaxTON    decimal.Decimal `json:"tax_ton"`
	TaxUSD    decimal.Decimal `json:"tax_usd"`
}

// syntheticDeals builds the configured demo pair: a buy at the current
// spot price and a next-day sell marked up by the configured percentage,
// taxed at the policy rate.
func syntheticDeals(demo *config.DemoWindow, spot, taxRate decimal.Decimal) []SyntheticDeal {
	amount := decimal.NewFromFloat(demo.AmountTON)
	markup := one.Add(decimal.NewFromFloat(demo.MarkupPercent).Div(hundred))

	buyPrice := spot
	sellPrice := spot.Mul(markup)

	buyUSD := amount.Mul(buyPrice)
	sellUSD := amount.Mul(sellPrice)

	profitUSD := sellUSD.Sub(buyUSD)
	taxUSD := decimal.Zero
	taxTON := decimal.Zero
	if profitUSD.Sign() > 0 {
		taxUSD = profitUSD.Mul(taxRate)
		taxTON = taxUSD.Div(sellPrice)
	} else {
		profitUSD = decimal.Zero
	}

	buyDate := fmt.Sprintf("11.%02d.%d", demo.Month, demo.Year)
	sellDate := fmt.Sprintf("12.%02d.%d", demo.Month, demo.Year)

	return []SyntheticDeal{
		{
			Operation: "buy",
			Date:      buyDate,
			AmountTON: amount,
			AmountUSD: buyUSD.Round(fiatScale),
			PriceUSD:  buyPrice.Round(fiatScale),
			ProfitUSD: decimal.Zero,
			TaxRate:   taxRate,
			TaxTON:    decimal.Zero,
			TaxUSD:    decimal.Zero,
		},
		{
			Operation: "sell",
			Date:      sellDate,
			AmountTON: amount,
			AmountUSD: sellUSD.Round(fiatScale),
			PriceUSD:  sellPrice.Round(fiatScale),
			ProfitUSD: profitUSD.Round(fiatScale),
			TaxRate:   taxRate,
			TaxTON:    taxTON.Round(nativeScale),
			TaxUSD:    taxUSD.Round(fiatScale),
		},
	}
}

var (
	one     = decimal.New(1, 0)
	hundred = decimal.New(100, 0)
)
