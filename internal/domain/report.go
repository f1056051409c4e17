package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OperationType string

const (
	OperationBuy  OperationType = "buy"
	OperationSell OperationType = "sell"
)

// DisposalDetail is the per-entry line of a monthly report. Acquisitions
// appear as zero-tax rows so the report lists every qualifying transfer.
type DisposalDetail struct {
	EntryID        string          `json:"entry_id"`
	TxHash         string          `json:"tx_hash"`
	Timestamp      time.Time       `json:"timestamp"`
	Operation      OperationType   `json:"operation_type"`
	AmountTON      decimal.Decimal `json:"amount_ton"`
	AmountUSD      decimal.Decimal `json:"amount_usd"`
	MatchedCostTON decimal.Decimal `json:"matched_cost_ton"`
	ProfitTON      decimal.Decimal `json:"profit_ton"`
	ProfitUSD      decimal.Decimal `json:"profit_usd"`
	TaxRate        decimal.Decimal `json:"tax_rate"`
	TaxTON         decimal.Decimal `json:"tax_ton"`
	TaxUSD         decimal.Decimal `json:"tax_usd"`
}

// MonthlyReport is the tax outcome for one wallet-month. A report is
// emitted for every month in a requested range, including empty ones.
type MonthlyReport struct {
	Year             int              `json:"year"`
	Month            int              `json:"month"`
	TotalDisposedTON decimal.Decimal  `json:"total_disposed_ton"`
	TotalDisposedUSD decimal.Decimal  `json:"total_disposed_usd"`
	TotalTaxTON      decimal.Decimal  `json:"total_tax_ton"`
	TotalTaxUSD      decimal.Decimal  `json:"total_tax_usd"`
	PriceUSD         decimal.Decimal  `json:"price_usd"`
	TransactionCount int              `json:"transaction_count"`
	Details          []DisposalDetail `json:"transactions"`
}

// Period is the inclusive month span covered by an aggregate report.
type Period struct {
	Start YearMonth `json:"start"`
	End   YearMonth `json:"end"`
}

// AggregateReport reduces an ordered list of monthly reports.
type AggregateReport struct {
	TotalTaxTON       decimal.Decimal `json:"total_tax_ton"`
	TotalTaxUSD       decimal.Decimal `json:"total_tax_usd"`
	TotalDisposedTON  decimal.Decimal `json:"total_disposed_ton"`
	TotalDisposedUSD  decimal.Decimal `json:"total_disposed_usd"`
	TotalTransactions int             `json:"total_transactions"`
	PriceUSD          decimal.Decimal `json:"price_usd"`
	Period            *Period         `json:"period,omitempty"`
	Monthly           []MonthlyReport `json:"monthly_reports"`
}
