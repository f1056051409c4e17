package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type EntryStatus string

const (
	StatusCompleted EntryStatus = "completed"
	StatusPending   EntryStatus = "pending"
)

// LedgerEntry is one native-coin transfer touching a tracked wallet.
// Entries are created by ingestion and are read-only for the tax engine.
// Amount is in TON with nine fractional digits of precision.
type LedgerEntry struct {
	ID            string          `json:"id"`
	WalletAddress string          `json:"wallet_address"`
	TxHash        string          `json:"tx_hash"`
	Timestamp     time.Time       `json:"timestamp"`
	Amount        decimal.Decimal `json:"amount"`
	FromAddress   string          `json:"from_address"`
	ToAddress     string          `json:"to_address"`
	Status        EntryStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Direction is how an entry counts for the wallet under report.
type Direction int

const (
	// Internal covers self-transfers and entries that touch the wallet on
	// neither side; they carry no tax consequence.
	Internal Direction = iota
	Acquisition
	Disposal
)

// Classify decides the tax direction of an entry relative to a wallet.
// Pure function of the three addresses; comparison is exact-string on the
// normalized form supplied by the caller.
func Classify(e *LedgerEntry, wallet string) Direction {
	switch {
	case e.ToAddress == wallet && e.FromAddress != wallet:
		return Acquisition
	case e.FromAddress == wallet && e.ToAddress != wallet:
		return Disposal
	default:
		return Internal
	}
}
