package ingestion

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/domain"
)

// ParseTransferCSV parses the generic wallet-export CSV format.
//
// Expected header:
//
//	tx_hash,timestamp,amount_ton,from_address,to_address
func ParseTransferCSV(data []byte, wallet string) ([]domain.LedgerEntry, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 5 {
		return nil, fmt.Errorf("expected 5 columns, got %d", len(header))
	}

	now := time.Now().UTC()
	var entries []domain.LedgerEntry
	lineNum := 1

	for {
		lineNum++
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if len(row) < 5 {
			continue
		}

		txHash := strings.TrimSpace(row[0])
		if txHash == "" {
			continue
		}

		ts, err := parseTimestamp(strings.TrimSpace(row[1]))
		if err != nil {
			return nil, fmt.Errorf("line %d timestamp: %w", lineNum, err)
		}

		amount, err := decimal.NewFromString(strings.TrimSpace(row[2]))
		if err != nil {
			return nil, fmt.Errorf("line %d amount: %w", lineNum, err)
		}
		if amount.Sign() < 0 {
			return nil, fmt.Errorf("line %d: negative amount %s", lineNum, amount)
		}

		entries = append(entries, domain.LedgerEntry{
			ID:            "LE-" + txHash,
			WalletAddress: wallet,
			TxHash:        txHash,
			Timestamp:     ts,
			Amount:        amount,
			FromAddress:   strings.TrimSpace(row[3]),
			ToAddress:     strings.TrimSpace(row[4]),
			Status:        domain.StatusCompleted,
			CreatedAt:     now,
		})
	}

	return entries, nil
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			return time.Time{}, err
		}
	}
	return t.UTC(), nil
}
