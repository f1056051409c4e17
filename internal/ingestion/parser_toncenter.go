package ingestion

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/domain"
)

// ParseTonCenterJSON normalizes a TON Center getTransactions payload (the
// raw response body, or just its result array) into canonical ledger
// entries for one wallet.
func ParseTonCenterJSON(data []byte, wallet string) ([]domain.LedgerEntry, error) {
	var parsed tonResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		// Also accept a bare result array, which is what exports tend to hold.
		var txs []tonTransaction
		if err2 := json.Unmarshal(data, &txs); err2 != nil {
			return nil, fmt.Errorf("decode toncenter payload: %w", err)
		}
		parsed.Result = txs
	}

	return normalizeTonTransactions(parsed.Result, wallet)
}

// normalizeTonTransactions flattens chain transactions into one ledger
// entry per value-bearing message. Out messages of one transaction get a
// positional suffix on the tx hash so each entry stays unique.
func normalizeTonTransactions(txs []tonTransaction, wallet string) ([]domain.LedgerEntry, error) {
	now := time.Now().UTC()
	var entries []domain.LedgerEntry

	for i := range txs {
		tx := &txs[i]
		ts := time.Unix(tx.UTime, 0).UTC()
		hash := tx.TransactionID.Hash
		if hash == "" {
			continue
		}

		if tx.InMsg != nil && tx.InMsg.Source != "" {
			amount, err := nanotonToTON(tx.InMsg.Value)
			if err != nil {
				return nil, fmt.Errorf("tx %s in_msg: %w", hash, err)
			}
			if amount.Sign() > 0 {
				entries = append(entries, domain.LedgerEntry{
					ID:            "LE-" + hash,
					WalletAddress: wallet,
					TxHash:        hash,
					Timestamp:     ts,
					Amount:        amount,
					FromAddress:   tx.InMsg.Source,
					ToAddress:     tx.InMsg.Destination,
					Status:        domain.StatusCompleted,
					CreatedAt:     now,
				})
			}
		}

		for j := range tx.OutMsgs {
			msg := &tx.OutMsgs[j]
			amount, err := nanotonToTON(msg.Value)
			if err != nil {
				return nil, fmt.Errorf("tx %s out_msg %d: %w", hash, j, err)
			}
			if amount.Sign() <= 0 {
				continue
			}
			msgHash := fmt.Sprintf("%s:out:%d", hash, j)
			entries = append(entries, domain.LedgerEntry{
				ID:            "LE-" + msgHash,
				WalletAddress: wallet,
				TxHash:        msgHash,
				Timestamp:     ts,
				Amount:        amount,
				FromAddress:   msg.Source,
				ToAddress:     msg.Destination,
				Status:        domain.StatusCompleted,
				CreatedAt:     now,
			})
		}
	}

	return entries, nil
}

// nanotonToTON converts a nanoton string amount to TON (9 fractional digits).
func nanotonToTON(value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	nano, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse value %q: %w", value, err)
	}
	if nano.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("negative value %q", value)
	}
	return nano.Shift(-9), nil
}
