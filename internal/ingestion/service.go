package ingestion

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/tonledger/taxreporter/internal/domain"
	"github.com/tonledger/taxreporter/internal/repository"
)

// IngestResult is returned from a successful export ingestion.
type IngestResult struct {
	ReportID          string `json:"report_id"`
	RecordsIngested   int    `json:"records_ingested"`
	DuplicatesSkipped int    `json:"duplicates_skipped"`
}

// Service normalizes upstream transfer records into the canonical ledger.
// The tax engine never sees upstream shapes; everything goes through the
// per-source parsers here.
type Service struct {
	ledger *repository.LedgerRepo
	chain  *TonCenterClient
}

func NewService(ledger *repository.LedgerRepo, chain *TonCenterClient) *Service {
	return &Service{ledger: ledger, chain: chain}
}

// IngestExport parses an uploaded transfer export and stores the entries.
//
// source must be one of: toncenter, csv
func (s *Service) IngestExport(data []byte, wallet, source string) (*IngestResult, error) {
	// Idempotency check via file hash.
	hash := fmt.Sprintf("%x", sha256.Sum256(data))
	exists, err := s.ledger.IngestReportExists(hash)
	if err != nil {
		return nil, fmt.Errorf("check hash: %w", err)
	}
	if exists {
		return &IngestResult{ReportID: "already-ingested"}, nil
	}

	var entries []domain.LedgerEntry
	switch source {
	case "toncenter":
		entries, err = ParseTonCenterJSON(data, wallet)
	case "csv":
		entries, err = ParseTransferCSV(data, wallet)
	default:
		return nil, fmt.Errorf("unsupported source: %s", source)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}

	inserted, err := s.ledger.BulkInsert(entries)
	if err != nil {
		return nil, fmt.Errorf("insert entries: %w", err)
	}

	reportID := "RPT-" + uuid.NewString()
	if err := s.ledger.RecordIngestReport(reportID, source, hash, len(entries)); err != nil {
		return nil, fmt.Errorf("record report: %w", err)
	}

	log.Printf("[ingestion] Ingested report %s: %d records (%d new) from %s for %s",
		reportID, len(entries), inserted, source, wallet)

	return &IngestResult{
		ReportID:          reportID,
		RecordsIngested:   inserted,
		DuplicatesSkipped: len(entries) - inserted,
	}, nil
}

// RefreshWallet pulls the wallet's transfer history from the chain API and
// merges it into the ledger. Safe to re-run; duplicates are skipped by tx
// hash. Reports computed while a refresh runs see the previous snapshot
// and pick up new entries on the next invocation.
func (s *Service) RefreshWallet(ctx context.Context, wallet string) (int, error) {
	txs, err := s.chain.FetchTransactions(ctx, wallet)
	if err != nil {
		return 0, fmt.Errorf("fetch transactions: %w", err)
	}

	entries, err := normalizeTonTransactions(txs, wallet)
	if err != nil {
		return 0, fmt.Errorf("normalize: %w", err)
	}

	inserted, err := s.ledger.BulkInsert(entries)
	if err != nil {
		return 0, fmt.Errorf("insert entries: %w", err)
	}

	log.Printf("[ingestion] Refreshed %s: %d upstream transactions, %d new entries",
		wallet, len(txs), inserted)
	return inserted, nil
}
