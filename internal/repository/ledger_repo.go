package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/domain"
)

// LedgerRepo stores the canonical transfer ledger. Deduplication is done
// here, by tx_hash, so ingestion can replay upstream pages safely.
type LedgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) *LedgerRepo {
	return &LedgerRepo{db: db}
}

const insertEntrySQL = `INSERT OR IGNORE INTO ledger_entries
	(id, wallet_address, tx_hash, amount, from_address, to_address, status, timestamp, created_at)
	VALUES (?,?,?,?,?,?,?,?,?)`

func (r *LedgerRepo) Insert(e *domain.LedgerEntry) error {
	_, err := r.db.Exec(insertEntrySQL,
		e.ID, e.WalletAddress, e.TxHash, e.Amount.String(), e.FromAddress,
		e.ToAddress, string(e.Status), e.Timestamp.UTC().Format(time.RFC3339),
		e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// BulkInsert stores entries in one transaction and returns how many rows
// were actually new (duplicates by tx_hash are skipped).
func (r *LedgerRepo) BulkInsert(entries []domain.LedgerEntry) (int, error) {
	inserted := 0
	sqlTx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer sqlTx.Rollback()

	stmt, err := sqlTx.Prepare(insertEntrySQL)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	for i := range entries {
		e := &entries[i]
		res, err := stmt.Exec(
			e.ID, e.WalletAddress, e.TxHash, e.Amount.String(), e.FromAddress,
			e.ToAddress, string(e.Status), e.Timestamp.UTC().Format(time.RFC3339),
			e.CreatedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return inserted, fmt.Errorf("insert row %d: %w", i, err)
		}
		ra, _ := res.RowsAffected()
		inserted += int(ra)
	}

	if err := sqlTx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// EntriesFor returns the wallet's entries with from <= timestamp < to,
// ordered by timestamp ascending. Insertion order breaks timestamp ties,
// which keeps the scan stable for equal instants.
func (r *LedgerRepo) EntriesFor(ctx context.Context, wallet string, from, to time.Time) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, wallet_address, tx_hash, amount, from_address, to_address, status, timestamp, created_at
		FROM ledger_entries
		WHERE wallet_address = ? AND timestamp >= ? AND timestamp < ?
		ORDER BY timestamp, rowid
	`, wallet, from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	return collectEntries(rows)
}

// Bounds returns the earliest and latest entry timestamps for a wallet.
// ok is false when the wallet has no entries.
func (r *LedgerRepo) Bounds(ctx context.Context, wallet string) (earliest, latest time.Time, ok bool, err error) {
	var minStr, maxStr sql.NullString
	err = r.db.QueryRowContext(ctx,
		"SELECT MIN(timestamp), MAX(timestamp) FROM ledger_entries WHERE wallet_address = ?",
		wallet,
	).Scan(&minStr, &maxStr)
	if err != nil {
		return earliest, latest, false, fmt.Errorf("query bounds: %w", err)
	}
	if !minStr.Valid || !maxStr.Valid {
		return earliest, latest, false, nil
	}

	earliest, err = time.Parse(time.RFC3339, minStr.String)
	if err != nil {
		return earliest, latest, false, fmt.Errorf("parse earliest: %w", err)
	}
	latest, err = time.Parse(time.RFC3339, maxStr.String)
	if err != nil {
		return earliest, latest, false, fmt.Errorf("parse latest: %w", err)
	}
	return earliest, latest, true, nil
}

func (r *LedgerRepo) Count() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM ledger_entries").Scan(&count)
	return count, err
}

func (r *LedgerRepo) CountForWallet(ctx context.Context, wallet string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM ledger_entries WHERE wallet_address = ?", wallet,
	).Scan(&count)
	return count, err
}

// EntryFilter narrows and paginates ledger listings for the API.
type EntryFilter struct {
	Wallet string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

func (r *LedgerRepo) List(ctx context.Context, f EntryFilter) ([]domain.LedgerEntry, int, error) {
	where, args := buildEntryWhere(f)

	var total int
	countSQL := "SELECT COUNT(*) FROM ledger_entries" + where
	if err := r.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count: %w", err)
	}

	if f.Limit <= 0 {
		f.Limit = 50
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	offset := (f.Page - 1) * f.Limit

	querySQL := `SELECT id, wallet_address, tx_hash, amount, from_address, to_address, status, timestamp, created_at
		FROM ledger_entries` + where + " ORDER BY timestamp DESC, rowid DESC LIMIT ? OFFSET ?"
	args = append(args, f.Limit, offset)

	rows, err := r.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	entries, err := collectEntries(rows)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// RecordIngestReport stores an ingestion receipt keyed by file hash for
// idempotency.
func (r *LedgerRepo) RecordIngestReport(id, source, fileHash string, recordCount int) error {
	_, err := r.db.Exec(
		"INSERT INTO ingest_reports (id, source, file_hash, record_count, ingested_at) VALUES (?,?,?,?,?)",
		id, source, fileHash, recordCount, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("insert ingest report: %w", err)
	}
	return nil
}

// IngestReportExists reports whether a file with this hash was already
// ingested.
func (r *LedgerRepo) IngestReportExists(fileHash string) (bool, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM ingest_reports WHERE file_hash = ?", fileHash).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query ingest report: %w", err)
	}
	return n > 0, nil
}

// --- helpers ---

func buildEntryWhere(f EntryFilter) (string, []any) {
	var clauses []string
	var args []any

	if f.Wallet != "" {
		clauses = append(clauses, "wallet_address = ?")
		args = append(args, f.Wallet)
	}
	if f.From != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, f.From.UTC().Format(time.RFC3339))
	}
	if f.To != nil {
		clauses = append(clauses, "timestamp < ?")
		args = append(args, f.To.UTC().Format(time.RFC3339))
	}

	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func collectEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func scanEntry(rows *sql.Rows) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	var amount, status, timestamp, createdAt string

	err := rows.Scan(&e.ID, &e.WalletAddress, &e.TxHash, &amount,
		&e.FromAddress, &e.ToAddress, &status, &timestamp, &createdAt)
	if err != nil {
		return nil, err
	}

	e.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	e.Status = domain.EntryStatus(status)
	e.Timestamp, err = time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp %q: %w", timestamp, err)
	}
	e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &e, nil
}
