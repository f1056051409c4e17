package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/domain"
)

// Generates a plausible year of transfer history for one demo wallet:
// mostly buys early on, a mix of sells later, a few self-transfers, all
// with nanoton-precision amounts. Deterministic via a fixed seed.
func main() {
	rng := rand.New(rand.NewSource(42))
	baseDir := findTestdataDir()

	const wallet = "UQDemoWallet000000000000000000000000000000000001"

	counterparties := make([]string, 8)
	for i := range counterparties {
		counterparties[i] = fmt.Sprintf("UQCounterparty0000000000000000000000000000000%03d", i+1)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var entries []domain.LedgerEntry

	for i := 0; i < 120; i++ {
		// Spread entries across twelve months, denser toward year end.
		day := rng.Intn(360)
		ts := start.AddDate(0, 0, day).Add(time.Duration(rng.Intn(86400)) * time.Second)

		// Nanoton-precision amount between 0.5 and 250 TON.
		nano := int64(5e8) + rng.Int63n(int64(2495e8))
		amount := decimal.New(nano, -9)

		from := counterparties[rng.Intn(len(counterparties))]
		to := wallet

		roll := rng.Float64()
		switch {
		case roll < 0.40 && day > 60:
			// Sell.
			from, to = wallet, counterparties[rng.Intn(len(counterparties))]
		case roll < 0.45:
			// Self-transfer; the engine must ignore these.
			from, to = wallet, wallet
		}

		hash := fmt.Sprintf("%016x%016x", rng.Uint64(), rng.Uint64())
		entries = append(entries, domain.LedgerEntry{
			ID:            "LE-" + hash,
			WalletAddress: wallet,
			TxHash:        hash,
			Timestamp:     ts,
			Amount:        amount,
			FromAddress:   from,
			ToAddress:     to,
			Status:        domain.StatusCompleted,
			CreatedAt:     ts,
		})
	}

	writeJSONFile(filepath.Join(baseDir, "transfers.json"), entries)
	fmt.Printf("Generated %d transfers for %s -> transfers.json\n", len(entries), wallet)
}

func writeJSONFile(path string, v any) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		panic(err)
	}
}

func findTestdataDir() string {
	candidates := []string{
		"testdata",
		"./testdata",
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && info.IsDir() {
			return c
		}
	}
	return "testdata"
}
