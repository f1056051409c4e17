package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/api"
	"github.com/tonledger/taxreporter/internal/config"
	"github.com/tonledger/taxreporter/internal/domain"
	"github.com/tonledger/taxreporter/internal/ingestion"
	"github.com/tonledger/taxreporter/internal/pricing"
	"github.com/tonledger/taxreporter/internal/repository"
	"github.com/tonledger/taxreporter/internal/tax"
)

func main() {
	cfg := config.Load()

	policyFile, err := config.LoadPolicy(cfg.PolicyPath)
	if err != nil {
		log.Fatalf("Failed to load policy: %v", err)
	}

	log.Printf("Initializing database at %s", cfg.DBPath)
	db, err := repository.InitDB(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to init DB: %v", err)
	}
	defer db.Close()

	ledgerRepo := repository.NewLedgerRepo(db)

	// Price oracle: CoinGecko with fixed fallback plus deterministic
	// historical simulation.
	var history pricing.HistoricalFallback
	if len(policyFile.MonthMultipliers) == 12 {
		var multipliers [12]float64
		copy(multipliers[:], policyFile.MonthMultipliers)
		history = pricing.NewSimulator(multipliers)
	}
	oracle := pricing.NewOracle(
		pricing.NewCoinGeckoClient(cfg.PriceAPIURL),
		decimal.NewFromFloat(policyFile.FallbackPriceUSD),
		history,
	)

	policy := tax.Policy{
		TaxRate:                   decimal.NewFromFloat(policyFile.TaxRate),
		UnmatchedDisposalIsProfit: true,
	}
	if policyFile.UnmatchedDisposalIsProfit != nil {
		policy.UnmatchedDisposalIsProfit = *policyFile.UnmatchedDisposalIsProfit
	}

	taxSvc := tax.NewService(ledgerRepo, oracle, policy)
	ingestionSvc := ingestion.NewService(ledgerRepo, ingestion.NewTonCenterClient(cfg.TonCenterURL))

	// Seed transfers if DB is empty.
	count, err := ledgerRepo.Count()
	if err != nil {
		log.Fatalf("Failed to count entries: %v", err)
	}
	if count == 0 {
		log.Println("Database is empty, seeding transfers from testdata...")
		if err := seedTransfers(ledgerRepo, cfg.SeedPath); err != nil {
			log.Printf("WARNING: Failed to seed transfers: %v", err)
		}
	} else {
		log.Printf("Database already has %d entries, skipping seed", count)
	}

	router := api.NewRouter(taxSvc, ingestionSvc, ledgerRepo, oracle, policyFile.Demo)

	log.Printf("TON Wallet Tax Reporter")
	log.Printf("Tax rate %.2f%%, fallback price %.2f USD", policyFile.TaxRate*100, policyFile.FallbackPriceUSD)
	log.Printf("Listening on http://localhost:%s", cfg.Port)
	log.Printf("")
	log.Printf("Endpoints:")
	log.Printf("  GET    /api/v1/tax/month")
	log.Printf("  GET    /api/v1/tax/months")
	log.Printf("  GET    /api/v1/tax/total")
	log.Printf("  GET    /api/v1/transfers")
	log.Printf("  POST   /api/v1/transfers/import")
	log.Printf("  POST   /api/v1/wallets/{address}/refresh")
	log.Printf("  GET    /api/v1/wallets/{address}/summary")

	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func seedTransfers(repo *repository.LedgerRepo, seedPath string) error {
	// Try multiple possible locations for testdata.
	candidates := []string{seedPath}

	// Also try to find relative to the executable.
	if exe, err := os.Executable(); err == nil {
		dir := filepath.Dir(exe)
		candidates = append(candidates,
			filepath.Join(dir, seedPath),
			filepath.Join(dir, "..", "..", seedPath),
		)
	}

	var data []byte
	var loadErr error
	for _, path := range candidates {
		data, loadErr = os.ReadFile(path)
		if loadErr == nil {
			log.Printf("Loaded transfers from %s", path)
			break
		}
	}
	if loadErr != nil {
		return fmt.Errorf("could not find seed file in any candidate path: %w", loadErr)
	}

	var entries []domain.LedgerEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("unmarshal transfers: %w", err)
	}

	inserted, err := repo.BulkInsert(entries)
	if err != nil {
		return fmt.Errorf("bulk insert: %w", err)
	}

	log.Printf("Seeded %d transfers (out of %d in file)", inserted, len(entries))
	return nil
}
