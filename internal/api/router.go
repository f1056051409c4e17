package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tonledger/taxreporter/internal/config"
	"github.com/tonledger/taxreporter/internal/ingestion"
	"github.com/tonledger/taxreporter/internal/repository"
	"github.com/tonledger/taxreporter/internal/tax"
)

// NewRouter creates the Chi router with all API routes mounted.
func NewRouter(
	taxSvc *tax.Service,
	ingestionSvc *ingestion.Service,
	ledgerRepo *repository.LedgerRepo,
	prices tax.PriceOracle,
	demo *config.DemoWindow,
) http.Handler {
	h := &Handlers{
		taxSvc:       taxSvc,
		ingestionSvc: ingestionSvc,
		ledgerRepo:   ledgerRepo,
		prices:       prices,
		demo:         demo,
	}

	r := chi.NewRouter()

	// Middleware.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Route("/api/v1", func(r chi.Router) {
		// Tax reports.
		r.Get("/tax/month", h.GetMonthTax)
		r.Get("/tax/months", h.GetRangeTax)
		r.Get("/tax/total", h.GetTotalTax)

		// Ledger.
		r.Get("/transfers", h.ListTransfers)
		r.Post("/transfers/import", h.ImportTransfers)

		// Wallets.
		r.Post("/wallets/{address}/refresh", h.RefreshWallet)
		r.Get("/wallets/{address}/summary", h.GetWalletSummary)
	})

	return r
}
