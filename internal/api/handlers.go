package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tonledger/taxreporter/internal/config"
	"github.com/tonledger/taxreporter/internal/domain"
	"github.com/tonledger/taxreporter/internal/ingestion"
	"github.com/tonledger/taxreporter/internal/repository"
	"github.com/tonledger/taxreporter/internal/tax"
)

// Handlers groups all HTTP handler methods and their dependencies.
type Handlers struct {
	taxSvc       *tax.Service
	ingestionSvc *ingestion.Service
	ledgerRepo   *repository.LedgerRepo
	prices       tax.PriceOracle
	demo         *config.DemoWindow
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps validation failures to 400, everything else to 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var inputErr *tax.InputError
	if errors.As(err, &inputErr) {
		writeError(w, http.StatusBadRequest, inputErr.Reason)
		return
	}
	log.Printf("[api] internal error: %v", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02", s)
		if err != nil {
			return nil
		}
	}
	return &t
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return def
	}
	return v
}

// parseYM reads an optional year/month pair from query values. Both must
// be present for the bound to count; a lone half is a caller mistake.
func parseYM(yearStr, monthStr string) (*domain.YearMonth, error) {
	if yearStr == "" && monthStr == "" {
		return nil, nil
	}
	if yearStr == "" || monthStr == "" {
		return nil, errors.New("year and month must be supplied together")
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return nil, errors.New("year must be a number")
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil {
		return nil, errors.New("month must be a number")
	}
	ym := domain.YM(year, month)
	return &ym, nil
}

// --- GetMonthTax ---

type monthTaxResponse struct {
	domain.MonthlyReport
	DemoDeals []SyntheticDeal `json:"demo_deals"`
}

func (h *Handlers) GetMonthTax(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wallet := q.Get("wallet")

	year, err := strconv.Atoi(q.Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "year must be a number")
		return
	}
	month, err := strconv.Atoi(q.Get("month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "month must be a number")
		return
	}

	report, err := h.taxSvc.ComputeMonth(r.Context(), wallet, year, month)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := monthTaxResponse{
		MonthlyReport: roundMonthly(*report),
		DemoDeals:     []SyntheticDeal{},
	}
	if h.demo != nil && h.demo.Year == year && h.demo.Month == month {
		resp.DemoDeals = syntheticDeals(h.demo, h.prices.Current(r.Context()), h.taxSvc.Policy().TaxRate)
	}

	writeJSON(w, http.StatusOK, resp)
}

// --- GetRangeTax ---

func (h *Handlers) GetRangeTax(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wallet := q.Get("wallet")

	start, err := parseYM(q.Get("start_year"), q.Get("start_month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	end, err := parseYM(q.Get("end_year"), q.Get("end_month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}

	reports, err := h.taxSvc.ComputeRange(r.Context(), wallet, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rounded := make([]domain.MonthlyReport, len(reports))
	for i, rep := range reports {
		rounded[i] = roundMonthly(rep)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"monthly_taxes": rounded,
		"count":         len(rounded),
	})
}

// --- GetTotalTax ---

func (h *Handlers) GetTotalTax(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wallet := q.Get("wallet")

	start, err := parseYM(q.Get("start_year"), q.Get("start_month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start: "+err.Error())
		return
	}
	end, err := parseYM(q.Get("end_year"), q.Get("end_month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end: "+err.Error())
		return
	}

	agg, err := h.taxSvc.ComputeTotals(r.Context(), wallet, start, end)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, roundAggregate(*agg))
}

// --- ListTransfers ---

func (h *Handlers) ListTransfers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := repository.EntryFilter{
		Wallet: q.Get("wallet"),
		From:   parseTime(q.Get("from")),
		To:     parseTime(q.Get("to")),
		Page:   parseIntDefault(q.Get("page"), 1),
		Limit:  parseIntDefault(q.Get("limit"), 50),
	}

	entries, total, err := h.ledgerRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"transfers": entries,
		"total":     total,
		"page":      filter.Page,
		"limit":     filter.Limit,
	})
}

// --- ImportTransfers ---

func (h *Handlers) ImportTransfers(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form: "+err.Error())
		return
	}

	wallet := r.FormValue("wallet")
	source := r.FormValue("source")
	if wallet == "" || source == "" {
		writeError(w, http.StatusBadRequest, "wallet and source are required")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required: "+err.Error())
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "read file: "+err.Error())
		return
	}

	result, err := h.ingestionSvc.IngestExport(data, wallet, source)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// --- RefreshWallet ---

// RefreshWallet kicks off a chain refresh in the background and returns
// immediately. Reports computed meanwhile see the previous ledger
// snapshot.
func (h *Handlers) RefreshWallet(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if _, err := h.ingestionSvc.RefreshWallet(ctx, address); err != nil {
			log.Printf("[api] background refresh for %s failed: %v", address, err)
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"status": "refresh started",
		"wallet": address,
	})
}

// --- GetWalletSummary ---

func (h *Handlers) GetWalletSummary(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")
	if address == "" {
		writeError(w, http.StatusBadRequest, "address is required")
		return
	}

	count, err := h.ledgerRepo.CountForWallet(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	openLots, err := h.taxSvc.OpenLots(r.Context(), address)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	summary := map[string]any{
		"wallet":        address,
		"entry_count":   count,
		"open_lots_ton": openLots.Round(nativeScale),
		"price_usd":     h.prices.Current(r.Context()).Round(fiatScale),
	}

	earliest, latest, ok, err := h.ledgerRepo.Bounds(r.Context(), address)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if ok {
		summary["first_entry"] = earliest
		summary["last_entry"] = latest
	}

	writeJSON(w, http.StatusOK, summary)
}
