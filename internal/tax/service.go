package tax

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tonledger/taxreporter/internal/domain"
)

// LedgerSource supplies the transfer history for a wallet. The backing
// store owns deduplication and address normalization; entries come back
// ordered by timestamp ascending.
type LedgerSource interface {
	EntriesFor(ctx context.Context, wallet string, from, to time.Time) ([]domain.LedgerEntry, error)
	// Bounds returns the earliest and latest entry timestamps for the
	// wallet. ok is false when the wallet has no entries at all.
	Bounds(ctx context.Context, wallet string) (earliest, latest time.Time, ok bool, err error)
}

// PriceOracle resolves TON/USD prices. Implementations never fail; they
// degrade to fallback or simulated values instead.
type PriceOracle interface {
	Current(ctx context.Context) decimal.Decimal
	OnDate(ctx context.Context, date time.Time) decimal.Decimal
}

// Service is the cost-basis tax engine exposed to the serving layer.
type Service struct {
	ledger LedgerSource
	prices PriceOracle
	policy Policy
	now    func() time.Time
}

func NewService(ledger LedgerSource, prices PriceOracle, policy Policy) *Service {
	return &Service{
		ledger: ledger,
		prices: prices,
		policy: policy,
		now:    time.Now,
	}
}

// Policy returns the taxation parameters the service applies.
func (s *Service) Policy() Policy {
	return s.policy
}

// ComputeMonth produces the report for a single wallet-month using a fresh
// lot matcher, so acquisitions from earlier months are not visible. Use
// ComputeRange when lots must carry across months.
func (s *Service) ComputeMonth(ctx context.Context, wallet string, year, month int) (*domain.MonthlyReport, error) {
	if err := validateWallet(wallet); err != nil {
		return nil, err
	}
	if err := validateMonth(month); err != nil {
		return nil, err
	}

	ym := domain.YM(year, month)
	price := s.priceFor(ctx, ym)

	entries, err := s.monthEntries(ctx, wallet, ym)
	if err != nil {
		return nil, err
	}

	report := calculateMonth(wallet, ym, price, NewLotMatcher(), entries, s.policy)
	return &report, nil
}

// ComputeRange produces one report per month from start to end inclusive,
// threading a single lot matcher through the whole run so a lot acquired
// in one month can satisfy a disposal in a later one. Omitted bounds are
// derived from the wallet's earliest and latest entries; when a bound is
// omitted and the ledger is empty, no months are synthesized.
func (s *Service) ComputeRange(ctx context.Context, wallet string, start, end *domain.YearMonth) ([]domain.MonthlyReport, error) {
	if err := validateWallet(wallet); err != nil {
		return nil, err
	}
	if start != nil {
		if err := validateMonth(start.Month); err != nil {
			return nil, err
		}
	}
	if end != nil {
		if err := validateMonth(end.Month); err != nil {
			return nil, err
		}
	}

	from, to, ok, err := s.resolveBounds(ctx, wallet, start, end)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []domain.MonthlyReport{}, nil
	}

	lots := NewLotMatcher()
	reports := []domain.MonthlyReport{}

	for ym := from; !ym.After(to); ym = ym.Next() {
		price := s.priceFor(ctx, ym)

		entries, err := s.monthEntries(ctx, wallet, ym)
		if err != nil {
			return nil, err
		}

		reports = append(reports, calculateMonth(wallet, ym, price, lots, entries, s.policy))
	}

	log.Printf("[tax] computed %d monthly reports for %s (%s..%s, open lots %s TON)",
		len(reports), wallet, from, to, lots.Open().String())

	return reports, nil
}

// ComputeTotals runs ComputeRange and reduces the result into a single
// aggregate report.
func (s *Service) ComputeTotals(ctx context.Context, wallet string, start, end *domain.YearMonth) (*domain.AggregateReport, error) {
	monthly, err := s.ComputeRange(ctx, wallet, start, end)
	if err != nil {
		return nil, err
	}

	agg := Reduce(monthly)
	agg.PriceUSD = s.prices.Current(ctx)
	return &agg, nil
}

// OpenLots replays the wallet's full history through a fresh matcher and
// returns the acquisition total still unmatched by disposals.
func (s *Service) OpenLots(ctx context.Context, wallet string) (decimal.Decimal, error) {
	if err := validateWallet(wallet); err != nil {
		return decimal.Zero, err
	}

	earliest, latest, ok, err := s.ledger.Bounds(ctx, wallet)
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger bounds for %s: %w", wallet, err)
	}
	if !ok {
		return decimal.Zero, nil
	}

	entries, err := s.ledger.EntriesFor(ctx, wallet, earliest, latest.Add(time.Second))
	if err != nil {
		return decimal.Zero, fmt.Errorf("ledger entries for %s: %w", wallet, err)
	}

	lots := NewLotMatcher()
	for i := range entries {
		e := &entries[i]
		switch domain.Classify(e, wallet) {
		case domain.Acquisition:
			lots.Add(e.Amount)
		case domain.Disposal:
			lots.Consume(e.Amount)
		}
	}
	return lots.Open(), nil
}

func (s *Service) monthEntries(ctx context.Context, wallet string, ym domain.YearMonth) ([]domain.LedgerEntry, error) {
	from, to := ym.Bounds()
	entries, err := s.ledger.EntriesFor(ctx, wallet, from, to)
	if err != nil {
		return nil, fmt.Errorf("ledger entries for %s %s: %w", wallet, ym, err)
	}
	return entries, nil
}

// priceFor resolves the month's USD price: the live spot price for the
// current (or a future) month, a historical lookup otherwise.
func (s *Service) priceFor(ctx context.Context, ym domain.YearMonth) decimal.Decimal {
	current := domain.YMOf(s.now())
	if !current.After(ym) {
		return s.prices.Current(ctx)
	}
	return s.prices.OnDate(ctx, ym.Start())
}

func (s *Service) resolveBounds(ctx context.Context, wallet string, start, end *domain.YearMonth) (domain.YearMonth, domain.YearMonth, bool, error) {
	var from, to domain.YearMonth

	if start != nil && end != nil {
		from, to = *start, *end
	} else {
		earliest, latest, ok, err := s.ledger.Bounds(ctx, wallet)
		if err != nil {
			return from, to, false, fmt.Errorf("ledger bounds for %s: %w", wallet, err)
		}
		if !ok {
			// Nothing to derive a missing bound from.
			return from, to, false, nil
		}
		from, to = domain.YMOf(earliest), domain.YMOf(latest)
		if start != nil {
			from = *start
		}
		if end != nil {
			to = *end
		}
	}

	if from.After(to) {
		return from, to, false, nil
	}
	return from, to, true, nil
}
