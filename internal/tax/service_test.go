package tax

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonledger/taxreporter/internal/domain"
)

const (
	testWallet = "UQTestWallet00000000000000000000000000000000ABCD"
	otherAddr  = "UQSomeoneElse000000000000000000000000000000WXYZ"
)

// stubLedger serves a fixed entry list, filtered by half-open time range.
type stubLedger struct {
	entries []domain.LedgerEntry
}

func (s *stubLedger) EntriesFor(_ context.Context, wallet string, from, to time.Time) ([]domain.LedgerEntry, error) {
	var out []domain.LedgerEntry
	for _, e := range s.entries {
		if e.WalletAddress != wallet {
			continue
		}
		if !e.Timestamp.Before(from) && e.Timestamp.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *stubLedger) Bounds(_ context.Context, wallet string) (time.Time, time.Time, bool, error) {
	var earliest, latest time.Time
	found := false
	for _, e := range s.entries {
		if e.WalletAddress != wallet {
			continue
		}
		if !found || e.Timestamp.Before(earliest) {
			earliest = e.Timestamp
		}
		if !found || e.Timestamp.After(latest) {
			latest = e.Timestamp
		}
		found = true
	}
	return earliest, latest, found, nil
}

// stubOracle returns one fixed price for every request.
type stubOracle struct {
	price decimal.Decimal
}

func (o *stubOracle) Current(context.Context) decimal.Decimal { return o.price }
func (o *stubOracle) OnDate(context.Context, time.Time) decimal.Decimal { return o.price }

var entrySeq int

func entryAt(ts time.Time, amount, from, to string) domain.LedgerEntry {
	entrySeq++
	hash := fmt.Sprintf("hash-%04d", entrySeq)
	return domain.LedgerEntry{
		ID:            "LE-" + hash,
		WalletAddress: testWallet,
		TxHash:        hash,
		Timestamp:     ts,
		Amount:        dec(amount),
		FromAddress:   from,
		ToAddress:     to,
		Status:        domain.StatusCompleted,
	}
}

func buyAt(ts time.Time, amount string) domain.LedgerEntry {
	return entryAt(ts, amount, otherAddr, testWallet)
}

func sellAt(ts time.Time, amount string) domain.LedgerEntry {
	return entryAt(ts, amount, testWallet, otherAddr)
}

func newTestService(entries []domain.LedgerEntry, price string) *Service {
	svc := NewService(&stubLedger{entries: entries}, &stubOracle{price: dec(price)}, DefaultPolicy())
	// Pin "now" well past the test data so every month resolves the same way.
	svc.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }
	return svc
}

func ts(year, month, day, hour int) time.Time {
	return time.Date(year, time.Month(month), day, hour, 0, 0, 0, time.UTC)
}

func TestComputeMonth_FIFOMatching(t *testing.T) {
	svc := newTestService([]domain.LedgerEntry{
		buyAt(ts(2025, 3, 1, 10), "10"),
		buyAt(ts(2025, 3, 2, 10), "5"),
		sellAt(ts(2025, 3, 3, 10), "12"),
	}, "4")

	report, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 3)
	require.NoError(t, err)

	require.Len(t, report.Details, 3)
	sell := report.Details[2]
	assert.Equal(t, domain.OperationSell, sell.Operation)
	assert.True(t, sell.MatchedCostTON.Equal(dec("12")), "matched %s", sell.MatchedCostTON)
	assert.True(t, sell.ProfitTON.IsZero())
	assert.True(t, report.TotalTaxTON.IsZero())
	assert.True(t, report.TotalDisposedTON.Equal(dec("12")))
	assert.True(t, report.TotalDisposedUSD.Equal(dec("48")))
}

func TestComputeMonth_ProfitClamp(t *testing.T) {
	// Disposal fully covered by prior buys: profit and tax are zero even
	// though the fiat value moved.
	svc := newTestService([]domain.LedgerEntry{
		buyAt(ts(2025, 5, 1, 9), "30"),
		sellAt(ts(2025, 5, 20, 9), "30"),
	}, "6.5")

	report, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 5)
	require.NoError(t, err)

	assert.True(t, report.TotalTaxTON.IsZero())
	assert.True(t, report.TotalTaxUSD.IsZero())
}

func TestComputeMonth_TaxArithmetic(t *testing.T) {
	// 100 TON sold with no acquisition history: full amount is profit,
	// 5% rate gives exactly 5 TON with no precision loss.
	svc := newTestService([]domain.LedgerEntry{
		sellAt(ts(2025, 7, 4, 12), "100"),
	}, "5")

	report, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 7)
	require.NoError(t, err)

	assert.True(t, report.TotalTaxTON.Equal(dec("5.000000000")), "tax %s", report.TotalTaxTON)
	assert.True(t, report.TotalTaxUSD.Equal(dec("25")))
}

func TestComputeMonth_NineDecimalPrecision(t *testing.T) {
	svc := newTestService([]domain.LedgerEntry{
		sellAt(ts(2025, 7, 4, 12), "0.000000001"),
	}, "5")

	report, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 7)
	require.NoError(t, err)

	// 5% of one nanoton survives without rounding to zero.
	assert.True(t, report.TotalTaxTON.Equal(dec("0.00000000005")), "tax %s", report.TotalTaxTON)
}

func TestComputeMonth_SelfTransferIgnored(t *testing.T) {
	svc := newTestService([]domain.LedgerEntry{
		entryAt(ts(2025, 2, 10, 8), "50", testWallet, testWallet),
	}, "5")

	report, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 2)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TransactionCount)
	assert.Empty(t, report.Details)
	assert.True(t, report.TotalDisposedTON.IsZero())
}

func TestComputeMonth_EmptyMonthStillReports(t *testing.T) {
	svc := newTestService(nil, "5")

	report, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 9)
	require.NoError(t, err)

	assert.Equal(t, 2025, report.Year)
	assert.Equal(t, 9, report.Month)
	assert.Equal(t, 0, report.TransactionCount)
	assert.NotNil(t, report.Details)
	assert.Empty(t, report.Details)
}

func TestComputeMonth_Idempotent(t *testing.T) {
	entries := []domain.LedgerEntry{
		buyAt(ts(2025, 4, 2, 10), "20"),
		sellAt(ts(2025, 4, 9, 10), "35"),
	}
	svc := newTestService(entries, "5")

	first, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 4)
	require.NoError(t, err)
	second, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 4)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestComputeMonth_InvalidInput(t *testing.T) {
	svc := newTestService(nil, "5")

	_, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 13)
	var inputErr *InputError
	require.ErrorAs(t, err, &inputErr)

	_, err = svc.ComputeMonth(context.Background(), testWallet, 2025, 0)
	require.ErrorAs(t, err, &inputErr)

	_, err = svc.ComputeMonth(context.Background(), "", 2025, 6)
	require.ErrorAs(t, err, &inputErr)

	_, err = svc.ComputeMonth(context.Background(), "bad wallet", 2025, 6)
	require.ErrorAs(t, err, &inputErr)
}

func TestComputeRange_MonthlyCompleteness(t *testing.T) {
	// Entries in February and April only; March must still appear.
	svc := newTestService([]domain.LedgerEntry{
		buyAt(ts(2025, 2, 5, 10), "10"),
		sellAt(ts(2025, 4, 5, 10), "4"),
	}, "5")

	reports, err := svc.ComputeRange(context.Background(), testWallet, nil, nil)
	require.NoError(t, err)

	require.Len(t, reports, 3)
	assert.Equal(t, 2, reports[0].Month)
	assert.Equal(t, 3, reports[1].Month)
	assert.Equal(t, 4, reports[2].Month)

	march := reports[1]
	assert.Equal(t, 0, march.TransactionCount)
	assert.True(t, march.TotalDisposedTON.IsZero())
	assert.Empty(t, march.Details)
}

func TestComputeRange_CrossMonthCarry(t *testing.T) {
	entries := []domain.LedgerEntry{
		buyAt(ts(2025, 1, 10, 10), "50"),
		sellAt(ts(2025, 2, 10, 10), "40"),
	}
	svc := newTestService(entries, "5")

	reports, err := svc.ComputeRange(context.Background(), testWallet, nil, nil)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	// The January lot covers the February sell, so no profit.
	feb := reports[1]
	require.Len(t, feb.Details, 1)
	assert.True(t, feb.Details[0].MatchedCostTON.Equal(dec("40")))
	assert.True(t, feb.TotalTaxTON.IsZero())

	// A standalone month computation starts with a fresh matcher and must
	// not see the January lot.
	alone, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 2)
	require.NoError(t, err)
	require.Len(t, alone.Details, 1)
	assert.True(t, alone.Details[0].MatchedCostTON.IsZero())
	assert.True(t, alone.TotalTaxTON.Equal(dec("2")), "tax %s", alone.TotalTaxTON)
}

func TestComputeRange_YearWrap(t *testing.T) {
	svc := newTestService([]domain.LedgerEntry{
		buyAt(ts(2024, 11, 1, 10), "5"),
		buyAt(ts(2025, 2, 1, 10), "5"),
	}, "5")

	reports, err := svc.ComputeRange(context.Background(), testWallet, nil, nil)
	require.NoError(t, err)

	require.Len(t, reports, 4)
	assert.Equal(t, [2]int{2024, 12}, [2]int{reports[1].Year, reports[1].Month})
	assert.Equal(t, [2]int{2025, 1}, [2]int{reports[2].Year, reports[2].Month})
}

func TestComputeRange_EmptyLedgerNoBounds(t *testing.T) {
	svc := newTestService(nil, "5")

	reports, err := svc.ComputeRange(context.Background(), testWallet, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestComputeRange_ExplicitBoundsOnEmptyLedger(t *testing.T) {
	svc := newTestService(nil, "5")

	start := domain.YM(2025, 1)
	end := domain.YM(2025, 3)
	reports, err := svc.ComputeRange(context.Background(), testWallet, &start, &end)
	require.NoError(t, err)

	require.Len(t, reports, 3)
	for _, r := range reports {
		assert.Equal(t, 0, r.TransactionCount)
	}
}

func TestComputeRange_InvertedBounds(t *testing.T) {
	svc := newTestService(nil, "5")

	start := domain.YM(2025, 6)
	end := domain.YM(2025, 3)
	reports, err := svc.ComputeRange(context.Background(), testWallet, &start, &end)
	require.NoError(t, err)
	assert.Empty(t, reports)
}

func TestComputeTotals_AggregationIdentity(t *testing.T) {
	entries := []domain.LedgerEntry{
		buyAt(ts(2025, 1, 5, 10), "10"),
		sellAt(ts(2025, 1, 20, 10), "25"),
		sellAt(ts(2025, 2, 3, 10), "8"),
		buyAt(ts(2025, 3, 1, 10), "40"),
		sellAt(ts(2025, 3, 15, 10), "55"),
	}
	svc := newTestService(entries, "5")

	monthly, err := svc.ComputeRange(context.Background(), testWallet, nil, nil)
	require.NoError(t, err)
	agg, err := svc.ComputeTotals(context.Background(), testWallet, nil, nil)
	require.NoError(t, err)

	sumTax := decimal.Zero
	sumDisposed := decimal.Zero
	txCount := 0
	for _, r := range monthly {
		sumTax = sumTax.Add(r.TotalTaxTON)
		sumDisposed = sumDisposed.Add(r.TotalDisposedTON)
		txCount += r.TransactionCount
	}

	assert.True(t, agg.TotalTaxTON.Equal(sumTax), "agg %s sum %s", agg.TotalTaxTON, sumTax)
	assert.True(t, agg.TotalDisposedTON.Equal(sumDisposed))
	assert.Equal(t, txCount, agg.TotalTransactions)

	require.NotNil(t, agg.Period)
	assert.Equal(t, domain.YM(2025, 1), agg.Period.Start)
	assert.Equal(t, domain.YM(2025, 3), agg.Period.End)
	assert.Len(t, agg.Monthly, 3)
}

func TestComputeTotals_EmptyLedger(t *testing.T) {
	svc := newTestService(nil, "5")

	agg, err := svc.ComputeTotals(context.Background(), testWallet, nil, nil)
	require.NoError(t, err)

	assert.True(t, agg.TotalTaxTON.IsZero())
	assert.Equal(t, 0, agg.TotalTransactions)
	assert.Nil(t, agg.Period)
	assert.Empty(t, agg.Monthly)
}

func TestShortfallPolicyDisabled(t *testing.T) {
	svc := NewService(
		&stubLedger{entries: []domain.LedgerEntry{sellAt(ts(2025, 6, 1, 10), "100")}},
		&stubOracle{price: dec("5")},
		Policy{TaxRate: dec("0.05"), UnmatchedDisposalIsProfit: false},
	)
	svc.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC) }

	report, err := svc.ComputeMonth(context.Background(), testWallet, 2025, 6)
	require.NoError(t, err)

	require.Len(t, report.Details, 1)
	assert.True(t, report.Details[0].ProfitTON.IsZero())
	assert.True(t, report.TotalTaxTON.IsZero())
}

func TestOpenLots(t *testing.T) {
	svc := newTestService([]domain.LedgerEntry{
		buyAt(ts(2025, 1, 2, 10), "100"),
		sellAt(ts(2025, 2, 2, 10), "30"),
		entryAt(ts(2025, 2, 5, 10), "10", testWallet, testWallet),
	}, "5")

	open, err := svc.OpenLots(context.Background(), testWallet)
	require.NoError(t, err)
	assert.True(t, open.Equal(dec("70")), "open %s", open)
}

func TestReduce_Empty(t *testing.T) {
	agg := Reduce(nil)
	assert.True(t, agg.TotalTaxTON.IsZero())
	assert.Nil(t, agg.Period)
}
