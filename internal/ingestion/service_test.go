package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonledger/taxreporter/internal/repository"
)

func newTestService(t *testing.T, chainURL string) (*Service, *repository.LedgerRepo) {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := repository.NewLedgerRepo(db)
	return NewService(repo, NewTonCenterClient(chainURL)), repo
}

func TestIngestExport_CSVRoundTrip(t *testing.T) {
	svc, repo := newTestService(t, "")

	data := []byte(`tx_hash,timestamp,amount_ton,from_address,to_address
exp01,2025-02-01T09:00:00Z,10,UQSender01,` + testWallet + `
exp02,2025-02-02T09:00:00Z,4,` + testWallet + `,UQReceiver01
`)

	result, err := svc.IngestExport(data, testWallet, "csv")
	require.NoError(t, err)
	assert.Equal(t, 2, result.RecordsIngested)
	assert.Equal(t, 0, result.DuplicatesSkipped)
	assert.NotEmpty(t, result.ReportID)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Re-uploading the identical file is a no-op.
	again, err := svc.IngestExport(data, testWallet, "csv")
	require.NoError(t, err)
	assert.Equal(t, "already-ingested", again.ReportID)
	assert.Equal(t, 0, again.RecordsIngested)
}

func TestIngestExport_UnsupportedSource(t *testing.T) {
	svc, _ := newTestService(t, "")

	_, err := svc.IngestExport([]byte("{}"), testWallet, "excel")
	assert.Error(t, err)
}

func TestRefreshWallet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testWallet, r.URL.Query().Get("address"))
		w.Write([]byte(`{
			"ok": true,
			"result": [
				{
					"transaction_id": {"lt": "10", "hash": "chain01"},
					"utime": 1736150400,
					"in_msg": {"source": "UQSender01", "destination": "` + testWallet + `", "value": "3000000000"}
				}
			]
		}`))
	}))
	defer server.Close()

	svc, repo := newTestService(t, server.URL)

	inserted, err := svc.RefreshWallet(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, 1, inserted)

	// Refreshing again finds the same transaction and inserts nothing.
	inserted, err = svc.RefreshWallet(context.Background(), testWallet)
	require.NoError(t, err)
	assert.Equal(t, 0, inserted)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
