package ingestion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	// DefaultTonCenterURL is the public TON Center v2 API.
	DefaultTonCenterURL = "https://toncenter.com/api/v2"

	pageLimit = 100
	maxPages  = 20
)

// tonTransactionID carries the lt/hash cursor used for pagination.
type tonTransactionID struct {
	LT   string `json:"lt"`
	Hash string `json:"hash"`
}

type tonMessage struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Value       string `json:"value"` // nanoton
}

type tonTransaction struct {
	TransactionID tonTransactionID `json:"transaction_id"`
	UTime         int64            `json:"utime"`
	InMsg         *tonMessage      `json:"in_msg"`
	OutMsgs       []tonMessage     `json:"out_msgs"`
}

type tonResponse struct {
	OK     bool             `json:"ok"`
	Result []tonTransaction `json:"result"`
}

// TonCenterClient pulls raw transfer records for an address, walking
// backwards through history with the lt/hash cursor until the API runs out
// of pages or the page cap is hit.
type TonCenterClient struct {
	baseURL string
	client  *http.Client
}

func NewTonCenterClient(baseURL string) *TonCenterClient {
	if baseURL == "" {
		baseURL = DefaultTonCenterURL
	}
	return &TonCenterClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 8 * time.Second},
	}
}

func (c *TonCenterClient) FetchTransactions(ctx context.Context, address string) ([]tonTransaction, error) {
	var all []tonTransaction
	var cursor *tonTransactionID

	for page := 0; page < maxPages; page++ {
		params := url.Values{}
		params.Set("address", address)
		params.Set("limit", fmt.Sprint(pageLimit))
		if cursor != nil {
			params.Set("lt", cursor.LT)
			params.Set("hash", cursor.Hash)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/getTransactions?"+params.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", page, err)
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("page %d: unexpected status %d", page, resp.StatusCode)
		}

		var parsed tonResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("decode page %d: %w", page, err)
		}
		if !parsed.OK || len(parsed.Result) == 0 {
			break
		}

		all = append(all, parsed.Result...)

		// Fewer rows than the limit means we reached the end of history.
		if len(parsed.Result) < pageLimit {
			break
		}

		last := parsed.Result[len(parsed.Result)-1]
		if last.TransactionID.LT == "" || last.TransactionID.Hash == "" {
			break
		}
		cursor = &last.TransactionID
	}

	return all, nil
}
