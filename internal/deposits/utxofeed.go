package deposits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"coinforge/internal/domain"
)

// UTXOFeed adapts the base-currency indexer API. Transactions are keyed by
// hash; the creditable value is the sum of every output paying the account's
// address, since an address may appear as several outputs of one transaction.
type UTXOFeed struct {
	baseURL  string
	client   *http.Client
	limit    int
	decimals int32
}

type UTXOFeedOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Limit      int
	Decimals   int32
}

const (
	utxoFeedDefaultTimeout = 20 * time.Second
	utxoFeedDefaultLimit   = 50
)

type utxoTransactionList struct {
	Transactions []utxoTransaction `json:"transactions"`
}

type utxoTransaction struct {
	Hash    string       `json:"hash"`
	Outputs []utxoOutput `json:"outputs"`
}

type utxoOutput struct {
	Address string `json:"address"`
	Value   int64  `json:"value"`
}

func NewUTXOFeed(opts UTXOFeedOptions) (*UTXOFeed, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("utxo feed base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: utxoFeedDefaultTimeout}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = utxoFeedDefaultLimit
	}
	decimals := opts.Decimals
	if decimals <= 0 {
		decimals = feedDefaultDecimals
	}
	return &UTXOFeed{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		client:   client,
		limit:    limit,
		decimals: decimals,
	}, nil
}

func (f *UTXOFeed) Name() string {
	return domain.DepositSourceChain
}

func (f *UTXOFeed) Deposits(ctx context.Context, address string) ([]Deposit, error) {
	endpoint := fmt.Sprintf("%s/addresses/%s/transactions?limit=%d",
		f.baseURL, url.PathEscape(address), f.limit)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("utxo feed status %d", resp.StatusCode)
	}
	var list utxoTransactionList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	var deposits []Deposit
	for _, tx := range list.Transactions {
		if strings.TrimSpace(tx.Hash) == "" {
			continue
		}
		var total int64
		for _, out := range tx.Outputs {
			if strings.EqualFold(out.Address, address) {
				total += out.Value
			}
		}
		if total <= 0 {
			continue
		}
		deposits = append(deposits, Deposit{
			ID:     tx.Hash,
			Amount: scaleAmount(total, f.decimals),
		})
	}
	return deposits, nil
}

var _ Source = (*UTXOFeed)(nil)
