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

	"github.com/shopspring/decimal"

	"coinforge/internal/domain"
)

// TokenFeed adapts the token-transfer indexer API. Entries are keyed by
// transaction id; only "transfer" operations addressed to the account are
// creditable. Amounts arrive as fixed-point integer strings.
type TokenFeed struct {
	baseURL  string
	client   *http.Client
	limit    int
	decimals int32
}

type TokenFeedOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Limit      int
	Decimals   int32
}

const (
	tokenFeedDefaultTimeout = 20 * time.Second
	tokenFeedDefaultLimit   = 50
	feedDefaultDecimals     = 8
)

type tokenTransferList struct {
	Items []tokenTransfer `json:"items"`
}

type tokenTransfer struct {
	TransactionID string `json:"transaction_id"`
	Type          string `json:"type"`
	From          string `json:"from"`
	To            string `json:"to"`
	Amount        string `json:"amount"`
}

func NewTokenFeed(opts TokenFeedOptions) (*TokenFeed, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("token feed base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: tokenFeedDefaultTimeout}
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = tokenFeedDefaultLimit
	}
	decimals := opts.Decimals
	if decimals <= 0 {
		decimals = feedDefaultDecimals
	}
	return &TokenFeed{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		client:   client,
		limit:    limit,
		decimals: decimals,
	}, nil
}

func (f *TokenFeed) Name() string {
	return domain.DepositSourceToken
}

func (f *TokenFeed) Deposits(ctx context.Context, address string) ([]Deposit, error) {
	endpoint := fmt.Sprintf("%s/accounts/%s/token-transfers?limit=%d",
		f.baseURL, url.PathEscape(address), f.limit)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("fetch token transfers: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("token feed status %d", resp.StatusCode)
	}
	var list tokenTransferList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode token transfers: %w", err)
	}

	var deposits []Deposit
	for _, tx := range list.Items {
		if !strings.EqualFold(tx.Type, "transfer") {
			continue
		}
		if !strings.EqualFold(tx.To, address) {
			continue
		}
		if strings.TrimSpace(tx.TransactionID) == "" {
			continue
		}
		raw, err := decimal.NewFromString(strings.TrimSpace(tx.Amount))
		if err != nil {
			return nil, fmt.Errorf("parse amount %q for tx %s: %w", tx.Amount, tx.TransactionID, err)
		}
		deposits = append(deposits, Deposit{
			ID:     tx.TransactionID,
			Amount: raw.Shift(-f.decimals),
		})
	}
	return deposits, nil
}

var _ Source = (*TokenFeed)(nil)
