// Package wallet talks to the external wallet-creation collaborator and
// seals the returned key material before it ever reaches the store.
package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Wallet is a freshly created custodial wallet. Mnemonic is cleartext only
// in memory; callers seal it before persisting.
type Wallet struct {
	Address  string
	Mnemonic string
}

// Creator is the wallet-creation collaborator contract.
type Creator interface {
	CreateWallet(ctx context.Context) (Wallet, error)
}

type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
}

// Client calls the wallet service over HTTP.
type Client struct {
	baseURL string
	client  *http.Client
}

const walletDefaultTimeout = 30 * time.Second

type createWalletResponse struct {
	Address  string `json:"address"`
	Mnemonic string `json:"mnemonic"`
}

func NewClient(opts ClientOptions) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("wallet service base url is required")
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: walletDefaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(opts.BaseURL, "/"), client: client}, nil
}

func (c *Client) CreateWallet(ctx context.Context) (Wallet, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/wallets", bytes.NewReader([]byte("{}")))
	if err != nil {
		return Wallet{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return Wallet{}, fmt.Errorf("create wallet: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return Wallet{}, fmt.Errorf("wallet service status %d", resp.StatusCode)
	}
	var out createWalletResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Wallet{}, fmt.Errorf("decode wallet: %w", err)
	}
	if strings.TrimSpace(out.Address) == "" || strings.TrimSpace(out.Mnemonic) == "" {
		return Wallet{}, errors.New("wallet service returned incomplete wallet")
	}
	return Wallet{Address: out.Address, Mnemonic: out.Mnemonic}, nil
}

var _ Creator = (*Client)(nil)
