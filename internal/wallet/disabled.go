package wallet

import (
	"context"
	"errors"
)

// ErrDisabled is returned when no wallet service is configured.
var ErrDisabled = errors.New("wallet service not configured")

// Disabled is a Creator that always refuses. It keeps the rest of the
// service usable in deployments without a wallet collaborator.
type Disabled struct{}

func (Disabled) CreateWallet(ctx context.Context) (Wallet, error) {
	return Wallet{}, ErrDisabled
}

var _ Creator = Disabled{}
