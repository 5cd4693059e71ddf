package domain

import "time"

// AssetRegistry is the external collection contract holding unique assets.
// The marketplace never owns asset state; it only instructs transfers.
type AssetRegistry interface {
	OwnerOf(assetID string) (string, error)
	Transfer(from, to, assetID string) error
	SupportsAssetInterface() bool
}

// CurrencyLedger moves fungible balances between principals.
// TransferFrom requires the payer's authorization; Transfer spends from the
// balance the marketplace itself holds in escrow.
type CurrencyLedger interface {
	TransferFrom(payer, payee string, amount int64) error
	Transfer(payee string, amount int64) error
}

// RegistryResolver maps asset registry identifiers to live handles.
type RegistryResolver interface {
	Registry(id string) (AssetRegistry, bool)
}

// Clock supplies the current time to every order/bid-touching operation.
// Expiry is always checked against this oracle, never swept in background.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock backed by the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }
