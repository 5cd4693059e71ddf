package market

import (
	"fmt"
	"sync"

	"market_go/internal/domain"
	"market_go/pkg/safe"
)

// EscrowLedger tracks marketplace custody of assets and funds and issues the
// underlying transfer instructions. The engine never moves value directly;
// every hold or release goes through here so custody accounting and the
// external registries can never silently diverge.
//
// Custody invariants are enforced with panics: a violated invariant means
// the books are corrupt and the process must not keep trading.
type EscrowLedger struct {
	mu         sync.Mutex
	account    string // marketplace escrow principal
	heldAssets map[domain.AssetKey]string
	heldFunds  map[string]int64 // currency symbol -> units in custody
}

// NewEscrowLedger creates an escrow ledger operating as account.
func NewEscrowLedger(account string) *EscrowLedger {
	return &EscrowLedger{
		account:    account,
		heldAssets: make(map[domain.AssetKey]string),
		heldFunds:  make(map[string]int64),
	}
}

// Account returns the escrow principal the marketplace holds value under.
func (e *EscrowLedger) Account() string { return e.account }

// HoldAsset moves the asset from holder into marketplace custody.
func (e *EscrowLedger) HoldAsset(reg domain.AssetRegistry, key domain.AssetKey, holder string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, held := e.heldAssets[key]; held {
		panic(fmt.Sprintf("ESCROW_ASSET_ALREADY_HELD: %s/%s", key.Registry, key.AssetID))
	}
	if err := reg.Transfer(holder, e.account, key.AssetID); err != nil {
		return domain.NewTransferError("escrow asset", err)
	}
	e.heldAssets[key] = holder
	return nil
}

// ReleaseAsset moves the asset from custody to `to` (the seller on
// cancellation, the buyer on execution).
func (e *EscrowLedger) ReleaseAsset(reg domain.AssetRegistry, key domain.AssetKey, to string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, held := e.heldAssets[key]; !held {
		panic(fmt.Sprintf("ESCROW_ASSET_NOT_HELD: %s/%s", key.Registry, key.AssetID))
	}
	if err := reg.Transfer(e.account, to, key.AssetID); err != nil {
		return domain.NewTransferError("release asset", err)
	}
	delete(e.heldAssets, key)
	return nil
}

// HoldsAsset reports whether the asset is currently in custody.
func (e *EscrowLedger) HoldsAsset(key domain.AssetKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, held := e.heldAssets[key]
	return held
}

// HoldFunds pulls amount of currency from payer into escrow.
func (e *EscrowLedger) HoldFunds(l domain.CurrencyLedger, currency, payer string, amount int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := l.TransferFrom(payer, e.account, amount); err != nil {
		return domain.NewTransferError("escrow funds", err)
	}
	e.heldFunds[currency] = safe.Add(e.heldFunds[currency], amount)
	return nil
}

// ReleaseFunds pays amount of escrowed currency out to payee.
func (e *EscrowLedger) ReleaseFunds(l domain.CurrencyLedger, currency, payee string, amount int64) error {
	if amount == 0 {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if amount > e.heldFunds[currency] {
		panic(fmt.Sprintf("ESCROW_RELEASE_EXCEEDS_HELD: %s release %d, held %d",
			currency, amount, e.heldFunds[currency]))
	}
	if err := l.Transfer(payee, amount); err != nil {
		return domain.NewTransferError("release funds", err)
	}
	e.heldFunds[currency] = safe.Sub(e.heldFunds[currency], amount)
	return nil
}

// HeldFunds returns the units of currency currently in custody.
func (e *EscrowLedger) HeldFunds(currency string) int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.heldFunds[currency]
}

// VerifyInvariant checks that custody accounting is internally consistent.
func (e *EscrowLedger) VerifyInvariant() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for currency, held := range e.heldFunds {
		if held < 0 {
			panic(fmt.Sprintf("ESCROW_INVARIANT_NEGATIVE_FUNDS: %s = %d", currency, held))
		}
	}
}
