// Package ledger provides in-memory implementations of the external
// collaborators the marketplace engine trades against: an asset registry
// holding unique assets and a currency ledger moving fungible balances.
// They back the demo app and the engine tests; a production deployment
// substitutes real registry/ledger adapters behind the same interfaces.
package ledger

import (
	"fmt"
	"sync"

	"market_go/internal/domain"
	"market_go/pkg/safe"
)

// Registry is an in-memory AssetRegistry: assetID -> owning principal.
type Registry struct {
	mu     sync.Mutex
	id     string
	owners map[string]string
}

// NewRegistry creates an empty registry identified by id.
func NewRegistry(id string) *Registry {
	return &Registry{id: id, owners: make(map[string]string)}
}

// ID returns the registry identifier.
func (r *Registry) ID() string { return r.id }

// Mint assigns a fresh asset to owner. Panics if the id is already minted.
func (r *Registry) Mint(owner, assetID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.owners[assetID]; ok {
		panic(fmt.Sprintf("asset %s already minted in %s", assetID, r.id))
	}
	r.owners[assetID] = owner
}

func (r *Registry) OwnerOf(assetID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[assetID]
	if !ok {
		return "", fmt.Errorf("asset %s not minted in %s", assetID, r.id)
	}
	return owner, nil
}

func (r *Registry) Transfer(from, to, assetID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[assetID]
	if !ok {
		return fmt.Errorf("asset %s not minted in %s", assetID, r.id)
	}
	if owner != from {
		return fmt.Errorf("asset %s held by %s, not %s", assetID, owner, from)
	}
	r.owners[assetID] = to
	return nil
}

func (r *Registry) SupportsAssetInterface() bool { return true }

// Ledger is an in-memory CurrencyLedger. Transfer spends from the bound
// marketplace escrow account, mirroring a token contract where the
// marketplace itself is the sender.
type Ledger struct {
	mu       sync.Mutex
	symbol   string
	account  string // marketplace escrow principal
	balances map[string]int64
}

// NewLedger creates an empty ledger for symbol bound to escrowAccount.
func NewLedger(symbol, escrowAccount string) *Ledger {
	return &Ledger{symbol: symbol, account: escrowAccount, balances: make(map[string]int64)}
}

// Symbol returns the currency symbol this ledger tracks.
func (l *Ledger) Symbol() string { return l.symbol }

// Credit adds amount to principal's balance (test/demo funding).
func (l *Ledger) Credit(principal string, amount int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[principal] = safe.Add(l.balances[principal], amount)
}

// BalanceOf returns principal's current balance.
func (l *Ledger) BalanceOf(principal string) int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[principal]
}

func (l *Ledger) TransferFrom(payer, payee string, amount int64) error {
	if amount < 0 {
		return fmt.Errorf("negative amount %d", amount)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[payer] < amount {
		return fmt.Errorf("%s: insufficient %s balance: have %d, need %d",
			payer, l.symbol, l.balances[payer], amount)
	}
	l.balances[payer] = safe.Sub(l.balances[payer], amount)
	l.balances[payee] = safe.Add(l.balances[payee], amount)
	return nil
}

func (l *Ledger) Transfer(payee string, amount int64) error {
	return l.TransferFrom(l.account, payee, amount)
}

// StaticRegistries is a fixed id -> registry map satisfying RegistryResolver.
type StaticRegistries map[string]domain.AssetRegistry

func (s StaticRegistries) Registry(id string) (domain.AssetRegistry, bool) {
	reg, ok := s[id]
	return reg, ok
}
