package market

import (
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"market_go/internal/domain"
)

// acceptedCurrency binds a symbol to its ledger handle plus display metadata.
type acceptedCurrency struct {
	ledger   domain.CurrencyLedger
	decimals int32
}

// CurrencyRegistry is the owner-extensible allow-list of accepted currencies.
// Entries are append-only; a symbol is never removed or rebound.
type CurrencyRegistry struct {
	mu       sync.RWMutex
	owner    string
	primary  string
	accepted map[string]acceptedCurrency
}

// NewCurrencyRegistry creates an empty registry. primary names the single
// currency that receives the halved-fee discount at execution.
func NewCurrencyRegistry(owner, primary string) *CurrencyRegistry {
	return &CurrencyRegistry{
		owner:    owner,
		primary:  primary,
		accepted: make(map[string]acceptedCurrency),
	}
}

// Add accepts a new currency. Owner-gated, append-only.
func (r *CurrencyRegistry) Add(caller, symbol string, ledger domain.CurrencyLedger, decimals int32) error {
	if caller != r.owner {
		return domain.ErrUnauthorized
	}
	if symbol == "" || ledger == nil {
		return fmt.Errorf("currency requires a symbol and a ledger")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accepted[symbol]; ok {
		return fmt.Errorf("currency %s already accepted", symbol)
	}
	r.accepted[symbol] = acceptedCurrency{ledger: ledger, decimals: decimals}
	return nil
}

// Ledger resolves a symbol to its ledger handle.
func (r *CurrencyRegistry) Ledger(symbol string) (domain.CurrencyLedger, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.accepted[symbol]
	if !ok {
		return nil, domain.ErrUnknownCurrency
	}
	return c.ledger, nil
}

// IsPrimary reports whether symbol is the discounted primary currency.
func (r *CurrencyRegistry) IsPrimary(symbol string) bool {
	return symbol == r.primary
}

// Symbols returns the accepted symbols in sorted order.
func (r *CurrencyRegistry) Symbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.accepted))
	for s := range r.accepted {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// FormatAmount renders units in display notation for logs and the event
// feed, e.g. 1500000 units of a 6-decimal currency as "1.5". Core
// arithmetic never touches this path.
func (r *CurrencyRegistry) FormatAmount(symbol string, units int64) string {
	r.mu.RLock()
	c, ok := r.accepted[symbol]
	r.mu.RUnlock()
	if !ok {
		return decimal.NewFromInt(units).String()
	}
	return decimal.New(units, -c.decimals).String()
}
