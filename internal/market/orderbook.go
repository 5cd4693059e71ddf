package market

import (
	"sync"
	"time"

	"market_go/internal/domain"
	"market_go/internal/event"
)

// MinListingWindow is how far in the future a new or updated expiry must sit.
const MinListingWindow = time.Minute

// OrderBook enforces the order lifecycle per asset key:
// Absent -> Active -> {Cancelled, Executed}, terminal states collapsing back
// to Absent in the store. The Marketplace façade serializes whole operations
// per key; the book's own mutex only guards the shared map and in-place
// field mutation against cross-key access.
type OrderBook struct {
	mu     sync.RWMutex
	orders map[domain.AssetKey]*domain.Order
	escrow *EscrowLedger
	clock  domain.Clock
	events event.Sink
}

func NewOrderBook(escrow *EscrowLedger, clock domain.Clock, events event.Sink) *OrderBook {
	return &OrderBook{
		orders: make(map[domain.AssetKey]*domain.Order),
		escrow: escrow,
		clock:  clock,
		events: events,
	}
}

// Create lists an asset for sale and moves it into marketplace escrow.
// The caller must be the asset's current owner per the external registry.
func (b *OrderBook) Create(caller string, reg domain.AssetRegistry, key domain.AssetKey, currency string, price, expiresAt int64) (*domain.Order, error) {
	// An active listing means the asset already sits in escrow, so its
	// on-registry owner cannot be the caller. The explicit check keeps the
	// one-order-per-key invariant independent of registry behavior.
	b.mu.RLock()
	_, exists := b.orders[key]
	b.mu.RUnlock()
	if exists {
		return nil, domain.ErrUnauthorized
	}

	holder, err := reg.OwnerOf(key.AssetID)
	if err != nil {
		return nil, domain.NewTransferError("query owner", err)
	}
	if holder != caller {
		return nil, domain.ErrUnauthorized
	}
	if price <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	now := b.clock.Now().Unix()
	if expiresAt <= now+int64(MinListingWindow/time.Second) {
		return nil, domain.ErrInvalidExpiry
	}

	if err := b.escrow.HoldAsset(reg, key, caller); err != nil {
		return nil, err
	}

	o := &domain.Order{
		ID:            deriveOrderID(now, caller, key, currency, price),
		Seller:        caller,
		Registry:      key.Registry,
		AssetID:       key.AssetID,
		Currency:      currency,
		PriceUnits:    price,
		ExpiresAtUnix: expiresAt,
		CreatedAtUnix: now,
	}
	b.mu.Lock()
	b.orders[key] = o
	b.mu.Unlock()

	b.events.Emit(event.OrderCreated{
		BaseEvent:     event.BaseEvent{Ts: now},
		OrderID:       o.ID,
		Seller:        o.Seller,
		Registry:      o.Registry,
		AssetID:       o.AssetID,
		Currency:      o.Currency,
		PriceUnits:    o.PriceUnits,
		ExpiresAtUnix: o.ExpiresAtUnix,
	})
	return o, nil
}

// Update mutates price/currency/expiry in place. The asset stays in escrow.
func (b *OrderBook) Update(caller string, key domain.AssetKey, currency string, price, expiresAt int64) (*domain.Order, error) {
	b.mu.RLock()
	o, ok := b.orders[key]
	b.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if caller != o.Seller {
		return nil, domain.ErrUnauthorized
	}
	now := b.clock.Now().Unix()
	if o.ExpiredAt(now) {
		return nil, domain.ErrExpired
	}
	if price <= 0 {
		return nil, domain.ErrInvalidPrice
	}
	if expiresAt <= now+int64(MinListingWindow/time.Second) {
		return nil, domain.ErrInvalidExpiry
	}

	b.mu.Lock()
	o.Currency = currency
	o.PriceUnits = price
	o.ExpiresAtUnix = expiresAt
	b.mu.Unlock()

	b.events.Emit(event.OrderUpdated{
		BaseEvent:     event.BaseEvent{Ts: now},
		OrderID:       o.ID,
		Seller:        o.Seller,
		Registry:      o.Registry,
		AssetID:       o.AssetID,
		Currency:      o.Currency,
		PriceUnits:    o.PriceUnits,
		ExpiresAtUnix: o.ExpiresAtUnix,
	})
	return o, nil
}

// Cancel releases the asset back to the seller and removes the order.
// Owner-level override happens at the façade, which passes the seller as
// effective caller; here the caller must be the seller. Any bid cascade has
// already been settled by the façade inside the same key transaction.
func (b *OrderBook) Cancel(caller string, reg domain.AssetRegistry, key domain.AssetKey) error {
	b.mu.RLock()
	o, ok := b.orders[key]
	b.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}
	if caller != o.Seller {
		return domain.ErrUnauthorized
	}

	if err := b.escrow.ReleaseAsset(reg, key, o.Seller); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.orders, key)
	b.mu.Unlock()

	b.events.Emit(event.OrderCancelled{
		BaseEvent:  event.BaseEvent{Ts: b.clock.Now().Unix()},
		OrderID:    o.ID,
		Seller:     o.Seller,
		Registry:   o.Registry,
		AssetID:    o.AssetID,
		Currency:   o.Currency,
		PriceUnits: o.PriceUnits,
	})
	return nil
}

// ValidOrder is the precondition gate for every operation touching an
// existing order: NotFound if absent, Expired if past expiry.
func (b *OrderBook) ValidOrder(key domain.AssetKey) (*domain.Order, error) {
	b.mu.RLock()
	o, ok := b.orders[key]
	b.mu.RUnlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	if o.ExpiredAt(b.clock.Now().Unix()) {
		return nil, domain.ErrExpired
	}
	return o, nil
}

// Execute transfers the escrowed asset to buyer and removes the order. This
// is the only path by which an asset leaves escrow to a non-seller party.
// Validation (order validity, terms, settlement) happens upstream; price and
// fee are the settled amounts, reported on the event.
func (b *OrderBook) Execute(reg domain.AssetRegistry, key domain.AssetKey, buyer string, price, fee int64) error {
	b.mu.RLock()
	o, ok := b.orders[key]
	b.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}

	if err := b.escrow.ReleaseAsset(reg, key, buyer); err != nil {
		return err
	}
	b.mu.Lock()
	delete(b.orders, key)
	b.mu.Unlock()

	b.events.Emit(event.OrderSuccessful{
		BaseEvent:  event.BaseEvent{Ts: b.clock.Now().Unix()},
		OrderID:    o.ID,
		Seller:     o.Seller,
		Buyer:      buyer,
		Registry:   o.Registry,
		AssetID:    o.AssetID,
		Currency:   o.Currency,
		PriceUnits: price,
		FeeUnits:   fee,
	})
	return nil
}

// Get returns a copy of the order at key, expired or not. Expired entries
// stay queryable until the next operation on their key removes them.
func (b *OrderBook) Get(key domain.AssetKey) (domain.Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	o, ok := b.orders[key]
	if !ok {
		return domain.Order{}, false
	}
	return *o, true
}

// ExpiredKeys returns every key whose order is past expiry at nowUnix.
func (b *OrderBook) ExpiredKeys(nowUnix int64) []domain.AssetKey {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var keys []domain.AssetKey
	for key, o := range b.orders {
		if o.ExpiredAt(nowUnix) {
			keys = append(keys, key)
		}
	}
	return keys
}
