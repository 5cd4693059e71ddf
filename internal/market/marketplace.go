package market

import (
	"hash/fnv"
	"sync"

	"market_go/internal/domain"
	"market_go/internal/event"
	"market_go/internal/infra"
)

// Marketplace is the public façade over the order book, bid engine, fee
// manager and escrow ledger. It owns caller authorization, currency and
// registry resolution, and the per-key transaction boundary: one striped
// mutex per asset key serializes every operation touching that key, so each
// call runs to completion with no interleaving. Operations on different keys
// never contend.
type Marketplace struct {
	owner      string
	clock      domain.Clock
	registries domain.RegistryResolver
	currencies *CurrencyRegistry
	fees       *FeeManager
	escrow     *EscrowLedger
	orders     *OrderBook
	bids       *BidEngine
	metrics    *infra.Metrics

	locks [64]sync.Mutex
}

// NewMarketplace wires the engine together. owner is the administrative
// principal: it receives fees, may adjust the cut, extend the currency
// allow-list, and override cancellations.
func NewMarketplace(owner string, registries domain.RegistryResolver, currencies *CurrencyRegistry, fees *FeeManager, escrow *EscrowLedger, clock domain.Clock, events event.Sink, metrics *infra.Metrics) *Marketplace {
	return &Marketplace{
		owner:      owner,
		clock:      clock,
		registries: registries,
		currencies: currencies,
		fees:       fees,
		escrow:     escrow,
		orders:     NewOrderBook(escrow, clock, events),
		bids:       NewBidEngine(escrow, currencies, clock, events),
		metrics:    metrics,
	}
}

// Owner returns the administrative principal.
func (m *Marketplace) Owner() string { return m.owner }

// Currencies exposes the accepted-currency registry for read access.
func (m *Marketplace) Currencies() *CurrencyRegistry { return m.currencies }

// Fees exposes the fee manager for read access.
func (m *Marketplace) Fees() *FeeManager { return m.fees }

func (m *Marketplace) lockKey(key domain.AssetKey) func() {
	h := fnv.New32a()
	h.Write([]byte(key.Registry))
	h.Write([]byte{0})
	h.Write([]byte(key.AssetID))
	mu := &m.locks[h.Sum32()%uint32(len(m.locks))]
	mu.Lock()
	return mu.Unlock
}

// fail counts a rejected operation and passes the error through.
func (m *Marketplace) fail(err error) error {
	m.metrics.RecordError()
	return err
}

// resolve validates the registry identifier and the currency symbol before
// any state is touched.
func (m *Marketplace) resolve(registry, currency string) (domain.AssetRegistry, error) {
	reg, ok := m.registries.Registry(registry)
	if !ok || !reg.SupportsAssetInterface() {
		return nil, domain.ErrUnknownRegistry
	}
	if currency != "" {
		if _, err := m.currencies.Ledger(currency); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// CreateOrder lists an asset for sale, moving it into escrow.
func (m *Marketplace) CreateOrder(caller, registry, assetID, currency string, price, expiresAt int64) (domain.Order, error) {
	reg, err := m.resolve(registry, currency)
	if err != nil {
		return domain.Order{}, m.fail(err)
	}
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()

	o, err := m.orders.Create(caller, reg, key, currency, price, expiresAt)
	if err != nil {
		return domain.Order{}, m.fail(err)
	}
	m.metrics.RecordOrderCreated()
	return *o, nil
}

// UpdateOrder changes price/currency/expiry of an active listing in place.
func (m *Marketplace) UpdateOrder(caller, registry, assetID, currency string, price, expiresAt int64) (domain.Order, error) {
	if _, err := m.resolve(registry, currency); err != nil {
		return domain.Order{}, m.fail(err)
	}
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()

	o, err := m.orders.Update(caller, key, currency, price, expiresAt)
	if err != nil {
		return domain.Order{}, m.fail(err)
	}
	return *o, nil
}

// CancelOrder delists an asset. If a bid stands at the key it is refunded
// first, then the asset returns to the seller; both steps run inside one key
// transaction. The marketplace owner may cancel on the seller's behalf.
func (m *Marketplace) CancelOrder(caller, registry, assetID string) error {
	reg, err := m.resolve(registry, "")
	if err != nil {
		return m.fail(err)
	}
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()

	o, ok := m.orders.Get(key)
	if !ok {
		return m.fail(domain.ErrNotFound)
	}
	effective := caller
	if caller == m.owner {
		effective = o.Seller
	}
	if effective != o.Seller {
		return m.fail(domain.ErrUnauthorized)
	}

	if _, ok := m.bids.Get(key); ok {
		if err := m.bids.CancelForOrder(key); err != nil {
			return m.fail(err)
		}
		m.metrics.RecordBidRefunded()
	}
	if err := m.orders.Cancel(effective, reg, key); err != nil {
		return m.fail(err)
	}
	m.metrics.RecordOrderCancelled()
	return nil
}

// ExecuteOrder is the direct purchase path: the buyer pays the listed price
// in the listed currency, split between seller and owner with the
// primary-currency discount, and the asset leaves escrow to the buyer. A
// standing bid at the key is refunded as part of the same transaction.
func (m *Marketplace) ExecuteOrder(caller, registry, assetID, currency string, price int64) error {
	reg, err := m.resolve(registry, currency)
	if err != nil {
		return m.fail(err)
	}
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()

	o, err := m.orders.ValidOrder(key)
	if err != nil {
		return m.fail(err)
	}
	if currency != o.Currency || price != o.PriceUnits {
		return m.fail(domain.ErrInvalidPrice)
	}

	ledger, err := m.currencies.Ledger(currency)
	if err != nil {
		return m.fail(err)
	}
	// Pull the full price in one transfer so a buyer without funds fails
	// before any value moves, then settle both shares out of escrow.
	if err := m.escrow.HoldFunds(ledger, currency, caller, price); err != nil {
		return m.fail(err)
	}
	ownerShare, sellerNet := m.fees.ExecutionSplit(price, m.currencies.IsPrimary(currency))
	if err := m.escrow.ReleaseFunds(ledger, currency, m.owner, ownerShare); err != nil {
		return m.fail(err)
	}
	if err := m.escrow.ReleaseFunds(ledger, currency, o.Seller, sellerNet); err != nil {
		return m.fail(err)
	}

	// A bid cannot outlive its order; refund the orphan before the sale
	// event lands.
	if _, ok := m.bids.Get(key); ok {
		if err := m.bids.CancelForOrder(key); err != nil {
			return m.fail(err)
		}
		m.metrics.RecordBidRefunded()
	}

	if err := m.orders.Execute(reg, key, caller, price, ownerShare); err != nil {
		return m.fail(err)
	}
	m.metrics.RecordOrderExecuted(price, ownerShare)
	return nil
}

// PlaceBid offers to buy the asset under an active order, escrowing the
// bidder's funds. A standing unexpired bid must be strictly outbid.
func (m *Marketplace) PlaceBid(caller, registry, assetID, currency string, price, expiresAt int64) (domain.Bid, error) {
	if _, err := m.resolve(registry, currency); err != nil {
		return domain.Bid{}, m.fail(err)
	}
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()

	o, err := m.orders.ValidOrder(key)
	if err != nil {
		return domain.Bid{}, m.fail(err)
	}
	bid, err := m.bids.Create(caller, o, currency, price, expiresAt)
	if err != nil {
		return domain.Bid{}, m.fail(err)
	}
	m.metrics.RecordBidPlaced()
	return *bid, nil
}

// CancelBid refunds and removes the caller's bid. The marketplace owner may
// cancel on the bidder's behalf.
func (m *Marketplace) CancelBid(caller, registry, assetID, currency string) error {
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()

	bid, ok := m.bids.Get(key)
	if !ok {
		return m.fail(domain.ErrNotFound)
	}
	effective := caller
	if caller == m.owner {
		effective = bid.Bidder
	}
	if err := m.bids.Cancel(effective, key, currency); err != nil {
		return m.fail(err)
	}
	m.metrics.RecordBidRefunded()
	return nil
}

// AcceptBid lets the seller take the standing bid: escrowed funds settle to
// seller and owner, then the asset leaves escrow to the bidder.
func (m *Marketplace) AcceptBid(caller, registry, assetID, currency string, price int64) error {
	reg, err := m.resolve(registry, currency)
	if err != nil {
		return m.fail(err)
	}
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()

	o, err := m.orders.ValidOrder(key)
	if err != nil {
		return m.fail(err)
	}
	bid, fee, err := m.bids.Accept(caller, o, currency, price, m.fees)
	if err != nil {
		return m.fail(err)
	}
	if err := m.orders.Execute(reg, key, bid.Bidder, bid.PriceUnits, fee); err != nil {
		return m.fail(err)
	}
	m.metrics.RecordBidAccepted()
	m.metrics.RecordOrderExecuted(bid.PriceUnits, fee)
	return nil
}

// Order returns a copy of the listing at (registry, assetID), expired or
// not. Expired entries stay queryable until the next touch removes them.
func (m *Marketplace) Order(registry, assetID string) (domain.Order, bool) {
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()
	return m.orders.Get(key)
}

// Bid returns a copy of the standing bid at (registry, assetID).
func (m *Marketplace) Bid(registry, assetID string) (domain.Bid, bool) {
	key := domain.AssetKey{Registry: registry, AssetID: assetID}
	defer m.lockKey(key)()
	return m.bids.Get(key)
}

// SetCutPerMillion updates the marketplace fee rate. Owner-gated.
func (m *Marketplace) SetCutPerMillion(caller string, cut int64) error {
	if err := m.fees.SetCutPerMillion(caller, cut); err != nil {
		return m.fail(err)
	}
	return nil
}

// AddAcceptedCurrency extends the currency allow-list. Owner-gated,
// append-only.
func (m *Marketplace) AddAcceptedCurrency(caller, symbol string, ledger domain.CurrencyLedger, decimals int32) error {
	if err := m.currencies.Add(caller, symbol, ledger, decimals); err != nil {
		return m.fail(err)
	}
	return nil
}

// ReapExpired sweeps expired listings: each gets its standing bid refunded
// and its asset released back to the seller, per key, inside that key's
// transaction. Owner-gated and explicitly invoked; the engine never sweeps
// in the background, expired entries otherwise stay until their next touch.
// Returns the number of listings reaped.
func (m *Marketplace) ReapExpired(caller string) (int, error) {
	if caller != m.owner {
		return 0, m.fail(domain.ErrUnauthorized)
	}
	now := m.clock.Now().Unix()

	reaped := 0
	for _, key := range m.orders.ExpiredKeys(now) {
		unlock := m.lockKey(key)
		o, ok := m.orders.Get(key)
		if !ok || !o.ExpiredAt(now) {
			unlock()
			continue
		}
		reg, ok := m.registries.Registry(key.Registry)
		if !ok {
			unlock()
			return reaped, m.fail(domain.ErrUnknownRegistry)
		}
		if _, ok := m.bids.Get(key); ok {
			if err := m.bids.CancelForOrder(key); err != nil {
				unlock()
				return reaped, m.fail(err)
			}
			m.metrics.RecordBidRefunded()
		}
		if err := m.orders.Cancel(o.Seller, reg, key); err != nil {
			unlock()
			return reaped, m.fail(err)
		}
		m.metrics.RecordOrderCancelled()
		reaped++
		unlock()
	}
	return reaped, nil
}
