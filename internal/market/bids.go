package market

import (
	"sync"

	"market_go/internal/domain"
	"market_go/internal/event"
)

// BidEngine enforces the bid lifecycle per asset key:
// Absent -> Active -> {Replaced, Cancelled, Accepted}, collapsing to Absent.
// At most one bid stands per key; a better bid replaces it, refunding the
// previous bidder in full. Per-key serialization is the façade's job; the
// engine's own mutex only guards the shared map against cross-key access.
type BidEngine struct {
	mu         sync.RWMutex
	bids       map[domain.AssetKey]*domain.Bid
	escrow     *EscrowLedger
	currencies *CurrencyRegistry
	clock      domain.Clock
	events     event.Sink
}

func NewBidEngine(escrow *EscrowLedger, currencies *CurrencyRegistry, clock domain.Clock, events event.Sink) *BidEngine {
	return &BidEngine{
		bids:       make(map[domain.AssetKey]*domain.Bid),
		escrow:     escrow,
		currencies: currencies,
		clock:      clock,
		events:     events,
	}
}

// Create places a bid against order, escrowing the bidder's funds. A standing
// unexpired bid must be strictly outbid; a standing expired bid only needs a
// positive price. Either way the standing bid is refunded before the new
// escrow is established; bids replace, they never queue.
func (e *BidEngine) Create(caller string, order *domain.Order, currency string, price, expiresAt int64) (*domain.Bid, error) {
	key := order.Key()
	now := e.clock.Now().Unix()

	// A bid never outlives its parent order.
	if expiresAt > order.ExpiresAtUnix {
		expiresAt = order.ExpiresAtUnix
	}

	e.mu.RLock()
	prior, hasPrior := e.bids[key]
	e.mu.RUnlock()
	if hasPrior && !prior.ExpiredAt(now) {
		// A live standing bid must be strictly outbid. A positive price
		// follows for free since the standing price is positive.
		if price <= prior.PriceUnits {
			return nil, domain.ErrInvalidBid
		}
	} else if price <= 0 {
		return nil, domain.ErrInvalidPrice
	}

	ledger, err := e.currencies.Ledger(currency)
	if err != nil {
		return nil, err
	}

	// Pull the new bidder's funds before touching the standing bid: a
	// failed pull (insufficient balance) must leave no partial state. The
	// standing bid is still refunded and removed before the new bid is
	// stored and announced.
	if err := e.escrow.HoldFunds(ledger, currency, caller, price); err != nil {
		return nil, err
	}
	if hasPrior {
		if err := e.refund(prior, key, now); err != nil {
			return nil, err
		}
	}

	bid := &domain.Bid{
		ID:            deriveBidID(now, caller, order.ID, price, expiresAt),
		Bidder:        caller,
		OrderID:       order.ID,
		Currency:      currency,
		PriceUnits:    price,
		ExpiresAtUnix: expiresAt,
		CreatedAtUnix: now,
	}
	e.mu.Lock()
	e.bids[key] = bid
	e.mu.Unlock()

	e.events.Emit(event.BidCreated{
		BaseEvent:     event.BaseEvent{Ts: now},
		BidID:         bid.ID,
		OrderID:       bid.OrderID,
		Bidder:        bid.Bidder,
		Registry:      key.Registry,
		AssetID:       key.AssetID,
		Currency:      bid.Currency,
		PriceUnits:    bid.PriceUnits,
		ExpiresAtUnix: bid.ExpiresAtUnix,
	})
	return bid, nil
}

// Cancel refunds the bidder and removes the bid. The owner-level override
// lives at the façade, which passes the bidder as effective caller.
func (e *BidEngine) Cancel(caller string, key domain.AssetKey, currency string) error {
	e.mu.RLock()
	bid, ok := e.bids[key]
	e.mu.RUnlock()
	if !ok {
		return domain.ErrNotFound
	}
	if caller != bid.Bidder {
		return domain.ErrUnauthorized
	}
	if currency != bid.Currency {
		return domain.ErrInvalidBid
	}
	return e.refund(bid, key, e.clock.Now().Unix())
}

// CancelForOrder refunds whatever bid stands at key as part of a cascading
// order cancellation or direct execution. No authorization: the cascade runs
// inside the parent order's transaction.
func (e *BidEngine) CancelForOrder(key domain.AssetKey) error {
	e.mu.RLock()
	bid, ok := e.bids[key]
	e.mu.RUnlock()
	if !ok {
		return nil
	}
	return e.refund(bid, key, e.clock.Now().Unix())
}

// Accept settles the standing bid: full fee to the marketplace owner, the
// remainder to the seller, both out of escrow. The caller must be the order's
// seller and price must match the stored bid exactly. Asset transfer happens
// upstream via OrderBook.Execute with the returned bid and fee.
func (e *BidEngine) Accept(caller string, order *domain.Order, currency string, price int64, fees *FeeManager) (*domain.Bid, int64, error) {
	key := order.Key()
	e.mu.RLock()
	bid, ok := e.bids[key]
	e.mu.RUnlock()
	if !ok {
		return nil, 0, domain.ErrNotFound
	}
	if caller != order.Seller {
		return nil, 0, domain.ErrUnauthorized
	}
	if price != bid.PriceUnits || currency != bid.Currency {
		return nil, 0, domain.ErrInvalidBid
	}
	now := e.clock.Now().Unix()
	if bid.ExpiredAt(now) {
		return nil, 0, domain.ErrExpired
	}

	ledger, err := e.currencies.Ledger(bid.Currency)
	if err != nil {
		return nil, 0, err
	}

	fee, sellerNet := fees.AcceptanceSplit(price)
	if err := e.escrow.ReleaseFunds(ledger, bid.Currency, fees.Owner(), fee); err != nil {
		return nil, 0, err
	}
	if err := e.escrow.ReleaseFunds(ledger, bid.Currency, order.Seller, sellerNet); err != nil {
		return nil, 0, err
	}
	e.mu.Lock()
	delete(e.bids, key)
	e.mu.Unlock()

	e.events.Emit(event.BidAccepted{
		BaseEvent:  event.BaseEvent{Ts: now},
		BidID:      bid.ID,
		OrderID:    bid.OrderID,
		Bidder:     bid.Bidder,
		Seller:     order.Seller,
		Registry:   key.Registry,
		AssetID:    key.AssetID,
		Currency:   bid.Currency,
		PriceUnits: bid.PriceUnits,
		FeeUnits:   fee,
	})
	return bid, fee, nil
}

// Get returns a copy of the bid at key, expired or not.
func (e *BidEngine) Get(key domain.AssetKey) (domain.Bid, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	bid, ok := e.bids[key]
	if !ok {
		return domain.Bid{}, false
	}
	return *bid, true
}

// refund releases the full escrowed amount back to the bidder, removes the
// bid, and emits BidCancelled.
func (e *BidEngine) refund(bid *domain.Bid, key domain.AssetKey, now int64) error {
	ledger, err := e.currencies.Ledger(bid.Currency)
	if err != nil {
		return err
	}
	if err := e.escrow.ReleaseFunds(ledger, bid.Currency, bid.Bidder, bid.PriceUnits); err != nil {
		return err
	}
	e.mu.Lock()
	delete(e.bids, key)
	e.mu.Unlock()

	e.events.Emit(event.BidCancelled{
		BaseEvent:   event.BaseEvent{Ts: now},
		BidID:       bid.ID,
		OrderID:     bid.OrderID,
		Bidder:      bid.Bidder,
		Registry:    key.Registry,
		AssetID:     key.AssetID,
		Currency:    bid.Currency,
		RefundUnits: bid.PriceUnits,
	})
	return nil
}
