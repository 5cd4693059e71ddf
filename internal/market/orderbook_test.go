package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market_go/internal/domain"
	"market_go/internal/event"
)

func TestCreateOrder(t *testing.T) {
	t.Run("Happy path escrows the asset", func(t *testing.T) {
		f := newFixtures(25000)
		o, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		require.NoError(t, err)

		assert.NotEmpty(t, o.ID)
		assert.Equal(t, testSeller, o.Seller)
		assert.Equal(t, int64(100), o.PriceUnits)

		holder, err := f.reg.OwnerOf(testAsset)
		require.NoError(t, err)
		assert.Equal(t, f.escrow.Account(), holder, "asset must sit in marketplace custody")
		assert.True(t, f.escrow.HoldsAsset(o.Key()))
		assert.Equal(t, []string{"OrderCreated"}, f.events.kinds())
	})

	t.Run("Only the asset owner can list", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testBidder, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Zero price rejected", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 0, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrInvalidPrice)
	})

	t.Run("Expiry must clear the one-minute window", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Minute))
		assert.ErrorIs(t, err, domain.ErrInvalidExpiry)

		_, err = f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Minute+time.Second))
		assert.NoError(t, err)
	})

	t.Run("Unknown registry", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, "no-such-gallery", testAsset, testNative, 100, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrUnknownRegistry)
	})

	t.Run("Unknown currency", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, "DOGE", 100, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrUnknownCurrency)
	})

	t.Run("Relisting an escrowed asset is rejected", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		require.NoError(t, err)
		_, err = f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 200, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}

func TestUpdateOrder(t *testing.T) {
	t.Run("Mutates terms in place without re-escrow", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		require.NoError(t, err)

		o, err := f.mp.UpdateOrder(testSeller, testRegistry, testAsset, testStable, 250, f.expiry(2*time.Hour))
		require.NoError(t, err)
		assert.Equal(t, testStable, o.Currency)
		assert.Equal(t, int64(250), o.PriceUnits)

		holder, _ := f.reg.OwnerOf(testAsset)
		assert.Equal(t, testEscrow, holder)
		assert.Equal(t, []string{"OrderCreated", "OrderUpdated"}, f.events.kinds())
	})

	t.Run("NotFound without a listing", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.UpdateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Only the seller may update", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		require.NoError(t, err)
		_, err = f.mp.UpdateOrder(testBidder, testRegistry, testAsset, testNative, 250, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Expired orders cannot be updated", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		require.NoError(t, err)
		f.clock.Advance(2 * time.Hour)
		_, err = f.mp.UpdateOrder(testSeller, testRegistry, testAsset, testNative, 250, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrExpired)
	})
}

func TestCancelOrder(t *testing.T) {
	t.Run("Returns the asset to the seller", func(t *testing.T) {
		f := newFixtures(25000)
		key := domain.AssetKey{Registry: testRegistry, AssetID: testAsset}
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		require.NoError(t, err)
		assert.True(t, f.escrow.HoldsAsset(key))

		require.NoError(t, f.mp.CancelOrder(testSeller, testRegistry, testAsset))

		holder, _ := f.reg.OwnerOf(testAsset)
		assert.Equal(t, testSeller, holder)
		assert.False(t, f.escrow.HoldsAsset(key))
		_, found := f.mp.Order(testRegistry, testAsset)
		assert.False(t, found)
		assert.Equal(t, []string{"OrderCreated", "OrderCancelled"}, f.events.kinds())

		// The event carries the delisted terms, not just ids.
		ev, ok := f.events.last().(event.OrderCancelled)
		require.True(t, ok)
		assert.Equal(t, testNative, ev.Currency)
		assert.Equal(t, int64(100), ev.PriceUnits)
	})

	t.Run("Strangers cannot cancel", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		require.NoError(t, err)
		assert.ErrorIs(t, f.mp.CancelOrder(testBidder, testRegistry, testAsset), domain.ErrUnauthorized)
	})

	t.Run("Marketplace owner override", func(t *testing.T) {
		f := newFixtures(25000)
		_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
		require.NoError(t, err)

		require.NoError(t, f.mp.CancelOrder(testOwner, testRegistry, testAsset))
		holder, _ := f.reg.OwnerOf(testAsset)
		assert.Equal(t, testSeller, holder, "override still returns the asset to the seller")
	})
}

func TestValidOrderGate(t *testing.T) {
	f := newFixtures(25000)
	_, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	t.Run("Expired order blocks bidding but stays queryable", func(t *testing.T) {
		_, err := f.mp.PlaceBid(testBidder, testRegistry, testAsset, testNative, 50, f.expiry(time.Hour))
		assert.ErrorIs(t, err, domain.ErrExpired)

		o, found := f.mp.Order(testRegistry, testAsset)
		assert.True(t, found, "expired entries stay until the next touch")
		assert.True(t, o.ExpiredAt(f.clock.Now().Unix()))
	})

	t.Run("Expired order blocks execution", func(t *testing.T) {
		err := f.mp.ExecuteOrder(testBidder, testRegistry, testAsset, testNative, 100)
		assert.ErrorIs(t, err, domain.ErrExpired)
	})
}

func TestOrderIDDerivation(t *testing.T) {
	f := newFixtures(25000)
	o, err := f.mp.CreateOrder(testSeller, testRegistry, testAsset, testNative, 100, f.expiry(time.Hour))
	require.NoError(t, err)

	assert.Len(t, o.ID, 64, "sha256 hex")

	ev, ok := f.events.last().(event.OrderCreated)
	require.True(t, ok)
	assert.Equal(t, o.ID, ev.OrderID)

	// Different terms hash to a different id.
	other := deriveOrderID(o.CreatedAtUnix, testSeller, domain.AssetKey{Registry: testRegistry, AssetID: testAsset}, testNative, 101)
	assert.NotEqual(t, o.ID, other)
}
