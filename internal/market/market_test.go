package market

import (
	"sync"
	"time"

	"market_go/internal/event"
	"market_go/internal/infra"
	"market_go/internal/ledger"
)

// Shared fixtures for the engine tests. Principals are arbitrary strings;
// the engine never interprets them beyond equality.
const (
	testOwner    = "market-owner"
	testEscrow   = "market-escrow"
	testSeller   = "alice"
	testBidder   = "bob"
	testBidder2  = "carol"
	testRegistry = "gallery-one"
	testAsset    = "piece-42"
	testNative   = "NATIVE"
	testStable   = "USDQ"
)

// fakeClock is a settable Clock for deterministic expiry tests.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// recorder captures emitted events in order.
type recorder struct {
	mu  sync.Mutex
	evs []event.Event
}

func (r *recorder) Emit(ev event.Event) {
	r.mu.Lock()
	r.evs = append(r.evs, ev)
	r.mu.Unlock()
}

func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.evs))
	for i, ev := range r.evs {
		out[i] = ev.GetKind().String()
	}
	return out
}

func (r *recorder) last() event.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.evs) == 0 {
		return nil
	}
	return r.evs[len(r.evs)-1]
}

// fixtures bundles one marketplace with its collaborators.
type fixtures struct {
	clock   *fakeClock
	events  *recorder
	metrics *infra.Metrics
	reg     *ledger.Registry
	native  *ledger.Ledger
	stable  *ledger.Ledger
	escrow  *EscrowLedger
	mp      *Marketplace
}

// newFixtures builds a marketplace with cutPerMillion, one registry holding
// testAsset for the seller, and two funded currencies (NATIVE is primary).
func newFixtures(cutPerMillion int64) *fixtures {
	f := &fixtures{
		clock:   newFakeClock(),
		events:  &recorder{},
		metrics: infra.NewMetrics(),
		reg:     ledger.NewRegistry(testRegistry),
		native:  ledger.NewLedger(testNative, testEscrow),
		stable:  ledger.NewLedger(testStable, testEscrow),
		escrow:  NewEscrowLedger(testEscrow),
	}
	f.reg.Mint(testSeller, testAsset)
	for _, acct := range []string{testBidder, testBidder2} {
		f.native.Credit(acct, 1_000_000)
		f.stable.Credit(acct, 1_000_000)
	}

	fees, err := NewFeeManager(testOwner, cutPerMillion)
	if err != nil {
		panic(err)
	}
	currencies := NewCurrencyRegistry(testOwner, testNative)
	if err := currencies.Add(testOwner, testNative, f.native, 6); err != nil {
		panic(err)
	}
	if err := currencies.Add(testOwner, testStable, f.stable, 6); err != nil {
		panic(err)
	}

	f.mp = NewMarketplace(
		testOwner,
		ledger.StaticRegistries{testRegistry: f.reg},
		currencies,
		fees,
		f.escrow,
		f.clock,
		f.events,
		f.metrics,
	)
	return f
}

// expiry returns a unix timestamp d past the fixture clock's current time.
func (f *fixtures) expiry(d time.Duration) int64 {
	return f.clock.Now().Add(d).Unix()
}

// nativeSupply sums the tracked NATIVE balances for conservation checks.
func (f *fixtures) nativeSupply() int64 {
	total := int64(0)
	for _, acct := range []string{testOwner, testEscrow, testSeller, testBidder, testBidder2} {
		total += f.native.BalanceOf(acct)
	}
	return total
}
