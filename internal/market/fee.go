package market

import (
	"fmt"
	"sync"

	"market_go/internal/domain"
	"market_go/pkg/safe"
)

// FeeDenominator is the resolution of the marketplace cut (parts per million).
const FeeDenominator = 1_000_000

// FeeManager holds the marketplace cut and computes fee splits. The rate in
// effect at execution/acceptance time applies, never a snapshot taken at
// order or bid creation.
type FeeManager struct {
	mu            sync.RWMutex
	owner         string
	cutPerMillion int64
}

// NewFeeManager creates a fee manager owned by owner. cutPerMillion must be
// within [0, FeeDenominator].
func NewFeeManager(owner string, cutPerMillion int64) (*FeeManager, error) {
	if cutPerMillion < 0 || cutPerMillion > FeeDenominator {
		return nil, fmt.Errorf("cut per million out of range: %d", cutPerMillion)
	}
	return &FeeManager{owner: owner, cutPerMillion: cutPerMillion}, nil
}

// Owner returns the principal receiving marketplace fees.
func (f *FeeManager) Owner() string { return f.owner }

// CutPerMillion returns the current fee rate.
func (f *FeeManager) CutPerMillion() int64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cutPerMillion
}

// SetCutPerMillion updates the fee rate. Owner-gated.
func (f *FeeManager) SetCutPerMillion(caller string, cut int64) error {
	if caller != f.owner {
		return domain.ErrUnauthorized
	}
	if cut < 0 || cut > FeeDenominator {
		return fmt.Errorf("cut per million out of range: %d", cut)
	}
	f.mu.Lock()
	f.cutPerMillion = cut
	f.mu.Unlock()
	return nil
}

// Fee computes floor(amount * cut / 1e6) at the current rate.
func (f *FeeManager) Fee(amount int64) int64 {
	return safe.MulDiv(amount, f.CutPerMillion(), FeeDenominator)
}

// ExecutionSplit returns the owner share and seller net for a direct order
// execution at price. The primary currency pays a halved owner share; every
// other currency pays the full computed fee. The discount comes out of the
// seller's proceeds, never the buyer's payment: ownerShare+sellerNet == price.
func (f *FeeManager) ExecutionSplit(price int64, primary bool) (ownerShare, sellerNet int64) {
	ownerShare = f.Fee(price)
	if primary {
		ownerShare /= 2
	}
	return ownerShare, safe.Sub(price, ownerShare)
}

// AcceptanceSplit returns the fee and seller net when a bid is accepted.
// Bid acceptance always charges the full fee; the primary-currency discount
// applies only to the direct execution path.
func (f *FeeManager) AcceptanceSplit(price int64) (fee, sellerNet int64) {
	fee = f.Fee(price)
	return fee, safe.Sub(price, fee)
}
