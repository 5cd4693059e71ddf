package market

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"market_go/internal/domain"
)

// Order and bid identifiers are content-derived: a sha256 over a canonical
// encoding of the creation terms. Unguessable and collision-resistant
// against adversarial input; uniqueness is probabilistic.

func deriveOrderID(ts int64, seller string, key domain.AssetKey, currency string, price int64) string {
	h := sha256.New()
	fmt.Fprintf(h, "order|%d|%s|%s|%s|%s|%d", ts, seller, key.Registry, key.AssetID, currency, price)
	return hex.EncodeToString(h.Sum(nil))
}

func deriveBidID(ts int64, bidder, orderID string, price, expiresAt int64) string {
	h := sha256.New()
	fmt.Fprintf(h, "bid|%d|%s|%s|%d|%d", ts, bidder, orderID, price, expiresAt)
	return hex.EncodeToString(h.Sum(nil))
}
