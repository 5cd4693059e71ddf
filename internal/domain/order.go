package domain

// AssetKey identifies one unique asset across all registries.
// At most one active Order and one active Bid may exist per key.
type AssetKey struct {
	Registry string
	AssetID  string
}

// Order represents a standing sell listing for one asset.
// All monetary values are strictly int64 in the smallest currency unit.
type Order struct {
	ID            string
	Seller        string
	Registry      string
	AssetID       string
	Currency      string
	PriceUnits    int64
	ExpiresAtUnix int64
	CreatedAtUnix int64
}

// Key returns the asset key this order is listed under.
func (o *Order) Key() AssetKey {
	return AssetKey{Registry: o.Registry, AssetID: o.AssetID}
}

// ExpiredAt reports whether the order has passed its expiry at nowUnix.
func (o *Order) ExpiredAt(nowUnix int64) bool {
	return o.ExpiresAtUnix < nowUnix
}

// Bid represents a standing buy offer against an active Order.
// While a Bid is active, PriceUnits of Currency sit in marketplace escrow.
type Bid struct {
	ID            string
	Bidder        string
	OrderID       string
	Currency      string
	PriceUnits    int64
	ExpiresAtUnix int64
	CreatedAtUnix int64
}

// ExpiredAt reports whether the bid has passed its expiry at nowUnix.
func (b *Bid) ExpiredAt(nowUnix int64) bool {
	return b.ExpiresAtUnix < nowUnix
}
