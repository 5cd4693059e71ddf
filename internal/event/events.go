package event

// Kind defines the type of domain event.
type Kind uint16

const (
	EvOrderCreated Kind = iota + 1
	EvOrderUpdated
	EvOrderCancelled
	EvOrderSuccessful
	EvBidCreated
	EvBidCancelled
	EvBidAccepted
)

var kindNames = map[Kind]string{
	EvOrderCreated:    "OrderCreated",
	EvOrderUpdated:    "OrderUpdated",
	EvOrderCancelled:  "OrderCancelled",
	EvOrderSuccessful: "OrderSuccessful",
	EvBidCreated:      "BidCreated",
	EvBidCancelled:    "BidCancelled",
	EvBidAccepted:     "BidAccepted",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Event is the interface for all marketplace domain events.
// Every event carries enough terms for observers to reconstruct state
// without re-querying the engine.
type Event interface {
	GetKind() Kind
	GetTs() int64
}

// Priced is implemented by events carrying a monetary amount. Display
// surfaces use it to render smallest units in decimal notation.
type Priced interface {
	Amount() (currency string, units int64)
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	Ts int64 `json:"ts"` // Unix seconds at emission
}

func (e BaseEvent) GetTs() int64 { return e.Ts }

// OrderCreated is emitted when an asset is listed and moved into escrow.
type OrderCreated struct {
	BaseEvent
	OrderID       string `json:"order_id"`
	Seller        string `json:"seller"`
	Registry      string `json:"registry"`
	AssetID       string `json:"asset_id"`
	Currency      string `json:"currency"`
	PriceUnits    int64  `json:"price"`
	ExpiresAtUnix int64  `json:"expires_at"`
}

func (e OrderCreated) GetKind() Kind { return EvOrderCreated }

func (e OrderCreated) Amount() (string, int64) { return e.Currency, e.PriceUnits }

// OrderUpdated is emitted when price/currency/expiry change in place.
type OrderUpdated struct {
	BaseEvent
	OrderID       string `json:"order_id"`
	Seller        string `json:"seller"`
	Registry      string `json:"registry"`
	AssetID       string `json:"asset_id"`
	Currency      string `json:"currency"`
	PriceUnits    int64  `json:"price"`
	ExpiresAtUnix int64  `json:"expires_at"`
}

func (e OrderUpdated) GetKind() Kind { return EvOrderUpdated }

func (e OrderUpdated) Amount() (string, int64) { return e.Currency, e.PriceUnits }

// OrderCancelled is emitted when the asset leaves escrow back to the seller.
// It carries the delisted terms so observers need not join against the
// OrderCreated event.
type OrderCancelled struct {
	BaseEvent
	OrderID    string `json:"order_id"`
	Seller     string `json:"seller"`
	Registry   string `json:"registry"`
	AssetID    string `json:"asset_id"`
	Currency   string `json:"currency"`
	PriceUnits int64  `json:"price"`
}

func (e OrderCancelled) GetKind() Kind { return EvOrderCancelled }

func (e OrderCancelled) Amount() (string, int64) { return e.Currency, e.PriceUnits }

// OrderSuccessful is emitted when the asset leaves escrow to a buyer.
type OrderSuccessful struct {
	BaseEvent
	OrderID    string `json:"order_id"`
	Seller     string `json:"seller"`
	Buyer      string `json:"buyer"`
	Registry   string `json:"registry"`
	AssetID    string `json:"asset_id"`
	Currency   string `json:"currency"`
	PriceUnits int64  `json:"price"`
	FeeUnits   int64  `json:"fee"` // Owner share actually charged
}

func (e OrderSuccessful) GetKind() Kind { return EvOrderSuccessful }

func (e OrderSuccessful) Amount() (string, int64) { return e.Currency, e.PriceUnits }

// BidCreated is emitted when bidder funds are moved into escrow.
type BidCreated struct {
	BaseEvent
	BidID         string `json:"bid_id"`
	OrderID       string `json:"order_id"`
	Bidder        string `json:"bidder"`
	Registry      string `json:"registry"`
	AssetID       string `json:"asset_id"`
	Currency      string `json:"currency"`
	PriceUnits    int64  `json:"price"`
	ExpiresAtUnix int64  `json:"expires_at"`
}

func (e BidCreated) GetKind() Kind { return EvBidCreated }

func (e BidCreated) Amount() (string, int64) { return e.Currency, e.PriceUnits }

// BidCancelled is emitted when escrowed bid funds are refunded, whether by
// the bidder, an outbid replacement, or a cascading order cancellation.
type BidCancelled struct {
	BaseEvent
	BidID       string `json:"bid_id"`
	OrderID     string `json:"order_id"`
	Bidder      string `json:"bidder"`
	Registry    string `json:"registry"`
	AssetID     string `json:"asset_id"`
	Currency    string `json:"currency"`
	RefundUnits int64  `json:"refund"`
}

func (e BidCancelled) GetKind() Kind { return EvBidCancelled }

func (e BidCancelled) Amount() (string, int64) { return e.Currency, e.RefundUnits }

// BidAccepted is emitted when the seller takes the standing bid. The asset
// transfer itself is reported by the OrderSuccessful event that follows.
type BidAccepted struct {
	BaseEvent
	BidID      string `json:"bid_id"`
	OrderID    string `json:"order_id"`
	Bidder     string `json:"bidder"`
	Seller     string `json:"seller"`
	Registry   string `json:"registry"`
	AssetID    string `json:"asset_id"`
	Currency   string `json:"currency"`
	PriceUnits int64  `json:"price"`
	FeeUnits   int64  `json:"fee"`
}

func (e BidAccepted) GetKind() Kind { return EvBidAccepted }

func (e BidAccepted) Amount() (string, int64) { return e.Currency, e.PriceUnits }
