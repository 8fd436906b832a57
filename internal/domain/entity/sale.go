package entity

import (
	"maps"
	"time"

	"github.com/shopspring/decimal"

	"nft_market/internal/domain/value"
)

// Bid is reserved for an offer subsystem; nothing populates it yet.
type Bid struct {
	OwnerID value.AccountID `json:"owner_id"`
	Price   decimal.Decimal `json:"price"`
}

type Sale struct {
	CollectionID string                             `json:"collection_id"`
	AssetID      string                             `json:"asset_id"`
	OwnerID      value.AccountID                    `json:"owner_id"`
	ApprovalID   uint64                             `json:"approval_id"`
	Conditions   map[value.Currency]decimal.Decimal `json:"conditions"`
	Bids         map[value.Currency]Bid             `json:"bids"`
	CreatedAt    time.Time                          `json:"created_at"`
	UpdatedAt    time.Time                          `json:"updated_at"`
}

// PriceCondition is one entry of the price list a seller submits. A nil
// currency means native, a nil price means "no fixed price" (stored as 0).
type PriceCondition struct {
	Currency *value.Currency
	Price    *decimal.Decimal
}

// BuildConditions folds a price list into a currency → price map. Later
// entries overwrite earlier ones for the same currency.
func BuildConditions(prices []PriceCondition) map[value.Currency]decimal.Decimal {
	conditions := make(map[value.Currency]decimal.Decimal, len(prices))

	for _, p := range prices {
		currency := value.NativeCurrency
		if p.Currency != nil && *p.Currency != "" {
			currency = *p.Currency
		}

		price := decimal.Zero
		if p.Price != nil {
			price = *p.Price
		}

		conditions[currency] = price
	}

	return conditions
}

func (s *Sale) Key() value.ListingKey {
	return value.ListingKey(s.CollectionID + value.ListingKeyDelimiter + s.AssetID)
}

func (s *Sale) PriceIn(currency value.Currency) (decimal.Decimal, bool) {
	price, ok := s.Conditions[currency]
	return price, ok
}

func (s *Sale) IsOwnedBy(account value.AccountID) bool {
	return s.OwnerID == account
}

// Clone returns a deep copy so stores never share maps with callers.
func (s *Sale) Clone() *Sale {
	c := *s
	c.Conditions = maps.Clone(s.Conditions)
	c.Bids = maps.Clone(s.Bids)

	if c.Conditions == nil {
		c.Conditions = map[value.Currency]decimal.Decimal{}
	}

	if c.Bids == nil {
		c.Bids = map[value.Currency]Bid{}
	}

	return &c
}
