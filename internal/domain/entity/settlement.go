package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"nft_market/internal/domain/value"
)

type SettlementStatus string

// reserved → awaiting_result → paid | refunded
const (
	SettlementReserved       SettlementStatus = "reserved"
	SettlementAwaitingResult SettlementStatus = "awaiting_result"
	SettlementPaid           SettlementStatus = "paid"
	SettlementRefunded       SettlementStatus = "refunded"
)

func (s SettlementStatus) String() string {
	return string(s)
}

func (s SettlementStatus) IsResolved() bool {
	return s == SettlementPaid || s == SettlementRefunded
}

// CanTransitionTo reports whether next directly follows s.
func (s SettlementStatus) CanTransitionTo(next SettlementStatus) bool {
	switch s {
	case SettlementReserved:
		return next == SettlementAwaitingResult
	case SettlementAwaitingResult:
		return next == SettlementPaid || next == SettlementRefunded
	default:
		return false
	}
}

// Settlement is the record of one purchase, from reservation of the listing
// to payout or refund. Sale is the listing as it was when removed.
type Settlement struct {
	ID            string           `json:"id"`
	ListingKey    value.ListingKey `json:"listing_key"`
	Currency      value.Currency   `json:"currency"`
	BuyerID       value.AccountID  `json:"buyer_id"`
	Price         decimal.Decimal  `json:"price"`
	Sale          Sale             `json:"sale"`
	Status        SettlementStatus `json:"status"`
	Payout        Payout           `json:"payout,omitempty"`
	Leftover      decimal.Decimal  `json:"leftover"`
	FailureReason string           `json:"failure_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	ResolvedAt    *time.Time       `json:"resolved_at,omitempty"`
}
