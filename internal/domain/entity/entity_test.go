package entity_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
)

func TestBuildConditions(t *testing.T) {
	rq := require.New(t)

	token := value.Currency("usdc.example.near")
	price := decimal.NewFromInt(1000)
	later := decimal.NewFromInt(1200)

	conditions := entity.BuildConditions([]entity.PriceCondition{
		{Price: &price},
		{Currency: &token},
		{Price: &later},
	})

	rq.Len(conditions, 2)
	rq.True(later.Equal(conditions[value.NativeCurrency]), "last write wins")
	rq.True(conditions[token].IsZero(), "absent price is a zero placeholder")

	rq.Empty(entity.BuildConditions(nil))
}

func TestSettlementStatusTransitions(t *testing.T) {
	rq := require.New(t)

	testCases := []struct {
		from entity.SettlementStatus
		to   entity.SettlementStatus
		ok   bool
	}{
		{from: entity.SettlementReserved, to: entity.SettlementAwaitingResult, ok: true},
		{from: entity.SettlementAwaitingResult, to: entity.SettlementPaid, ok: true},
		{from: entity.SettlementAwaitingResult, to: entity.SettlementRefunded, ok: true},
		{from: entity.SettlementReserved, to: entity.SettlementPaid},
		{from: entity.SettlementReserved, to: entity.SettlementRefunded},
		{from: entity.SettlementPaid, to: entity.SettlementRefunded},
		{from: entity.SettlementRefunded, to: entity.SettlementAwaitingResult},
		{from: entity.SettlementAwaitingResult, to: entity.SettlementReserved},
	}

	for _, tc := range testCases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(*testing.T) {
			rq.Equal(tc.ok, tc.from.CanTransitionTo(tc.to))
		})
	}

	rq.True(entity.SettlementPaid.IsResolved())
	rq.True(entity.SettlementRefunded.IsResolved())
	rq.False(entity.SettlementAwaitingResult.IsResolved())
}

func TestPayout(t *testing.T) {
	rq := require.New(t)

	payout := entity.Payout{
		"platform.near": decimal.NewFromInt(30),
		"alice.near":    decimal.NewFromInt(970),
	}

	rq.True(decimal.NewFromInt(1000).Equal(payout.Sum()))
	rq.Equal([]value.AccountID{"alice.near", "platform.near"}, payout.Receivers())
	rq.True(entity.Payout{}.Sum().IsZero())
}

func TestSaleClone(t *testing.T) {
	rq := require.New(t)

	sale := &entity.Sale{
		CollectionID: "nft.near",
		AssetID:      "1",
		OwnerID:      "alice.near",
		Conditions:   map[value.Currency]decimal.Decimal{value.NativeCurrency: decimal.NewFromInt(5)},
	}

	clone := sale.Clone()
	clone.Conditions[value.NativeCurrency] = decimal.NewFromInt(6)

	rq.True(decimal.NewFromInt(5).Equal(sale.Conditions[value.NativeCurrency]))
	rq.NotNil(clone.Bids)
	rq.Equal(value.ListingKey("nft.near:1"), sale.Key())
	rq.True(sale.IsOwnedBy("alice.near"))
	rq.False(sale.IsOwnedBy("bob.near"))
}
