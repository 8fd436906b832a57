package persistence

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
)

func TestSaleSchemaRoundTrip(t *testing.T) {
	rq := require.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sale := &entity.Sale{
		CollectionID: "nft.near",
		AssetID:      "42",
		OwnerID:      "alice.near",
		ApprovalID:   7,
		Conditions: map[value.Currency]decimal.Decimal{
			value.NativeCurrency: decimal.RequireFromString("1000000000000000000000000"),
			"usdc.near":          decimal.Zero,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	schema, err := fromSale(sale)
	rq.NoError(err)
	rq.Equal("nft.near:42", schema.ListingKey)
	rq.JSONEq(`{"bids":{}}`, `{"bids":`+string(schema.Bids)+`}`)

	got, err := schema.toDomain()
	rq.NoError(err)
	rq.Equal(sale.OwnerID, got.OwnerID)
	rq.Equal(sale.ApprovalID, got.ApprovalID)
	rq.True(sale.Conditions[value.NativeCurrency].Equal(got.Conditions[value.NativeCurrency]))
	rq.Contains(got.Conditions, value.Currency("usdc.near"))
	rq.NotNil(got.Bids)
}

func TestSettlementSchemaRoundTrip(t *testing.T) {
	rq := require.New(t)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	settlement := &entity.Settlement{
		ID:         "s1",
		ListingKey: "nft.near:42",
		Currency:   value.NativeCurrency,
		BuyerID:    "bob.near",
		Price:      decimal.NewFromInt(1000),
		Sale:       entity.Sale{CollectionID: "nft.near", AssetID: "42", OwnerID: "alice.near"},
		Status:     entity.SettlementReserved,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	schema, err := fromSettlement(settlement)
	rq.NoError(err)
	rq.Nil(schema.Payout)
	rq.False(schema.ResolvedAt.Valid)

	settlement.Status = entity.SettlementPaid
	settlement.Payout = entity.Payout{"alice.near": decimal.NewFromInt(1000)}
	settlement.ResolvedAt = &now

	schema, err = fromSettlement(settlement)
	rq.NoError(err)
	rq.True(schema.ResolvedAt.Valid)

	got, err := schema.toDomain()
	rq.NoError(err)
	rq.Equal(entity.SettlementPaid, got.Status)
	rq.Equal(value.AccountID("alice.near"), got.Sale.OwnerID)
	rq.True(decimal.NewFromInt(1000).Equal(got.Payout["alice.near"]))
	rq.Equal(now, *got.ResolvedAt)
}
