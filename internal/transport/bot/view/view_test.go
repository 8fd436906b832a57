package view_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
	"nft_market/internal/transport/bot/view"
)

func TestSale(t *testing.T) {
	rq := require.New(t)

	text := view.Sale(&entity.Sale{
		CollectionID: "nft.near",
		AssetID:      "1",
		OwnerID:      "alice.near",
		ApprovalID:   4,
		Conditions: map[value.Currency]decimal.Decimal{
			"usdc.near":          decimal.NewFromInt(5),
			value.NativeCurrency: decimal.NewFromInt(1000),
		},
	})

	rq.Contains(text, "<b>nft.near:1</b>")
	rq.Contains(text, "Approval:</b> 4")
	rq.Less(
		strings.Index(text, "near: 1000"),
		strings.Index(text, "usdc.near: 5"),
		"currencies are sorted",
	)
}

func TestSettlement(t *testing.T) {
	rq := require.New(t)

	text := view.Settlement(&entity.Settlement{
		ID:            "s1",
		Status:        entity.SettlementRefunded,
		FailureReason: "TransferFailed",
	})

	rq.Contains(text, "refunded")
	rq.Contains(text, "TransferFailed")
}
