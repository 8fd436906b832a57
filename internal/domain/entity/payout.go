package entity

import (
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"nft_market/internal/domain/value"
)

// Payout splits a sale price among receivers (seller, royalties, platform).
type Payout map[value.AccountID]decimal.Decimal

func (p Payout) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, amount := range p {
		sum = sum.Add(amount)
	}

	return sum
}

// Receivers returns receivers in a stable order.
func (p Payout) Receivers() []value.AccountID {
	receivers := lo.Keys(p)
	slices.Sort(receivers)

	return receivers
}

// TransferOutcome is what the custody service delivered for a transfer
// request: a raw payload on success, nothing on failure.
type TransferOutcome struct {
	Succeeded bool   `json:"succeeded"`
	Payload   []byte `json:"payload,omitempty"`
}

func TransferSucceeded(payload []byte) TransferOutcome {
	return TransferOutcome{Succeeded: true, Payload: payload}
}

func TransferFailed() TransferOutcome {
	return TransferOutcome{Succeeded: false}
}
