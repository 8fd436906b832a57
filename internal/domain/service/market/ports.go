package market

import (
	"context"

	"github.com/shopspring/decimal"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
)

// SaleRepository stores at most one sale per listing key. Update and Delete
// run fn with the sale locked; an error from fn aborts without changes.
type SaleRepository interface {
	Save(ctx context.Context, sale *entity.Sale) error
	Get(ctx context.Context, key value.ListingKey) (*entity.Sale, error)
	Update(ctx context.Context, key value.ListingKey, fn func(sale *entity.Sale) error) (*entity.Sale, error)
	Delete(ctx context.Context, key value.ListingKey, check func(sale *entity.Sale) error) (*entity.Sale, error)
}

// SettlementRepository keeps the settlement records. Reserve deletes the sale
// at key and inserts the settlement built by fn in one atomic step.
type SettlementRepository interface {
	Reserve(
		ctx context.Context,
		key value.ListingKey,
		fn func(sale *entity.Sale) (*entity.Settlement, error),
	) (*entity.Settlement, error)
	Get(ctx context.Context, id string) (*entity.Settlement, error)
	Update(ctx context.Context, id string, fn func(settlement *entity.Settlement) error) (*entity.Settlement, error)
	// ListByStatus pages through settlements in id order, starting after
	// afterID ("" for the first page).
	ListByStatus(
		ctx context.Context,
		status entity.SettlementStatus,
		afterID string,
		limit int,
	) ([]*entity.Settlement, error)
}

type DepositLedger interface {
	HasStorageDeposit(ctx context.Context, account value.AccountID) (bool, error)
}

type Custody interface {
	TransferNative(ctx context.Context, receiver value.AccountID, amount decimal.Decimal) error
	TransferToken(ctx context.Context, contract, receiver value.AccountID, amount decimal.Decimal) error
}

// TransferScheduler hands a reserved settlement over to whatever performs the
// custody transfer and later calls ResolvePurchase with its outcome.
type TransferScheduler interface {
	Schedule(ctx context.Context, settlement *entity.Settlement) error
}

type Notifier interface {
	SettlementResolved(ctx context.Context, settlement *entity.Settlement)
}

type nopNotifier struct{}

func (nopNotifier) SettlementResolved(context.Context, *entity.Settlement) {}
