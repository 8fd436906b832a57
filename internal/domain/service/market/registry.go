package market

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
	"nft_market/pkg/errcodes"
	"nft_market/pkg/logx"
)

type CreateSaleInput struct {
	CollectionID string
	AssetID      string
	OwnerID      value.AccountID
	ApprovalID   uint64
	Prices       []entity.PriceCondition
}

// Create lists an asset. An existing sale under the same key is replaced.
func (s *Service) Create(ctx context.Context, in CreateSaleInput) (*entity.Sale, error) {
	key, err := value.NewListingKey(in.CollectionID, in.AssetID)
	if err != nil {
		return nil, domain.NewError(domain.KindInvalidArgument, errcodes.InvalidListingKey, err.Error())
	}

	for _, p := range in.Prices {
		if p.Price == nil {
			continue
		}

		if err := value.CheckAmount(*p.Price); err != nil {
			return nil, domain.NewError(domain.KindInvalidArgument, errcodes.InvalidAmount, err.Error())
		}
	}

	ok, err := s.deposits.HasStorageDeposit(ctx, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("deposits.HasStorageDeposit: %w", err)
	}

	if !ok {
		return nil, domain.NewError(domain.KindPrecondition, errcodes.StorageDepositRequired,
			"owner must pay a storage deposit before listing")
	}

	now := s.now()
	sale := &entity.Sale{
		CollectionID: in.CollectionID,
		AssetID:      in.AssetID,
		OwnerID:      in.OwnerID,
		ApprovalID:   in.ApprovalID,
		Conditions:   entity.BuildConditions(in.Prices),
		Bids:         map[value.Currency]entity.Bid{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.sales.Save(ctx, sale); err != nil {
		return nil, fmt.Errorf("sales.Save: %w", err)
	}

	logger(ctx).Info("sale created",
		slog.String(logx.FieldListingKey, key.String()),
		slog.String(logx.FieldAccountID, in.OwnerID.String()),
		slog.Int("conditions", len(sale.Conditions)),
	)

	return sale, nil
}

func (s *Service) SetPrice(
	ctx context.Context,
	caller value.AccountID,
	key value.ListingKey,
	currency value.Currency,
	price decimal.Decimal,
) (*entity.Sale, error) {
	if err := value.CheckAmount(price); err != nil {
		return nil, domain.NewError(domain.KindInvalidArgument, errcodes.InvalidAmount, err.Error())
	}

	sale, err := s.sales.Update(ctx, key, func(sale *entity.Sale) error {
		if !sale.IsOwnedBy(caller) {
			return errNotOwner()
		}

		if sale.Conditions == nil {
			sale.Conditions = map[value.Currency]decimal.Decimal{}
		}

		sale.Conditions[currency] = price
		sale.UpdatedAt = s.now()

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sales.Update: %w", err)
	}

	logger(ctx).Info("sale price set",
		slog.String(logx.FieldListingKey, key.String()),
		slog.String(logx.FieldCurrency, currency.String()),
		slog.String(logx.FieldAmount, price.String()),
	)

	return sale, nil
}

func (s *Service) Remove(ctx context.Context, caller value.AccountID, key value.ListingKey) (*entity.Sale, error) {
	sale, err := s.sales.Delete(ctx, key, func(sale *entity.Sale) error {
		if !sale.IsOwnedBy(caller) {
			return errNotOwner()
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sales.Delete: %w", err)
	}

	logger(ctx).Info("sale removed", slog.String(logx.FieldListingKey, key.String()))

	return sale, nil
}

func (s *Service) Get(ctx context.Context, key value.ListingKey) (*entity.Sale, error) {
	sale, err := s.sales.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("sales.Get: %w", err)
	}

	return sale, nil
}

func errNotOwner() error {
	return domain.NewError(domain.KindUnauthorized, errcodes.NotSaleOwner, "only the sale owner can do this")
}
