package handler

import (
	"context"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
)

type Market interface {
	Get(ctx context.Context, key value.ListingKey) (*entity.Sale, error)
	GetSettlement(ctx context.Context, id string) (*entity.Settlement, error)
	RecoverReserved(ctx context.Context) (int, error)
}

type Handler struct {
	market Market
}

func New(market Market) *Handler {
	return &Handler{
		market: market,
	}
}
