package server

import (
	"fmt"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
	"nft_market/pkg/contextx"
	"nft_market/pkg/errcodes"
	"nft_market/pkg/lox"
	"nft_market/pkg/rest"
)

func newRESTSale(sale *entity.Sale) rest.Sale {
	conditions := make(map[string]string, len(sale.Conditions))
	for currency, price := range sale.Conditions {
		conditions[currency.String()] = price.String()
	}

	bids := make(map[string]rest.Bid, len(sale.Bids))
	for currency, bid := range sale.Bids {
		bids[currency.String()] = rest.Bid{OwnerID: bid.OwnerID.String(), Price: bid.Price.String()}
	}

	return rest.Sale{
		CollectionID: sale.CollectionID,
		AssetID:      sale.AssetID,
		OwnerID:      sale.OwnerID.String(),
		ApprovalID:   sale.ApprovalID,
		Conditions:   conditions,
		Bids:         bids,
		CreatedAt:    sale.CreatedAt,
	}
}

func newRESTSettlement(settlement *entity.Settlement) rest.Settlement {
	var payout map[string]string
	if settlement.Payout != nil {
		payout = make(map[string]string, len(settlement.Payout))
		for receiver, amount := range settlement.Payout {
			payout[receiver.String()] = amount.String()
		}
	}

	return rest.Settlement{
		ID:            settlement.ID,
		ListingKey:    settlement.ListingKey.String(),
		Currency:      settlement.Currency.String(),
		BuyerID:       settlement.BuyerID.String(),
		Price:         settlement.Price.String(),
		Status:        settlement.Status.String(),
		Payout:        payout,
		Leftover:      settlement.Leftover.String(),
		FailureReason: settlement.FailureReason,
		CreatedAt:     settlement.CreatedAt,
		ResolvedAt:    settlement.ResolvedAt,
	}
}

func newDomainPrices(prices []rest.PriceInput) ([]entity.PriceCondition, error) {
	return lox.MapErr(prices, func(p rest.PriceInput) (entity.PriceCondition, error) {
		var condition entity.PriceCondition

		if p.Currency != nil && *p.Currency != "" {
			currency := value.Currency(*p.Currency)
			condition.Currency = &currency
		}

		if p.Price != nil {
			price, err := value.ParseAmount(*p.Price)
			if err != nil {
				return entity.PriceCondition{}, fmt.Errorf("value.ParseAmount: %w", err)
			}

			condition.Price = &price
		}

		return condition, nil
	})
}

func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := value.ParseAmount(s)
	if err != nil {
		return decimal.Zero, failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("value.ParseAmount: %w", err),
			failure.WithCode(errcodes.InvalidAmount),
		)
	}

	return amount, nil
}

func listingKeyFromPath(r *http.Request) (value.ListingKey, error) {
	key, err := value.NewListingKey(chi.URLParam(r, "collectionId"), chi.URLParam(r, "assetId"))
	if err != nil {
		return "", failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("value.NewListingKey: %w", err),
			failure.WithCode(errcodes.InvalidListingKey),
		)
	}

	return key, nil
}

func callerFromContext(r *http.Request) (value.AccountID, error) {
	accountID, err := contextx.AccountIDFromContext(r.Context())
	if err != nil {
		return "", domain.NewError(domain.KindUnauthenticated, errcodes.Unauthenticated, "X-Account-Id header is required")
	}

	return value.AccountID(accountID), nil
}
