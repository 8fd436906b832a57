package server

import (
	"context"
	"fmt"
	"net/http"

	"git.appkode.ru/pub/go/failure"
	"github.com/shopspring/decimal"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/service/market"
	"nft_market/internal/domain/value"
	"nft_market/pkg/errcodes"
	"nft_market/pkg/httpx/reply"
	"nft_market/pkg/httpx/req"
	"nft_market/pkg/rest"
)

type saleService interface {
	Create(ctx context.Context, in market.CreateSaleInput) (*entity.Sale, error)
	Get(ctx context.Context, key value.ListingKey) (*entity.Sale, error)
	SetPrice(
		ctx context.Context,
		caller value.AccountID,
		key value.ListingKey,
		currency value.Currency,
		price decimal.Decimal,
	) (*entity.Sale, error)
	Remove(ctx context.Context, caller value.AccountID, key value.ListingKey) (*entity.Sale, error)
	Purchase(
		ctx context.Context,
		buyer value.AccountID,
		key value.ListingKey,
		attachedDeposit decimal.Decimal,
	) (*entity.Settlement, error)
	PurchaseWithToken(
		ctx context.Context,
		tokenContract value.AccountID,
		buyer value.AccountID,
		key value.ListingKey,
		amount decimal.Decimal,
	) (*entity.Settlement, error)
}

type SaleServer struct {
	saleService saleService
}

func NewSaleServer(saleService saleService) SaleServer {
	return SaleServer{
		saleService: saleService,
	}
}

func (s SaleServer) postV1Sale(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	var request rest.CreateSaleRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	prices, err := newDomainPrices(request.Prices)
	if err != nil {
		return failure.NewInvalidArgumentErrorFromError(
			fmt.Errorf("newDomainPrices: %w", err),
			failure.WithCode(errcodes.InvalidAmount),
		)
	}

	sale, err := s.saleService.Create(ctx, market.CreateSaleInput{
		CollectionID: request.CollectionID,
		AssetID:      request.AssetID,
		OwnerID:      value.AccountID(request.OwnerID),
		ApprovalID:   request.ApprovalID,
		Prices:       prices,
	})
	if err != nil {
		return fmt.Errorf("saleService.Create: %w", err)
	}

	reply.JSON(ctx, w, http.StatusCreated, newRESTSale(sale))

	return nil
}

func (s SaleServer) getV1Sale(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	key, err := listingKeyFromPath(r)
	if err != nil {
		return err
	}

	sale, err := s.saleService.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("saleService.Get: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSale(sale))

	return nil
}

func (s SaleServer) putV1SalePrice(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	caller, err := callerFromContext(r)
	if err != nil {
		return err
	}

	key, err := listingKeyFromPath(r)
	if err != nil {
		return err
	}

	var request rest.SetPriceRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	price, err := parseAmount(request.Price)
	if err != nil {
		return err
	}

	sale, err := s.saleService.SetPrice(ctx, caller, key, value.Currency(request.Currency), price)
	if err != nil {
		return fmt.Errorf("saleService.SetPrice: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSale(sale))

	return nil
}

func (s SaleServer) deleteV1Sale(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	caller, err := callerFromContext(r)
	if err != nil {
		return err
	}

	key, err := listingKeyFromPath(r)
	if err != nil {
		return err
	}

	sale, err := s.saleService.Remove(ctx, caller, key)
	if err != nil {
		return fmt.Errorf("saleService.Remove: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSale(sale))

	return nil
}

func (s SaleServer) postV1SalePurchase(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	buyer, err := callerFromContext(r)
	if err != nil {
		return err
	}

	key, err := listingKeyFromPath(r)
	if err != nil {
		return err
	}

	var request rest.PurchaseRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	deposit, err := parseAmount(request.AttachedDeposit)
	if err != nil {
		return err
	}

	settlement, err := s.saleService.Purchase(ctx, buyer, key, deposit)
	if err != nil {
		return fmt.Errorf("saleService.Purchase: %w", err)
	}

	reply.Accepted(ctx, w, newRESTSettlement(settlement))

	return nil
}

// postV1SaleTokenPurchase is called by a fungible token contract that has
// received the buyer's tokens.
func (s SaleServer) postV1SaleTokenPurchase(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	tokenContract, err := callerFromContext(r)
	if err != nil {
		return err
	}

	key, err := listingKeyFromPath(r)
	if err != nil {
		return err
	}

	var request rest.TokenPurchaseRequest

	if err := req.Read(r, &request); err != nil {
		return fmt.Errorf("req.Read: %w", err)
	}

	amount, err := parseAmount(request.Amount)
	if err != nil {
		return err
	}

	settlement, err := s.saleService.PurchaseWithToken(ctx, tokenContract, value.AccountID(request.BuyerID), key, amount)
	if err != nil {
		return fmt.Errorf("saleService.PurchaseWithToken: %w", err)
	}

	reply.Accepted(ctx, w, newRESTSettlement(settlement))

	return nil
}
