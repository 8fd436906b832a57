package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"nft_market/internal/domain/entity"
	"nft_market/pkg/httpx/reply"
)

type settlementService interface {
	GetSettlement(ctx context.Context, id string) (*entity.Settlement, error)
}

type SettlementServer struct {
	settlementService settlementService
}

func NewSettlementServer(settlementService settlementService) SettlementServer {
	return SettlementServer{
		settlementService: settlementService,
	}
}

func (s SettlementServer) getV1Settlement(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()

	settlement, err := s.settlementService.GetSettlement(ctx, chi.URLParam(r, "id"))
	if err != nil {
		return fmt.Errorf("settlementService.GetSettlement: %w", err)
	}

	reply.JSON(ctx, w, http.StatusOK, newRESTSettlement(settlement))

	return nil
}
