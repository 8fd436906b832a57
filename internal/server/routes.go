package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"nft_market/pkg/httpx/reply"
)

func (s Server) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Route("/sales", func(r chi.Router) {
			r.Post("/", handler(s.postV1Sale))

			r.Route("/{collectionId}/{assetId}", func(r chi.Router) {
				r.Get("/", handler(s.getV1Sale))
				r.Delete("/", handler(s.deleteV1Sale))
				r.Put("/price", handler(s.putV1SalePrice))
				r.Post("/purchase", handler(s.postV1SalePurchase))
				r.Post("/purchase/token", handler(s.postV1SaleTokenPurchase))
			})
		})

		r.Get("/settlements/{id}", handler(s.getV1Settlement))
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			reply.Error(r.Context(), w, err)
		}
	}
}
