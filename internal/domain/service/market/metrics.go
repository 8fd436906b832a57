package market

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals
var (
	reservationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_market",
		Name:      "reservations_total",
		Help:      "Listings reserved for purchase, by currency kind.",
	}, []string{"currency"})

	settlementsResolvedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_market",
		Name:      "settlements_resolved_total",
		Help:      "Resolved settlements by final status and reason.",
	}, []string{"status", "reason"})

	transferErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "nft_market",
		Name:      "custody_transfer_errors_total",
		Help:      "Failed payout or refund transfers.",
	}, []string{"kind"})
)

func currencyLabel(native bool) string {
	if native {
		return "native"
	}

	return "token"
}
