package market

import (
	"context"
	"log/slog"

	"nft_market/internal/domain/entity"
	"nft_market/pkg/logx"
)

// disburse pays each receiver its share. Failures are logged and counted,
// never retried: the payout has already been committed.
func (s *Service) disburse(ctx context.Context, settlement *entity.Settlement) {
	for _, receiver := range settlement.Payout.Receivers() {
		amount := settlement.Payout[receiver]

		var err error
		if settlement.Currency.IsNative() {
			err = s.custody.TransferNative(ctx, receiver, amount)
		} else {
			err = s.custody.TransferToken(ctx, settlement.Currency.TokenContract(), receiver, amount)
		}

		if err != nil {
			transferErrorsTotal.WithLabelValues("payout").Inc()
			logger(ctx).Error("payout transfer failed",
				slog.String(logx.FieldSettlementID, settlement.ID),
				slog.String(logx.FieldReceiverID, receiver.String()),
				slog.String(logx.FieldAmount, amount.String()),
				logx.Error(err),
			)

			continue
		}

		logger(ctx).Debug("payout transferred",
			slog.String(logx.FieldSettlementID, settlement.ID),
			slog.String(logx.FieldReceiverID, receiver.String()),
			slog.String(logx.FieldAmount, amount.String()),
		)
	}
}

// compensate returns the price to the buyer. Token payments are not sent
// back here; the settlement leftover tells the token contract to unwind them.
func (s *Service) compensate(ctx context.Context, settlement *entity.Settlement) {
	if !settlement.Currency.IsNative() {
		return
	}

	if err := s.custody.TransferNative(ctx, settlement.BuyerID, settlement.Price); err != nil {
		transferErrorsTotal.WithLabelValues("refund").Inc()
		logger(ctx).Error("refund transfer failed",
			slog.String(logx.FieldSettlementID, settlement.ID),
			slog.String(logx.FieldBuyerID, settlement.BuyerID.String()),
			slog.String(logx.FieldAmount, settlement.Price.String()),
			logx.Error(err),
		)
	}
}
