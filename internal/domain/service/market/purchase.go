package market

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rs/xid"
	"github.com/shopspring/decimal"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
	"nft_market/pkg/errcodes"
	"nft_market/pkg/logx"
)

const recoverBatchSize = 100

// Purchase buys a listing for its native price. The attached deposit must
// match the price exactly. The listing is reserved before Purchase returns;
// payout or refund happen later, when the scheduled transfer resolves.
func (s *Service) Purchase(
	ctx context.Context,
	buyer value.AccountID,
	key value.ListingKey,
	attachedDeposit decimal.Decimal,
) (*entity.Settlement, error) {
	return s.purchase(ctx, value.NativeCurrency, buyer, key, attachedDeposit)
}

// PurchaseWithToken is the fungible token entry point: tokenContract has
// already received amount from buyer and relays the purchase.
func (s *Service) PurchaseWithToken(
	ctx context.Context,
	tokenContract value.AccountID,
	buyer value.AccountID,
	key value.ListingKey,
	amount decimal.Decimal,
) (*entity.Settlement, error) {
	return s.purchase(ctx, value.Currency(tokenContract), buyer, key, amount)
}

func (s *Service) purchase(
	ctx context.Context,
	currency value.Currency,
	buyer value.AccountID,
	key value.ListingKey,
	amount decimal.Decimal,
) (*entity.Settlement, error) {
	if err := value.CheckAmount(amount); err != nil {
		return nil, domain.NewError(domain.KindInvalidArgument, errcodes.InvalidAmount, err.Error())
	}

	settlement, err := s.settlements.Reserve(ctx, key, func(sale *entity.Sale) (*entity.Settlement, error) {
		price, ok := sale.PriceIn(currency)
		if !ok {
			return nil, domain.NewError(domain.KindPrecondition, errcodes.NotListedInCurrency,
				fmt.Sprintf("sale is not listed in %s", currency))
		}

		if !amount.Equal(price) {
			return nil, domain.NewError(domain.KindPrecondition, errcodes.PaymentMismatch,
				fmt.Sprintf("payment must equal the price %s", price))
		}

		now := s.now()

		return &entity.Settlement{
			ID:         xid.New().String(),
			ListingKey: key,
			Currency:   currency,
			BuyerID:    buyer,
			Price:      price,
			Sale:       *sale.Clone(),
			Status:     entity.SettlementReserved,
			Leftover:   decimal.Zero,
			CreatedAt:  now,
			UpdatedAt:  now,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("settlements.Reserve: %w", err)
	}

	reservationsTotal.WithLabelValues(currencyLabel(currency.IsNative())).Inc()

	logger(ctx).Info("listing reserved",
		slog.String(logx.FieldSettlementID, settlement.ID),
		slog.String(logx.FieldListingKey, key.String()),
		slog.String(logx.FieldBuyerID, buyer.String()),
		slog.String(logx.FieldCurrency, currency.String()),
		slog.String(logx.FieldAmount, settlement.Price.String()),
	)

	if err := s.scheduler.Schedule(ctx, settlement); err != nil {
		logger(ctx).Error("settlement scheduling failed, refunding",
			slog.String(logx.FieldSettlementID, settlement.ID),
			logx.Error(err),
		)

		return s.abandon(ctx, settlement.ID)
	}

	return settlement, nil
}

// abandon refunds a reserved settlement whose transfer never got scheduled.
func (s *Service) abandon(ctx context.Context, id string) (*entity.Settlement, error) {
	if _, err := s.MarkAwaiting(ctx, id); err != nil {
		return nil, fmt.Errorf("MarkAwaiting: %w", err)
	}

	return s.resolve(ctx, id, func(*entity.Settlement) PayoutVerdict {
		return rejected(errcodes.SchedulingFailed)
	})
}

// MarkAwaiting moves a reserved settlement to awaiting_result right before
// its transfer is requested. A settlement can be marked only once.
func (s *Service) MarkAwaiting(ctx context.Context, id string) (*entity.Settlement, error) {
	settlement, err := s.settlements.Update(ctx, id, func(settlement *entity.Settlement) error {
		if err := checkTransition(settlement, entity.SettlementAwaitingResult); err != nil {
			return err
		}

		settlement.Status = entity.SettlementAwaitingResult
		settlement.UpdatedAt = s.now()

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settlements.Update: %w", err)
	}

	return settlement, nil
}

// ResolvePurchase is the continuation of a purchase: it receives the outcome
// of the transfer and either pays out or refunds. Only the first call for a
// settlement has any effect.
func (s *Service) ResolvePurchase(
	ctx context.Context,
	id string,
	outcome entity.TransferOutcome,
) (*entity.Settlement, error) {
	return s.resolve(ctx, id, func(settlement *entity.Settlement) PayoutVerdict {
		return ValidatePayout(outcome, settlement.Price)
	})
}

func (s *Service) resolve(
	ctx context.Context,
	id string,
	judge func(settlement *entity.Settlement) PayoutVerdict,
) (*entity.Settlement, error) {
	var verdict PayoutVerdict

	settlement, err := s.settlements.Update(ctx, id, func(settlement *entity.Settlement) error {
		if err := checkTransition(settlement, entity.SettlementPaid); err != nil {
			return err
		}

		verdict = judge(settlement)
		now := s.now()

		if verdict.Accepted {
			settlement.Status = entity.SettlementPaid
			settlement.Payout = verdict.Payout
			settlement.Leftover = decimal.Zero
		} else {
			settlement.Status = entity.SettlementRefunded
			settlement.FailureReason = string(verdict.Reason)
			settlement.Leftover = refundLeftover(settlement)
		}

		settlement.UpdatedAt = now
		settlement.ResolvedAt = &now

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("settlements.Update: %w", err)
	}

	if verdict.Accepted {
		s.disburse(ctx, settlement)
	} else {
		s.compensate(ctx, settlement)
	}

	settlementsResolvedTotal.WithLabelValues(settlement.Status.String(), settlement.FailureReason).Inc()

	logger(ctx).Info("settlement resolved",
		slog.String(logx.FieldSettlementID, settlement.ID),
		slog.String(logx.FieldStatus, settlement.Status.String()),
		slog.String(logx.FieldReason, settlement.FailureReason),
		slog.String(logx.FieldLeftover, settlement.Leftover.String()),
	)

	s.notifier.SettlementResolved(ctx, settlement)

	return settlement, nil
}

func (s *Service) GetSettlement(ctx context.Context, id string) (*entity.Settlement, error) {
	settlement, err := s.settlements.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("settlements.Get: %w", err)
	}

	return settlement, nil
}

// RecoverReserved reschedules settlements left reserved, e.g. after a crash
// between reservation and scheduling. Returns the number rescheduled.
func (s *Service) RecoverReserved(ctx context.Context) (int, error) {
	var (
		recovered int
		afterID   string
	)

	for {
		reserved, err := s.settlements.ListByStatus(ctx, entity.SettlementReserved, afterID, recoverBatchSize)
		if err != nil {
			return recovered, fmt.Errorf("settlements.ListByStatus: %w", err)
		}

		for _, settlement := range reserved {
			afterID = settlement.ID

			if err := s.scheduler.Schedule(ctx, settlement); err != nil {
				logger(ctx).Error("reschedule failed, refunding",
					slog.String(logx.FieldSettlementID, settlement.ID),
					logx.Error(err),
				)

				if _, err := s.abandon(ctx, settlement.ID); err != nil {
					logger(ctx).Error("abandon reserved settlement",
						slog.String(logx.FieldSettlementID, settlement.ID),
						logx.Error(err),
					)
				}

				continue
			}

			recovered++
		}

		if len(reserved) < recoverBatchSize {
			break
		}
	}

	if recovered > 0 {
		logger(ctx).Info("reserved settlements rescheduled", slog.Int("count", recovered))
	}

	return recovered, nil
}

func checkTransition(settlement *entity.Settlement, next entity.SettlementStatus) error {
	if settlement.Status.IsResolved() {
		return domain.ErrSettlementAlreadyResolved
	}

	if !settlement.Status.CanTransitionTo(next) {
		return domain.NewError(domain.KindConflict, errcodes.InvalidSettlementState,
			fmt.Sprintf("settlement is %s", settlement.Status))
	}

	return nil
}

// refundLeftover is what the caller of a token purchase has to unwind.
// Native refunds are paid back directly, so nothing is left over.
func refundLeftover(settlement *entity.Settlement) decimal.Decimal {
	if settlement.Currency.IsNative() {
		return decimal.Zero
	}

	return settlement.Price
}
