package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
	"nft_market/internal/infrastructure/custody"
	"nft_market/pkg/contextx"
	"nft_market/pkg/logx"
)

const (
	resolveAttempts = 3
	resolveBackoff  = 200 * time.Millisecond
)

var logger = contextx.LoggerFromContextOrDefault //nolint:gochecknoglobals

type Resolver interface {
	MarkAwaiting(ctx context.Context, id string) (*entity.Settlement, error)
	ResolvePurchase(ctx context.Context, id string, outcome entity.TransferOutcome) (*entity.Settlement, error)
}

type Transferrer interface {
	TransferWithPayout(ctx context.Context, transfer custody.PayoutTransfer) ([]byte, error)
}

// ResolveRetrier takes over a known transfer outcome that could not be
// stored and keeps delivering it until the settlement is resolved.
type ResolveRetrier interface {
	RetryResolve(ctx context.Context, id string, outcome entity.TransferOutcome) error
}

// SettlementHandler performs the custody transfer of a reserved settlement
// and hands its outcome to the resolver.
type SettlementHandler struct {
	resolver Resolver
	custody  Transferrer
	budget   time.Duration
	retrier  ResolveRetrier
}

func NewSettlementHandler(resolver Resolver, custody Transferrer, budget time.Duration) *SettlementHandler {
	return &SettlementHandler{
		resolver: resolver,
		custody:  custody,
		budget:   budget,
	}
}

func (h *SettlementHandler) WithResolveRetrier(retrier ResolveRetrier) *SettlementHandler {
	h.retrier = retrier
	return h
}

// Settle is safe to call more than once for the same settlement: only the
// call that marks it awaiting_result requests the transfer.
//
// Cancelling ctx does not interrupt a settlement once started: the transfer
// is bounded by the budget alone and its outcome is always resolved.
func (h *SettlementHandler) Settle(ctx context.Context, id string) error {
	ctx = context.WithoutCancel(ctx)

	settlement, err := h.resolver.MarkAwaiting(ctx, id)
	if err != nil {
		if domain.GetKind(err) == domain.KindConflict {
			logger(ctx).Warn("settlement already taken", slog.String(logx.FieldSettlementID, id), logx.Error(err))
			return nil
		}

		return fmt.Errorf("resolver.MarkAwaiting: %w", err)
	}

	outcome := h.transfer(ctx, settlement)

	err = h.resolve(ctx, id, outcome)
	if err == nil || h.retrier == nil || domain.GetKind(err) != domain.KindInternal {
		return err
	}

	if retryErr := h.retrier.RetryResolve(ctx, id, outcome); retryErr != nil {
		return errors.Join(err, fmt.Errorf("retrier.RetryResolve: %w", retryErr))
	}

	logger(ctx).Warn("resolve deferred to retrier", slog.String(logx.FieldSettlementID, id), logx.Error(err))

	return nil
}

func (h *SettlementHandler) transfer(ctx context.Context, settlement *entity.Settlement) entity.TransferOutcome {
	if h.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.budget)
		defer cancel()
	}

	payload, err := h.custody.TransferWithPayout(ctx, custody.PayoutTransfer{
		ContractID: settlement.Sale.CollectionID,
		TokenID:    settlement.Sale.AssetID,
		ReceiverID: settlement.BuyerID,
		ApprovalID: settlement.Sale.ApprovalID,
		Balance:    settlement.Price,
	})
	if err != nil {
		logger(ctx).Warn("asset transfer failed",
			slog.String(logx.FieldSettlementID, settlement.ID),
			logx.Error(err),
		)

		return entity.TransferFailed()
	}

	return entity.TransferSucceeded(payload)
}

// resolve retries storage failures; the transfer already happened and its
// outcome must not be lost.
func (h *SettlementHandler) resolve(ctx context.Context, id string, outcome entity.TransferOutcome) error {
	var err error

	for attempt := 1; attempt <= resolveAttempts; attempt++ {
		_, err = h.resolver.ResolvePurchase(ctx, id, outcome)
		if err == nil || (domain.IsAppError(err) && domain.GetKind(err) != domain.KindInternal) {
			break
		}

		logger(ctx).Error("resolve purchase",
			slog.String(logx.FieldSettlementID, id),
			slog.Int("attempt", attempt),
			logx.Error(err),
		)

		if attempt == resolveAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("resolver.ResolvePurchase: %w", errors.Join(err, ctx.Err()))
		case <-time.After(resolveBackoff * time.Duration(attempt)):
		}
	}

	if err != nil && domain.GetKind(err) != domain.KindConflict {
		return fmt.Errorf("resolver.ResolvePurchase: %w", err)
	}

	return nil
}
