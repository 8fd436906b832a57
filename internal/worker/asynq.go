package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	jsoniter "github.com/json-iterator/go"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
)

const (
	TypeSettlementTransfer = "settlement:transfer"
	TypeSettlementResolve  = "settlement:resolve"

	// resolveMaxRetry spreads redeliveries of a stored outcome over days with
	// asynq's default backoff.
	resolveMaxRetry = 25
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

type settlementPayload struct {
	SettlementID string `json:"settlement_id"`
}

type resolvePayload struct {
	SettlementID string                 `json:"settlement_id"`
	Outcome      entity.TransferOutcome `json:"outcome"`
}

// AsynqScheduler enqueues one task per settlement. The settlement id is the
// task id, so a settlement cannot be queued twice, and the task is never
// retried.
type AsynqScheduler struct {
	client *asynq.Client
	queue  string
}

func NewAsynqScheduler(client *asynq.Client, queue string) *AsynqScheduler {
	return &AsynqScheduler{
		client: client,
		queue:  queue,
	}
}

func (s *AsynqScheduler) Schedule(ctx context.Context, settlement *entity.Settlement) error {
	task, err := NewSettlementTask(settlement.ID)
	if err != nil {
		return err
	}

	_, err = s.client.EnqueueContext(ctx, task,
		asynq.TaskID(settlement.ID),
		asynq.MaxRetry(0),
		asynq.Queue(s.queue),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}

		return fmt.Errorf("client.EnqueueContext: %w", err)
	}

	return nil
}

// RetryResolve enqueues the outcome of a finished transfer. Unlike the
// transfer task this one is retried until the resolution is stored.
func (s *AsynqScheduler) RetryResolve(ctx context.Context, id string, outcome entity.TransferOutcome) error {
	task, err := NewResolveTask(id, outcome)
	if err != nil {
		return err
	}

	_, err = s.client.EnqueueContext(ctx, task,
		asynq.TaskID(TypeSettlementResolve+":"+id),
		asynq.MaxRetry(resolveMaxRetry),
		asynq.Queue(s.queue),
	)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			return nil
		}

		return fmt.Errorf("client.EnqueueContext: %w", err)
	}

	return nil
}

func NewSettlementTask(settlementID string) (*asynq.Task, error) {
	payload, err := json.Marshal(settlementPayload{SettlementID: settlementID})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return asynq.NewTask(TypeSettlementTransfer, payload), nil
}

// ProcessTask implements asynq.Handler.
func (h *SettlementHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var payload settlementPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal: %w: %w", err, asynq.SkipRetry)
	}

	if payload.SettlementID == "" {
		return fmt.Errorf("empty settlement id: %w", asynq.SkipRetry)
	}

	return h.Settle(ctx, payload.SettlementID)
}

func NewResolveTask(settlementID string, outcome entity.TransferOutcome) (*asynq.Task, error) {
	payload, err := json.Marshal(resolvePayload{SettlementID: settlementID, Outcome: outcome})
	if err != nil {
		return nil, fmt.Errorf("json.Marshal: %w", err)
	}

	return asynq.NewTask(TypeSettlementResolve, payload), nil
}

// ProcessResolveTask stores a transfer outcome. Storage errors are returned
// as is so asynq redelivers the task; an already resolved settlement ends it.
func (h *SettlementHandler) ProcessResolveTask(ctx context.Context, task *asynq.Task) error {
	var payload resolvePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal: %w: %w", err, asynq.SkipRetry)
	}

	if payload.SettlementID == "" {
		return fmt.Errorf("empty settlement id: %w", asynq.SkipRetry)
	}

	_, err := h.resolver.ResolvePurchase(ctx, payload.SettlementID, payload.Outcome)

	switch {
	case err == nil:
		return nil
	case domain.GetKind(err) == domain.KindConflict:
		return nil
	case domain.GetKind(err) == domain.KindInternal:
		return fmt.Errorf("resolver.ResolvePurchase: %w", err)
	default:
		return fmt.Errorf("resolver.ResolvePurchase: %w: %w", err, asynq.SkipRetry)
	}
}
