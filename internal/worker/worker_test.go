package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nft_market/internal/domain"
	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/service/market"
	"nft_market/internal/domain/value"
	"nft_market/internal/infrastructure/custody"
	"nft_market/internal/infrastructure/deposit"
	"nft_market/internal/infrastructure/persistence/memory"
	"nft_market/internal/worker"
	"nft_market/pkg/errcodes"
)

const (
	seller value.AccountID  = "alice.near"
	buyer  value.AccountID  = "bob.near"
	key    value.ListingKey = "nft.near:1"
)

// custodyMock answers payout transfers with payload, or blocks until the
// request context is done when block is set.
type custodyMock struct {
	mu        sync.Mutex
	payload   []byte
	block     bool
	gate      chan struct{}
	requests  []custody.PayoutTransfer
	transfers []string
}

func (c *custodyMock) TransferWithPayout(ctx context.Context, transfer custody.PayoutTransfer) ([]byte, error) {
	c.mu.Lock()
	c.requests = append(c.requests, transfer)
	block := c.block
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	if c.gate != nil {
		select {
		case <-c.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return c.payload, nil
}

func (c *custodyMock) Requests() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.requests)
}

func (c *custodyMock) TransferNative(_ context.Context, receiver value.AccountID, amount decimal.Decimal) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.transfers = append(c.transfers, receiver.String()+"="+amount.String())

	return nil
}

func (c *custodyMock) TransferToken(_ context.Context, _, receiver value.AccountID, amount decimal.Decimal) error {
	return c.TransferNative(context.Background(), receiver, amount)
}

func (c *custodyMock) Transfers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]string(nil), c.transfers...)
}

type env struct {
	svc       *market.Service
	custody   *custodyMock
	scheduler *worker.LocalScheduler
	handler   *worker.SettlementHandler
}

func newEnv(t *testing.T, budget time.Duration) *env {
	t.Helper()

	store := memory.NewStore()
	e := &env{custody: &custodyMock{}}

	e.svc = market.NewService(store.Sales(), store.Settlements(), deposit.NewMemoryLedger(), e.custody, nil)
	e.handler = worker.NewSettlementHandler(e.svc, e.custody, budget)
	e.scheduler = worker.NewLocalScheduler(e.handler)
	e.svc.WithScheduler(e.scheduler)

	_, err := e.svc.Create(context.Background(), market.CreateSaleInput{
		CollectionID: "nft.near",
		AssetID:      "1",
		OwnerID:      seller,
		ApprovalID:   9,
		Prices:       []entity.PriceCondition{{Price: ptr(decimal.NewFromInt(1000))}},
	})
	require.NoError(t, err)

	return e
}

func ptr[T any](v T) *T {
	return &v
}

func TestLocalSchedulerPaysOut(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	e := newEnv(t, time.Second)
	e.custody.payload = []byte(`{"alice.near":"970","platform.near":"30"}`)

	settlement, err := e.svc.Purchase(ctx, buyer, key, decimal.NewFromInt(1000))
	rq.NoError(err)

	e.scheduler.Wait()
	rq.Zero(e.scheduler.Pending())

	resolved, err := e.svc.GetSettlement(ctx, settlement.ID)
	rq.NoError(err)
	rq.Equal(entity.SettlementPaid, resolved.Status)
	rq.Equal([]string{"alice.near=970", "platform.near=30"}, e.custody.Transfers())

	rq.Len(e.custody.requests, 1)
	rq.Equal(custody.PayoutTransfer{
		ContractID: "nft.near",
		TokenID:    "1",
		ReceiverID: buyer,
		ApprovalID: 9,
		Balance:    decimal.NewFromInt(1000),
	}, e.custody.requests[0])
}

func TestLocalSchedulerRefundsOnBadPayout(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	e := newEnv(t, time.Second)
	e.custody.payload = []byte(`{"alice.near":"1"}`)

	settlement, err := e.svc.Purchase(ctx, buyer, key, decimal.NewFromInt(1000))
	rq.NoError(err)

	e.scheduler.Wait()

	resolved, err := e.svc.GetSettlement(ctx, settlement.ID)
	rq.NoError(err)
	rq.Equal(entity.SettlementRefunded, resolved.Status)
	rq.Equal([]string{"bob.near=1000"}, e.custody.Transfers())
}

func TestTransferBudgetExpiryRefunds(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	e := newEnv(t, 20*time.Millisecond)
	e.custody.block = true

	settlement, err := e.svc.Purchase(ctx, buyer, key, decimal.NewFromInt(1000))
	rq.NoError(err)

	e.scheduler.Wait()

	resolved, err := e.svc.GetSettlement(ctx, settlement.ID)
	rq.NoError(err)
	rq.Equal(entity.SettlementRefunded, resolved.Status)
	rq.Equal("TransferFailed", resolved.FailureReason)
	rq.Equal([]string{"bob.near=1000"}, e.custody.Transfers())
}

func TestSettleIsIdempotent(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	e := newEnv(t, time.Second)
	e.custody.payload = []byte(`{"alice.near":"1000"}`)

	settlement, err := e.svc.Purchase(ctx, buyer, key, decimal.NewFromInt(1000))
	rq.NoError(err)

	e.scheduler.Wait()

	rq.NoError(e.handler.Settle(ctx, settlement.ID), "a repeated delivery is ignored")
	rq.Len(e.custody.requests, 1)
	rq.Len(e.custody.Transfers(), 1)
}

func TestLocalSchedulerClosed(t *testing.T) {
	rq := require.New(t)

	e := newEnv(t, time.Second)
	e.scheduler.Wait()

	err := e.scheduler.Schedule(context.Background(), &entity.Settlement{ID: "s1"})
	rq.ErrorIs(err, worker.ErrSchedulerClosed)
}

func TestLocalSchedulerRun(t *testing.T) {
	rq := require.New(t)

	e := newEnv(t, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rq.NoError(e.scheduler.Run(ctx))

	err := e.scheduler.Schedule(context.Background(), &entity.Settlement{ID: "s1"})
	rq.ErrorIs(err, worker.ErrSchedulerClosed)
}

func TestProcessTask(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	e := newEnv(t, time.Second)
	e.custody.payload = []byte(`{"alice.near":"1000"}`)

	// Reserve through a scheduler that only records, then deliver as asynq would.
	recorder := &recordingScheduler{}
	e.svc.WithScheduler(recorder)

	settlement, err := e.svc.Purchase(ctx, buyer, key, decimal.NewFromInt(1000))
	rq.NoError(err)

	task, err := worker.NewSettlementTask(settlement.ID)
	rq.NoError(err)
	rq.Equal(worker.TypeSettlementTransfer, task.Type())

	rq.NoError(e.handler.ProcessTask(ctx, task))

	resolved, err := e.svc.GetSettlement(ctx, settlement.ID)
	rq.NoError(err)
	rq.Equal(entity.SettlementPaid, resolved.Status)

	err = e.handler.ProcessTask(ctx, asynq.NewTask(worker.TypeSettlementTransfer, []byte(`not json`)))
	rq.ErrorIs(err, asynq.SkipRetry)

	err = e.handler.ProcessTask(ctx, asynq.NewTask(worker.TypeSettlementTransfer, []byte(`{}`)))
	rq.ErrorIs(err, asynq.SkipRetry)
}

type recordingScheduler struct {
	mu  sync.Mutex
	ids []string
}

func (r *recordingScheduler) Schedule(_ context.Context, settlement *entity.Settlement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids = append(r.ids, settlement.ID)

	return nil
}

type failingResolver struct {
	calls int
}

func (f *failingResolver) MarkAwaiting(_ context.Context, id string) (*entity.Settlement, error) {
	return &entity.Settlement{ID: id, Status: entity.SettlementAwaitingResult}, nil
}

func (f *failingResolver) ResolvePurchase(context.Context, string, entity.TransferOutcome) (*entity.Settlement, error) {
	f.calls++
	return nil, errors.New("connection reset")
}

func TestSettleRetriesResolve(t *testing.T) {
	rq := require.New(t)

	resolver := &failingResolver{}
	handler := worker.NewSettlementHandler(resolver, &custodyMock{}, time.Second)

	err := handler.Settle(context.Background(), "s1")
	rq.Error(err)
	rq.Equal(3, resolver.calls)
}

// flakySettlements fails like database/sql does on a cancelled context, and
// can be told to fail resolutions of awaiting settlements.
type flakySettlements struct {
	market.SettlementRepository

	mu           sync.Mutex
	failResolves int
}

func (f *flakySettlements) Update(
	ctx context.Context,
	id string,
	fn func(settlement *entity.Settlement) error,
) (*entity.Settlement, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return f.SettlementRepository.Update(ctx, id, func(settlement *entity.Settlement) error {
		if settlement.Status == entity.SettlementAwaitingResult && f.takeFailure() {
			return domain.WrapError(errors.New("connection reset"), errcodes.InternalServerError, "failed to update settlement")
		}

		return fn(settlement)
	})
}

func (f *flakySettlements) setFailures(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failResolves = n
}

func (f *flakySettlements) takeFailure() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failResolves == 0 {
		return false
	}

	f.failResolves--

	return true
}

type outcomeRecorder struct {
	mu       sync.Mutex
	ids      []string
	outcomes []entity.TransferOutcome
}

func (r *outcomeRecorder) RetryResolve(_ context.Context, id string, outcome entity.TransferOutcome) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ids = append(r.ids, id)
	r.outcomes = append(r.outcomes, outcome)

	return nil
}

type manualEnv struct {
	svc         *market.Service
	settlements *flakySettlements
	custody     *custodyMock
	handler     *worker.SettlementHandler
	retrier     *outcomeRecorder
}

// newManualEnv reserves settlements without running them; tests deliver them
// to the handler themselves.
func newManualEnv(t *testing.T) *manualEnv {
	t.Helper()

	store := memory.NewStore()
	e := &manualEnv{
		settlements: &flakySettlements{SettlementRepository: store.Settlements()},
		custody:     &custodyMock{payload: []byte(`{"alice.near":"1000"}`)},
		retrier:     &outcomeRecorder{},
	}

	e.svc = market.NewService(store.Sales(), e.settlements, deposit.NewMemoryLedger(), e.custody, &recordingScheduler{})
	e.handler = worker.NewSettlementHandler(e.svc, e.custody, time.Second).WithResolveRetrier(e.retrier)

	_, err := e.svc.Create(context.Background(), market.CreateSaleInput{
		CollectionID: "nft.near",
		AssetID:      "1",
		OwnerID:      seller,
		Prices:       []entity.PriceCondition{{Price: ptr(decimal.NewFromInt(1000))}},
	})
	require.NoError(t, err)

	return e
}

func TestSettleSurvivesCancellationMidTransfer(t *testing.T) {
	rq := require.New(t)

	e := newManualEnv(t)
	e.custody.gate = make(chan struct{})

	settlement, err := e.svc.Purchase(context.Background(), buyer, key, decimal.NewFromInt(1000))
	rq.NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- e.handler.Settle(ctx, settlement.ID)
	}()

	rq.Eventually(func() bool { return e.custody.Requests() == 1 }, time.Second, time.Millisecond)

	// Shutdown arrives while the custody service is still working.
	cancel()
	close(e.custody.gate)

	rq.NoError(<-done)

	resolved, err := e.svc.GetSettlement(context.Background(), settlement.ID)
	rq.NoError(err)
	rq.Equal(entity.SettlementPaid, resolved.Status)
	rq.Equal([]string{"alice.near=1000"}, e.custody.Transfers())
	rq.Empty(e.retrier.ids)
}

func TestSettleHandsUnstoredOutcomeToRetrier(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	e := newManualEnv(t)

	settlement, err := e.svc.Purchase(ctx, buyer, key, decimal.NewFromInt(1000))
	rq.NoError(err)

	e.settlements.setFailures(3)

	rq.NoError(e.handler.Settle(ctx, settlement.ID))

	stuck, err := e.svc.GetSettlement(ctx, settlement.ID)
	rq.NoError(err)
	rq.Equal(entity.SettlementAwaitingResult, stuck.Status)

	rq.Equal([]string{settlement.ID}, e.retrier.ids)
	rq.Equal(entity.TransferSucceeded([]byte(`{"alice.near":"1000"}`)), e.retrier.outcomes[0])

	task, err := worker.NewResolveTask(settlement.ID, e.retrier.outcomes[0])
	rq.NoError(err)
	rq.Equal(worker.TypeSettlementResolve, task.Type())

	// Storage still down: the task fails and asynq will redeliver it.
	e.settlements.setFailures(1)

	err = e.handler.ProcessResolveTask(ctx, task)
	rq.Error(err)
	rq.NotErrorIs(err, asynq.SkipRetry)

	rq.NoError(e.handler.ProcessResolveTask(ctx, task))

	resolved, err := e.svc.GetSettlement(ctx, settlement.ID)
	rq.NoError(err)
	rq.Equal(entity.SettlementPaid, resolved.Status)
	rq.Equal([]string{"alice.near=1000"}, e.custody.Transfers())

	rq.NoError(e.handler.ProcessResolveTask(ctx, task), "a resolved settlement ends the task")
	rq.Len(e.custody.Transfers(), 1)
}

func TestProcessResolveTaskRejectsBadPayload(t *testing.T) {
	rq := require.New(t)
	ctx := context.Background()

	e := newManualEnv(t)

	err := e.handler.ProcessResolveTask(ctx, asynq.NewTask(worker.TypeSettlementResolve, []byte(`not json`)))
	rq.ErrorIs(err, asynq.SkipRetry)

	task, err := worker.NewResolveTask("unknown", entity.TransferFailed())
	rq.NoError(err)

	err = e.handler.ProcessResolveTask(ctx, task)
	rq.ErrorIs(err, asynq.SkipRetry)
}
