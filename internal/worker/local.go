package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"nft_market/internal/domain/entity"
	"nft_market/pkg/logx"
)

var ErrSchedulerClosed = errors.New("scheduler is closed")

type settler interface {
	Settle(ctx context.Context, id string) error
}

// LocalScheduler runs settlements on goroutines of this process. It keeps a
// table of pending settlement ids so each is run at most once at a time.
type LocalScheduler struct {
	settler settler

	mu      sync.Mutex
	pending map[string]struct{}
	closed  bool
	wg      sync.WaitGroup
}

func NewLocalScheduler(settler settler) *LocalScheduler {
	return &LocalScheduler{
		settler: settler,
		pending: make(map[string]struct{}),
	}
}

func (s *LocalScheduler) Schedule(ctx context.Context, settlement *entity.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSchedulerClosed
	}

	if _, ok := s.pending[settlement.ID]; ok {
		return nil
	}

	s.pending[settlement.ID] = struct{}{}
	s.wg.Add(1)

	go s.run(context.WithoutCancel(ctx), settlement.ID)

	return nil
}

func (s *LocalScheduler) run(ctx context.Context, id string) {
	defer s.wg.Done()

	defer func() {
		s.mu.Lock()
		delete(s.pending, id)
		s.mu.Unlock()
	}()

	if err := s.settler.Settle(ctx, id); err != nil {
		logger(ctx).Error("settle", slog.String(logx.FieldSettlementID, id), logx.Error(err))
	}
}

func (s *LocalScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.pending)
}

// Wait stops accepting settlements and waits for the pending ones.
func (s *LocalScheduler) Wait() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.wg.Wait()
}

// Run blocks until ctx is done, then drains the pending table.
func (s *LocalScheduler) Run(ctx context.Context) error {
	<-ctx.Done()

	logger(ctx).Info("local scheduler draining", slog.Int("pending", s.Pending()))

	s.Wait()

	return nil
}
