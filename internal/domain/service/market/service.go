package market

import (
	"time"
)

type Service struct {
	sales       SaleRepository
	settlements SettlementRepository
	deposits    DepositLedger
	custody     Custody
	scheduler   TransferScheduler
	notifier    Notifier
	now         func() time.Time
}

func NewService(
	sales SaleRepository,
	settlements SettlementRepository,
	deposits DepositLedger,
	custody Custody,
	scheduler TransferScheduler,
) *Service {
	return &Service{
		sales:       sales,
		settlements: settlements,
		deposits:    deposits,
		custody:     custody,
		scheduler:   scheduler,
		notifier:    nopNotifier{},
		now:         time.Now,
	}
}

func (s *Service) WithNotifier(notifier Notifier) *Service {
	if notifier != nil {
		s.notifier = notifier
	}

	return s
}

// WithScheduler replaces the scheduler. The scheduler usually needs the
// service itself to resolve purchases, so it is set after construction.
func (s *Service) WithScheduler(scheduler TransferScheduler) *Service {
	s.scheduler = scheduler
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
