package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mymmrac/telego"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"nft_market/internal/domain/entity"
)

type senderMock struct {
	mu   sync.Mutex
	sent []*telego.SendMessageParams
}

func (s *senderMock) SendMessage(_ context.Context, params *telego.SendMessageParams) (*telego.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sent = append(s.sent, params)

	return &telego.Message{}, nil
}

func (s *senderMock) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sent)
}

func TestTelegramBot(t *testing.T) {
	rq := require.New(t)

	mock := &senderMock{}
	bot := newTelegramBot(mock, 42)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)

	go func() { done <- bot.Run(ctx) }()

	bot.SettlementResolved(ctx, &entity.Settlement{
		ID:         "s1",
		ListingKey: "nft.near:1",
		BuyerID:    "bob.near",
		Currency:   "near",
		Price:      decimal.NewFromInt(1000),
		Status:     entity.SettlementPaid,
		Payout:     entity.Payout{"alice.near": decimal.NewFromInt(1000)},
	})

	rq.Eventually(func() bool { return mock.count() == 1 }, time.Second, 10*time.Millisecond)

	cancel()
	rq.NoError(<-done)

	rq.Equal(int64(42), mock.sent[0].ChatID.ID)
	rq.Equal(telego.ModeHTML, mock.sent[0].ParseMode)
	rq.Contains(mock.sent[0].Text, "alice.near: 1000")
}

func TestFormatSettlement(t *testing.T) {
	rq := require.New(t)

	text := FormatSettlement(&entity.Settlement{
		ID:            "s2",
		ListingKey:    "nft.near:<2>",
		BuyerID:       "bob.near",
		Currency:      "usdc.near",
		Price:         decimal.NewFromInt(50),
		Status:        entity.SettlementRefunded,
		FailureReason: "PayoutSumMismatch",
		Leftover:      decimal.NewFromInt(50),
	})

	rq.Contains(text, "Покупка возвращена")
	rq.Contains(text, "nft.near:&lt;2&gt;")
	rq.Contains(text, "PayoutSumMismatch")
	rq.Contains(text, "К возврату токеном:</b> 50")
}
