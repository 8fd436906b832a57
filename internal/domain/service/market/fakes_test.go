package market_test

import (
	"context"
	"errors"
	"sync"

	"github.com/shopspring/decimal"

	"nft_market/internal/domain/entity"
	"nft_market/internal/domain/value"
)

type depositLedger map[value.AccountID]bool

func (d depositLedger) HasStorageDeposit(_ context.Context, account value.AccountID) (bool, error) {
	return d[account], nil
}

type transfer struct {
	Contract value.AccountID
	Receiver value.AccountID
	Amount   string
}

type custody struct {
	mu        sync.Mutex
	transfers []transfer
	fail      bool
}

func (c *custody) TransferNative(_ context.Context, receiver value.AccountID, amount decimal.Decimal) error {
	return c.record(transfer{Receiver: receiver, Amount: amount.String()})
}

func (c *custody) TransferToken(_ context.Context, contract, receiver value.AccountID, amount decimal.Decimal) error {
	return c.record(transfer{Contract: contract, Receiver: receiver, Amount: amount.String()})
}

func (c *custody) record(t transfer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return errors.New("custody unavailable")
	}

	c.transfers = append(c.transfers, t)

	return nil
}

func (c *custody) Transfers() []transfer {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]transfer(nil), c.transfers...)
}

type scheduler struct {
	mu        sync.Mutex
	scheduled []string
	err       error
}

func (s *scheduler) Schedule(_ context.Context, settlement *entity.Settlement) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.scheduled = append(s.scheduled, settlement.ID)

	return nil
}

type notifier struct {
	mu       sync.Mutex
	resolved []*entity.Settlement
}

func (n *notifier) SettlementResolved(_ context.Context, settlement *entity.Settlement) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.resolved = append(n.resolved, settlement)
}
